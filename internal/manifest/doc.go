// Package manifest persists the mapping from source images to their
// published derivatives.
//
// The on-disk form is a JSON object keyed by source path (relative to the
// input root, slash form). Each value maps a format name to the derivatives
// of that format, sorted by ascending width:
//
//	{"photo.jpg": {"webp": [{"width": 640, "path": "assets/processed/photo-640.webp"}]}}
//
// A Store loads the file once, accepts merges from concurrent workers, and
// writes the result back atomically with Save. Lock and Unlock guard the file
// against a second process running the pipeline at the same time.
package manifest
