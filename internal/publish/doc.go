// Package publish decides where derivatives are served from.
//
// The Local publisher keeps derivatives on disk and locates them by their
// site-relative path. The S3 publisher uploads each derivative to an
// S3-compatible bucket, skipping objects that already exist, and locates it
// by its public URL.
package publish
