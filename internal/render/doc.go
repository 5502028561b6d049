// Package render turns a source image into resized, re-encoded derivatives.
//
// An Engine reads source dimensions from image headers (cached across calls),
// decodes each source at most once, and writes every derivative whole-file
// through a temp file and rename. A derivative file that already exists is
// treated as complete and reused without being read.
package render
