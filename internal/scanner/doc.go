// Package scanner enumerates the source images under the input root.
//
// Paths are returned relative to the root in slash form and sorted, so the
// order of work (and the manifest that results from it) does not depend on
// directory listing order.
package scanner
