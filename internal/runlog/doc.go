// Package runlog keeps a SQLite history of pipeline runs.
//
// Each run stores its counters and final status, plus one row per skipped
// source or derivative so failures can be inspected after the terminal
// output has scrolled away.
package runlog
