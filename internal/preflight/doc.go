// Package preflight provides readiness checks for the paths and object store
// a pipeline run depends on.
//
// The CLI "srcset check" command runs RunAll and prints one line per check.
// Checks never modify anything; directories that a run would create are
// reported as passing when their nearest existing parent is writable.
package preflight
