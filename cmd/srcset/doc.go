// Package main hosts the srcset CLI entrypoint and command graph.
//
// The Cobra-based command tree runs the derivative pipeline, inspects the
// manifest and run history, renders <picture> markup, rewrites HTML, and
// scaffolds configuration. It centralizes configuration resolution, remote
// settings capture, and logger setup so subcommands stay declarative while the
// heavy lifting lives in the internal packages.
package main
