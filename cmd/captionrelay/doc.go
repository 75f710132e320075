// Package main hosts the captionrelay CLI entrypoint and command graph.
//
// The Cobra command tree runs the HTTP server, performs one-off transcript
// lookups against the configured mirrors, lists the endpoint order and
// scaffolds configuration. Configuration resolution and logger setup live
// in the command context so subcommands only deal with presentation.
package main
