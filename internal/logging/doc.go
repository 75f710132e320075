// Package logging assembles the structured slog loggers used by the
// captionrelay server and CLI.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so request handling code can
// tag log lines with the request ID and video ID automatically. NewNop
// provides a logger for tests and wiring code that cannot fail.
package logging
