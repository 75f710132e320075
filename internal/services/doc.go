// Package services defines request-scoped helpers shared by the HTTP API,
// the CLI, and the transcript orchestrator.
//
// The context helpers stamp correlation identifiers and the requested video
// ID so every log line emitted while serving a request can be tied back to
// it without threading extra parameters through each layer.
package services
