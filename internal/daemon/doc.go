// Package daemon runs the long-lived captionrelay HTTP server.
//
// It wires configuration and the transcript service into a single lifecycle
// with flock-based locking to prevent two servers from sharing a lock path,
// and owns the HTTP handlers: GET /transcript, GET /healthz and
// GET /api/endpoints. Every request is stamped with an X-Request-ID that also
// appears on each log line emitted while serving it.
//
// Keep transcript logic out of this package: handlers translate HTTP to
// transcript.Service calls and back, nothing more.
package daemon
