// Package mirror implements transcript.Provider for the two caption mirror
// API shapes captionrelay understands.
//
// Piped speaks the "streams" shape (GET /streams/{id}, subtitles list) and
// Invidious the "video metadata" shape (GET /api/v1/videos/{id}, captions
// list). Both share a Client that bounds each HTTP call by a per-call timeout,
// caps response sizes, and classifies failures into transcript.Kind values so
// the orchestrator can decide to fall back without inspecting transport
// details.
package mirror
