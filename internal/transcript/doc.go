// Package transcript resolves a video identifier to plain transcript text by
// walking an ordered list of caption mirrors.
//
// The Service consults a fixed override table first, then tries each
// configured Endpoint in order: the Provider registered for the endpoint's
// API shape lists caption tracks, SelectTrack picks one, the Provider fetches
// the raw WebVTT payload and Clean flattens it into a single line of prose.
// The first endpoint that yields non-empty text wins; every failure is
// classified into a closed set of Kinds and the walk moves on.
//
// Everything in this package is read-only after construction, so a single
// Service can serve concurrent requests without locking.
package transcript
