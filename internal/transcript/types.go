package transcript

import (
	"context"
	"fmt"
	"strings"
)

// ProviderKind names the upstream API shape an endpoint speaks.
type ProviderKind string

const (
	// ProviderPiped is the "streams" shape: GET /streams/{id} with a subtitles list.
	ProviderPiped ProviderKind = "piped"
	// ProviderInvidious is the "video metadata" shape: GET /api/v1/videos/{id} with a captions list.
	ProviderInvidious ProviderKind = "invidious"
)

// ParseProviderKind accepts the canonical names plus the "a"/"b" shorthands.
func ParseProviderKind(value string) (ProviderKind, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "piped", "a":
		return ProviderPiped, nil
	case "invidious", "b":
		return ProviderInvidious, nil
	default:
		return "", fmt.Errorf("unknown provider kind %q (want piped or invidious)", value)
	}
}

// Endpoint is one configured mirror instance.
type Endpoint struct {
	BaseURL string
	Kind    ProviderKind
}

func (e Endpoint) String() string {
	return e.BaseURL
}

// Track is one caption stream offered for a video. SourceURL is always
// absolute; adapters resolve root-relative links before returning.
type Track struct {
	LanguageCode  string
	Label         string
	SourceURL     string
	AutoGenerated bool
}

// Provider adapts one upstream API shape to the Track model.
type Provider interface {
	ListTracks(ctx context.Context, endpoint Endpoint, videoID string) ([]Track, error)
	FetchPayload(ctx context.Context, track Track) (string, error)
}

// SourceOverride marks a Result served from the override table.
const SourceOverride = "override"

// Attempt records the outcome of one endpoint within a request.
type Attempt struct {
	Endpoint Endpoint
	Err      error
}

// Result is the outcome of a transcript request. Exactly one of Text or Err
// is meaningful; Text is never partial.
type Result struct {
	Text     string
	Source   string
	Language string
	Attempts []Attempt
	Err      error
}

// OK reports whether the request produced a transcript.
func (r Result) OK() bool {
	return r.Err == nil
}

// Reason returns the failure message, or "" on success.
func (r Result) Reason() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}
