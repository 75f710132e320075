package api

import (
	"context"
	"errors"

	"captionrelay/internal/transcript"
)

// FromResult converts a transcript result into the detail view.
func FromResult(videoID string, result transcript.Result) TranscriptDetail {
	detail := TranscriptDetail{
		VideoID:  videoID,
		Attempts: FromAttempts(result.Attempts),
	}
	if result.OK() {
		detail.Transcript = result.Text
		detail.Source = result.Source
		detail.Language = result.Language
		return detail
	}
	detail.Error = result.Reason()
	return detail
}

// FromAttempts converts the attempt history; it never returns nil so the
// JSON field is always an array.
func FromAttempts(attempts []transcript.Attempt) []Attempt {
	out := make([]Attempt, 0, len(attempts))
	for _, attempt := range attempts {
		view := Attempt{
			Endpoint: attempt.Endpoint.BaseURL,
			Provider: string(attempt.Endpoint.Kind),
			Kind:     transcript.KindOf(attempt.Err).String(),
		}
		if attempt.Err != nil {
			view.Message = attempt.Err.Error()
			if view.Kind == transcript.KindUnknown.String() && isContextError(attempt.Err) {
				view.Kind = "cancelled"
			}
		}
		out = append(out, view)
	}
	return out
}

// FromEndpoints lists endpoints in priority order, starting at 1.
func FromEndpoints(endpoints []transcript.Endpoint) []Endpoint {
	out := make([]Endpoint, 0, len(endpoints))
	for i, endpoint := range endpoints {
		out = append(out, Endpoint{
			Priority: i + 1,
			URL:      endpoint.BaseURL,
			Provider: string(endpoint.Kind),
		})
	}
	return out
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
