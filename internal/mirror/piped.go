package mirror

import (
	"context"
	"errors"
	"strings"

	"captionrelay/internal/language"
	"captionrelay/internal/transcript"
)

// Piped adapts the "streams" API shape.
type Piped struct {
	client *Client
}

// NewPiped returns a Piped adapter using client for HTTP calls.
func NewPiped(client *Client) *Piped {
	if client == nil {
		client = NewClient(Config{})
	}
	return &Piped{client: client}
}

type pipedStreams struct {
	Subtitles *[]pipedSubtitle `json:"subtitles"`
}

type pipedSubtitle struct {
	URL           string `json:"url"`
	MimeType      string `json:"mimeType"`
	Name          string `json:"name"`
	Code          string `json:"code"`
	AutoGenerated bool   `json:"autoGenerated"`
}

// ListTracks calls GET {base}/streams/{videoID}.
func (p *Piped) ListTracks(ctx context.Context, endpoint transcript.Endpoint, videoID string) ([]transcript.Track, error) {
	const op = "list tracks"
	base, err := parseBase(endpoint)
	if err != nil {
		return nil, err
	}
	segment, err := videoSegment(op, videoID)
	if err != nil {
		return nil, err
	}
	target := base.JoinPath("streams", segment)

	var payload pipedStreams
	if err := p.client.getJSON(ctx, target, op, &payload); err != nil {
		return nil, err
	}
	if payload.Subtitles == nil {
		return nil, transcript.Wrap(transcript.KindMalformedBody, op, errors.New("response has no subtitles field"))
	}

	tracks := make([]transcript.Track, 0, len(*payload.Subtitles))
	for _, sub := range *payload.Subtitles {
		source, ok := resolve(base, sub.URL)
		if !ok {
			continue
		}
		code := strings.TrimSpace(sub.Code)
		if code == "" {
			code = language.FromLabel(sub.Name)
		}
		tracks = append(tracks, transcript.Track{
			LanguageCode:  code,
			Label:         strings.TrimSpace(sub.Name),
			SourceURL:     source,
			AutoGenerated: sub.AutoGenerated,
		})
	}
	if len(tracks) == 0 {
		return nil, &transcript.Error{Kind: transcript.KindNoCaptions, Op: op}
	}
	return tracks, nil
}

// FetchPayload downloads the track's subtitle file.
func (p *Piped) FetchPayload(ctx context.Context, track transcript.Track) (string, error) {
	return p.client.fetchPayload(ctx, track)
}
