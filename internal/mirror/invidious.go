package mirror

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"captionrelay/internal/language"
	"captionrelay/internal/transcript"
)

const autoGeneratedMarker = "auto-generated"

// Invidious adapts the "video metadata" API shape.
type Invidious struct {
	client *Client
}

// NewInvidious returns an Invidious adapter using client for HTTP calls.
func NewInvidious(client *Client) *Invidious {
	if client == nil {
		client = NewClient(Config{})
	}
	return &Invidious{client: client}
}

type invidiousVideo struct {
	Captions *[]invidiousCaption `json:"captions"`
}

type invidiousCaption struct {
	Label           string `json:"label"`
	LanguageCode    string `json:"languageCode"`
	LanguageCodeAlt string `json:"language_code"`
	URL             string `json:"url"`
}

func (c invidiousCaption) code() string {
	if code := strings.TrimSpace(c.LanguageCode); code != "" {
		return code
	}
	if code := strings.TrimSpace(c.LanguageCodeAlt); code != "" {
		return code
	}
	return language.FromLabel(c.Label)
}

// ListTracks calls GET {base}/api/v1/videos/{videoID}?fields=captions.
func (v *Invidious) ListTracks(ctx context.Context, endpoint transcript.Endpoint, videoID string) ([]transcript.Track, error) {
	const op = "list tracks"
	base, err := parseBase(endpoint)
	if err != nil {
		return nil, err
	}
	segment, err := videoSegment(op, videoID)
	if err != nil {
		return nil, err
	}
	target := base.JoinPath("api", "v1", "videos", segment)
	target.RawQuery = url.Values{"fields": {"captions"}}.Encode()

	var payload invidiousVideo
	if err := v.client.getJSON(ctx, target, op, &payload); err != nil {
		return nil, err
	}
	if payload.Captions == nil {
		return nil, transcript.Wrap(transcript.KindMalformedBody, op, errors.New("response has no captions field"))
	}

	tracks := make([]transcript.Track, 0, len(*payload.Captions))
	for _, caption := range *payload.Captions {
		source, ok := resolve(base, caption.URL)
		if !ok {
			continue
		}
		label := strings.TrimSpace(caption.Label)
		tracks = append(tracks, transcript.Track{
			LanguageCode:  caption.code(),
			Label:         label,
			SourceURL:     source,
			AutoGenerated: strings.Contains(strings.ToLower(label), autoGeneratedMarker),
		})
	}
	if len(tracks) == 0 {
		return nil, &transcript.Error{Kind: transcript.KindNoCaptions, Op: op}
	}
	return tracks, nil
}

// FetchPayload downloads the track's caption file.
func (v *Invidious) FetchPayload(ctx context.Context, track transcript.Track) (string, error) {
	return v.client.fetchPayload(ctx, track)
}
