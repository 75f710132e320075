package mirror

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"captionrelay/internal/transcript"
)

const (
	defaultUserAgent = "captionrelay/dev"
	defaultTimeout   = 5 * time.Second

	maxListingBytes = 2 << 20
	maxPayloadBytes = 8 << 20
	errorBodyBytes  = 512
)

var errBodyTooLarge = errors.New("response body too large")

// Config describes the shared HTTP behaviour of the mirror adapters.
type Config struct {
	// Timeout bounds each individual HTTP call, including the body read.
	Timeout    time.Duration
	UserAgent  string
	HTTPClient *http.Client
}

// Client is the HTTP plumbing shared by Piped and Invidious.
type Client struct {
	userAgent string
	timeout   time.Duration
	http      *http.Client
}

// NewClient creates a Client from the supplied configuration.
func NewClient(cfg Config) *Client {
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	return &Client{
		userAgent: userAgent,
		timeout:   timeout,
		http:      client,
	}
}

// Providers returns the adapter table keyed by provider kind.
func (c *Client) Providers() map[transcript.ProviderKind]transcript.Provider {
	return map[transcript.ProviderKind]transcript.Provider{
		transcript.ProviderPiped:     NewPiped(c),
		transcript.ProviderInvidious: NewInvidious(c),
	}
}

// Timeout reports the per-call bound.
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

type response struct {
	status int
	body   []byte
}

// get performs one bounded GET. Only transport and read failures are
// returned as errors; status handling is left to the caller.
func (c *Client) get(ctx context.Context, target string, accept string, limit int64) (response, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodGet, target, nil)
	if err != nil {
		return response{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", accept)

	resp, err := c.http.Do(req)
	if err != nil {
		return response{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyBytes))
		return response{status: resp.StatusCode, body: snippet}, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return response{}, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > limit {
		return response{}, fmt.Errorf("%w (limit %d bytes)", errBodyTooLarge, limit)
	}
	return response{status: resp.StatusCode, body: body}, nil
}

func (r response) ok() bool {
	return r.status >= 200 && r.status < 300
}

// getJSON fetches a track listing and decodes it into dst.
func (c *Client) getJSON(ctx context.Context, target *url.URL, op string, dst any) error {
	resp, err := c.get(ctx, target.String(), "application/json", maxListingBytes)
	if err != nil {
		if errors.Is(err, errBodyTooLarge) {
			return transcript.Wrap(transcript.KindMalformedBody, op, err)
		}
		return transcript.Wrap(transcript.KindUnreachable, op, err)
	}
	if !resp.ok() {
		return transcript.StatusError(transcript.KindBadStatus, op, resp.status, string(resp.body))
	}
	if err := json.Unmarshal(resp.body, dst); err != nil {
		return transcript.Wrap(transcript.KindMalformedBody, op, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// fetchPayload downloads a subtitle payload. Every failure is reported as
// KindPayloadFetchFailed wrapping the underlying cause.
func (c *Client) fetchPayload(ctx context.Context, track transcript.Track) (string, error) {
	const op = "fetch payload"
	target := strings.TrimSpace(track.SourceURL)
	if target == "" {
		return "", transcript.Wrap(transcript.KindPayloadFetchFailed, op, errors.New("track has no source url"))
	}
	parsed, err := url.Parse(target)
	if err != nil || !parsed.IsAbs() {
		return "", transcript.Wrap(transcript.KindPayloadFetchFailed, op, fmt.Errorf("invalid source url %q", target))
	}
	resp, err := c.get(ctx, parsed.String(), "text/vtt, text/plain;q=0.9, */*;q=0.1", maxPayloadBytes)
	if err != nil {
		return "", transcript.Wrap(transcript.KindPayloadFetchFailed, op, err)
	}
	if !resp.ok() {
		return "", transcript.StatusError(transcript.KindPayloadFetchFailed, op, resp.status, string(resp.body))
	}
	return string(resp.body), nil
}

func parseBase(endpoint transcript.Endpoint) (*url.URL, error) {
	base, err := url.Parse(strings.TrimSpace(endpoint.BaseURL))
	if err != nil {
		return nil, transcript.Wrap(transcript.KindUnreachable, "parse base url", err)
	}
	if !base.IsAbs() || base.Host == "" {
		return nil, transcript.Wrap(transcript.KindUnreachable, "parse base url", fmt.Errorf("base url %q is not absolute", endpoint.BaseURL))
	}
	return base, nil
}

// resolve turns a possibly root-relative caption link into an absolute URL.
func resolve(base *url.URL, ref string) (string, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", false
	}
	parsed, err := url.Parse(ref)
	if err != nil {
		return "", false
	}
	return base.ResolveReference(parsed).String(), true
}

// videoSegment escapes videoID for use as one path segment. Dot segments
// would be cleaned away by JoinPath and hit a different resource, so they
// are refused without a network call.
func videoSegment(op, videoID string) (string, error) {
	switch strings.TrimSpace(videoID) {
	case "", ".", "..":
		return "", transcript.Wrap(transcript.KindNoCaptions, op, fmt.Errorf("invalid video id %q", videoID))
	}
	return url.PathEscape(videoID), nil
}
