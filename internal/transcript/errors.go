package transcript

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies why an endpoint could not produce a transcript. The set is
// closed: every adapter failure maps to exactly one Kind.
type Kind int

const (
	KindUnknown Kind = iota
	KindUnreachable
	KindBadStatus
	KindMalformedBody
	KindNoCaptions
	KindNoTrackAvailable
	KindPayloadFetchFailed
)

var (
	ErrUnreachable        = errors.New("endpoint unreachable")
	ErrBadStatus          = errors.New("bad status")
	ErrMalformedBody      = errors.New("malformed body")
	ErrNoCaptions         = errors.New("no captions")
	ErrNoTrackAvailable   = errors.New("no track available")
	ErrPayloadFetchFailed = errors.New("payload fetch failed")

	// ErrConfiguration reports caller misuse (for example an empty endpoint
	// list). It is never produced by an endpoint attempt.
	ErrConfiguration = errors.New("configuration error")
)

func (k Kind) String() string {
	switch k {
	case KindUnreachable:
		return "unreachable"
	case KindBadStatus:
		return "bad_status"
	case KindMalformedBody:
		return "malformed_body"
	case KindNoCaptions:
		return "no_captions"
	case KindNoTrackAvailable:
		return "no_track_available"
	case KindPayloadFetchFailed:
		return "payload_fetch_failed"
	default:
		return "unknown"
	}
}

func (k Kind) marker() error {
	switch k {
	case KindUnreachable:
		return ErrUnreachable
	case KindBadStatus:
		return ErrBadStatus
	case KindMalformedBody:
		return ErrMalformedBody
	case KindNoCaptions:
		return ErrNoCaptions
	case KindNoTrackAvailable:
		return ErrNoTrackAvailable
	case KindPayloadFetchFailed:
		return ErrPayloadFetchFailed
	default:
		return nil
	}
}

// Error is a classified endpoint failure. errors.Is matches it against the
// Err* marker for its Kind as well as against the wrapped cause.
type Error struct {
	Kind     Kind
	Endpoint string
	Op       string
	Status   int
	Err      error
}

func (e *Error) Error() string {
	parts := make([]string, 0, 5)
	if endpoint := strings.TrimSpace(e.Endpoint); endpoint != "" {
		parts = append(parts, endpoint)
	}
	if op := strings.TrimSpace(e.Op); op != "" {
		parts = append(parts, op)
	}
	if marker := e.Kind.marker(); marker != nil {
		parts = append(parts, marker.Error())
	}
	if e.Status > 0 {
		parts = append(parts, statusLine(e.Status))
	}
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	if len(parts) == 0 {
		return "transcript failure"
	}
	return strings.Join(parts, ": ")
}

func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if marker := e.Kind.marker(); marker != nil {
		out = append(out, marker)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// Wrap tags err with kind and operation context.
func Wrap(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// StatusError builds a KindBadStatus-style failure for a non-2xx response.
// detail is an optional excerpt of the response body.
func StatusError(kind Kind, op string, status int, detail string) error {
	e := &Error{Kind: kind, Op: op, Status: status}
	if detail = strings.TrimSpace(detail); detail != "" {
		e.Err = errors.New(detail)
	}
	return e
}

// KindOf returns the Kind carried by err, or KindUnknown.
func KindOf(err error) Kind {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	return KindUnknown
}

// withEndpoint stamps the endpoint on a classified error that lacks one.
func withEndpoint(err error, endpoint Endpoint) error {
	var te *Error
	if !errors.As(err, &te) || te.Endpoint != "" {
		return err
	}
	stamped := *te
	stamped.Endpoint = endpoint.BaseURL
	if te == err {
		return &stamped
	}
	return fmt.Errorf("%s: %w", endpoint.BaseURL, err)
}

// ExhaustedError is returned when no endpoint produced a transcript. Its
// message is the most recent attempt's message; the full history is kept in
// Attempts for diagnostics.
type ExhaustedError struct {
	Attempts []Attempt
}

func (e *ExhaustedError) Error() string {
	last := e.last()
	if last == nil {
		return "no caption endpoints were tried"
	}
	return last.Error()
}

func (e *ExhaustedError) Unwrap() error {
	return e.last()
}

func (e *ExhaustedError) last() error {
	for i := len(e.Attempts) - 1; i >= 0; i-- {
		if e.Attempts[i].Err != nil {
			return e.Attempts[i].Err
		}
	}
	return nil
}

func statusLine(status int) string {
	if text := http.StatusText(status); text != "" {
		return fmt.Sprintf("%d %s", status, text)
	}
	return fmt.Sprintf("status %d", status)
}
