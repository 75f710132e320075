package transcript

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"captionrelay/internal/logging"
	"captionrelay/internal/services"
)

// Options configures a Service.
type Options struct {
	// Endpoints are tried in order; the list is copied.
	Endpoints []Endpoint
	// Providers maps each endpoint kind to its adapter.
	Providers map[ProviderKind]Provider
	// Overrides may be nil.
	Overrides *Overrides
	Logger    *slog.Logger
}

// Service resolves video identifiers to transcripts.
type Service struct {
	endpoints []Endpoint
	providers map[ProviderKind]Provider
	overrides *Overrides
	logger    *slog.Logger
}

// New validates opts and builds a Service. It fails with ErrConfiguration
// when no endpoints are configured or an endpoint's kind has no provider.
func New(opts Options) (*Service, error) {
	if len(opts.Endpoints) == 0 {
		return nil, fmt.Errorf("%w: no caption endpoints configured", ErrConfiguration)
	}
	endpoints := make([]Endpoint, len(opts.Endpoints))
	copy(endpoints, opts.Endpoints)

	providers := make(map[ProviderKind]Provider, len(opts.Providers))
	for kind, provider := range opts.Providers {
		if provider != nil {
			providers[kind] = provider
		}
	}
	for _, endpoint := range endpoints {
		if strings.TrimSpace(endpoint.BaseURL) == "" {
			return nil, fmt.Errorf("%w: endpoint with empty base url", ErrConfiguration)
		}
		if _, ok := providers[endpoint.Kind]; !ok {
			return nil, fmt.Errorf("%w: no provider for %q endpoint %s", ErrConfiguration, endpoint.Kind, endpoint.BaseURL)
		}
	}

	return &Service{
		endpoints: endpoints,
		providers: providers,
		overrides: opts.Overrides,
		logger:    logging.NewComponentLogger(opts.Logger, "transcript"),
	}, nil
}

// Endpoints returns a copy of the configured endpoint list in priority order.
func (s *Service) Endpoints() []Endpoint {
	out := make([]Endpoint, len(s.endpoints))
	copy(out, s.endpoints)
	return out
}

// Transcript returns the transcript for videoID. Endpoint failures are
// reported through Result.Err; the error return is reserved for misuse,
// such as calling Transcript on a Service with no endpoints.
func (s *Service) Transcript(ctx context.Context, videoID string) (Result, error) {
	if s == nil {
		return Result{}, fmt.Errorf("%w: nil service", ErrConfiguration)
	}
	ctx = services.WithVideoID(ctx, videoID)
	logger := logging.WithContext(ctx, s.logger)

	if text, ok := s.overrides.Lookup(videoID); ok {
		logger.Info("transcript served from override table", logging.Int("chars", len(text)))
		return Result{Text: text, Source: SourceOverride}, nil
	}
	if len(s.endpoints) == 0 {
		return Result{}, fmt.Errorf("%w: no caption endpoints configured", ErrConfiguration)
	}

	attempts := make([]Attempt, 0, len(s.endpoints))
	for _, endpoint := range s.endpoints {
		if err := ctx.Err(); err != nil {
			attempts = append(attempts, Attempt{Endpoint: endpoint, Err: err})
			break
		}

		text, lang, err := s.attempt(ctx, endpoint, videoID)
		if err == nil {
			attrs := logging.EndpointAttrs(endpoint.BaseURL, string(endpoint.Kind), "")
			attrs = append(attrs,
				logging.String("language", lang),
				logging.Int("chars", len(text)),
				logging.Int("attempt", len(attempts)+1),
			)
			logger.Info("transcript fetched", logging.Args(attrs...)...)
			return Result{Text: text, Source: endpoint.BaseURL, Language: lang, Attempts: attempts}, nil
		}

		err = withEndpoint(err, endpoint)
		impact := "falling back to next endpoint"
		ctxErr := ctx.Err()
		if ctxErr != nil {
			impact = "request abandoned"
			if !errors.Is(err, ctxErr) {
				err = fmt.Errorf("%w: %w", ctxErr, err)
			}
		}
		attempts = append(attempts, Attempt{Endpoint: endpoint, Err: err})
		attrs := logging.EndpointAttrs(endpoint.BaseURL, string(endpoint.Kind), KindOf(err).String())
		attrs = append(attrs,
			logging.Error(err),
			logging.String(logging.FieldErrorHint, hintFor(KindOf(err))),
			logging.String(logging.FieldImpact, impact),
		)
		logging.WarnWithContext(logger, "caption endpoint failed", "endpoint_failed", attrs...)
		if ctxErr != nil {
			break
		}
	}

	return Result{Attempts: attempts, Err: &ExhaustedError{Attempts: attempts}}, nil
}

// attempt runs the full pipeline against one endpoint.
func (s *Service) attempt(ctx context.Context, endpoint Endpoint, videoID string) (string, string, error) {
	provider := s.providers[endpoint.Kind]
	if provider == nil {
		return "", "", fmt.Errorf("%w: no provider for %q", ErrConfiguration, endpoint.Kind)
	}

	tracks, err := provider.ListTracks(ctx, endpoint, videoID)
	if err != nil {
		return "", "", err
	}
	track, err := SelectTrack(tracks)
	if err != nil {
		return "", "", err
	}
	s.logger.Debug("caption track selected",
		logging.String(logging.FieldEndpoint, endpoint.BaseURL),
		logging.String("language", track.LanguageCode),
		logging.String("label", track.Label),
		logging.Bool("auto_generated", track.AutoGenerated),
		logging.Int("candidates", len(tracks)),
	)

	raw, err := provider.FetchPayload(ctx, track)
	if err != nil {
		return "", "", err
	}
	text := Clean(raw)
	if text == "" {
		return "", "", Wrap(KindPayloadFetchFailed, "clean payload", errors.New("empty transcript"))
	}
	return text, track.LanguageCode, nil
}

func hintFor(kind Kind) string {
	switch kind {
	case KindUnreachable:
		return "mirror did not answer in time; check connectivity or drop it from [[endpoints]]"
	case KindBadStatus:
		return "mirror rejected the request; it may be rate limiting or down"
	case KindMalformedBody:
		return "mirror response did not match its API shape; check the endpoint kind"
	case KindNoCaptions, KindNoTrackAvailable:
		return "video has no captions on this mirror"
	case KindPayloadFetchFailed:
		return "caption file could not be downloaded or was empty"
	default:
		return "check logs for details"
	}
}
