package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"captionrelay/internal/api"
	"captionrelay/internal/config"
	"captionrelay/internal/logging"
	"captionrelay/internal/services"
)

const (
	requestIDHeader    = "X-Request-ID"
	maxRequestIDLength = 128
	missingVideoID     = "No video_id provided"
	invalidVideoID     = "Invalid video_id"
)

type apiServer struct {
	bind         string
	corsOrigin   string
	logger       *slog.Logger
	service      Transcriber
	overrides    int
	readTimeout  time.Duration
	writeTimeout time.Duration

	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, service Transcriber, overrides int, logger *slog.Logger) *apiServer {
	return &apiServer{
		bind:         strings.TrimSpace(cfg.Server.Bind),
		corsOrigin:   cfg.Server.CORSOrigin,
		logger:       logger,
		service:      service,
		overrides:    overrides,
		readTimeout:  cfg.ReadTimeout(),
		writeTimeout: cfg.WriteTimeout(),
	}
}

// newHTTPServer builds a fresh http.Server; a shut-down server cannot be
// reused, so every start gets its own.
func (s *apiServer) newHTTPServer() *http.Server {
	return &http.Server{
		Handler:           s.handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       s.readTimeout,
		WriteTimeout:      s.writeTimeout,
		IdleTimeout:       60 * time.Second,
	}
}

func (s *apiServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/transcript", s.handleTranscript)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/api/endpoints", s.handleEndpoints)
	mux.HandleFunc("/", s.handleNotFound)
	return s.withRequestContext(mux)
}

func (s *apiServer) start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	server := s.newHTTPServer()
	s.mu.Lock()
	s.listener = listener
	s.server = server
	s.mu.Unlock()

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.ErrorWithContext(s.log(), "api server error", "api_serve_failed", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	s.mu.Lock()
	server := s.server
	s.server = nil
	s.mu.Unlock()

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

// address reports the bound listener address, or the configured bind when
// the server is not listening.
func (s *apiServer) address() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.bind
}

// withRequestContext assigns request IDs, answers CORS preflight and writes
// one access log line per request.
func (s *apiServer) withRequestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if requestID == "" || len(requestID) > maxRequestIDLength {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)
		s.applyCORS(w)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		ctx := services.WithRequestID(r.Context(), requestID)
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(recorder, r.WithContext(ctx))

		level := slog.LevelInfo
		if r.URL.Path == "/healthz" {
			level = slog.LevelDebug
		}
		logging.WithContext(ctx, s.log()).Log(ctx, level, "http request",
			logging.Args(
				logging.String("method", r.Method),
				logging.String("path", r.URL.Path),
				logging.Int("status", recorder.status),
				logging.Duration("duration", time.Since(start)),
			)...,
		)
	})
}

func (s *apiServer) applyCORS(w http.ResponseWriter) {
	origin := s.corsOrigin
	if origin == "" {
		return
	}
	header := w.Header()
	header.Set("Access-Control-Allow-Origin", origin)
	if origin != "*" {
		header.Add("Vary", "Origin")
	}
	header.Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	header.Set("Access-Control-Allow-Headers", "Content-Type, "+requestIDHeader)
	header.Set("Access-Control-Expose-Headers", requestIDHeader)
}

func (s *apiServer) handleTranscript(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeMethodNotAllowed(w)
		return
	}
	query := r.URL.Query()
	videoID := strings.TrimSpace(query.Get("video_id"))
	if videoID == "" {
		s.writeError(w, http.StatusBadRequest, missingVideoID)
		return
	}
	if videoID == "." || videoID == ".." {
		s.writeError(w, http.StatusBadRequest, invalidVideoID)
		return
	}
	detail := flagValue(query.Get("detail"))

	ctx := services.WithVideoID(r.Context(), videoID)
	result, err := s.service.Transcript(ctx, videoID)
	if err != nil {
		logging.ErrorWithContext(logging.WithContext(ctx, s.log()), "transcript service misconfigured", "transcript_misuse",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check [[endpoints]] in the config"),
		)
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if !result.OK() {
		logging.WarnWithContext(logging.WithContext(ctx, s.log()), "transcript unavailable", "transcript_unavailable",
			logging.String("reason", result.Reason()),
			logging.Int("attempts", len(result.Attempts)),
			logging.String(logging.FieldErrorHint, "every configured mirror failed; see endpoint warnings above"),
			logging.String(logging.FieldImpact, "client receives HTTP 500"),
		)
		if detail {
			s.writeJSON(w, http.StatusInternalServerError, api.FromResult(videoID, result))
			return
		}
		s.writeError(w, http.StatusInternalServerError, result.Reason())
		return
	}

	if detail {
		s.writeJSON(w, http.StatusOK, api.FromResult(videoID, result))
		return
	}
	s.writeJSON(w, http.StatusOK, api.TranscriptResponse{Transcript: result.Text})
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeMethodNotAllowed(w)
		return
	}
	s.writeJSON(w, http.StatusOK, api.HealthResponse{
		Status:    "ok",
		Endpoints: len(s.service.Endpoints()),
	})
}

func (s *apiServer) handleEndpoints(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeMethodNotAllowed(w)
		return
	}
	s.writeJSON(w, http.StatusOK, api.EndpointListResponse{
		Endpoints: api.FromEndpoints(s.service.Endpoints()),
		Overrides: s.overrides,
	})
}

func (s *apiServer) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.writeError(w, http.StatusNotFound, "not found")
}

func (s *apiServer) writeMethodNotAllowed(w http.ResponseWriter) {
	w.Header().Set("Allow", "GET, OPTIONS")
	s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, api.ErrorResponse{Error: message})
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return s.logger.With(logging.String(logging.FieldComponent, "api-server"))
	}
	return logging.NewNop()
}

func flagValue(value string) bool {
	value = strings.TrimSpace(value)
	return value == "1" || strings.EqualFold(value, "true")
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
