package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"captionrelay/internal/api"
	"captionrelay/internal/config"
	"captionrelay/internal/logging"
	"captionrelay/internal/services"
	"captionrelay/internal/transcript"
)

type transcriberStub struct {
	result    transcript.Result
	err       error
	gotID     string
	gotReqID  string
	calls     int
	endpoints []transcript.Endpoint
}

func (s *transcriberStub) Transcript(ctx context.Context, videoID string) (transcript.Result, error) {
	s.calls++
	s.gotID = videoID
	s.gotReqID, _ = services.RequestIDFromContext(ctx)
	return s.result, s.err
}

func (s *transcriberStub) Endpoints() []transcript.Endpoint {
	return s.endpoints
}

func newTestServer(t *testing.T, stub *transcriberStub, logs *bytes.Buffer) http.Handler {
	t.Helper()
	cfg := config.Default()
	logger := logging.NewNop()
	if logs != nil {
		var err error
		logger, err = logging.New(logging.Options{Format: "json", Level: "info", Writer: logs})
		if err != nil {
			t.Fatalf("logging.New: %v", err)
		}
	}
	return newAPIServer(&cfg, stub, 1, logger).handler()
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected json content type, got %q", ct)
	}
	if err := json.Unmarshal(w.Body.Bytes(), dst); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
}

func TestHandleTranscriptMissingVideoID(t *testing.T) {
	stub := &transcriberStub{}
	handler := newTestServer(t, stub, nil)

	for _, target := range []string{"/transcript", "/transcript?video_id=", "/transcript?video_id=%20%20"} {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", target, w.Code)
		}
		var resp api.ErrorResponse
		decodeBody(t, w, &resp)
		if resp.Error != "No video_id provided" {
			t.Fatalf("unexpected error message %q", resp.Error)
		}
	}
	if stub.calls != 0 {
		t.Fatalf("service must not be called without a video id, got %d calls", stub.calls)
	}
}

func TestHandleTranscriptSuccess(t *testing.T) {
	stub := &transcriberStub{result: transcript.Result{Text: "Hello world", Source: "https://m.example", Language: "en"}}
	handler := newTestServer(t, stub, nil)

	req := httptest.NewRequest(http.MethodGet, "/transcript?video_id=abc123", nil)
	req.Header.Set(requestIDHeader, "req-42")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp map[string]any
	decodeBody(t, w, &resp)
	if resp["transcript"] != "Hello world" {
		t.Fatalf("unexpected body %v", resp)
	}
	if len(resp) != 1 {
		t.Fatalf("basic response should only carry transcript, got %v", resp)
	}
	if stub.gotID != "abc123" {
		t.Fatalf("unexpected video id %q", stub.gotID)
	}
	if stub.gotReqID != "req-42" || w.Header().Get(requestIDHeader) != "req-42" {
		t.Fatalf("request id not propagated: ctx=%q header=%q", stub.gotReqID, w.Header().Get(requestIDHeader))
	}
}

func TestHandleTranscriptFailure(t *testing.T) {
	last := transcript.Wrap(transcript.KindNoCaptions, "list tracks", nil)
	attempts := []transcript.Attempt{{Endpoint: transcript.Endpoint{BaseURL: "https://m.example", Kind: transcript.ProviderPiped}, Err: last}}
	stub := &transcriberStub{result: transcript.Result{Attempts: attempts, Err: &transcript.ExhaustedError{Attempts: attempts}}}
	var logs bytes.Buffer
	handler := newTestServer(t, stub, &logs)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/transcript?video_id=abc", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	var resp api.ErrorResponse
	decodeBody(t, w, &resp)
	if resp.Error != last.Error() {
		t.Fatalf("expected last error as reason, got %q", resp.Error)
	}
	if !strings.Contains(logs.String(), "transcript_unavailable") {
		t.Fatalf("expected failure warning in logs, got %s", logs.String())
	}
}

func TestHandleTranscriptDetail(t *testing.T) {
	stub := &transcriberStub{result: transcript.Result{Text: "pinned", Source: transcript.SourceOverride}}
	handler := newTestServer(t, stub, nil)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/transcript?video_id=abc&detail=1", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp api.TranscriptDetail
	decodeBody(t, w, &resp)
	if resp.Transcript != "pinned" || resp.Source != "override" || resp.VideoID != "abc" {
		t.Fatalf("unexpected detail %+v", resp)
	}
}

func TestHandleTranscriptMisuse(t *testing.T) {
	stub := &transcriberStub{err: errors.New("configuration error: no caption endpoints configured")}
	handler := newTestServer(t, stub, nil)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/transcript?video_id=abc", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	handler := newTestServer(t, &transcriberStub{}, nil)
	for _, path := range []string{"/transcript", "/healthz", "/api/endpoints"} {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, path, nil))
		if w.Code != http.StatusMethodNotAllowed {
			t.Fatalf("%s: expected 405, got %d", path, w.Code)
		}
		if w.Header().Get("Allow") == "" {
			t.Fatalf("%s: expected Allow header", path)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	stub := &transcriberStub{}
	handler := newTestServer(t, stub, nil)

	req := httptest.NewRequest(http.MethodOptions, "/transcript", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("unexpected allow origin %q", got)
	}
	if stub.calls != 0 {
		t.Fatal("preflight must not reach the service")
	}
}

func TestCORSHeadersOnResponses(t *testing.T) {
	handler := newTestServer(t, &transcriberStub{}, nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatal("expected CORS header on regular responses")
	}
	if w.Header().Get(requestIDHeader) == "" {
		t.Fatal("expected generated request id")
	}
}

func TestHandleHealthAndEndpoints(t *testing.T) {
	stub := &transcriberStub{endpoints: []transcript.Endpoint{
		{BaseURL: "https://a.example", Kind: transcript.ProviderPiped},
		{BaseURL: "https://b.example", Kind: transcript.ProviderInvidious},
	}}
	handler := newTestServer(t, stub, nil)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	var health api.HealthResponse
	decodeBody(t, w, &health)
	if health.Status != "ok" || health.Endpoints != 2 {
		t.Fatalf("unexpected health %+v", health)
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/endpoints", nil))
	var list api.EndpointListResponse
	decodeBody(t, w, &list)
	if len(list.Endpoints) != 2 || list.Endpoints[1].URL != "https://b.example" || list.Overrides != 1 {
		t.Fatalf("unexpected endpoint list %+v", list)
	}
}

func TestUnknownPathIsJSON404(t *testing.T) {
	handler := newTestServer(t, &transcriberStub{}, nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	var resp api.ErrorResponse
	decodeBody(t, w, &resp)
}

func TestOversizedRequestIDIsReplaced(t *testing.T) {
	handler := newTestServer(t, &transcriberStub{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, strings.Repeat("x", maxRequestIDLength+1))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if got := w.Header().Get(requestIDHeader); len(got) > maxRequestIDLength || got == "" {
		t.Fatalf("expected replacement request id, got %q", got)
	}
}

func TestHandleTranscriptRejectsDotSegmentIDs(t *testing.T) {
	stub := &transcriberStub{}
	handler := newTestServer(t, stub, nil)

	for _, id := range []string{".", ".."} {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/transcript?video_id="+id, nil))
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%q: expected 400, got %d", id, w.Code)
		}
		var resp api.ErrorResponse
		decodeBody(t, w, &resp)
		if resp.Error != invalidVideoID {
			t.Fatalf("unexpected error message %q", resp.Error)
		}
	}
	if stub.calls != 0 {
		t.Fatalf("service must not be called for dot segments, got %d calls", stub.calls)
	}
}
