package api

// TranscriptResponse is the success body of GET /transcript.
type TranscriptResponse struct {
	Transcript string `json:"transcript"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// TranscriptDetail is returned by GET /transcript?detail=1. Exactly one of
// Transcript or Error is set.
type TranscriptDetail struct {
	Transcript string    `json:"transcript,omitempty"`
	Error      string    `json:"error,omitempty"`
	VideoID    string    `json:"videoId"`
	Source     string    `json:"source,omitempty"`
	Language   string    `json:"language,omitempty"`
	Attempts   []Attempt `json:"attempts"`
}

// Attempt describes one failed endpoint within a request.
type Attempt struct {
	Endpoint string `json:"endpoint"`
	Provider string `json:"provider"`
	Kind     string `json:"kind"`
	Message  string `json:"message"`
}

// Endpoint describes one configured mirror.
type Endpoint struct {
	Priority int    `json:"priority"`
	URL      string `json:"url"`
	Provider string `json:"provider"`
}

// EndpointListResponse is the body of GET /api/endpoints.
type EndpointListResponse struct {
	Endpoints []Endpoint `json:"endpoints"`
	Overrides int        `json:"overrides"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status    string `json:"status"`
	Endpoints int    `json:"endpoints"`
}
