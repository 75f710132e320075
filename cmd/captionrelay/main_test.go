package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"captionrelay/internal/api"
)

type cliTestEnv struct {
	home       string
	configPath string
	mirror     *httptest.Server
}

// setupCLITestEnv isolates HOME and the environment and writes a config
// whose only endpoint is a local Piped-shaped stub. Videos named "missing"
// have no captions.
func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, key := range []string{"CAPTIONRELAY_BIND", "PORT", "CAPTIONRELAY_ENDPOINTS", "CAPTIONRELAY_TIMEOUT", "CAPTIONRELAY_LOG_LEVEL"} {
		t.Setenv(key, "")
	}
	t.Chdir(home)

	var mirror *httptest.Server
	mirror = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/streams/missing":
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"subtitles":[]}`)
		case strings.HasPrefix(r.URL.Path, "/streams/"):
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprintf(w, `{"subtitles":[{"url":%q,"code":"en","name":"English","autoGenerated":false}]}`, mirror.URL+"/captions/en.vtt")
		case r.URL.Path == "/captions/en.vtt":
			fmt.Fprint(w, "WEBVTT\n\n00:00:00.000 --> 00:00:01.000\n<c>Hello</c> world\n")
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(mirror.Close)

	configPath := filepath.Join(home, "config.toml")
	content := fmt.Sprintf(`[server]
lock_path = %q

[upstream]
request_timeout_seconds = 2

[[endpoints]]
url = %q
kind = "piped"

[[overrides]]
video_id = "pinned"
transcript = "fixed text"

[logging]
level = "warn"
`, filepath.Join(home, "captionrelay.lock"), mirror.URL)
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	return &cliTestEnv{home: home, configPath: configPath, mirror: mirror}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected %q in output:\n%s", needle, haystack)
	}
}

func TestFetchPrintsTranscript(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"fetch", "abc123"}, env.configPath)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if strings.TrimSpace(out) != "Hello world" {
		t.Fatalf("unexpected transcript %q", out)
	}
}

func TestFetchServesOverrideWithoutMirror(t *testing.T) {
	env := setupCLITestEnv(t)
	env.mirror.Close()

	out, _, err := runCLI(t, []string{"fetch", "pinned"}, env.configPath)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if strings.TrimSpace(out) != "fixed text" {
		t.Fatalf("unexpected transcript %q", out)
	}
}

func TestFetchFailureReportsAttempts(t *testing.T) {
	env := setupCLITestEnv(t)

	_, stderr, err := runCLI(t, []string{"fetch", "missing"}, env.configPath)
	if err == nil {
		t.Fatal("expected error for video without captions")
	}
	requireContains(t, err.Error(), "no transcript for missing")
	requireContains(t, stderr, "no_captions")
}

func TestFetchJSON(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"fetch", "--json", "abc123"}, env.configPath)
	if err != nil {
		t.Fatalf("fetch --json: %v", err)
	}
	var detail api.TranscriptDetail
	if err := json.Unmarshal([]byte(out), &detail); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if detail.Transcript != "Hello world" || detail.Source != env.mirror.URL || detail.Language != "en" {
		t.Fatalf("unexpected detail %+v", detail)
	}
	if len(detail.Attempts) != 0 {
		t.Fatalf("expected no failed attempts, got %+v", detail.Attempts)
	}
}

func TestFetchRequiresVideoID(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"fetch"}, env.configPath); err == nil {
		t.Fatal("expected argument error")
	}
}

func TestEndpointsTable(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"endpoints"}, env.configPath)
	if err != nil {
		t.Fatalf("endpoints: %v", err)
	}
	requireContains(t, out, env.mirror.URL)
	requireContains(t, out, "piped")
	requireContains(t, out, "Overrides: 2")
}

func TestEndpointsJSON(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"endpoints", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("endpoints --json: %v", err)
	}
	var resp api.EndpointListResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Endpoints) != 1 || resp.Endpoints[0].Priority != 1 || resp.Endpoints[0].Provider != "piped" {
		t.Fatalf("unexpected endpoints %+v", resp.Endpoints)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")

	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	requireContains(t, out, "with 4 caption mirrors (5s per call)")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected refusal to overwrite without --overwrite")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}

	out, _, err = runCLI(t, []string{"config", "validate"}, target)
	if err != nil {
		t.Fatalf("validate sample: %v", err)
	}
	requireContains(t, out, "Endpoints: 4")
}

func TestConfigInitSkipsBrokenConfig(t *testing.T) {
	env := setupCLITestEnv(t)
	if err := os.WriteFile(env.configPath, []byte("not = [valid"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, _, err := runCLI(t, []string{"config", "validate"}, env.configPath); err == nil {
		t.Fatal("expected validate to fail on broken config")
	}
	target := filepath.Join(t.TempDir(), "config.toml")
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, env.configPath); err != nil {
		t.Fatalf("config init must not load the config: %v", err)
	}
}

func TestRenderTableAlignsColumns(t *testing.T) {
	out := renderTable([]string{"#", "URL"}, [][]string{{"1", "https://a.example"}, {"10"}}, []columnAlignment{alignRight})
	requireContains(t, out, "https://a.example")
	if renderTable(nil, nil, nil) != "" {
		t.Fatal("expected empty output without headers")
	}
}

func TestConfigInitSummaryHonoursEnvironment(t *testing.T) {
	setupCLITestEnv(t)
	t.Setenv("CAPTIONRELAY_ENDPOINTS", "invidious=https://inv.example")
	t.Setenv("PORT", "8081")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Serving on 0.0.0.0:8081 with 1 caption mirrors")
}
