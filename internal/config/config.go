package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"captionrelay/internal/transcript"
)

//go:embed sample_config.toml
var sampleConfig string

// Server contains HTTP listener and process settings.
type Server struct {
	Bind                string `toml:"bind"`
	CORSOrigin          string `toml:"cors_origin"`
	LockPath            string `toml:"lock_path"`
	ReadTimeoutSeconds  int    `toml:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `toml:"write_timeout_seconds"`
}

// Upstream contains settings shared by every caption mirror call.
type Upstream struct {
	// RequestTimeoutSeconds bounds each individual HTTP call to a mirror.
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
	UserAgent             string `toml:"user_agent"`
}

// Endpoint is one [[endpoints]] entry. Order in the file is priority order.
type Endpoint struct {
	URL  string `toml:"url"`
	Kind string `toml:"kind"`
}

// Override pins the transcript returned for a video identifier.
type Override struct {
	VideoID    string `toml:"video_id"`
	Transcript string `toml:"transcript"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	// File, when set, receives a copy of everything written to stderr.
	File   string `toml:"file"`
}

// Config encapsulates all configuration values for captionrelay.
//
// Configuration sections:
//   - Server: bind address, CORS origin, lock file and HTTP timeouts
//   - Upstream: per-call timeout and user agent for mirror requests
//   - Endpoints: ordered caption mirrors with their API shape
//   - Overrides: fixed transcripts served without any network call
//   - Logging: log format, level and optional file copy
type Config struct {
	Server       Server     `toml:"server"`
	Upstream     Upstream   `toml:"upstream"`
	EndpointList []Endpoint `toml:"endpoints"`
	OverrideList []Override `toml:"overrides"`
	Logging      Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigLocation)
}

// Load locates, parses, and validates a configuration file. Environment
// overrides are applied after the file is read. A missing file is not an
// error: defaults are used and exists reports false.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		// A file that lists [[endpoints]] replaces the built-in list
		// instead of appending to it.
		cfg.EndpointList = nil

		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			var strict *toml.StrictMissingError
			if errors.As(err, &strict) {
				return nil, "", false, fmt.Errorf("parse config: %s", strict.String())
			}
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigLocation)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// Endpoints converts the configured mirror list into orchestrator endpoints.
// It assumes the config has been validated.
func (c *Config) Endpoints() []transcript.Endpoint {
	out := make([]transcript.Endpoint, 0, len(c.EndpointList))
	for _, entry := range c.EndpointList {
		kind, err := transcript.ParseProviderKind(entry.Kind)
		if err != nil {
			continue
		}
		out = append(out, transcript.Endpoint{BaseURL: entry.URL, Kind: kind})
	}
	return out
}

// Overrides builds the override table: the built-in entries merged with
// [[overrides]], where configured entries win.
func (c *Config) Overrides() *transcript.Overrides {
	entries := transcript.DefaultOverrides()
	for _, entry := range c.OverrideList {
		entries[entry.VideoID] = entry.Transcript
	}
	return transcript.NewOverrides(entries)
}

// RequestTimeout is the per-call bound for mirror requests.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Upstream.RequestTimeoutSeconds) * time.Second
}

// ReadTimeout is the HTTP server read timeout.
func (c *Config) ReadTimeout() time.Duration {
	return time.Duration(c.Server.ReadTimeoutSeconds) * time.Second
}

// WriteTimeout is the HTTP server write timeout.
func (c *Config) WriteTimeout() time.Duration {
	return time.Duration(c.Server.WriteTimeoutSeconds) * time.Second
}

// LogOutputs lists the log destinations: stderr plus the optional file.
func (c *Config) LogOutputs() []string {
	outputs := []string{"stderr"}
	if path := strings.TrimSpace(c.Logging.File); path != "" {
		outputs = append(outputs, path)
	}
	return outputs
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
