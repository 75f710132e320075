package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"captionrelay/internal/transcript"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateUpstream(); err != nil {
		return err
	}
	if err := c.validateEndpoints(); err != nil {
		return err
	}
	if err := c.validateOverrides(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateServer() error {
	if strings.TrimSpace(c.Server.Bind) == "" {
		return errors.New("server.bind must be set")
	}
	if c.Server.ReadTimeoutSeconds <= 0 {
		return errors.New("server.read_timeout_seconds must be positive")
	}
	if c.Server.WriteTimeoutSeconds <= 0 {
		return errors.New("server.write_timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateUpstream() error {
	if c.Upstream.RequestTimeoutSeconds <= 0 {
		return errors.New("upstream.request_timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateEndpoints() error {
	if len(c.EndpointList) == 0 {
		return errors.New("at least one [[endpoints]] entry is required")
	}
	for i, entry := range c.EndpointList {
		if _, err := transcript.ParseProviderKind(entry.Kind); err != nil {
			return fmt.Errorf("endpoints[%d].kind: %w", i, err)
		}
		parsed, err := url.Parse(strings.TrimSpace(entry.URL))
		if err != nil {
			return fmt.Errorf("endpoints[%d].url: %w", i, err)
		}
		if parsed.Scheme != "http" && parsed.Scheme != "https" {
			return fmt.Errorf("endpoints[%d].url %q must be an absolute http(s) URL", i, entry.URL)
		}
		if parsed.Host == "" {
			return fmt.Errorf("endpoints[%d].url %q has no host", i, entry.URL)
		}
	}
	return nil
}

func (c *Config) validateOverrides() error {
	for i, entry := range c.OverrideList {
		if strings.TrimSpace(entry.VideoID) == "" {
			return fmt.Errorf("overrides[%d].video_id must be set", i)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format %q is not supported (want console or json)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level %q is not supported", c.Logging.Level)
	}
	return nil
}
