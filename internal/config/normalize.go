package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"captionrelay/internal/transcript"
)

const writeTimeoutSlack = 5 * time.Second

func (c *Config) normalize() error {
	if err := c.applyEnv(); err != nil {
		return err
	}
	if err := c.normalizeServer(); err != nil {
		return err
	}
	c.normalizeUpstream()
	c.normalizeEndpoints()
	c.normalizeOverrides()
	c.normalizeLogging()
	c.raiseWriteTimeout()
	return nil
}

// applyEnv layers environment variables over file values.
func (c *Config) applyEnv() error {
	if value, ok := lookupEnv("CAPTIONRELAY_BIND"); ok {
		c.Server.Bind = value
	} else if port, ok := lookupEnv("PORT"); ok {
		if _, err := strconv.Atoi(port); err != nil {
			return fmt.Errorf("PORT: invalid port %q", port)
		}
		c.Server.Bind = net.JoinHostPort("0.0.0.0", port)
	}
	if value, ok := lookupEnv("CAPTIONRELAY_ENDPOINTS"); ok {
		endpoints, err := parseEndpointList(value)
		if err != nil {
			return fmt.Errorf("CAPTIONRELAY_ENDPOINTS: %w", err)
		}
		c.EndpointList = endpoints
	}
	if value, ok := lookupEnv("CAPTIONRELAY_TIMEOUT"); ok {
		seconds, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("CAPTIONRELAY_TIMEOUT: invalid number of seconds %q", value)
		}
		c.Upstream.RequestTimeoutSeconds = seconds
	}
	if value, ok := lookupEnv("CAPTIONRELAY_LOG_LEVEL"); ok {
		c.Logging.Level = value
	}
	return nil
}

func lookupEnv(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	return value, value != ""
}

// parseEndpointList reads "kind=url,kind=url". A bare URL defaults to piped.
func parseEndpointList(value string) ([]Endpoint, error) {
	var endpoints []Endpoint
	for _, item := range strings.Split(value, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		kind, rawURL, found := strings.Cut(item, "=")
		if !found || strings.Contains(kind, "://") {
			kind, rawURL = string(transcript.ProviderPiped), item
		}
		endpoints = append(endpoints, Endpoint{URL: strings.TrimSpace(rawURL), Kind: strings.TrimSpace(kind)})
	}
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("no endpoints in %q", value)
	}
	return endpoints, nil
}

func (c *Config) normalizeServer() error {
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	if c.Server.Bind == "" {
		c.Server.Bind = defaultBind
	}
	c.Server.CORSOrigin = strings.TrimSpace(c.Server.CORSOrigin)
	if c.Server.CORSOrigin == "" {
		c.Server.CORSOrigin = defaultCORSOrigin
	}
	if strings.TrimSpace(c.Server.LockPath) == "" {
		c.Server.LockPath = defaultLockPath
	}
	var err error
	if c.Server.LockPath, err = expandPath(c.Server.LockPath); err != nil {
		return fmt.Errorf("server.lock_path: %w", err)
	}
	if c.Server.ReadTimeoutSeconds <= 0 {
		c.Server.ReadTimeoutSeconds = defaultReadTimeoutSeconds
	}
	if c.Server.WriteTimeoutSeconds <= 0 {
		c.Server.WriteTimeoutSeconds = defaultWriteTimeoutSeconds
	}
	return nil
}

func (c *Config) normalizeUpstream() {
	c.Upstream.UserAgent = strings.TrimSpace(c.Upstream.UserAgent)
	if c.Upstream.UserAgent == "" {
		c.Upstream.UserAgent = defaultUserAgent
	}
}

func (c *Config) normalizeEndpoints() {
	if len(c.EndpointList) == 0 {
		c.EndpointList = defaultEndpoints()
		return
	}
	for i := range c.EndpointList {
		entry := &c.EndpointList[i]
		entry.URL = strings.TrimRight(strings.TrimSpace(entry.URL), "/")
		if kind, err := transcript.ParseProviderKind(entry.Kind); err == nil {
			entry.Kind = string(kind)
		} else {
			entry.Kind = strings.TrimSpace(entry.Kind)
		}
	}
}

func (c *Config) normalizeOverrides() {
	for i := range c.OverrideList {
		c.OverrideList[i].VideoID = strings.TrimSpace(c.OverrideList[i].VideoID)
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.File = strings.TrimSpace(c.Logging.File)
	if c.Logging.File != "" {
		if expanded, err := expandPath(c.Logging.File); err == nil {
			c.Logging.File = expanded
		}
	}
}

// raiseWriteTimeout keeps the server from cutting off a request that is
// still walking the mirror list: each endpoint may spend two calls.
func (c *Config) raiseWriteTimeout() {
	if c.Upstream.RequestTimeoutSeconds <= 0 {
		return
	}
	worst := time.Duration(len(c.EndpointList)*2)*c.RequestTimeout() + writeTimeoutSlack
	if c.WriteTimeout() < worst {
		c.Server.WriteTimeoutSeconds = int((worst + time.Second - 1) / time.Second)
	}
}
