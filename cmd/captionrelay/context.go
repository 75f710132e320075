package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"captionrelay/internal/config"
	"captionrelay/internal/logging"
	"captionrelay/internal/mirror"
	"captionrelay/internal/transcript"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configSeen bool
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
		c.configSeen = exists
	})
	return c.config, c.configErr
}

// newLogger builds a logger from the config. When w is non-nil it replaces
// the configured outputs, which keeps one-shot commands on the command's
// stderr.
func (c *commandContext) newLogger(w io.Writer) (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	opts := logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: cfg.LogOutputs(),
		Writer:      w,
	}
	logger, err := logging.New(opts)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return logger, nil
}

// newService wires the mirror adapters into a transcript service.
func (c *commandContext) newService(logger *slog.Logger) (*transcript.Service, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	client := mirror.NewClient(mirror.Config{
		Timeout:   cfg.RequestTimeout(),
		UserAgent: cfg.Upstream.UserAgent,
	})
	service, err := transcript.New(transcript.Options{
		Endpoints: cfg.Endpoints(),
		Providers: client.Providers(),
		Overrides: cfg.Overrides(),
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build transcript service: %w", err)
	}
	return service, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
