package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"captionrelay/internal/daemon"
	"captionrelay/internal/logging"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the transcript HTTP server in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			if bind != "" {
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				cfg.Server.Bind = bind
			}
			return runServer(cmd.Context(), ctx)
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (overrides config and environment)")
	return cmd
}

func runServer(cmdCtx context.Context, ctx *commandContext) error {
	if cmdCtx == nil {
		cmdCtx = context.Background()
	}
	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := ctx.newLogger(nil)
	if err != nil {
		return err
	}
	if ctx.configSeen {
		logger.Info("configuration loaded", logging.String("path", ctx.configPath))
	} else {
		logger.Info("no configuration file found; using defaults", logging.String("expected_path", ctx.configPath))
	}

	service, err := ctx.newService(logger)
	if err != nil {
		return err
	}
	d, err := daemon.New(cfg, service, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	if err := d.Start(signalCtx); err != nil {
		return err
	}
	defer d.Stop()

	<-signalCtx.Done()
	logger.Info("shutdown signal received")
	return nil
}
