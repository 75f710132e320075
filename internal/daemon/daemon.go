package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"

	"captionrelay/internal/config"
	"captionrelay/internal/logging"
	"captionrelay/internal/transcript"
)

// Transcriber is the part of transcript.Service the daemon serves.
type Transcriber interface {
	Transcript(ctx context.Context, videoID string) (transcript.Result, error)
	Endpoints() []transcript.Endpoint
}

// Daemon owns the API server and enforces single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	service  Transcriber
	api      *apiServer
	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	Address      string
	LockFilePath string
	Endpoints    []transcript.Endpoint
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, service Transcriber, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || service == nil {
		return nil, errors.New("daemon requires config and transcript service")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	lockPath := cfg.Server.LockPath
	return &Daemon{
		cfg:      cfg,
		logger:   logger,
		service:  service,
		api:      newAPIServer(cfg, service, cfg.Overrides().Len(), logger),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the instance lock and begins serving HTTP.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}
	if dir := filepath.Dir(d.lockPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create lock directory: %w", err)
		}
	}
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another captionrelay server is already running (lock %s)", d.lockPath)
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.api.start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return err
	}
	d.cancel = cancel
	d.running.Store(true)
	d.logger.Info("captionrelay server started",
		logging.String("address", d.api.address()),
		logging.String("lock", d.lockPath),
		logging.Int("endpoints", len(d.service.Endpoints())),
	)
	return nil
}

// Stop shuts the server down and releases the lock. It is safe to call more
// than once.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release server lock", "lock_release_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "next start may report a stale lock"),
		)
	}
	d.running.Store(false)
	d.logger.Info("captionrelay server stopped")
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	return Status{
		Running:      d.running.Load(),
		Address:      d.api.address(),
		LockFilePath: d.lockPath,
		Endpoints:    d.service.Endpoints(),
	}
}
