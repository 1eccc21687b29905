package gameserver

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultPort matches the server's built-in default.
	DefaultPort = 8999

	defaultStartupGrace = time.Second
	defaultKillAfter    = 2 * time.Second
)

// Lifecycle starts and stops a game server process for the duration of a
// verification run.
type Lifecycle struct {
	serverPath string
	port       int
	grace      time.Duration
	killAfter  time.Duration
	logger     zerolog.Logger
}

// LifecycleOption configures a Lifecycle.
type LifecycleOption func(*Lifecycle)

// WithStartupGrace sets how long to wait after launch before the server is
// considered ready.
func WithStartupGrace(d time.Duration) LifecycleOption {
	return func(l *Lifecycle) {
		if d > 0 {
			l.grace = d
		}
	}
}

// WithKillAfter sets how long Stop waits for a graceful exit before killing.
func WithKillAfter(d time.Duration) LifecycleOption {
	return func(l *Lifecycle) {
		if d > 0 {
			l.killAfter = d
		}
	}
}

// NewLifecycle validates the server binary and returns a Lifecycle bound to
// the given port.
func NewLifecycle(serverPath string, port int, logger zerolog.Logger, opts ...LifecycleOption) (*Lifecycle, error) {
	resolved, err := exec.LookPath(serverPath)
	if err != nil {
		return nil, fmt.Errorf("server binary not found: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("invalid port %d", port)
	}

	return &Lifecycle{
		serverPath: resolved,
		port:       port,
		grace:      defaultStartupGrace,
		killAfter:  defaultKillAfter,
		logger:     logger.With().Str("component", "gameserver").Logger(),
	}, nil
}

// BaseURL returns the root URL the managed server listens on.
func (l *Lifecycle) BaseURL() string {
	return fmt.Sprintf("http://localhost:%d", l.port)
}

// Start launches the server, waits the startup grace interval and confirms
// the process is still alive. A server that exits during the grace interval
// fails with its captured output in the error.
func (l *Lifecycle) Start(ctx context.Context) (*Process, error) {
	args := []string{"-b", strconv.Itoa(l.port)}
	p := newProcess(ctx, l.serverPath, args, l.killAfter, l.logger)

	l.logger.Info().
		Str("command", l.serverPath).
		Int("port", l.port).
		Msg("Starting game server")

	if err := p.start(); err != nil {
		return nil, err
	}

	select {
	case <-ctx.Done():
		_ = p.Stop()
		return nil, ctx.Err()
	case <-p.Done():
		return nil, l.startupFailure(p)
	case <-time.After(l.grace):
	}

	if !p.Alive() {
		return nil, l.startupFailure(p)
	}

	l.logger.Info().
		Str("url", l.BaseURL()).
		Msg("Game server ready")
	return p, nil
}

// Stop tears the server down, blocking until the process has exited.
func (l *Lifecycle) Stop(p *Process) error {
	l.logger.Info().Msg("Stopping game server")
	return p.Stop()
}

func (l *Lifecycle) startupFailure(p *Process) error {
	// Pair the failed start with its stop so the handle is fully reaped.
	_ = p.Stop()

	tail := p.OutputTail()
	if tail == "" {
		return fmt.Errorf("server exited during startup: %v", p.ExitErr())
	}
	return fmt.Errorf("server exited during startup: %v\n%s", p.ExitErr(), tail)
}
