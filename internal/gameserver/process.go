package gameserver

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrStopped is returned when a handle is used after teardown. Every Start
// pairs with exactly one Stop; a second Stop is a programming error.
var ErrStopped = errors.New("server process already stopped")

// outputTailLines bounds how much server output is retained for diagnostics.
const outputTailLines = 40

// drainTimeout bounds how long exit waits on the output readers when a child
// of the server keeps the pipes open.
const drainTimeout = 200 * time.Millisecond

// Process is a handle to one managed server process. It is owned by the
// Lifecycle that started it and becomes invalid once stopped.
type Process struct {
	ID      string
	Command string
	Args    []string

	cmd       *exec.Cmd
	cancel    context.CancelFunc
	logger    zerolog.Logger
	killAfter time.Duration
	startTime time.Time

	mu      sync.Mutex
	stopped bool
	done    chan struct{}
	exitErr error
	tail    []string
	readers sync.WaitGroup
}

func newProcess(ctx context.Context, command string, args []string, killAfter time.Duration, logger zerolog.Logger) *Process {
	procCtx, cancel := context.WithCancel(ctx)
	id := uuid.NewString()[:8]

	p := &Process{
		ID:        id,
		Command:   command,
		Args:      args,
		killAfter: killAfter,
		logger:    logger.With().Str("process_id", id).Logger(),
		done:      make(chan struct{}),
	}
	p.cmd = exec.CommandContext(procCtx, command, args...)
	p.cancel = cancel
	return p
}

func (p *Process) start() error {
	stdout, err := p.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	stderr, err := p.cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	if err := p.cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", p.Command, err)
	}

	p.startTime = time.Now()
	p.logger.Info().
		Str("command", p.Command).
		Strs("args", p.Args).
		Msg("Server process started")

	p.readers.Add(2)
	go p.readOutput("stdout", stdout)
	go p.readOutput("stderr", stderr)
	go p.monitor()

	return nil
}

// Stop sends a graceful termination signal and blocks until the process has
// fully exited, escalating to a hard kill after the grace period. Calling
// Stop on an already stopped handle fails fast with ErrStopped.
func (p *Process) Stop() error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return ErrStopped
	}
	p.stopped = true
	p.mu.Unlock()

	defer p.cancel()

	select {
	case <-p.done:
		return nil // exited on its own
	default:
	}

	if err := p.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		// Signal can only fail if the process is already gone.
		<-p.done
		return nil
	}

	select {
	case <-p.done:
		p.logger.Info().Msg("Server stopped gracefully")
		return nil
	case <-time.After(p.killAfter):
	}

	p.logger.Warn().Msg("Force killing server")
	if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		select {
		case <-p.done:
			return nil
		default:
			return fmt.Errorf("failed to kill server: %w", err)
		}
	}
	<-p.done
	return nil
}

// Wait blocks until the process exits and returns its exit error.
func (p *Process) Wait() error {
	<-p.done
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exitErr
}

// Done is closed once the process has exited and been reaped.
func (p *Process) Done() <-chan struct{} { return p.done }

// Alive reports whether the process is still running.
func (p *Process) Alive() bool {
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

// ExitErr returns the exit error once the process has finished.
func (p *Process) ExitErr() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exitErr
}

// OutputTail returns the last captured output lines, newest last. Used to
// surface startup diagnostics when the server dies before becoming ready.
func (p *Process) OutputTail() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return strings.Join(p.tail, "\n")
}

func (p *Process) monitor() {
	defer close(p.done)

	err := p.cmd.Wait()

	// Let the readers finish capturing the tail before the exit is
	// published, without blocking on a child that inherited the pipes.
	drained := make(chan struct{})
	go func() {
		p.readers.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-time.After(drainTimeout):
	}

	p.mu.Lock()
	p.exitErr = err
	p.mu.Unlock()

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && strings.HasPrefix(exitErr.String(), "signal:") {
			p.logger.Info().
				Dur("uptime", time.Since(p.startTime)).
				Str("signal", exitErr.String()).
				Msg("Server terminated by signal")
			return
		}
		p.logger.Error().
			Err(err).
			Dur("uptime", time.Since(p.startTime)).
			Msg("Server exited with error")
		return
	}
	p.logger.Info().
		Dur("uptime", time.Since(p.startTime)).
		Msg("Server exited")
}

func (p *Process) readOutput(stream string, pipe io.Reader) {
	defer p.readers.Done()

	scanner := bufio.NewScanner(pipe)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		p.mu.Lock()
		p.tail = append(p.tail, line)
		if len(p.tail) > outputTailLines {
			p.tail = p.tail[len(p.tail)-outputTailLines:]
		}
		p.mu.Unlock()
		p.logger.Debug().
			Str("stream", stream).
			Msg(line)
	}

	if err := scanner.Err(); err != nil {
		// Pipe closure during teardown is expected.
		msg := err.Error()
		if strings.Contains(msg, "file already closed") || strings.Contains(msg, "broken pipe") {
			return
		}
		p.logger.Error().
			Err(err).
			Str("stream", stream).
			Msg("Error reading server output")
	}
}
