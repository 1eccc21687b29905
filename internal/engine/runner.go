package engine

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultWallClock bounds one whole engine invocation. A game that runs
// longer is killed and classified as a timeout outcome.
const DefaultWallClock = 5 * time.Minute

// TrialConfig describes one game trial. Immutable once created.
type TrialConfig struct {
	DepthX    int
	DepthO    int
	BoardSize int
	Radius    int
}

// Validate checks the config against the engine's accepted ranges.
func (c TrialConfig) Validate() error {
	if c.BoardSize != 15 && c.BoardSize != 19 {
		return fmt.Errorf("board size must be 15 or 19, got %d", c.BoardSize)
	}
	if c.DepthX < 1 || c.DepthO < 1 {
		return fmt.Errorf("search depths must be at least 1, got %d:%d", c.DepthX, c.DepthO)
	}
	if c.Radius < 1 {
		return fmt.Errorf("search radius must be at least 1, got %d", c.Radius)
	}
	return nil
}

// TrialOutcome is the terminal result of one trial. Produced exactly once
// per trial that yielded any result at all.
type TrialOutcome struct {
	Winner    Outcome
	MoveCount int
	Duration  time.Duration
	DepthX    int
	DepthO    int
}

// Runner launches one engine process per trial, bounds it with a wall-clock
// limit, and parses the result artifact the engine writes.
type Runner struct {
	enginePath string
	wallClock  time.Duration
	scratchDir string
	logger     zerolog.Logger
}

// RunnerOption adjusts runner behaviour.
type RunnerOption func(*Runner)

// WithWallClock overrides the per-trial wall-clock limit.
func WithWallClock(d time.Duration) RunnerOption {
	return func(r *Runner) { r.wallClock = d }
}

// WithScratchDir places scratch artifacts under dir instead of the system
// temp directory.
func WithScratchDir(dir string) RunnerOption {
	return func(r *Runner) { r.scratchDir = dir }
}

// NewRunner resolves the engine binary and returns a runner for it. A
// missing binary is fatal to the whole run, so it fails here rather than on
// first use.
func NewRunner(enginePath string, logger zerolog.Logger, opts ...RunnerOption) (*Runner, error) {
	resolved, err := exec.LookPath(enginePath)
	if err != nil {
		return nil, fmt.Errorf("engine binary %s: %w", enginePath, err)
	}

	r := &Runner{
		enginePath: resolved,
		wallClock:  DefaultWallClock,
		scratchDir: os.TempDir(),
		logger:     logger.With().Str("component", "runner").Logger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Run plays one game. It returns a nil outcome and an error when the trial
// produced no usable result (non-zero exit, missing or malformed artifact);
// the caller records that as a harness-level error and continues. A wall
// clock kill is not an error: it returns a timeout outcome. The scratch
// artifact is removed on every exit path.
func (r *Runner) Run(ctx context.Context, cfg TrialConfig) (*TrialOutcome, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	scratch := filepath.Join(r.scratchDir, fmt.Sprintf("gomoku-%s.json", uuid.NewString()[:8]))
	defer os.Remove(scratch)

	runCtx, cancel := context.WithTimeout(ctx, r.wallClock)
	defer cancel()

	cmd := exec.CommandContext(runCtx, r.enginePath,
		"-x", "ai",
		"-o", "ai",
		"-d", fmt.Sprintf("%d:%d", cfg.DepthX, cfg.DepthO),
		"-b", strconv.Itoa(cfg.BoardSize),
		"-r", strconv.Itoa(cfg.Radius),
		"--skip-welcome",
		"-j", scratch,
	)
	// One line of input makes the engine quit cleanly once the game ends.
	cmd.Stdin = strings.NewReader("q\n")
	cmd.Stdout = io.Discard
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	// Bounds the reap after a wall-clock kill even if a child of the engine
	// keeps the output pipes open.
	cmd.WaitDelay = time.Second

	r.logger.Debug().
		Str("engine", r.enginePath).
		Strs("args", cmd.Args[1:]).
		Msg("Launching engine")

	start := time.Now()
	runErr := cmd.Run()
	elapsed := time.Since(start)

	if runCtx.Err() == context.DeadlineExceeded {
		r.logger.Warn().
			Dur("wall_clock", r.wallClock).
			Msg("Engine exceeded wall clock, killed")
		return &TrialOutcome{
			Winner:   OutcomeTimeout,
			Duration: r.wallClock,
			DepthX:   cfg.DepthX,
			DepthO:   cfg.DepthO,
		}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if runErr != nil {
		return nil, fmt.Errorf("engine exited: %w (stderr: %s)", runErr, stderrExcerpt(&stderr))
	}

	rec, err := ReadRecord(scratch)
	if err != nil {
		return nil, fmt.Errorf("%w (stderr: %s)", err, stderrExcerpt(&stderr))
	}

	if dups := rec.Moves.Duplicates(); len(dups) > 0 {
		r.logger.Warn().
			Int("count", len(dups)).
			Str("first", dups[0].String()).
			Msg("Transcript replays occupied cells")
	}

	return &TrialOutcome{
		Winner:    rec.Winner.Outcome(),
		MoveCount: len(rec.Moves),
		Duration:  elapsed,
		DepthX:    cfg.DepthX,
		DepthO:    cfg.DepthO,
	}, nil
}

// stderrExcerpt keeps error messages bounded when the engine is chatty.
func stderrExcerpt(buf *bytes.Buffer) string {
	s := strings.TrimSpace(buf.String())
	if s == "" {
		return "<empty>"
	}
	const max = 500
	if len(s) > max {
		s = "..." + s[len(s)-max:]
	}
	return s
}
