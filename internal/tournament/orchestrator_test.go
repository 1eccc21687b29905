package tournament

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kigster/gomoku-eval/internal/engine"
)

// stubRunner replays a scripted sequence of results, one per call.
type stubRunner struct {
	mu       sync.Mutex
	calls    int
	outcomes []*engine.TrialOutcome
	errs     []error
	delay    time.Duration
}

func (s *stubRunner) Run(ctx context.Context, _ engine.TrialConfig) (*engine.TrialOutcome, error) {
	s.mu.Lock()
	i := s.calls
	s.calls++
	s.mu.Unlock()

	if s.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.delay):
		}
	}

	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	if err != nil {
		return nil, err
	}
	if i < len(s.outcomes) {
		return s.outcomes[i], nil
	}
	return outcome(engine.OutcomeDraw, 10, time.Second), nil
}

func (s *stubRunner) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func testTrialConfig() engine.TrialConfig {
	return engine.TrialConfig{DepthX: 2, DepthO: 2, BoardSize: 15, Radius: 3}
}

func TestOrchestratorSequential(t *testing.T) {
	runner := &stubRunner{
		outcomes: []*engine.TrialOutcome{
			outcome(engine.OutcomeX, 41, 3*time.Second),
			outcome(engine.OutcomeO, 38, 2*time.Second),
			outcome(engine.OutcomeX, 45, 4*time.Second),
		},
	}

	var order []int
	o, err := NewOrchestrator(runner, testTrialConfig(), 3, zerolog.New(zerolog.NewTestWriter(t)),
		WithTrialCallback(func(res TrialResult) { order = append(order, res.Index) }))
	require.NoError(t, err)

	s, err := o.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, runner.callCount())
	assert.Equal(t, 2, s.Counts[engine.OutcomeX])
	assert.Equal(t, 1, s.Counts[engine.OutcomeO])
	assert.Zero(t, s.Failures)
	// One worker, so trials complete strictly in submission order.
	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestOrchestratorContinuesPastFailedTrials(t *testing.T) {
	runner := &stubRunner{
		errs: []error{
			nil,
			errors.New("engine exited: exit status 3"),
			nil,
		},
		outcomes: []*engine.TrialOutcome{
			outcome(engine.OutcomeX, 30, time.Second),
			nil,
			outcome(engine.OutcomeO, 50, time.Second),
		},
	}

	o, err := NewOrchestrator(runner, testTrialConfig(), 3, zerolog.Nop())
	require.NoError(t, err)

	s, err := o.Run(context.Background())
	require.NoError(t, err, "a crashed trial must not abort the tournament")

	assert.Equal(t, 3, s.Trials)
	assert.Equal(t, 1, s.Failures)
	assert.Equal(t, 1, s.Counts[engine.OutcomeX])
	assert.Equal(t, 1, s.Counts[engine.OutcomeO])
}

func TestOrchestratorZeroTrials(t *testing.T) {
	runner := &stubRunner{}
	o, err := NewOrchestrator(runner, testTrialConfig(), 0, zerolog.Nop())
	require.NoError(t, err)

	s, err := o.Run(context.Background())
	require.NoError(t, err)

	assert.Zero(t, runner.callCount())
	assert.Zero(t, s.Trials)
	assert.False(t, s.HasData)
}

func TestOrchestratorBoundedPool(t *testing.T) {
	const trials = 20
	runner := &stubRunner{delay: 5 * time.Millisecond}

	o, err := NewOrchestrator(runner, testTrialConfig(), trials, zerolog.Nop(), WithWorkers(4))
	require.NoError(t, err)

	s, err := o.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, trials, runner.callCount())
	var counted int
	for _, n := range s.Counts {
		counted += n
	}
	assert.Equal(t, trials, counted+s.Failures)
}

func TestOrchestratorCancellation(t *testing.T) {
	runner := &stubRunner{delay: time.Minute}

	o, err := NewOrchestrator(runner, testTrialConfig(), 10, zerolog.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err = o.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestNewOrchestratorRejectsBadInput(t *testing.T) {
	_, err := NewOrchestrator(&stubRunner{}, testTrialConfig(), -1, zerolog.Nop())
	assert.Error(t, err)

	bad := engine.TrialConfig{DepthX: 2, DepthO: 2, BoardSize: 14, Radius: 3}
	_, err = NewOrchestrator(&stubRunner{}, bad, 5, zerolog.Nop())
	assert.Error(t, err)
}
