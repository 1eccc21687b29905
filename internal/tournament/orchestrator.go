package tournament

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/kigster/gomoku-eval/internal/engine"
)

// TrialRunner plays one game and reports its outcome. engine.Runner is the
// production implementation.
type TrialRunner interface {
	Run(ctx context.Context, cfg engine.TrialConfig) (*engine.TrialOutcome, error)
}

// TrialResult pairs a trial index with what the runner produced. Err is set
// when the trial yielded no usable result.
type TrialResult struct {
	Index   int
	Outcome *engine.TrialOutcome
	Err     error
}

// Orchestrator runs a configured number of trials through a bounded worker
// pool and funnels every result to a single aggregator. Workers is 1 by
// default, which keeps execution strictly sequential; larger pools run
// independent engine processes in parallel while the collector goroutine
// remains the aggregator's only writer.
type Orchestrator struct {
	runner  TrialRunner
	config  engine.TrialConfig
	trials  int
	workers int
	onTrial func(TrialResult)
	logger  zerolog.Logger
}

// OrchestratorOption adjusts orchestrator behaviour.
type OrchestratorOption func(*Orchestrator)

// WithWorkers bounds the number of engine processes in flight at once.
func WithWorkers(n int) OrchestratorOption {
	return func(o *Orchestrator) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithTrialCallback registers a per-trial hook, invoked from the collector
// goroutine in completion order.
func WithTrialCallback(fn func(TrialResult)) OrchestratorOption {
	return func(o *Orchestrator) { o.onTrial = fn }
}

// NewOrchestrator wires a runner to a fresh tournament run.
func NewOrchestrator(runner TrialRunner, cfg engine.TrialConfig, trials int, logger zerolog.Logger, opts ...OrchestratorOption) (*Orchestrator, error) {
	if trials < 0 {
		return nil, fmt.Errorf("trial count must not be negative, got %d", trials)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := &Orchestrator{
		runner:  runner,
		config:  cfg,
		trials:  trials,
		workers: 1,
		logger:  logger.With().Str("component", "tournament").Logger(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Run executes the tournament. A crashed trial is recorded as a failure and
// the run continues; only context cancellation stops the batch early. The
// summary reflects everything observed up to that point either way.
func (o *Orchestrator) Run(ctx context.Context) (Summary, error) {
	agg := NewAggregator()

	o.logger.Info().
		Int("trials", o.trials).
		Int("workers", o.workers).
		Int("depth_x", o.config.DepthX).
		Int("depth_o", o.config.DepthO).
		Int("board", o.config.BoardSize).
		Int("radius", o.config.Radius).
		Msg("Starting tournament")

	g, ctx := errgroup.WithContext(ctx)

	jobs := make(chan int)
	results := make(chan TrialResult)

	g.Go(func() error {
		defer close(jobs)
		for i := 1; i <= o.trials; i++ {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case jobs <- i:
			}
		}
		return nil
	})

	var wg sync.WaitGroup
	for w := 0; w < o.workers; w++ {
		wg.Add(1)
		g.Go(func() error {
			defer wg.Done()
			for idx := range jobs {
				outcome, err := o.runner.Run(ctx, o.config)
				if err != nil && ctx.Err() != nil {
					return ctx.Err()
				}
				select {
				case <-ctx.Done():
					return ctx.Err()
				case results <- TrialResult{Index: idx, Outcome: outcome, Err: err}:
				}
			}
			return nil
		})
	}

	g.Go(func() error {
		wg.Wait()
		close(results)
		return nil
	})

	// Collector: the aggregator's single writer.
	g.Go(func() error {
		for res := range results {
			if res.Err != nil {
				agg.RecordFailure()
				o.logger.Error().
					Err(res.Err).
					Int("trial", res.Index).
					Msg("Trial produced no result")
			} else {
				agg.Update(res.Outcome)
				o.logger.Info().
					Int("trial", res.Index).
					Str("winner", string(res.Outcome.Winner)).
					Int("moves", res.Outcome.MoveCount).
					Dur("duration", res.Outcome.Duration).
					Msg("Trial finished")
			}
			if o.onTrial != nil {
				o.onTrial(res)
			}
		}
		return nil
	})

	err := g.Wait()
	summary := agg.Summary()

	o.logger.Info().
		Int("observed", summary.Trials).
		Int("failures", summary.Failures).
		Msg("Tournament finished")

	return summary, err
}
