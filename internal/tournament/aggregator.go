package tournament

import (
	"time"

	"github.com/kigster/gomoku-eval/internal/engine"
)

// Aggregator accumulates trial outcomes into running statistics. It is the
// sole owner of that state: the orchestrator's collector goroutine is the
// only caller of Update/RecordFailure, so no locking is needed.
type Aggregator struct {
	counts     map[engine.Outcome]int
	failures   int
	durations  []time.Duration
	moveCounts []int
}

// NewAggregator returns an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{counts: make(map[engine.Outcome]int)}
}

// Update records one completed trial. A nil outcome is counted as a
// harness-level failure instead, never as a game result.
func (a *Aggregator) Update(outcome *engine.TrialOutcome) {
	if outcome == nil {
		a.RecordFailure()
		return
	}
	a.counts[outcome.Winner]++
	a.moveCounts = append(a.moveCounts, outcome.MoveCount)
	a.durations = append(a.durations, outcome.Duration)
}

// RecordFailure records a trial that produced no result at all (crashed
// engine, missing or malformed artifact). Failures are excluded from the
// move and duration series.
func (a *Aggregator) RecordFailure() {
	a.failures++
}

// Observed reports how many trials have been fed in, failures included.
func (a *Aggregator) Observed() int {
	total := a.failures
	for _, n := range a.counts {
		total += n
	}
	return total
}

// Summary is the derived report of an aggregation run.
type Summary struct {
	Trials       int
	Counts       map[engine.Outcome]int
	Failures     int
	MeanMoves    float64
	MeanDuration time.Duration
	HasData      bool
}

// Percent returns the share of trials that ended with the given outcome.
func (s Summary) Percent(o engine.Outcome) float64 {
	if s.Trials == 0 {
		return 0
	}
	return float64(s.Counts[o]) / float64(s.Trials) * 100
}

// Summary derives the current report. With no recorded results the means are
// flagged absent rather than computed from an empty series.
func (a *Aggregator) Summary() Summary {
	s := Summary{
		Trials:   a.Observed(),
		Counts:   make(map[engine.Outcome]int, len(a.counts)),
		Failures: a.failures,
	}
	for outcome, n := range a.counts {
		s.Counts[outcome] = n
	}

	if len(a.moveCounts) == 0 {
		return s
	}
	s.HasData = true

	var moves int
	for _, n := range a.moveCounts {
		moves += n
	}
	s.MeanMoves = float64(moves) / float64(len(a.moveCounts))

	var total time.Duration
	for _, d := range a.durations {
		total += d
	}
	s.MeanDuration = total / time.Duration(len(a.durations))
	return s
}
