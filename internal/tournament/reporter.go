package tournament

import (
	"fmt"
	"io"

	"github.com/kigster/gomoku-eval/internal/display"
	"github.com/kigster/gomoku-eval/internal/engine"
)

const ruleWidth = 60

// Reporter renders tournament progress as a fixed-width table followed by a
// results summary.
type Reporter struct {
	w io.Writer
}

// NewReporter writes report output to w.
func NewReporter(w io.Writer) *Reporter {
	return &Reporter{w: w}
}

// Start prints the tournament header. A non-empty name labels the matchup
// when several run back-to-back from a suite.
func (r *Reporter) Start(name string, cfg engine.TrialConfig, trials int) {
	if name != "" {
		fmt.Fprintln(r.w, display.HeaderStyle.Render(fmt.Sprintf("Matchup: %s", name)))
	}
	fmt.Fprintln(r.w, display.TitleStyle.Render(fmt.Sprintf("Starting Tournament: %d games", trials)))
	fmt.Fprintf(r.w, "Player X (Depth %d) vs Player O (Depth %d)\n", cfg.DepthX, cfg.DepthO)
	fmt.Fprintf(r.w, "Board Size: %d, Radius: %d\n", cfg.BoardSize, cfg.Radius)
	fmt.Fprintln(r.w, display.Rule(ruleWidth))
	fmt.Fprintf(r.w, "%-5s | %-8s | %-6s | %-8s\n", "Game", "Winner", "Moves", "Time (s)")
	fmt.Fprintln(r.w, display.Rule(ruleWidth))
}

// Trial prints one table row. Failed trials render as an ERROR row with
// zeroed columns, matching the shape of ordinary rows.
func (r *Reporter) Trial(res TrialResult) {
	if res.Err != nil {
		fmt.Fprintf(r.w, "%-5d | %s | %-6d | %-8.2f\n",
			res.Index, display.FailStyle.Render(fmt.Sprintf("%-8s", "ERROR")), 0, 0.0)
		return
	}
	o := res.Outcome
	fmt.Fprintf(r.w, "%-5d | %-8s | %-6d | %-8.2f\n",
		res.Index, o.Winner, o.MoveCount, o.Duration.Seconds())
}

// Summarize prints the aggregate results block.
func (r *Reporter) Summarize(s Summary, cfg engine.TrialConfig) {
	fmt.Fprintln(r.w, display.Rule(ruleWidth))
	fmt.Fprintln(r.w, display.TitleStyle.Render("Results Summary:"))
	fmt.Fprintf(r.w, "Player X (Depth %d) Wins: %d (%.1f%%)\n",
		cfg.DepthX, s.Counts[engine.OutcomeX], s.Percent(engine.OutcomeX))
	fmt.Fprintf(r.w, "Player O (Depth %d) Wins: %d (%.1f%%)\n",
		cfg.DepthO, s.Counts[engine.OutcomeO], s.Percent(engine.OutcomeO))
	fmt.Fprintf(r.w, "Draws: %d\n", s.Counts[engine.OutcomeDraw])
	fmt.Fprintf(r.w, "Timeouts: %d\n", s.Counts[engine.OutcomeTimeout])
	if n := s.Counts[engine.OutcomeError]; n > 0 {
		fmt.Fprintf(r.w, "Engine Errors: %d\n", n)
	}
	if s.Failures > 0 {
		fmt.Fprintln(r.w, display.FailStyle.Render(fmt.Sprintf("Failed Trials: %d", s.Failures)))
	}

	if !s.HasData {
		fmt.Fprintln(r.w, display.MutedStyle.Render("No completed games, no averages to report."))
		return
	}
	fmt.Fprintf(r.w, "Avg Moves per Game: %.1f\n", s.MeanMoves)
	fmt.Fprintf(r.w, "Avg Time per Game:  %.2fs\n", s.MeanDuration.Seconds())
}
