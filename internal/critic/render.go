package critic

import (
	"fmt"
	"io"

	"github.com/kigster/gomoku-eval/internal/display"
)

const ruleWidth = 60

// RenderEvaluation pretty-prints the reviewer's verdict.
func RenderEvaluation(w io.Writer, eval *Evaluation) {
	if eval.ParseError {
		fmt.Fprintln(w, display.FailStyle.Render("Failed to parse reviewer reply as JSON."))
		fmt.Fprintln(w, "Raw reply:")
		fmt.Fprintln(w, eval.Raw)
		return
	}

	rule := display.Rule(ruleWidth)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, display.TitleStyle.Render("Game Evaluation"))
	fmt.Fprintln(w, rule)

	fmt.Fprintf(w, "Overall Rating: %s\n", rating(eval.OverallRating))
	fmt.Fprintf(w, "X Player Rating: %s\n", rating(eval.XRating))
	fmt.Fprintf(w, "O Player Rating: %s\n", rating(eval.ORating))

	if len(eval.Blunders) > 0 {
		fmt.Fprintf(w, "\n%s %d\n", display.FailStyle.Render("Blunders Found:"), len(eval.Blunders))
		for _, b := range eval.Blunders {
			fmt.Fprintf(w, "  - Move %d: %s at %v (rating: %g)\n", b.Move, b.Player, b.Position, b.Rating)
			if b.Explanation != "" {
				fmt.Fprintf(w, "    %s\n", b.Explanation)
			}
		}
	}

	if len(eval.CriticalMoments) > 0 {
		fmt.Fprintf(w, "\n%s\n", display.HeaderStyle.Render("Critical Moments:"))
		for _, m := range eval.CriticalMoments {
			fmt.Fprintf(w, "  - Move %d: %s\n", m.Move, m.Description)
		}
	}

	if eval.Suggestions != "" {
		fmt.Fprintf(w, "\nSuggestions: %s\n", eval.Suggestions)
	}

	if avg, ok := eval.AverageMoveRating(); ok {
		fmt.Fprintf(w, "\nAverage Move Rating: %.1f/10\n", avg)
	}

	fmt.Fprintln(w, rule)
}

func rating(v float64) string {
	if v <= 0 {
		return "N/A"
	}
	return fmt.Sprintf("%g/10", v)
}
