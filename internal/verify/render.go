package verify

import (
	"fmt"
	"io"

	"github.com/kigster/gomoku-eval/internal/display"
)

const ruleWidth = 60

// RenderResults writes a human-readable verification report.
func RenderResults(w io.Writer, serverURL string, results []Result) {
	fmt.Fprintln(w, display.TitleStyle.Render("Timeout Verification"))
	fmt.Fprintf(w, "Server: %s\n", serverURL)
	fmt.Fprintln(w, display.Rule(ruleWidth))

	for _, r := range results {
		var label string
		switch r.Status {
		case StatusPass:
			label = display.PassStyle.Render("PASS")
		case StatusFail:
			label = display.FailStyle.Render("FAIL")
		default:
			label = display.WarnStyle.Render("INCONCLUSIVE")
		}
		fmt.Fprintf(w, "%s %s\n", label, r.Name)
		if r.Detail != "" {
			fmt.Fprintf(w, "     %s\n", display.MutedStyle.Render(r.Detail))
		}
	}

	fmt.Fprintln(w, display.Rule(ruleWidth))
	if Failed(results) {
		fmt.Fprintln(w, display.FailStyle.Render("Timeout contract violated"))
	} else {
		fmt.Fprintln(w, display.PassStyle.Render("Timeout contract holds"))
	}
}
