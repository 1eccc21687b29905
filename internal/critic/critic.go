// Package critic reviews finished games with an LLM, rating move quality and
// flagging blunders.
package critic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/kigster/gomoku-eval/internal/engine"
	"github.com/kigster/gomoku-eval/internal/fileutil"
)

// Provider sends a review prompt to one LLM backend and returns the raw
// reply text.
type Provider interface {
	Name() string
	Review(ctx context.Context, prompt string) (string, error)
}

// MoveRating is the reviewer's verdict on a single move.
type MoveRating struct {
	Move     int     `json:"move"`
	Player   string  `json:"player"`
	Position []int   `json:"position"`
	Rating   float64 `json:"rating"`
	Comment  string  `json:"comment"`
}

// CriticalMoment marks a move the reviewer considers game-deciding.
type CriticalMoment struct {
	Move        int    `json:"move"`
	Description string `json:"description"`
}

// Blunder is a move the reviewer rates as significantly worsening the
// position.
type Blunder struct {
	Move        int     `json:"move"`
	Player      string  `json:"player"`
	Position    []int   `json:"position"`
	Rating      float64 `json:"rating"`
	Explanation string  `json:"explanation"`
}

// Evaluation is the reviewer's structured verdict on a game. When the reply
// could not be parsed, ParseError is set and Raw preserves the full text.
type Evaluation struct {
	OverallRating   float64          `json:"overall_rating,omitempty"`
	XRating         float64          `json:"x_rating,omitempty"`
	ORating         float64          `json:"o_rating,omitempty"`
	Moves           []MoveRating     `json:"moves,omitempty"`
	CriticalMoments []CriticalMoment `json:"critical_moments,omitempty"`
	Blunders        []Blunder        `json:"blunders,omitempty"`
	Suggestions     string           `json:"suggestions,omitempty"`
	ParseError      bool             `json:"parse_error,omitempty"`
	Raw             string           `json:"raw_response,omitempty"`
}

// AverageMoveRating is the mean of all rated moves. The second return is
// false when no move carries a rating.
func (e *Evaluation) AverageMoveRating() (float64, bool) {
	var sum float64
	var n int
	for _, m := range e.Moves {
		if m.Rating > 0 {
			sum += m.Rating
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// Critic asks a Provider to analyze a game record.
type Critic struct {
	provider Provider
	logger   zerolog.Logger
}

// New builds a Critic backed by the given provider.
func New(provider Provider, logger zerolog.Logger) *Critic {
	return &Critic{
		provider: provider,
		logger:   logger.With().Str("component", "critic").Logger(),
	}
}

// Review sends the game to the reviewer and parses its verdict. An
// unparseable reply is not an error; the Evaluation carries the raw text.
func (c *Critic) Review(ctx context.Context, rec *engine.Record) (*Evaluation, error) {
	prompt := BuildPrompt(rec)

	c.logger.Info().
		Str("provider", c.provider.Name()).
		Int("moves", len(rec.Moves)).
		Msg("Requesting game review")

	reply, err := c.provider.Review(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("review request failed: %w", err)
	}

	eval := ExtractEvaluation(reply)
	if eval.ParseError {
		c.logger.Warn().Msg("Reviewer reply was not valid JSON")
	}
	return eval, nil
}

// ExtractEvaluation pulls the JSON verdict out of a reply, unwrapping a
// ```json or plain ``` fence when present.
func ExtractEvaluation(reply string) *Evaluation {
	payload := reply
	if i := strings.Index(reply, "```json"); i >= 0 {
		rest := reply[i+len("```json"):]
		if j := strings.Index(rest, "```"); j >= 0 {
			payload = rest[:j]
		}
	} else if i := strings.Index(reply, "```"); i >= 0 {
		rest := reply[i+3:]
		if j := strings.Index(rest, "```"); j >= 0 {
			payload = rest[:j]
		}
	}

	var eval Evaluation
	if err := json.Unmarshal([]byte(strings.TrimSpace(payload)), &eval); err != nil {
		return &Evaluation{ParseError: true, Raw: reply}
	}
	return &eval
}

// Save writes the evaluation to path as indented JSON.
func Save(path string, eval *Evaluation) error {
	return fileutil.WriteJSON(path, eval)
}
