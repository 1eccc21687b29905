package critic

import (
	"fmt"
	"strings"

	"github.com/kigster/gomoku-eval/internal/engine"
)

const promptTemplate = `You are an expert Gomoku (Five in a Row) analyst. Analyze the following game and evaluate each move.

Game Rules:
- Players alternate placing stones (X goes first, O second)
- First to get 5 in a row (horizontal, vertical, or diagonal) wins
- X typically has first-move advantage

Board coordinates are [row, col] starting from [0,0] at top-left.

GAME TRANSCRIPT:
%s

FINAL RESULT: %s

Please analyze this game and provide:

1. **Overall Game Quality** (1-10):
   - 10 = Perfect/near-perfect play from both sides
   - 7-9 = Strong play with minor inaccuracies
   - 4-6 = Decent play with some mistakes
   - 1-3 = Weak play with significant errors

2. **Move-by-Move Analysis**:
   For each move, rate it 1-10 and briefly explain:
   - 10 = Optimal/winning move
   - 7-9 = Good move
   - 4-6 = Acceptable but not best
   - 1-3 = Mistake or blunder

3. **Critical Moments**:
   Identify the 2-3 most important moves that decided the game.

4. **Blunders**:
   List any moves that significantly worsened the position (rating 1-3).
   A blunder is a move that turns a winning/drawing position into a losing one.

5. **Improvement Suggestions**:
   For the losing side, suggest what they could have done differently.

Format your response as JSON:
{
    "overall_rating": 7,
    "x_rating": 8,
    "o_rating": 6,
    "moves": [
        {"move": 1, "player": "X", "position": [9, 9], "rating": 9, "comment": "Standard center opening"},
        ...
    ],
    "critical_moments": [
        {"move": 15, "description": "X creates unstoppable double-three threat"}
    ],
    "blunders": [
        {"move": 14, "player": "O", "position": [7, 6], "rating": 2, "explanation": "Blocked already-closed three instead of creating own threat"}
    ],
    "suggestions": "O should have focused on creating own threats rather than passive defense"
}
`

// BuildPrompt renders the analysis prompt for one finished game.
func BuildPrompt(rec *engine.Record) string {
	return fmt.Sprintf(promptTemplate, formatTranscript(rec), rec.Winner)
}

// formatTranscript renders the game header and numbered move list, carrying
// per-move timing and search annotations through when the engine recorded
// them.
func formatTranscript(rec *engine.Record) string {
	size := rec.BoardSize
	if size == 0 {
		size = 19
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Board Size: %dx%d\n", size, size)
	fmt.Fprintf(&b, "X Player: %s\n", playerName(rec.XPlayer))
	fmt.Fprintf(&b, "O Player: %s\n", playerName(rec.OPlayer))
	b.WriteString("\nMoves:")

	for i, m := range rec.Moves {
		fmt.Fprintf(&b, "\n  %d. %s plays [%d, %d]", i+1, m.Player, m.Row, m.Col)
		if m.TimeMs > 0 {
			fmt.Fprintf(&b, " (%.0fms)", m.TimeMs)
		}
		if m.PositionsEvaluated > 0 {
			fmt.Fprintf(&b, " [%d positions evaluated]", m.PositionsEvaluated)
		}
		if m.Score != 0 {
			fmt.Fprintf(&b, " (score: %d)", m.Score)
		}
	}
	return b.String()
}

func playerName(name string) string {
	if name == "" {
		return "unknown"
	}
	return name
}
