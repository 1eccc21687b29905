package verify

import (
	"errors"

	"github.com/kigster/gomoku-eval/internal/engine"
)

// PlayPath is the server's move-computation endpoint.
const PlayPath = "/gomoku/play"

// Participant describes one side of a play request on the wire.
type Participant struct {
	Player string   `json:"player"`
	Depth  int      `json:"depth,omitempty"`
	TimeMs *float64 `json:"time_ms,omitempty"`
}

// HumanParticipant returns the side the server treats as already played out.
// The server expects an explicit zero time budget for human sides.
func HumanParticipant() Participant {
	zero := 0.0
	return Participant{Player: "human", TimeMs: &zero}
}

// EngineParticipant returns the side the server computes a move for.
func EngineParticipant(depth int) Participant {
	return Participant{Player: "AI", Depth: depth}
}

// PlayRequest is the JSON body of a POST to PlayPath. Timeout is the
// per-request budget in seconds and is omitted when zero.
type PlayRequest struct {
	BoardSize int               `json:"board_size"`
	X         Participant       `json:"X"`
	O         Participant       `json:"O"`
	Moves     engine.Transcript `json:"moves"`
	Timeout   float64           `json:"timeout,omitempty"`
}

// NewPlayRequest builds a request asking the engine, playing O, for its next
// move. The transcript must end on an X move so that O is the side to move.
func NewPlayRequest(boardSize, depth int, moves engine.Transcript) (*PlayRequest, error) {
	last, ok := moves.LastPlayer()
	if !ok {
		return nil, errors.New("transcript is empty")
	}
	if last != engine.StoneX {
		return nil, errors.New("transcript must end on an X move so the engine side is next")
	}

	return &PlayRequest{
		BoardSize: boardSize,
		X:         HumanParticipant(),
		O:         EngineParticipant(depth),
		Moves:     moves,
	}, nil
}

// MidgameTranscript is a synthetic contested middle game. X builds a long
// diagonal with O shadowing one column over, then X plays once more, leaving
// O facing a position that rewards deep search.
func MidgameTranscript() engine.Transcript {
	moves := make(engine.Transcript, 0, 21)
	for i := 5; i <= 14; i++ {
		moves = append(moves, engine.XMove(i, i), engine.OMove(i, i+1))
	}
	return append(moves, engine.XMove(15, 15))
}
