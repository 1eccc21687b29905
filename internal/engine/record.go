package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Stone identifies a side. X always moves first.
type Stone string

const (
	StoneX Stone = "X"
	StoneO Stone = "O"
)

// Winner is the terminal classification an engine writes into its result
// artifact.
type Winner string

const (
	WinnerX    Winner = "X"
	WinnerO    Winner = "O"
	WinnerDraw Winner = "draw"
)

// Outcome extends Winner with the classifications only the harness assigns.
type Outcome string

const (
	OutcomeX       Outcome = "X"
	OutcomeO       Outcome = "O"
	OutcomeDraw    Outcome = "draw"
	OutcomeTimeout Outcome = "timeout"
	OutcomeError   Outcome = "error"
)

// Outcome converts an engine-reported winner to its outcome classification.
func (w Winner) Outcome() Outcome { return Outcome(w) }

var (
	// ErrArtifactMissing indicates the engine exited without writing its
	// result artifact.
	ErrArtifactMissing = errors.New("result artifact not written")
	// ErrArtifactMalformed indicates the result artifact exists but does not
	// decode to a valid game record.
	ErrArtifactMalformed = errors.New("result artifact malformed")
)

// Move is one stone placement, decoded from the artifact's player-tagged
// form ({"X": [row,col]} or {"O": [row,col]}). The player tag is validated
// once here at parse time; consumers never probe raw keys.
type Move struct {
	Player             Stone
	Row                int
	Col                int
	TimeMs             float64
	PositionsEvaluated int
	Score              int
	Winning            bool
}

// XMove places an X stone.
func XMove(row, col int) Move { return Move{Player: StoneX, Row: row, Col: col} }

// OMove places an O stone.
func OMove(row, col int) Move { return Move{Player: StoneO, Row: row, Col: col} }

// UnmarshalJSON decodes the engine's move object. The player key may carry a
// descriptive suffix ("X (AI)"); the legacy moves_searched field name is
// accepted alongside moves_evaluated. Exactly one player tag must be present.
func (m *Move) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	tagged := false
	for key, val := range raw {
		if strings.HasPrefix(key, string(StoneX)) || strings.HasPrefix(key, string(StoneO)) {
			if tagged {
				return fmt.Errorf("move tagged for more than one player")
			}
			var pos []int
			if err := json.Unmarshal(val, &pos); err != nil {
				return fmt.Errorf("move key %q: %w", key, err)
			}
			if len(pos) != 2 {
				return fmt.Errorf("move key %q has %d coordinates, want 2", key, len(pos))
			}
			if strings.HasPrefix(key, string(StoneX)) {
				m.Player = StoneX
			} else {
				m.Player = StoneO
			}
			m.Row, m.Col = pos[0], pos[1]
			tagged = true
			continue
		}

		switch key {
		case "time_ms":
			if err := json.Unmarshal(val, &m.TimeMs); err != nil {
				return fmt.Errorf("move time_ms: %w", err)
			}
		case "moves_evaluated", "moves_searched":
			if err := json.Unmarshal(val, &m.PositionsEvaluated); err != nil {
				return fmt.Errorf("move %s: %w", key, err)
			}
		case "score":
			if err := json.Unmarshal(val, &m.Score); err != nil {
				return fmt.Errorf("move score: %w", err)
			}
		case "winner":
			if err := json.Unmarshal(val, &m.Winning); err != nil {
				return fmt.Errorf("move winner flag: %w", err)
			}
		}
	}

	if !tagged {
		return fmt.Errorf("move has no player-tagged coordinate")
	}
	return nil
}

// MarshalJSON emits the canonical wire form the server accepts.
func (m Move) MarshalJSON() ([]byte, error) {
	obj := map[string]any{
		string(m.Player): [2]int{m.Row, m.Col},
	}
	if m.TimeMs > 0 {
		obj["time_ms"] = m.TimeMs
	}
	if m.PositionsEvaluated > 0 {
		obj["moves_evaluated"] = m.PositionsEvaluated
	}
	if m.Score != 0 {
		obj["score"] = m.Score
	}
	if m.Winning {
		obj["winner"] = true
	}
	return json.Marshal(obj)
}

// Cell returns the move's board coordinate.
func (m Move) Cell() (row, col int) { return m.Row, m.Col }

func (m Move) String() string {
	return fmt.Sprintf("%s[%d,%d]", m.Player, m.Row, m.Col)
}

// Transcript is an ordered sequence of moves; order is play order.
type Transcript []Move

// LastPlayer reports which side made the final recorded move.
func (t Transcript) LastPlayer() (Stone, bool) {
	if len(t) == 0 {
		return "", false
	}
	return t[len(t)-1].Player, true
}

// Duplicates returns every move that replays an already-occupied cell. The
// harness surfaces these as data-integrity violations; it never repairs them.
func (t Transcript) Duplicates() []Move {
	seen := make(map[[2]int]bool, len(t))
	var dups []Move
	for _, m := range t {
		cell := [2]int{m.Row, m.Col}
		if seen[cell] {
			dups = append(dups, m)
		}
		seen[cell] = true
	}
	return dups
}

// PlayerSpec mirrors the per-side player object carried by saved games and
// play requests.
type PlayerSpec struct {
	Player string  `json:"player"`
	Depth  int     `json:"depth,omitempty"`
	TimeMs float64 `json:"time_ms"`
}

// Record is a parsed result artifact or saved game.
type Record struct {
	Winner    Winner
	Moves     Transcript
	BoardSize int
	XPlayer   string
	OPlayer   string
}

type rawRecord struct {
	Winner    *string     `json:"winner"`
	Moves     []Move      `json:"moves"`
	BoardSize int         `json:"board_size"`
	Board     int         `json:"board"`
	X         *PlayerSpec `json:"X"`
	O         *PlayerSpec `json:"O"`
}

// ParseRecord decodes and validates a result artifact. The winner field is
// required and must be X, O or draw; anything else is ErrArtifactMalformed.
func ParseRecord(data []byte) (*Record, error) {
	var raw rawRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrArtifactMalformed, err)
	}
	if raw.Winner == nil {
		return nil, fmt.Errorf("%w: missing winner", ErrArtifactMalformed)
	}

	winner := Winner(*raw.Winner)
	switch winner {
	case WinnerX, WinnerO, WinnerDraw:
	default:
		return nil, fmt.Errorf("%w: unknown winner %q", ErrArtifactMalformed, *raw.Winner)
	}

	rec := &Record{
		Winner:    winner,
		Moves:     raw.Moves,
		BoardSize: raw.BoardSize,
	}
	if rec.BoardSize == 0 {
		rec.BoardSize = raw.Board
	}
	if raw.X != nil {
		rec.XPlayer = raw.X.Player
	}
	if raw.O != nil {
		rec.OPlayer = raw.O.Player
	}
	return rec, nil
}

// ReadRecord loads a result artifact from disk.
func ReadRecord(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrArtifactMissing, path)
		}
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	return ParseRecord(data)
}
