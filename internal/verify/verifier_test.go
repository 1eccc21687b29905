package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kigster/gomoku-eval/internal/engine"
)

func TestMidgameTranscript(t *testing.T) {
	moves := MidgameTranscript()

	assert.Len(t, moves, 21)
	assert.Empty(t, moves.Duplicates())

	last, ok := moves.LastPlayer()
	require.True(t, ok)
	assert.Equal(t, engine.StoneX, last)

	assert.Equal(t, engine.XMove(5, 5), moves[0])
	assert.Equal(t, engine.OMove(5, 6), moves[1])
	assert.Equal(t, engine.XMove(15, 15), moves[20])
}

func TestNewPlayRequest(t *testing.T) {
	req, err := NewPlayRequest(19, 10, MidgameTranscript())
	require.NoError(t, err)
	assert.Equal(t, 19, req.BoardSize)
	assert.Equal(t, "human", req.X.Player)
	assert.Equal(t, "AI", req.O.Player)
	assert.Equal(t, 10, req.O.Depth)
	assert.Zero(t, req.Timeout)
}

func TestNewPlayRequestRejectsWrongSideToMove(t *testing.T) {
	_, err := NewPlayRequest(19, 10, engine.Transcript{engine.XMove(5, 5), engine.OMove(5, 6)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must end on an X move")

	_, err = NewPlayRequest(19, 10, nil)
	require.Error(t, err)
}

func TestPlayRequestWireFormat(t *testing.T) {
	req, err := NewPlayRequest(19, 10, MidgameTranscript())
	require.NoError(t, err)
	req.Timeout = 1

	data, err := json.Marshal(req)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))

	assert.Equal(t, float64(19), m["board_size"])
	assert.Equal(t, float64(1), m["timeout"])

	x := m["X"].(map[string]any)
	assert.Equal(t, "human", x["player"])
	assert.Equal(t, float64(0), x["time_ms"])

	o := m["O"].(map[string]any)
	assert.Equal(t, "AI", o["player"])
	assert.Equal(t, float64(10), o["depth"])
	_, hasTimeMs := o["time_ms"]
	assert.False(t, hasTimeMs, "engine side should not carry a time_ms field")

	moves := m["moves"].([]any)
	require.Len(t, moves, 21)
	first := moves[0].(map[string]any)
	assert.Equal(t, []any{float64(5), float64(5)}, first["X"])
}

func TestPlayRequestOmitsTimeoutWhenUnset(t *testing.T) {
	req, err := NewPlayRequest(19, 10, MidgameTranscript())
	require.NoError(t, err)

	data, err := json.Marshal(req)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	_, hasTimeout := m["timeout"]
	assert.False(t, hasTimeout)
}

// playServer simulates the game server, advancing the mock clock by a
// different amount depending on whether the request carried a budget.
func playServer(t *testing.T, clock *quartz.Mock, bounded, unbounded time.Duration) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		assert.NoError(t, err)

		var req PlayRequest
		assert.NoError(t, json.Unmarshal(data, &req))
		assert.Equal(t, 19, req.BoardSize)
		assert.Len(t, req.Moves, 21)

		if req.Timeout > 0 {
			clock.Advance(bounded)
		} else {
			clock.Advance(unbounded)
		}
		fmt.Fprint(w, `{"move":{"O":[15,16]}}`)
	}))
}

func newTestVerifier(t *testing.T, srv *httptest.Server, clock quartz.Clock) *Verifier {
	t.Helper()
	v, err := NewVerifier(srv.URL, 10, DefaultPolicy(), zerolog.Nop(),
		WithClock(clock), WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return v
}

func TestVerifyTimingCases(t *testing.T) {
	tests := []struct {
		name          string
		bounded       time.Duration
		unbounded     time.Duration
		wantBounded   Status
		wantUnbounded Status
	}{
		{"budget honored and search runs long", 800 * time.Millisecond, 2 * time.Second, StatusPass, StatusPass},
		{"budget breached", 2 * time.Second, 2 * time.Second, StatusFail, StatusPass},
		{"quick unbounded reply", 800 * time.Millisecond, 500 * time.Millisecond, StatusPass, StatusInconclusive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := quartz.NewMock(t)
			srv := playServer(t, clock, tt.bounded, tt.unbounded)
			defer srv.Close()

			v := newTestVerifier(t, srv, clock)
			results := v.Verify(context.Background())
			require.Len(t, results, 2)

			assert.Equal(t, tt.wantBounded, results[0].Status, results[0].Detail)
			assert.Equal(t, tt.bounded, results[0].Elapsed)
			assert.Equal(t, tt.wantUnbounded, results[1].Status, results[1].Detail)
			assert.Equal(t, tt.unbounded, results[1].Elapsed)
		})
	}
}

func TestVerifyBudgetBreachDetail(t *testing.T) {
	clock := quartz.NewMock(t)
	srv := playServer(t, clock, 2*time.Second, 2*time.Second)
	defer srv.Close()

	v := newTestVerifier(t, srv, clock)
	results := v.Verify(context.Background())

	require.Equal(t, StatusFail, results[0].Status)
	assert.Contains(t, results[0].Detail, "2.00s")
	assert.Contains(t, results[0].Detail, "1.50s")
}

func TestVerifyTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	v, err := NewVerifier(url, 10, DefaultPolicy(), zerolog.Nop())
	require.NoError(t, err)

	results := v.Verify(context.Background())
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, StatusFail, r.Status)
		assert.Contains(t, r.Detail, "request failed")
	}
}

func TestVerifyProtocolError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "engine exploded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	v := newTestVerifier(t, srv, quartz.NewMock(t))
	results := v.Verify(context.Background())

	for _, r := range results {
		assert.Equal(t, StatusFail, r.Status)
		assert.Contains(t, r.Detail, "500")
		assert.Contains(t, r.Detail, "engine exploded")
	}
}

func TestVerifyMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html>not json</html>")
	}))
	defer srv.Close()

	v := newTestVerifier(t, srv, quartz.NewMock(t))
	results := v.Verify(context.Background())

	for _, r := range results {
		assert.Equal(t, StatusFail, r.Status)
		assert.Contains(t, r.Detail, "malformed response body")
	}
}

func TestNewVerifierValidation(t *testing.T) {
	_, err := NewVerifier("http://localhost:8999", 0, DefaultPolicy(), zerolog.Nop())
	assert.Error(t, err)

	bad := DefaultPolicy()
	bad.Budget = 0
	_, err = NewVerifier("http://localhost:8999", 10, bad, zerolog.Nop())
	assert.Error(t, err)

	bad = DefaultPolicy()
	bad.BudgetMultiplier = 0.5
	_, err = NewVerifier("http://localhost:8999", 10, bad, zerolog.Nop())
	assert.Error(t, err)
}

func TestFailed(t *testing.T) {
	assert.False(t, Failed(nil))
	assert.False(t, Failed([]Result{{Status: StatusPass}, {Status: StatusInconclusive}}))
	assert.True(t, Failed([]Result{{Status: StatusPass}, {Status: StatusFail}}))
}

func TestRenderResults(t *testing.T) {
	results := []Result{
		{Name: "respects 1s budget", Status: StatusPass, Elapsed: 800 * time.Millisecond, Detail: "responded in 0.80s"},
		{Name: "searches freely without a budget", Status: StatusInconclusive, Elapsed: 500 * time.Millisecond, Detail: "below the threshold"},
	}

	var buf strings.Builder
	RenderResults(&buf, "http://localhost:8999", results)
	out := buf.String()

	assert.Contains(t, out, "Timeout Verification")
	assert.Contains(t, out, "Server: http://localhost:8999")
	assert.Contains(t, out, "PASS")
	assert.Contains(t, out, "INCONCLUSIVE")
	assert.Contains(t, out, "Timeout contract holds")

	buf.Reset()
	results[1] = Result{Name: "respects 1s budget", Status: StatusFail, Detail: "response took 2.00s"}
	RenderResults(&buf, "http://localhost:8999", results)
	assert.Contains(t, buf.String(), "FAIL")
	assert.Contains(t, buf.String(), "Timeout contract violated")
}
