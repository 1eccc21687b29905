package verify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"
)

// bodyExcerptLimit bounds how much of a response body is carried into a
// failure detail.
const bodyExcerptLimit = 500

// maxResponseBytes caps how much of a response is read at all.
const maxResponseBytes = 1 << 20

func excerpt(body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) > bodyExcerptLimit {
		body = body[:bodyExcerptLimit]
	}
	return string(body)
}

// Status classifies one verification case.
type Status string

const (
	StatusPass         Status = "pass"
	StatusFail         Status = "fail"
	StatusInconclusive Status = "inconclusive"
)

// Result is the outcome of one verification case.
type Result struct {
	Name    string
	Status  Status
	Elapsed time.Duration
	Detail  string
}

// Policy holds the timing thresholds the verifier asserts against. The
// constants encode expectations about engine speed at the configured depth
// and are tunable rather than physical.
type Policy struct {
	// Budget is the per-request time budget declared to the server.
	Budget time.Duration
	// BudgetMultiplier is the allowed overshoot before a bounded request
	// counts as a breach.
	BudgetMultiplier float64
	// MinUnbounded is the minimum duration an unbounded request must take
	// to count as evidence the budget was the limiting factor.
	MinUnbounded time.Duration
	// ClientTimeout bounds the verifier's own HTTP requests.
	ClientTimeout time.Duration
}

// DefaultPolicy matches a depth-10 engine on a 19x19 board.
func DefaultPolicy() Policy {
	return Policy{
		Budget:           time.Second,
		BudgetMultiplier: 1.5,
		MinUnbounded:     1100 * time.Millisecond,
		ClientTimeout:    10 * time.Second,
	}
}

func (p Policy) validate() error {
	if p.Budget <= 0 {
		return fmt.Errorf("budget must be positive, got %s", p.Budget)
	}
	if p.BudgetMultiplier < 1 {
		return fmt.Errorf("budget multiplier must be at least 1, got %g", p.BudgetMultiplier)
	}
	if p.ClientTimeout <= 0 {
		return fmt.Errorf("client timeout must be positive, got %s", p.ClientTimeout)
	}
	return nil
}

// allowance is the wall-clock limit a bounded request must meet.
func (p Policy) allowance() time.Duration {
	return time.Duration(float64(p.Budget) * p.BudgetMultiplier)
}

// Verifier round-trips a synthetic midgame position through a running game
// server and asserts the server honors its declared time budget.
type Verifier struct {
	url       string
	boardSize int
	depth     int
	policy    Policy
	client    *http.Client
	clock     quartz.Clock
	logger    zerolog.Logger
}

// VerifierOption configures a Verifier.
type VerifierOption func(*Verifier)

// WithClock substitutes the wall clock, for tests.
func WithClock(clock quartz.Clock) VerifierOption {
	return func(v *Verifier) { v.clock = clock }
}

// WithHTTPClient substitutes the HTTP client.
func WithHTTPClient(client *http.Client) VerifierOption {
	return func(v *Verifier) { v.client = client }
}

// WithBoardSize overrides the 19x19 default.
func WithBoardSize(size int) VerifierOption {
	return func(v *Verifier) { v.boardSize = size }
}

// NewVerifier builds a verifier against the server at baseURL. The depth is
// the engine strength requested for the O side.
func NewVerifier(baseURL string, depth int, policy Policy, logger zerolog.Logger, opts ...VerifierOption) (*Verifier, error) {
	if err := policy.validate(); err != nil {
		return nil, err
	}
	if depth < 1 {
		return nil, fmt.Errorf("depth must be at least 1, got %d", depth)
	}

	v := &Verifier{
		url:       baseURL + PlayPath,
		boardSize: 19,
		depth:     depth,
		policy:    policy,
		clock:     quartz.NewReal(),
		logger:    logger.With().Str("component", "verify").Logger(),
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.client == nil {
		v.client = &http.Client{Timeout: policy.ClientTimeout}
	}
	return v, nil
}

// Verify runs both timing cases against the server. The bounded case asserts
// the declared budget is honored; the unbounded case looks for evidence the
// engine runs past the budget when none is declared.
func (v *Verifier) Verify(ctx context.Context) []Result {
	return []Result{
		v.verifyBounded(ctx),
		v.verifyUnbounded(ctx),
	}
}

// Failed reports whether any case failed. Inconclusive results do not count
// as failures.
func Failed(results []Result) bool {
	for _, r := range results {
		if r.Status == StatusFail {
			return true
		}
	}
	return false
}

func (v *Verifier) verifyBounded(ctx context.Context) Result {
	name := fmt.Sprintf("respects %gs budget", v.policy.Budget.Seconds())

	req, err := NewPlayRequest(v.boardSize, v.depth, MidgameTranscript())
	if err != nil {
		return Result{Name: name, Status: StatusFail, Detail: err.Error()}
	}
	req.Timeout = v.policy.Budget.Seconds()

	elapsed, res := v.post(ctx, name, req)
	if res != nil {
		return *res
	}

	allowance := v.policy.allowance()
	if elapsed > allowance {
		return Result{
			Name:    name,
			Status:  StatusFail,
			Elapsed: elapsed,
			Detail:  fmt.Sprintf("response took %.2fs, allowed %.2fs (%.1fx budget)", elapsed.Seconds(), allowance.Seconds(), v.policy.BudgetMultiplier),
		}
	}
	return Result{
		Name:    name,
		Status:  StatusPass,
		Elapsed: elapsed,
		Detail:  fmt.Sprintf("responded in %.2fs, within the %.2fs allowance", elapsed.Seconds(), allowance.Seconds()),
	}
}

func (v *Verifier) verifyUnbounded(ctx context.Context) Result {
	name := "searches freely without a budget"

	req, err := NewPlayRequest(v.boardSize, v.depth, MidgameTranscript())
	if err != nil {
		return Result{Name: name, Status: StatusFail, Detail: err.Error()}
	}

	elapsed, res := v.post(ctx, name, req)
	if res != nil {
		return *res
	}

	if elapsed > v.policy.MinUnbounded {
		return Result{
			Name:    name,
			Status:  StatusPass,
			Elapsed: elapsed,
			Detail:  fmt.Sprintf("searched for %.2fs unconstrained, past the %.2fs threshold", elapsed.Seconds(), v.policy.MinUnbounded.Seconds()),
		}
	}
	return Result{
		Name:    name,
		Status:  StatusInconclusive,
		Elapsed: elapsed,
		Detail:  fmt.Sprintf("responded in %.2fs, below the %.2fs threshold; position may be too easy at depth %d", elapsed.Seconds(), v.policy.MinUnbounded.Seconds(), v.depth),
	}
}

// post issues one play request and measures its wall-clock duration. On a
// transport or protocol error it returns a terminal fail Result; otherwise
// the Result is nil and the elapsed time is valid.
func (v *Verifier) post(ctx context.Context, name string, pr *PlayRequest) (time.Duration, *Result) {
	payload, err := json.Marshal(pr)
	if err != nil {
		return 0, &Result{Name: name, Status: StatusFail, Detail: fmt.Sprintf("encoding request: %v", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, v.url, bytes.NewReader(payload))
	if err != nil {
		return 0, &Result{Name: name, Status: StatusFail, Detail: fmt.Sprintf("building request: %v", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	v.logger.Debug().
		Str("url", v.url).
		Float64("timeout_s", pr.Timeout).
		Msg("Sending play request")

	start := v.clock.Now()
	resp, err := v.client.Do(httpReq)
	elapsed := v.clock.Since(start)
	if err != nil {
		return 0, &Result{
			Name:    name,
			Status:  StatusFail,
			Elapsed: elapsed,
			Detail:  fmt.Sprintf("request failed: %v", err),
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, &Result{
			Name:    name,
			Status:  StatusFail,
			Elapsed: elapsed,
			Detail:  fmt.Sprintf("reading response: %v", err),
		}
	}

	if resp.StatusCode != http.StatusOK {
		return 0, &Result{
			Name:    name,
			Status:  StatusFail,
			Elapsed: elapsed,
			Detail:  fmt.Sprintf("server returned %d: %s", resp.StatusCode, excerpt(body)),
		}
	}
	if !json.Valid(body) {
		return 0, &Result{
			Name:    name,
			Status:  StatusFail,
			Elapsed: elapsed,
			Detail:  fmt.Sprintf("malformed response body: %s", excerpt(body)),
		}
	}

	v.logger.Debug().
		Dur("elapsed", elapsed).
		Msg("Play request completed")
	return elapsed, nil
}
