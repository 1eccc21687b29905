package main

import (
	"errors"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/kigster/gomoku-eval/cmd/gomoku-eval/shared"
	"github.com/kigster/gomoku-eval/internal/gameserver"
	"github.com/kigster/gomoku-eval/internal/verify"
)

type VerifyCmd struct {
	Server           string        `default:"./gomoku-httpd" help:"Path to the game server binary"`
	Port             int           `default:"8999" help:"Port to run the server on"`
	URL              string        `help:"Verify an already-running server at this base URL instead of launching one"`
	Depth            int           `default:"10" help:"Engine depth requested in play requests"`
	Budget           time.Duration `default:"1s" help:"Per-request time budget declared to the server"`
	BudgetMultiplier float64       `default:"1.5" help:"Allowed overshoot before a budget breach"`
	MinUnbounded     time.Duration `default:"1.1s" help:"Minimum unbounded duration that counts as evidence"`
	ClientTimeout    time.Duration `default:"10s" help:"Client-side bound on each request"`
	Grace            time.Duration `default:"1s" help:"Startup grace before the server is considered ready"`
}

func (c *VerifyCmd) Run(logger zerolog.Logger) error {
	ctx := shared.SignalContext(logger)

	policy := verify.Policy{
		Budget:           c.Budget,
		BudgetMultiplier: c.BudgetMultiplier,
		MinUnbounded:     c.MinUnbounded,
		ClientTimeout:    c.ClientTimeout,
	}

	baseURL := c.URL
	if baseURL == "" {
		lifecycle, err := gameserver.NewLifecycle(c.Server, c.Port, logger,
			gameserver.WithStartupGrace(c.Grace))
		if err != nil {
			return err
		}

		p, err := lifecycle.Start(ctx)
		if err != nil {
			return err
		}
		defer func() {
			if err := lifecycle.Stop(p); err != nil {
				logger.Error().Err(err).Msg("Failed to stop game server")
			}
		}()
		baseURL = lifecycle.BaseURL()
	}

	v, err := verify.NewVerifier(baseURL, c.Depth, policy, logger)
	if err != nil {
		return err
	}

	results := v.Verify(ctx)
	verify.RenderResults(os.Stdout, baseURL, results)

	if verify.Failed(results) {
		return errors.New("timeout verification failed")
	}
	return nil
}
