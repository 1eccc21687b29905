package main

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/kigster/gomoku-eval/cmd/gomoku-eval/shared"
	"github.com/kigster/gomoku-eval/internal/engine"
	"github.com/kigster/gomoku-eval/internal/tournament"
)

type TournamentCmd struct {
	Engine      string        `default:"./gomoku" help:"Path to the engine binary"`
	Games       int           `default:"10" help:"Number of games to play"`
	DepthX      int           `default:"2" help:"Search depth for player X"`
	DepthO      int           `default:"2" help:"Search depth for player O"`
	Board       int           `default:"15" help:"Board size (15 or 19)"`
	Radius      int           `default:"3" help:"Search radius"`
	GameTimeout time.Duration `default:"300s" help:"Wall-clock limit per game"`
	Concurrency int           `default:"1" help:"Games run in parallel"`
	Suite       string        `help:"HCL suite file declaring several matchups (overrides the single-matchup flags)"`
}

func (c *TournamentCmd) Run(logger zerolog.Logger) error {
	ctx := shared.SignalContext(logger)

	if c.Suite != "" {
		return c.runSuite(ctx, logger)
	}

	runner, err := engine.NewRunner(c.Engine, logger, engine.WithWallClock(c.GameTimeout))
	if err != nil {
		return err
	}

	cfg := engine.TrialConfig{
		DepthX:    c.DepthX,
		DepthO:    c.DepthO,
		BoardSize: c.Board,
		Radius:    c.Radius,
	}
	return c.runMatchup(ctx, runner, logger, "", cfg, c.Games)
}

func (c *TournamentCmd) runSuite(ctx context.Context, logger zerolog.Logger) error {
	suite, err := tournament.LoadSuite(c.Suite)
	if err != nil {
		return err
	}

	enginePath := c.Engine
	if suite.Engine != "" {
		enginePath = suite.Engine
	}
	runner, err := engine.NewRunner(enginePath, logger, engine.WithWallClock(c.GameTimeout))
	if err != nil {
		return err
	}

	for _, m := range suite.Matchups {
		if err := c.runMatchup(ctx, runner, logger, m.Name, m.Config(), m.Trials); err != nil {
			return err
		}
	}
	return nil
}

func (c *TournamentCmd) runMatchup(ctx context.Context, runner *engine.Runner, logger zerolog.Logger, name string, cfg engine.TrialConfig, games int) error {
	reporter := tournament.NewReporter(os.Stdout)

	orch, err := tournament.NewOrchestrator(runner, cfg, games, logger,
		tournament.WithWorkers(c.Concurrency),
		tournament.WithTrialCallback(reporter.Trial),
	)
	if err != nil {
		return err
	}

	reporter.Start(name, cfg, games)
	summary, runErr := orch.Run(ctx)

	// Partial results still print when the run is cut short.
	reporter.Summarize(summary, cfg)
	return runErr
}
