package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/kigster/gomoku-eval/cmd/gomoku-eval/shared"
	"github.com/kigster/gomoku-eval/internal/critic"
	"github.com/kigster/gomoku-eval/internal/engine"
)

type ReviewCmd struct {
	Game     string `required:"" help:"Path to the saved game JSON"`
	Provider string `default:"anthropic" enum:"anthropic,openai" help:"LLM provider"`
	Model    string `help:"Model to use (per-provider default otherwise)"`
	APIKey   string `help:"API key (falls back to ANTHROPIC_API_KEY or OPENAI_API_KEY)"`
	Output   string `help:"Save the evaluation as JSON to this path"`
}

func (c *ReviewCmd) Run(logger zerolog.Logger) error {
	ctx := shared.SignalContext(logger)

	rec, err := engine.ReadRecord(c.Game)
	if err != nil {
		return err
	}

	provider, model, err := c.buildProvider()
	if err != nil {
		return err
	}

	fmt.Printf("Evaluating game using %s (%s)...\n", provider.Name(), model)

	eval, err := critic.New(provider, logger).Review(ctx, rec)
	if err != nil {
		return err
	}

	critic.RenderEvaluation(os.Stdout, eval)

	if c.Output != "" {
		if err := critic.Save(c.Output, eval); err != nil {
			return err
		}
		fmt.Printf("Evaluation saved to: %s\n", c.Output)
	}
	return nil
}

func (c *ReviewCmd) buildProvider() (critic.Provider, string, error) {
	key := c.APIKey

	switch c.Provider {
	case "openai":
		if key == "" {
			key = os.Getenv("OPENAI_API_KEY")
		}
		if key == "" {
			return nil, "", errors.New("no API key provided, set OPENAI_API_KEY or use --api-key")
		}
		p, err := critic.NewOpenAIProvider(key, c.Model)
		if err != nil {
			return nil, "", err
		}
		return p, p.Model(), nil

	default:
		if key == "" {
			key = os.Getenv("ANTHROPIC_API_KEY")
		}
		if key == "" {
			return nil, "", errors.New("no API key provided, set ANTHROPIC_API_KEY or use --api-key")
		}
		p, err := critic.NewAnthropicProvider(key, c.Model)
		if err != nil {
			return nil, "", err
		}
		return p, p.Model(), nil
	}
}
