package main

import (
	"fmt"

	"github.com/alecthomas/kong"

	"github.com/kigster/gomoku-eval/cmd/gomoku-eval/shared"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version  kong.VersionFlag `short:"v" help:"Show version"`
	LogLevel string           `default:"info" enum:"debug,info,warn,error" help:"Log level"`
	LogJSON  bool             `help:"Output JSON logs instead of console format"`

	Tournament TournamentCmd `cmd:"" help:"Run engine-vs-engine tournaments"`
	Verify     VerifyCmd     `cmd:"" help:"Verify the game server honors its time budget"`
	Review     ReviewCmd     `cmd:"" help:"Review a saved game with an LLM critic"`
	VersionCmd VersionCmd    `cmd:"" name:"version" help:"Print the build version"`
}

type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("gomoku-eval %s\n", version)
	return nil
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("gomoku-eval"),
		kong.Description("Black-box evaluation harness for the gomoku engine"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)

	logger := shared.NewLogger(cli.LogLevel, cli.LogJSON)
	err := ctx.Run(logger)
	ctx.FatalIfErrorf(err)
}
