package main

import (
	"github.com/alecthomas/kong"
	"github.com/lox/blackjack/internal/client"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version  kong.VersionFlag `short:"v" help:"Show version"`
	Serve    ServeCmd         `cmd:"" help:"Run the blackjack table server"`
	Play     PlayCmd          `cmd:"" help:"Play at the terminal, locally or against a server"`
	Simulate SimulateCmd      `cmd:"" help:"Simulate basic strategy against the round engine"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("blackjack"),
		kong.Description("Server-authoritative blackjack tables"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version":  version,
			"identity": client.DefaultIdentityPath(),
		},
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
