package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version kong.VersionFlag `short:"v" help:"Show version"`
	Server  ServerCmd        `cmd:"" help:"Run the relay participants exchange hands through"`
	Demo    DemoCmd          `cmd:"" help:"Run a full honest hand end to end against a local relay"`
	Shuffle ShuffleCmd       `cmd:"" help:"Print the deterministic permutation for a combined seed"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("fairdeck"),
		kong.Description("Decentralized verifiable deck shuffling for card games"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
