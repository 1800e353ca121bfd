package main

import (
	"log/slog"

	"github.com/alecthomas/kong"

	"github.com/secondlife/create/cmd/createdocs/commands"
)

// version is overridden at build time via -ldflags.
var version = "dev"

func main() {
	cli := commands.CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("createdocs"),
		kong.Description("Reference page pipeline for the scripting documentation site: fetch the definitions file, generate per-entry pages, keep hand-written sections intact."),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	)

	err := ctx.Run(&commands.Global{Logger: slog.Default()}, &cli)
	ctx.FatalIfErrorf(err)
}
