// Package commands defines the createdocs CLI surface.
package commands

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
)

// Global context passed to subcommands if we need to share global state later.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Defs    string           `help:"Path to the local definitions file" default:"data/lsl_definitions.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Fetch    FetchCmd    `cmd:"" help:"Fetch the definitions file if it is not present locally"`
	Generate GenerateCmd `cmd:"" help:"Generate reference pages for every constant, function and event"`
	Lint     LintCmd     `cmd:"" help:"Check generated reference pages"`
	History  HistoryCmd  `cmd:"" help:"Show recent generation runs"`
	Watch    WatchCmd    `cmd:"" help:"Regenerate pages whenever the definitions file changes"`
}

// AfterApply runs after flag parsing; sets up logging and .env loading once.
func (c *CLI) AfterApply() error {
	for _, f := range []string{".env", ".env.local"} {
		if _, err := os.Stat(f); err == nil {
			// godotenv never overrides variables already in the environment.
			_ = godotenv.Load(f)
		}
	}

	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}
