package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/secondlife/create/internal/fetch"
	"github.com/secondlife/create/internal/retry"
)

// FetchCmd implements the 'fetch' command.
type FetchCmd struct {
	URL     string        `arg:"" optional:"" help:"Definitions source URL (HTTP or git). Defaults to the upstream location."`
	Force   bool          `help:"Re-fetch even when the local file exists"`
	Timeout time.Duration `help:"Timeout for a single fetch attempt" default:"30s"`
}

func (f *FetchCmd) Run(_ *Global, cli *CLI) error {
	ctx := context.Background()
	fetcher := fetch.New(f.Timeout, retry.DefaultPolicy())

	if f.Force {
		if err := fetcher.Fetch(ctx, f.URL, cli.Defs); err != nil {
			return err
		}
		fmt.Printf("Fetched definitions to %s\n", cli.Defs)
		return nil
	}

	fetched, err := fetcher.EnsureLocal(ctx, f.URL, cli.Defs)
	if err != nil {
		return err
	}
	if fetched {
		fmt.Printf("Fetched definitions to %s\n", cli.Defs)
	} else {
		fmt.Printf("Definitions already present at %s\n", cli.Defs)
	}
	return nil
}
