package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/secondlife/create/internal/state"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	StateDB string `name:"state-db" help:"Generation history database path" default:".createdocs/state.db"`
	Limit   int    `help:"Number of runs to show" default:"10"`
	Failed  bool   `help:"Also list failed pages for each run"`
}

func (h *HistoryCmd) Run(_ *Global, _ *CLI) error {
	store, err := state.Open(h.StateDB)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	runs, err := store.RecentRuns(ctx, h.Limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no generation runs recorded")
		return nil
	}

	for _, run := range runs {
		fmt.Printf("%s  %s  written=%d unchanged=%d failed=%d\n",
			run.Started.Format(time.RFC3339), run.ID, run.Written, run.Unchanged, run.Failed)
		if h.Failed && run.Failed > 0 {
			pagesFailed, err := store.FailedPages(ctx, run.ID)
			if err != nil {
				return err
			}
			for _, p := range pagesFailed {
				fmt.Printf("    %s %s/%s: %s\n", p.Name, p.Variant, p.Kind, p.Err)
			}
		}
	}
	return nil
}
