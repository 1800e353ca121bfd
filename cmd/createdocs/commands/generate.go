package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/secondlife/create/internal/defs"
	pipeerr "github.com/secondlife/create/internal/errors"
	"github.com/secondlife/create/internal/fetch"
	"github.com/secondlife/create/internal/logfields"
	"github.com/secondlife/create/internal/metrics"
	"github.com/secondlife/create/internal/pages"
	"github.com/secondlife/create/internal/retry"
	"github.com/secondlife/create/internal/state"
)

// GenerateCmd implements the 'generate' command: one reference page per
// (entry, language variant) pair.
type GenerateCmd struct {
	Output      string `short:"o" help:"Output root for generated pages" default:"docs/reference"`
	Concurrency int    `help:"Page generation worker count" default:"8"`
	URL         string `help:"Definitions source used when the local file is absent"`
	StateDB     string `name:"state-db" help:"Generation history database path" default:".createdocs/state.db"`
	NoHistory   bool   `name:"no-history" help:"Skip recording this run in the history database"`
}

func (g *GenerateCmd) Run(_ *Global, cli *CLI) error {
	ctx := context.Background()

	// Auto-fetch path: without a definitions file there is no valid
	// downstream state, so a failed fetch is fatal here.
	fetcher := fetch.New(fetch.DefaultTimeout, retry.DefaultPolicy())
	if _, err := fetcher.EnsureLocal(ctx, g.URL, cli.Defs); err != nil {
		return err
	}

	lib := defs.NewLibrary(cli.Defs)
	doc, err := lib.Definitions()
	if err != nil {
		return err
	}

	generator := pages.NewGenerator(pages.Options{
		Root:        g.Output,
		Concurrency: g.Concurrency,
	})
	report, err := generator.Generate(ctx, doc)
	if err != nil {
		return err
	}

	if !g.NoHistory {
		recordRun(ctx, g.StateDB, report)
	}

	printCounts(report)
	if failed := report.Failed(); failed > 0 {
		return pipeerr.New(pipeerr.CategoryGenerate, pipeerr.SeverityError,
			fmt.Sprintf("%d page(s) failed to generate", failed))
	}
	return nil
}

// recordRun persists the report; history is observability, so failures only warn.
func recordRun(ctx context.Context, dbPath string, report *pages.Report) {
	store, err := state.Open(dbPath)
	if err != nil {
		slog.Warn("Could not open history database", logfields.Error(err))
		return
	}
	defer func() { _ = store.Close() }()
	if err := store.RecordRun(ctx, report); err != nil {
		slog.Warn("Could not record generation run", logfields.Error(err))
	}
}

func printCounts(report *pages.Report) {
	for _, kind := range []pages.Kind{pages.KindConstant, pages.KindFunction, pages.KindEvent} {
		fmt.Printf("%s: %d written, %d unchanged, %d skipped, %d failed\n",
			kind.Plural(),
			report.Count(kind, metrics.ActionWritten),
			report.Count(kind, metrics.ActionUnchanged),
			report.Count(kind, metrics.ActionSkipped),
			report.Count(kind, metrics.ActionFailed))
	}
	fmt.Printf("run %s finished in %s\n", report.RunID, report.Finished.Sub(report.Started).Round(time.Millisecond))
}
