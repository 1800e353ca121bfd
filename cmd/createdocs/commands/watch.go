package commands

import (
	"context"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/secondlife/create/internal/defs"
	"github.com/secondlife/create/internal/fetch"
	"github.com/secondlife/create/internal/logfields"
	"github.com/secondlife/create/internal/metrics"
	"github.com/secondlife/create/internal/pages"
	"github.com/secondlife/create/internal/retry"
	"github.com/secondlife/create/internal/state"
	"github.com/secondlife/create/internal/watch"
)

// WatchCmd implements the 'watch' command: regenerate on definitions change,
// with optional periodic refetch, NATS notifications and Prometheus metrics.
type WatchCmd struct {
	Output       string        `short:"o" help:"Output root for generated pages" default:"docs/reference"`
	Concurrency  int           `help:"Page generation worker count" default:"8"`
	URL          string        `help:"Definitions source for the initial fetch and periodic refresh"`
	Debounce     time.Duration `help:"Quiet period after a change before regenerating" default:"2s"`
	RefreshEvery time.Duration `name:"refresh-every" help:"Periodically re-fetch definitions from upstream (0 disables)"`
	NatsURL      string        `name:"nats-url" help:"Publish regeneration events to this NATS server"`
	NatsSubject  string        `name:"nats-subject" help:"NATS subject for regeneration events" default:"createdocs.regenerated"`
	MetricsAddr  string        `name:"metrics-addr" help:"Serve Prometheus metrics on this address (e.g. :9090)"`
	StateDB      string        `name:"state-db" help:"Generation history database path" default:".createdocs/state.db"`
}

func (w *WatchCmd) Run(_ *Global, cli *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	if w.MetricsAddr != "" {
		reg := prom.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(reg)
		srv := &http.Server{Addr: w.MetricsAddr, Handler: metrics.HTTPHandler(reg)}
		go func() {
			slog.Info("Serving metrics", "addr", w.MetricsAddr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("Metrics server failed", logfields.Error(err))
			}
		}()
		defer func() { _ = srv.Close() }()
	}

	fetcher := fetch.New(fetch.DefaultTimeout, retry.DefaultPolicy())
	if _, err := fetcher.EnsureLocal(ctx, w.URL, cli.Defs); err != nil {
		return err
	}

	var notifier watch.Notifier
	if w.NatsURL != "" {
		n, err := watch.NewNATSNotifier(w.NatsURL, w.NatsSubject)
		if err != nil {
			return err
		}
		defer n.Close()
		notifier = n
	}

	store, err := state.Open(w.StateDB)
	if err != nil {
		slog.Warn("Could not open history database, history disabled", logfields.Error(err))
		store = nil
	} else {
		defer func() { _ = store.Close() }()
	}

	regen := func(ctx context.Context) (*pages.Report, error) {
		// A fresh Library per batch: the file just changed, so the
		// process-lifetime cache of the previous document does not apply.
		doc, err := defs.NewLibrary(cli.Defs).Definitions()
		if err != nil {
			return nil, err
		}
		generator := pages.NewGenerator(pages.Options{
			Root:        w.Output,
			Concurrency: w.Concurrency,
			Recorder:    recorder,
		})
		report, err := generator.Generate(ctx, doc)
		if err != nil {
			return nil, err
		}
		if store != nil {
			if err := store.RecordRun(ctx, report); err != nil {
				slog.Warn("Could not record generation run", logfields.Error(err))
			}
		}
		return report, nil
	}

	watcher, err := watch.New(watch.Options{
		DefsPath:     cli.Defs,
		Debounce:     w.Debounce,
		RefreshEvery: w.RefreshEvery,
		Refetch: func(ctx context.Context) error {
			started := time.Now()
			err := fetcher.Fetch(ctx, w.URL, cli.Defs)
			recorder.ObserveFetchDuration(time.Since(started), err == nil)
			return err
		},
		Notifier: notifier,
	}, regen)
	if err != nil {
		return err
	}

	// One initial pass so a fresh checkout is fully generated before the
	// watcher goes idle.
	if report, err := regen(ctx); err != nil {
		return err
	} else {
		printCounts(report)
	}

	return watcher.Run(ctx)
}
