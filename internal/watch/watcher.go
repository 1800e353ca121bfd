// Package watch regenerates reference pages whenever the definitions file
// changes, with an optional periodic re-fetch for unattended builders.
package watch

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"

	pipeerr "github.com/secondlife/create/internal/errors"
	"github.com/secondlife/create/internal/logfields"
	"github.com/secondlife/create/internal/pages"
)

// RegenerateFunc runs one generation batch.
type RegenerateFunc func(ctx context.Context) (*pages.Report, error)

// RefetchFunc refreshes the local definitions file from upstream.
type RefetchFunc func(ctx context.Context) error

// Options configures a Watcher.
type Options struct {
	DefsPath     string
	Debounce     time.Duration // collapse rapid writes; default 2s
	RefreshEvery time.Duration // periodic refetch interval; 0 disables
	Refetch      RefetchFunc   // required when RefreshEvery > 0
	Notifier     Notifier      // optional, nil disables notifications
}

// Watcher drives regeneration from filesystem events and the refresh schedule.
type Watcher struct {
	opts  Options
	regen RegenerateFunc
	kick  chan struct{}
}

// New validates options and returns a Watcher.
func New(opts Options, regen RegenerateFunc) (*Watcher, error) {
	if opts.DefsPath == "" {
		return nil, pipeerr.New(pipeerr.CategoryWatch, pipeerr.SeverityFatal, "definitions path is required")
	}
	if opts.Debounce <= 0 {
		opts.Debounce = 2 * time.Second
	}
	if opts.RefreshEvery > 0 && opts.Refetch == nil {
		return nil, pipeerr.New(pipeerr.CategoryWatch, pipeerr.SeverityFatal, "refresh interval set without a refetch function")
	}
	return &Watcher{opts: opts, regen: regen, kick: make(chan struct{}, 1)}, nil
}

// Run watches until the context is canceled. The definitions file's directory
// is watched rather than the file itself so atomic rename-into-place writes
// are observed.
func (w *Watcher) Run(ctx context.Context) error {
	absPath, err := filepath.Abs(w.opts.DefsPath)
	if err != nil {
		return pipeerr.Wrap(err, pipeerr.CategoryWatch, pipeerr.SeverityFatal, "resolve definitions path")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return pipeerr.Wrap(err, pipeerr.CategoryWatch, pipeerr.SeverityFatal, "create file watcher")
	}
	defer func() { _ = fsw.Close() }()

	if err := fsw.Add(filepath.Dir(absPath)); err != nil {
		return pipeerr.Wrap(err, pipeerr.CategoryWatch, pipeerr.SeverityFatal, "watch definitions directory").
			WithContext("path", filepath.Dir(absPath))
	}

	var sched gocron.Scheduler
	if w.opts.RefreshEvery > 0 {
		sched, err = gocron.NewScheduler()
		if err != nil {
			return pipeerr.Wrap(err, pipeerr.CategoryWatch, pipeerr.SeverityFatal, "create refresh scheduler")
		}
		_, err = sched.NewJob(
			gocron.DurationJob(w.opts.RefreshEvery),
			gocron.NewTask(w.requestRefresh),
			gocron.WithName("definitions-refresh"),
		)
		if err != nil {
			return pipeerr.Wrap(err, pipeerr.CategoryWatch, pipeerr.SeverityFatal, "schedule refresh job")
		}
		sched.Start()
		defer func() { _ = sched.Shutdown() }()
		slog.Info("Scheduled periodic definitions refresh", slog.Duration("every", w.opts.RefreshEvery))
	}

	slog.Info("Watching definitions file", logfields.Path(absPath), slog.Duration("debounce", w.opts.Debounce))

	debounce := time.NewTimer(w.opts.Debounce)
	if !debounce.Stop() {
		<-debounce.C
	}

	fileName := filepath.Base(absPath)
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != fileName {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				slog.Debug("Definitions change detected", logfields.Path(event.Name), slog.String("op", event.Op.String()))
				debounce.Reset(w.opts.Debounce)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("File watcher error", logfields.Error(err))

		case <-debounce.C:
			w.regenerate(ctx)

		case <-w.kick:
			if w.opts.Refetch != nil {
				if err := w.opts.Refetch(ctx); err != nil {
					slog.Error("Scheduled refetch failed", logfields.Error(err))
					continue
				}
			}
			// The refetched file lands via rename, which the fsnotify loop
			// also sees; regenerating here keeps behavior deterministic when
			// the content did not change.
			w.regenerate(ctx)
		}
	}
}

// requestRefresh is invoked by gocron; it nudges the main loop without
// blocking if a refresh is already pending.
func (w *Watcher) requestRefresh() {
	select {
	case w.kick <- struct{}{}:
	default:
	}
}

func (w *Watcher) regenerate(ctx context.Context) {
	report, err := w.regen(ctx)
	if err != nil {
		slog.Error("Regeneration failed", logfields.Error(err))
		return
	}
	slog.Info("Regeneration complete",
		logfields.RunID(report.RunID),
		slog.Int("pages", len(report.Pages)),
		slog.Int("failed", report.Failed()))
	if w.opts.Notifier != nil {
		if err := w.opts.Notifier.PublishRegenerated(ctx, report); err != nil {
			slog.Warn("Failed to publish regeneration event", logfields.Error(err))
		}
	}
}
