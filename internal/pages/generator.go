package pages

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/secondlife/create/internal/defs"
	pipeerr "github.com/secondlife/create/internal/errors"
	"github.com/secondlife/create/internal/logfields"
	"github.com/secondlife/create/internal/metrics"
)

// DefaultConcurrency bounds the page worker pool when the caller does not.
const DefaultConcurrency = 8

// Options configures a generation batch.
type Options struct {
	Root        string // output root; pages land under <root>/<variant>/<kind plural>/
	Concurrency int
	Recorder    metrics.Recorder
}

// job is one (entry, variant) page to produce.
type job struct {
	Name    string
	Tooltip string
	Kind    Kind
	Variant Variant
}

// PageResult records the outcome for one page.
type PageResult struct {
	Name    string
	Kind    Kind
	Variant Variant
	Path    string
	Action  metrics.PageAction
	Err     string
}

// Report summarizes a generation batch.
type Report struct {
	RunID    string
	Started  time.Time
	Finished time.Time
	Pages    []PageResult
}

// Count returns the number of pages of the given kind with the given action.
func (r *Report) Count(kind Kind, action metrics.PageAction) int {
	n := 0
	for _, p := range r.Pages {
		if p.Kind == kind && p.Action == action {
			n++
		}
	}
	return n
}

// Failed returns how many pages failed.
func (r *Report) Failed() int {
	n := 0
	for _, p := range r.Pages {
		if p.Action == metrics.ActionFailed {
			n++
		}
	}
	return n
}

// Generator produces reference pages from a parsed definitions document.
type Generator struct {
	root        string
	concurrency int
	recorder    metrics.Recorder
}

// NewGenerator creates a generator writing under opts.Root.
func NewGenerator(opts Options) *Generator {
	g := &Generator{
		root:        filepath.Clean(opts.Root),
		concurrency: opts.Concurrency,
		recorder:    opts.Recorder,
	}
	if g.concurrency <= 0 {
		g.concurrency = DefaultConcurrency
	}
	if g.recorder == nil {
		g.recorder = metrics.NoopRecorder{}
	}
	return g
}

// Generate runs the full batch over every entry in doc. Private entries are
// skipped for both variants; variant-exclusive entries are generated for
// their variant only. Skipped (entry, variant) pairs still appear in the
// report with a skipped action so history and metrics account for them.
// Per-page I/O failures are recorded in the report and do not abort the
// batch; the returned error is non-nil only for batch-level failures
// (filename collisions, canceled context).
func (g *Generator) Generate(ctx context.Context, doc *defs.Definitions) (*Report, error) {
	started := time.Now()
	report := &Report{
		RunID:   uuid.NewString(),
		Started: started,
	}

	jobs, skipped := collectJobs(doc)
	if err := checkCollisions(jobs); err != nil {
		return nil, err
	}

	for _, res := range skipped {
		g.recorder.IncPageOutcome(string(res.Kind), string(res.Variant), res.Action)
		report.Pages = append(report.Pages, res)
	}

	slog.Info("Starting page generation",
		logfields.RunID(report.RunID),
		slog.Int("pages", len(jobs)),
		slog.Int("concurrency", g.concurrency),
		logfields.Path(g.root))

	jobCh := make(chan job)
	resCh := make(chan PageResult)

	var wg sync.WaitGroup
	for i := 0; i < g.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobCh {
				resCh <- g.renderOne(j)
			}
		}()
	}
	go func() {
		defer close(jobCh)
		for _, j := range jobs {
			select {
			case <-ctx.Done():
				return
			case jobCh <- j:
			}
		}
	}()
	go func() {
		wg.Wait()
		close(resCh)
	}()

	for res := range resCh {
		g.recorder.IncPageOutcome(string(res.Kind), string(res.Variant), res.Action)
		if res.Action == metrics.ActionFailed {
			slog.Error("Page generation failed",
				logfields.RunID(report.RunID),
				logfields.Entry(res.Name),
				logfields.Kind(string(res.Kind)),
				logfields.Variant(string(res.Variant)),
				slog.String("error", res.Err))
		}
		report.Pages = append(report.Pages, res)
	}

	report.Finished = time.Now()
	g.recorder.ObserveBatchDuration(report.Finished.Sub(started))

	if err := ctx.Err(); err != nil {
		g.recorder.IncBatchOutcome("failed")
		return report, pipeerr.Wrap(err, pipeerr.CategoryGenerate, pipeerr.SeverityFatal, "generation canceled")
	}
	if report.Failed() > 0 {
		g.recorder.IncBatchOutcome("failed")
	} else {
		g.recorder.IncBatchOutcome("success")
	}
	return report, nil
}

// collectJobs applies the skip policy and flattens the document into page
// jobs, reporting each skipped (entry, variant) pair as a result. Map
// iteration order does not matter for output (each job owns its own file);
// jobs are still sorted for stable logs and deterministic collision
// reporting.
func collectJobs(doc *defs.Definitions) ([]job, []PageResult) {
	var (
		jobs    []job
		skipped []PageResult
	)

	add := func(name, tooltip string, kind Kind, flags defs.Flags) {
		for _, v := range Variants {
			excluded := flags.Private ||
				(flags.LSLOnly && v != VariantLSL) ||
				(flags.SluaOnly && v != VariantSlua)
			if excluded {
				skipped = append(skipped, PageResult{Name: name, Kind: kind, Variant: v, Action: metrics.ActionSkipped})
				continue
			}
			jobs = append(jobs, job{Name: name, Tooltip: tooltip, Kind: kind, Variant: v})
		}
	}

	for name, c := range doc.Constants {
		add(name, c.Tooltip, KindConstant, defs.Flags{Private: c.Private})
	}
	for name, f := range doc.Functions {
		add(name, f.Tooltip, KindFunction, f.Flags)
	}
	for name, e := range doc.Events {
		add(name, e.Tooltip, KindEvent, e.Flags)
	}

	sort.Slice(jobs, func(i, j int) bool {
		if jobs[i].Variant != jobs[j].Variant {
			return jobs[i].Variant < jobs[j].Variant
		}
		if jobs[i].Kind != jobs[j].Kind {
			return jobs[i].Kind < jobs[j].Kind
		}
		return jobs[i].Name < jobs[j].Name
	})
	sort.Slice(skipped, func(i, j int) bool {
		if skipped[i].Variant != skipped[j].Variant {
			return skipped[i].Variant < skipped[j].Variant
		}
		if skipped[i].Kind != skipped[j].Kind {
			return skipped[i].Kind < skipped[j].Kind
		}
		return skipped[i].Name < skipped[j].Name
	})
	return jobs, skipped
}

// checkCollisions fails fast when two distinct entry names case-fold to the
// same output file. Silent overwrite would make the batch outcome depend on
// map iteration order.
func checkCollisions(jobs []job) error {
	seen := map[string]string{}
	for _, j := range jobs {
		key := string(j.Variant) + "/" + j.Kind.Plural() + "/" + Slug(j.Name)
		if prev, ok := seen[key]; ok && prev != j.Name {
			return pipeerr.New(pipeerr.CategoryGenerate, pipeerr.SeverityFatal,
				fmt.Sprintf("entries %q and %q both map to %s.mdx", prev, j.Name, key)).
				WithContext("entry", j.Name)
		}
		seen[key] = j.Name
	}
	return nil
}

// renderOne produces or updates a single page file.
func (g *Generator) renderOne(j job) PageResult {
	res := PageResult{Name: j.Name, Kind: j.Kind, Variant: j.Variant}

	dir := filepath.Join(g.root, string(j.Variant), j.Kind.Plural())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		res.Action = metrics.ActionFailed
		res.Err = pipeerr.Wrap(err, pipeerr.CategoryFileSystem, pipeerr.SeverityError, "create output directory").Error()
		return res
	}
	path := filepath.Join(dir, Slug(j.Name)+".mdx")
	res.Path = path

	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		res.Action = metrics.ActionFailed
		res.Err = pipeerr.Wrap(err, pipeerr.CategoryFileSystem, pipeerr.SeverityError, "read existing page").Error()
		return res
	}

	body := []byte(DefaultBody)
	if preserved, found := SplitPreserved(existing); found {
		body = preserved
	}

	composed, err := Compose(j.Name, j.Tooltip, j.Kind, j.Variant, body)
	if err != nil {
		res.Action = metrics.ActionFailed
		res.Err = pipeerr.Wrap(err, pipeerr.CategoryGenerate, pipeerr.SeverityError, "compose page").Error()
		return res
	}

	if existing != nil && bytes.Equal(existing, composed) {
		res.Action = metrics.ActionUnchanged
		return res
	}
	if err := os.WriteFile(path, composed, 0o644); err != nil {
		res.Action = metrics.ActionFailed
		res.Err = pipeerr.Wrap(err, pipeerr.CategoryFileSystem, pipeerr.SeverityError, "write page").Error()
		return res
	}
	res.Action = metrics.ActionWritten
	return res
}
