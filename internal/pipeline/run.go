// Package pipeline weaves a batch of fixtures concurrently and reports
// progress while doing so.
package pipeline

import (
	"context"
	"errors"
	"runtime"
	"time"

	"fortio.org/safecast"
	"golang.org/x/sync/errgroup"

	"propweave/internal/config"
	"propweave/internal/diag"
	"propweave/internal/fixture"
	"propweave/internal/source"
	"propweave/internal/trace"
	"propweave/internal/weaving"
)

// Options configure a batch.
type Options struct {
	Config         config.Config
	Jobs           int // <= 0 means GOMAXPROCS
	MaxDiagnostics int
	Progress       ProgressSink
	// Observe, when set, returns a reporter that sees a fixture's
	// diagnostics as they are emitted. It is called once per fixture, from
	// that fixture's goroutine.
	Observe func(path string) diag.Reporter
}

// Outcome is what happened to one fixture. Set is nil when loading failed;
// Result is nil when loading failed or the weaver aborted. In both cases Err
// is set. Docs resolves the spans in Bag.
type Outcome struct {
	Path    string
	Docs    *source.DocumentSet
	Set     *fixture.Set
	Result  *weaving.Result
	Bag     *diag.Bag
	Err     error
	Timings Timings
}

// Failed reports whether the fixture was not woven cleanly.
func (o *Outcome) Failed() bool {
	return o.Err != nil || o.Bag.HasErrors()
}

// Run weaves every fixture in paths. Fixture failures are recorded in the
// outcomes; the returned error is only set when ctx is cancelled.
// Outcomes keep the order of paths.
func Run(ctx context.Context, paths []string, opts Options) ([]Outcome, error) {
	outcomes := make([]Outcome, len(paths))
	if len(paths) == 0 {
		return outcomes, nil
	}
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	if opts.MaxDiagnostics <= 0 {
		opts.MaxDiagnostics = 1000
	}
	for _, p := range paths {
		opts.emit(Event{File: p, Stage: StageLoad, Status: StatusQueued})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(paths)))
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i] = runOne(gctx, path, opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return outcomes, err
	}
	return outcomes, nil
}

func (o Options) emit(ev Event) {
	if o.Progress != nil {
		o.Progress.OnEvent(ev)
	}
}

// reporter collects into bag and the observer, dropping repeats.
func (o Options) reporter(path string, bag *diag.Bag) diag.Reporter {
	sinks := diag.MultiReporter{diag.BagReporter{Bag: bag}}
	if o.Observe != nil {
		sinks = append(sinks, o.Observe(path))
	}
	return diag.NewDedupReporter(sinks)
}

func runOne(ctx context.Context, path string, opts Options) Outcome {
	out := Outcome{Path: path, Bag: diag.NewBag(opts.MaxDiagnostics)}
	ctx, span := trace.Start(ctx, trace.ScopeRun, "fixture:"+path)
	defer span.End("")

	opts.emit(Event{File: path, Stage: StageLoad, Status: StatusWorking})
	start := time.Now()
	set, err := fixture.Load(path, fixture.Options{CoreScope: opts.Config.Conventions.CoreScope})
	out.Timings.Set(StageLoad, time.Since(start))
	if err != nil {
		out.Err = err
		out.Docs = source.NewDocumentSet()
		out.Bag.Add(loadDiagnostic(out.Docs.Add(path), err))
		opts.emit(Event{File: path, Stage: StageLoad, Status: StatusError, Err: err, Elapsed: time.Since(start)})
		return out
	}
	out.Set = set
	out.Docs = set.Docs

	opts.emit(Event{File: path, Stage: StageWeave, Status: StatusWorking})
	start = time.Now()
	w := &weaving.ModuleWeaver{
		Module:   set.Target(),
		Host:     set.References(),
		Config:   opts.Config,
		Reporter: opts.reporter(path, out.Bag),
	}
	out.Result, out.Err = w.Execute(ctx)
	elapsed := time.Since(start)
	out.Timings.Set(StageWeave, elapsed)
	if out.Err != nil || out.Bag.HasErrors() {
		opts.emit(Event{File: path, Stage: StageWeave, Status: StatusError, Err: out.Err, Elapsed: elapsed})
		return out
	}
	opts.emit(Event{File: path, Stage: StageWeave, Status: StatusDone, Elapsed: elapsed})
	return out
}

// loadDiagnostic turns a load failure into a diagnostic pointing at the
// fixture line when one is known.
func loadDiagnostic(doc source.DocID, err error) diag.Diagnostic {
	var fe *fixture.Error
	if !errors.As(err, &fe) {
		return diag.New(diag.SevError, diag.FixSyntax, source.Span{}, err.Error())
	}
	var span source.Span
	if fe.Line > 0 {
		line, convErr := safecast.Conv[uint32](fe.Line)
		if convErr == nil {
			span = source.At(doc, line, 1)
		}
	}
	return diag.New(diag.SevError, fe.Code, span, fe.Msg)
}
