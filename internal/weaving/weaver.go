package weaving

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"propweave/internal/config"
	"propweave/internal/diag"
	"propweave/internal/il"
	"propweave/internal/meta"
	"propweave/internal/observ"
	"propweave/internal/resolve"
	"propweave/internal/source"
	"propweave/internal/trace"
	"propweave/internal/typegraph"
)

// ModuleWeaver runs every pass over one module.
type ModuleWeaver struct {
	Module *meta.Module
	// Host resolves references into other modules. The module's own types
	// are always served from the run cache.
	Host     resolve.Host
	Config   config.Config
	Reporter diag.Reporter
}

// Execute weaves the module. A resolution failure aborts the run: the
// module is put back as it was, the failure is reported and returned with a
// nil result. Member-level problems only skip the member.
func (w *ModuleWeaver) Execute(ctx context.Context) (*Result, error) {
	if w.Module == nil {
		return nil, errors.New("weaving: no module")
	}
	host := w.Host
	if host == nil {
		host = resolve.NewModuleSet()
	}
	cache := resolve.NewCache(host)
	cache.Seed(w.Module.AllTypes()...)
	env := NewEnv(w.Module, cache, w.Config, w.Reporter)

	ctx, span := trace.Start(ctx, trace.ScopeRun, "weave:"+w.Module.Name)
	timer := observ.NewTimer()

	snap := snapshotModule(w.Module)
	res, err := w.run(ctx, env, timer)
	if err != nil {
		snap.restore()
		w.reportFatal(err)
		span.End("aborted")
		return nil, err
	}
	res.Cache = cache.Stats()
	res.Timings = timer.Report()
	span.WithExtra("woven", strconv.Itoa(len(res.Woven))).
		WithExtra("skipped", strconv.Itoa(len(res.Skipped))).
		End("")
	return res, nil
}

func (w *ModuleWeaver) run(ctx context.Context, env *Env, timer *observ.Timer) (*Result, error) {
	err := timer.Time("core", func() (string, error) {
		core, err := ResolveCoreReferences(env.Cache, w.Config.Conventions.CoreScope)
		env.Core = core
		return "", err
	})
	if err != nil {
		return nil, fmt.Errorf("core references: %w", err)
	}

	var graph *typegraph.Graph
	err = timer.Time("graph", func() (string, error) {
		g, err := buildGraph(ctx, env.Cache, w.Module, w.Config.Conventions)
		if err != nil {
			return "", err
		}
		graph = g
		return fmt.Sprintf("%d of %d eligible", len(g.Order), g.Len()), nil
	})
	if err != nil {
		return nil, err
	}
	for _, n := range graph.Nodes() {
		env.Result.Order = append(env.Result.Order, n.Type.FullName())
	}

	features := w.Config.Features
	passes := []struct {
		name string
		on   bool
		run  func() error
	}{
		{"properties", features.Properties, func() error { return NewPropertyWeaver(env, graph).Execute(ctx, graph) }},
		{"arguments", features.Arguments, func() error { return NewArgumentWeaver(env).Execute(ctx, graph) }},
		{"calls", features.Calls, func() error { return NewArgumentCallWeaver(env).Execute(ctx, graph) }},
		{"clean", features.Clean, func() error { return NewReferenceCleaner(env).Execute(ctx) }},
	}
	for _, p := range passes {
		if !p.on {
			env.info(diag.CfgFeatureOff, source.Span{}, p.name+" pass disabled")
			continue
		}
		if err := timer.Time(p.name, func() (string, error) { return "", p.run() }); err != nil {
			return nil, err
		}
	}
	return env.Result, nil
}

func (w *ModuleWeaver) reportFatal(err error) {
	if w.Reporter == nil {
		return
	}
	code := diag.ResUnresolved
	var re *resolve.ResolutionError
	if errors.As(err, &re) && errors.Is(err, resolve.ErrMethodNotFound) {
		code = diag.ResCoreMissing
	}
	diag.ReportError(w.Reporter, code, source.Span{}, fmt.Sprintf("weaving %s aborted: %v", w.Module.Name, err)).Emit()
}

// moduleSnapshot holds what the passes may change, so an aborted run leaves
// the module untouched.
type moduleSnapshot struct {
	mod     *meta.Module
	methods map[*meta.TypeDef][]*meta.MethodDef
	bodies  map[*meta.MethodDef]*il.Body
}

func snapshotModule(mod *meta.Module) *moduleSnapshot {
	s := &moduleSnapshot{
		mod:     mod,
		methods: make(map[*meta.TypeDef][]*meta.MethodDef),
		bodies:  make(map[*meta.MethodDef]*il.Body),
	}
	for _, t := range mod.AllTypes() {
		s.methods[t] = append([]*meta.MethodDef(nil), t.Methods...)
		for _, m := range t.Methods {
			if m.Body != nil {
				s.bodies[m] = m.Body.Clone()
			}
		}
	}
	return s
}

func (s *moduleSnapshot) restore() {
	for t, methods := range s.methods {
		t.Methods = methods
	}
	for m, body := range s.bodies {
		m.Body = body
	}
}

// Plan builds the type graph a weaving run would use without touching the
// module.
func Plan(ctx context.Context, mod *meta.Module, host resolve.Host, cfg config.Config) (*typegraph.Graph, error) {
	if host == nil {
		host = resolve.NewModuleSet()
	}
	cache := resolve.NewCache(host)
	cache.Seed(mod.AllTypes()...)
	return buildGraph(ctx, cache, mod, cfg.Conventions)
}

// buildGraph classifies every type with a base; interfaces and the root
// type never qualify.
func buildGraph(ctx context.Context, cache *resolve.Cache, mod *meta.Module, conv config.Conventions) (*typegraph.Graph, error) {
	var types []*meta.TypeDef
	for _, t := range mod.AllTypes() {
		if t.BaseType != nil {
			types = append(types, t)
		}
	}
	return typegraph.NewBuilder(cache, conv).Build(ctx, types)
}
