package weaving

import (
	"propweave/internal/config"
	"propweave/internal/diag"
	"propweave/internal/il"
	"propweave/internal/meta"
	"propweave/internal/resolve"
	"propweave/internal/source"
)

// Env is what every pass of one run shares: the module being rewritten, the
// run's cache, the configuration, the diagnostic sink and the run result.
type Env struct {
	Module   *meta.Module
	Cache    *resolve.Cache
	Config   config.Config
	Reporter diag.Reporter
	Core     *CoreReferences
	Result   *Result

	helper *meta.TypeDef
	// helper calls the run emitted itself; the call pass leaves them alone
	injected map[*il.Instruction]struct{}
}

// NewEnv prepares an Env for mod. Core references are resolved separately
// because their failure is fatal.
func NewEnv(mod *meta.Module, cache *resolve.Cache, cfg config.Config, rep diag.Reporter) *Env {
	if rep == nil {
		rep = diag.NopReporter{}
	}
	return &Env{
		Module:   mod,
		Cache:    cache,
		Config:   cfg,
		Reporter: rep,
		Result:   &Result{Module: mod.Name},
	}
}

func (e *Env) isValueType(ref *meta.TypeRef) (bool, error) {
	if ref.IsValueType {
		return true, nil
	}
	def, err := e.Cache.Resolve(ref)
	if err != nil {
		return false, err
	}
	return def.IsValueType(), nil
}

// helperType resolves the argument helper once per run.
func (e *Env) helperType() (*meta.TypeDef, error) {
	if e.helper != nil {
		return e.helper, nil
	}
	ref, err := meta.ParseTypeRef(e.Config.Conventions.HelperType)
	if err != nil {
		return nil, err
	}
	if ref.Scope == "" {
		ref.Scope = e.Config.Conventions.HelperScope
	}
	def, err := e.Cache.Resolve(ref)
	if err != nil {
		return nil, err
	}
	e.helper = def
	return def, nil
}

func (e *Env) markInjected(ins *il.Instruction) {
	if e.injected == nil {
		e.injected = make(map[*il.Instruction]struct{})
	}
	e.injected[ins] = struct{}{}
}

func (e *Env) isInjected(ins *il.Instruction) bool {
	_, ok := e.injected[ins]
	return ok
}

// snapshot clones body and carries the injected marks over to the copy, so a
// restored body keeps them.
func (e *Env) snapshot(body *il.Body) *il.Body {
	snap := body.Clone()
	for i, ins := range body.Instructions {
		if e.isInjected(ins) {
			e.markInjected(snap.Instructions[i])
		}
	}
	return snap
}

func (e *Env) warn(code diag.Code, at source.Span, msg string) {
	diag.ReportWarning(e.Reporter, code, at, msg).Emit()
}

func (e *Env) info(code diag.Code, at source.Span, msg string) {
	diag.ReportInfo(e.Reporter, code, at, msg).Emit()
}

func (e *Env) fail(code diag.Code, at source.Span, msg string) {
	diag.ReportError(e.Reporter, code, at, msg).Emit()
}
