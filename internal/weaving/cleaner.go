package weaving

import (
	"context"
	"fmt"
	"slices"
	"strconv"

	"propweave/internal/diag"
	"propweave/internal/meta"
	"propweave/internal/source"
	"propweave/internal/trace"
)

// ReferenceCleaner strips compile-time-only attributes from the woven module
// and drops the reference to the module that defines them.
type ReferenceCleaner struct {
	env   *Env
	scope string
}

// NewReferenceCleaner binds a cleaner to a run.
func NewReferenceCleaner(env *Env) *ReferenceCleaner {
	return &ReferenceCleaner{env: env, scope: env.Config.Conventions.SupportScope}
}

// Execute must run after every other pass.
func (c *ReferenceCleaner) Execute(ctx context.Context) error {
	_, span := trace.Start(ctx, trace.ScopePass, "pass:clean")
	mod := c.env.Module

	removed := 0
	mod.Attributes, removed = c.strip(mod.Attributes, removed)
	for _, t := range mod.AllTypes() {
		t.Attributes, removed = c.strip(t.Attributes, removed)
		for _, f := range t.Fields {
			f.Attributes, removed = c.strip(f.Attributes, removed)
		}
		for _, p := range t.Properties {
			p.Attributes, removed = c.strip(p.Attributes, removed)
		}
		for _, m := range t.Methods {
			m.Attributes, removed = c.strip(m.Attributes, removed)
			for _, p := range m.Parameters {
				p.Attributes, removed = c.strip(p.Attributes, removed)
			}
		}
	}
	c.env.Result.RemovedAttributes += removed
	if removed > 0 {
		c.env.info(diag.CleanRemovedAttribute, source.Span{}, fmt.Sprintf("removed %d attribute(s) defined in %s", removed, c.scope))
	}

	c.removeReference()
	span.WithExtra("attributes", strconv.Itoa(removed)).End("")
	return nil
}

func (c *ReferenceCleaner) strip(attrs []*meta.CustomAttribute, count int) ([]*meta.CustomAttribute, int) {
	n := len(attrs)
	attrs = slices.DeleteFunc(attrs, func(a *meta.CustomAttribute) bool {
		return a.AttributeType.EffectiveScope() == c.scope
	})
	if len(attrs) == 0 {
		attrs = nil
	}
	return attrs, count + n - len(attrs)
}

func (c *ReferenceCleaner) removeReference() {
	mod := c.env.Module
	if mod.FindAssemblyRef(c.scope) == nil {
		c.env.info(diag.CleanNothingToRemove, source.Span{}, fmt.Sprintf("%s does not reference %s", mod.Name, c.scope))
		return
	}
	var user *meta.TypeRef
	mod.WalkTypeRefs(func(r *meta.TypeRef) bool {
		if r.EffectiveScope() == c.scope {
			user = r
			return false
		}
		return true
	})
	if user != nil {
		c.env.warn(diag.CleanReferenceStillUsed, source.Span{}, fmt.Sprintf("%s is still used by %s, reference kept", c.scope, user.FullName()))
		return
	}
	mod.RemoveAssemblyRef(c.scope)
	c.env.Result.RemovedReferences = append(c.env.Result.RemovedReferences, c.scope)
	c.env.info(diag.CleanRemovedReference, source.Span{}, fmt.Sprintf("removed reference to %s", c.scope))
}
