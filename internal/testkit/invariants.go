package testkit

import (
	"errors"
	"fmt"

	"propweave/internal/il"
	"propweave/internal/meta"
)

// CheckSpanInvariants runs a minimal set of location invariants on a module:
// 1) every type, method and property declaration carries a span
// 2) every span points at a document registered in the module's document set
func CheckSpanInvariants(m *meta.Module) error {
	if m == nil || m.Docs == nil {
		return fmt.Errorf("nil module or document set")
	}
	var errs []error
	check := func(what string, sp interface{ IsZero() bool }, doc func() bool) {
		if sp.IsZero() {
			errs = append(errs, fmt.Errorf("%s: missing span", what))
			return
		}
		if !doc() {
			errs = append(errs, fmt.Errorf("%s: span points at unknown document", what))
		}
	}
	for _, t := range m.AllTypes() {
		check(t.FullName(), t.Span, func() bool { _, ok := m.Docs.Get(t.Span.Doc); return ok })
		for _, meth := range t.Methods {
			check(meth.String(), meth.Span, func() bool { _, ok := m.Docs.Get(meth.Span.Doc); return ok })
		}
		for _, p := range t.Properties {
			check(p.String(), p.Span, func() bool { _, ok := m.Docs.Get(p.Span.Doc); return ok })
		}
	}
	return errors.Join(errs...)
}

// CheckBodies validates every method body of m: branch targets, handler
// regions and stack balance.
func CheckBodies(m *meta.Module) error {
	var errs []error
	for _, meth := range m.Methods() {
		if !meth.HasBody() {
			continue
		}
		if _, err := il.Validate(meth.Body, meth.ReturnsValue()); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", meth, err))
		}
	}
	return errors.Join(errs...)
}
