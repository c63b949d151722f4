package weaving

import (
	"errors"
	"fmt"

	"propweave/internal/diag"
	"propweave/internal/il"
	"propweave/internal/meta"
	"propweave/internal/resolve"
	"propweave/internal/source"
)

// shapeError marks a member whose body does not admit the injection.
type shapeError struct {
	code diag.Code
	msg  string
}

func (e *shapeError) Error() string { return e.msg }

func unsupported(format string, args ...any) error {
	return &shapeError{code: diag.WeaveUnsupportedShape, msg: fmt.Sprintf(format, args...)}
}

// edit rewrites m's body through fn. The body is validated before and after;
// a rewrite that breaks it is rolled back and reported. Shape problems skip
// the member with a warning. Resolution errors are returned, after rollback,
// because they end the run.
func (e *Env) edit(m *meta.MethodDef, owner, member string, at source.Span, fn func(b *il.Body) error) (bool, error) {
	if _, err := il.Validate(m.Body, m.ReturnsValue()); err != nil {
		e.skip(owner, member, diag.WeaveUnsupportedShape, at, fmt.Sprintf("%s: body does not validate before weaving: %v", m, err))
		return false, nil
	}
	snap := e.snapshot(m.Body)
	if err := fn(m.Body); err != nil {
		m.Body = snap
		if _, ok := resolve.AsResolutionError(err); ok {
			return false, err
		}
		var se *shapeError
		if errors.As(err, &se) {
			e.skip(owner, member, se.code, at, se.msg)
			return false, nil
		}
		e.skip(owner, member, diag.WeaveInvalidBody, at, fmt.Sprintf("%s: %v", m, err))
		return false, nil
	}
	stats, err := il.Validate(m.Body, m.ReturnsValue())
	if err != nil {
		m.Body = snap
		e.skip(owner, member, diag.WeaveInvalidBody, at, fmt.Sprintf("%s: woven body is invalid, restored: %v", m, err))
		return false, nil
	}
	m.Body.MaxStack = stats.MaxStack
	return true, nil
}

func (e *Env) skip(owner, member string, code diag.Code, at source.Span, reason string) {
	if code == diag.WeaveInvalidBody {
		e.fail(code, at, reason)
	} else {
		e.warn(code, at, reason)
	}
	e.Result.Skipped = append(e.Result.Skipped, SkipRecord{Type: owner, Member: member, Code: code, Reason: reason})
}
