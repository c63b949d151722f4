package weaving

import (
	"context"
	"fmt"
	"strconv"

	"propweave/internal/diag"
	"propweave/internal/il"
	"propweave/internal/meta"
	"propweave/internal/trace"
	"propweave/internal/typegraph"
)

// ArgumentWeaver injects helper checks for parameters carrying validation
// attributes.
type ArgumentWeaver struct {
	env *Env
}

// NewArgumentWeaver binds a weaver to a run.
func NewArgumentWeaver(env *Env) *ArgumentWeaver {
	return &ArgumentWeaver{env: env}
}

// Execute adds a check prologue to every method with validated parameters.
func (w *ArgumentWeaver) Execute(ctx context.Context, g *typegraph.Graph) error {
	_, span := trace.Start(ctx, trace.ScopePass, "pass:arguments")
	woven := 0
	for _, n := range g.Nodes() {
		for _, m := range n.Methods() {
			if len(m.Validations) == 0 {
				continue
			}
			ok, err := w.weaveMethod(n, m)
			if err != nil {
				span.End("aborted")
				return err
			}
			if ok {
				woven++
			}
		}
	}
	span.WithExtra("woven", strconv.Itoa(woven)).End("")
	return nil
}

func (w *ArgumentWeaver) weaveMethod(n *typegraph.Node, m *typegraph.Member) (bool, error) {
	meth := m.Method
	owner := n.Type.FullName()
	var checks []string
	ok, err := w.env.edit(meth, owner, meth.Name, meth.Span, func(b *il.Body) error {
		var prologue []*il.Instruction
		for _, p := range meth.Parameters {
			block, names, err := w.env.checkBlock(paramValidations(m.Validations, p), p.Name, meth.ArgIndex(p), p.ParameterType)
			if err != nil {
				return err
			}
			prologue = append(prologue, block...)
			checks = append(checks, names...)
		}
		return b.Prepend(prologue...)
	})
	if err != nil || !ok {
		return false, err
	}
	for _, c := range checks {
		w.env.Result.woven(owner, meth.Name, ChangeValidate, c)
	}
	w.env.info(diag.WeaveMemberWoven, meth.Span, fmt.Sprintf("woven %s", meth))
	return true, nil
}

func paramValidations(all []typegraph.Validation, p *meta.ParameterDef) []typegraph.Validation {
	var out []typegraph.Validation
	for _, v := range all {
		if v.Param == p {
			out = append(out, v)
		}
	}
	return out
}

// checkBlock builds `Helper.Check("name", arg)` for each validation, bound to
// the overload matching typ when the helper has one. It returns the checks
// it bound as "Check(Type)".
func (e *Env) checkBlock(vals []typegraph.Validation, name string, slot int, typ *meta.TypeRef) ([]*il.Instruction, []string, error) {
	if len(vals) == 0 {
		return nil, nil, nil
	}
	helper, err := e.helperType()
	if err != nil {
		return nil, nil, err
	}
	var block []*il.Instruction
	var names []string
	for _, v := range vals {
		sel, _ := selectOverload(helper, v.Check, typ)
		if sel == nil {
			return nil, nil, unsupported("%s has no two-argument %s for %s", helper.FullName(), v.Check, name)
		}
		block = append(block, il.CreateOperand(il.Ldstr, name), il.LoadArg(slot))
		box, err := e.needsBox(typ, sel.Parameters[1].ParameterType)
		if err != nil {
			return nil, nil, err
		}
		if box {
			block = append(block, il.CreateOperand(il.Box, typ))
		}
		call := il.CreateOperand(il.Call, sel.Ref())
		e.markInjected(call)
		block = append(block, call)
		if sel.ReturnsValue() {
			block = append(block, il.Create(il.Pop))
		}
		names = append(names, fmt.Sprintf("%s(%s)", v.Check, sel.Parameters[1].ParameterType.FullName()))
	}
	return block, names, nil
}
