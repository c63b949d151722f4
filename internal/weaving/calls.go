package weaving

import (
	"context"
	"fmt"
	"strconv"

	"propweave/internal/config"
	"propweave/internal/diag"
	"propweave/internal/il"
	"propweave/internal/meta"
	"propweave/internal/trace"
	"propweave/internal/typegraph"
)

// ArgumentCallWeaver rebinds calls to the argument helper to the overload
// matching the checked value's declared type.
type ArgumentCallWeaver struct {
	env    *Env
	helper string
}

// NewArgumentCallWeaver binds a weaver to a run.
func NewArgumentCallWeaver(env *Env) *ArgumentCallWeaver {
	helper := env.Config.Conventions.HelperType
	if ref, err := meta.ParseTypeRef(helper); err == nil {
		helper = ref.FullName()
	}
	return &ArgumentCallWeaver{env: env, helper: helper}
}

// Execute scans the helper-calling methods of every node. Each call site is
// resolved on its own.
func (w *ArgumentCallWeaver) Execute(ctx context.Context, g *typegraph.Graph) error {
	_, span := trace.Start(ctx, trace.ScopePass, "pass:calls")
	before := len(w.env.Result.Calls)
	for _, n := range g.Nodes() {
		for _, m := range n.Methods() {
			if !m.HasHelperCalls {
				continue
			}
			if err := w.weaveMethod(n, m.Method); err != nil {
				span.End("aborted")
				return err
			}
		}
	}
	span.WithExtra("calls", strconv.Itoa(len(w.env.Result.Calls)-before)).End("")
	return nil
}

func (w *ArgumentCallWeaver) weaveMethod(n *typegraph.Node, meth *meta.MethodDef) error {
	owner := n.Type.FullName()
	var records []CallRecord
	ok, err := w.env.edit(meth, owner, meth.Name, meth.Span, func(b *il.Body) error {
		records = records[:0]
		// collect first: rebinding inserts and removes boxes
		var sites []*il.Instruction
		for _, ins := range b.Instructions {
			if w.isHelperCall(ins) && !w.env.isInjected(ins) {
				sites = append(sites, ins)
			}
		}
		for _, call := range sites {
			rec, err := w.rebind(b, meth, call)
			if err != nil {
				return err
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	for _, rec := range records {
		w.env.Result.Calls = append(w.env.Result.Calls, rec)
		if rec.To != "" && rec.To != rec.From {
			w.env.Result.woven(owner, meth.Name, ChangeRebind, "")
		}
	}
	return nil
}

func (w *ArgumentCallWeaver) isHelperCall(ins *il.Instruction) bool {
	if ins.Code != il.Call {
		return false
	}
	ref, ok := ins.Operand.(*meta.MethodRef)
	return ok && ref.DeclaringType.Is(w.helper) && len(ref.Parameters) == 2
}

func (w *ArgumentCallWeaver) rebind(b *il.Body, meth *meta.MethodDef, call *il.Instruction) (CallRecord, error) {
	ref := call.Operand.(*meta.MethodRef)
	rec := CallRecord{Method: meth.String(), From: ref.String()}

	producer := b.Previous(call)
	var box *il.Instruction
	if producer != nil && producer.Code == il.Box {
		box = producer
	}
	checked := checkedType(b, meth, producer)
	if checked == nil {
		w.env.info(diag.WeaveInfo, meth.Span, fmt.Sprintf("%s: cannot tell the checked type of %s, call left as is", meth, ref))
		return rec, nil
	}
	rec.Checked = checked.FullName()

	helper, err := w.env.Cache.Resolve(ref.DeclaringType)
	if err != nil {
		return rec, err
	}
	sel, exact := selectOverload(helper, ref.Name, checked)
	rec.Exact = exact
	if sel == nil {
		w.env.fail(diag.WeaveOverloadNotFound, meth.Span, fmt.Sprintf("%s: %s has no two-argument %s", meth, helper.FullName(), ref.Name))
		return rec, nil
	}
	if !exact {
		msg := fmt.Sprintf("%s: no %s overload for %s, using %s", meth, ref.Name, checked.FullName(), sel.Ref())
		switch w.env.Config.Policy.OverloadFallback {
		case config.Strict:
			w.env.fail(diag.WeaveOverloadNotFound, meth.Span, msg)
			return rec, nil
		case config.Warn:
			w.env.warn(diag.WeaveOverloadFallback, meth.Span, msg)
		default:
			w.env.info(diag.WeaveOverloadFallback, meth.Span, msg)
		}
	}

	target := sel.Ref()
	wantBox, err := w.env.needsBox(checked, target.Parameters[1])
	if err != nil {
		return rec, err
	}
	switch {
	case wantBox && box == nil:
		if err := b.InsertBefore(call, il.CreateOperand(il.Box, checked)); err != nil {
			return rec, err
		}
	case !wantBox && box != nil:
		if err := b.Remove(box); err != nil {
			return rec, err
		}
	}
	call.Operand = target
	rec.To = target.String()
	if rec.To != rec.From {
		w.env.info(diag.WeaveCallRebound, meth.Span, fmt.Sprintf("%s: %s -> %s", meth, rec.From, rec.To))
	}
	return rec, nil
}

// checkedType reads the declared type of the value the producer pushes.
func checkedType(b *il.Body, meth *meta.MethodDef, producer *il.Instruction) *meta.TypeRef {
	if producer == nil {
		return nil
	}
	switch producer.Code {
	case il.Box:
		t, _ := producer.Operand.(*meta.TypeRef)
		return t
	case il.Ldstr:
		return meta.NewTypeRef("", "System", "String")
	case il.Ldfld, il.Ldsfld:
		if f, ok := producer.Operand.(*meta.FieldRef); ok {
			return f.FieldType
		}
	case il.Call, il.Callvirt:
		if m, ok := producer.Operand.(*meta.MethodRef); ok && m.ReturnsValue() {
			return m.ReturnType
		}
	}
	if slot, ok := loadedArg(producer); ok {
		if p := meth.Parameter(slot); p != nil {
			return p.ParameterType
		}
		return meth.DeclaringType.Ref()
	}
	if producer.Code == il.Ldloc || (producer.Code >= il.Ldloc0 && producer.Code <= il.Ldloc3) {
		idx, ok := producer.LocalIndex()
		if !ok {
			return nil
		}
		if v := b.Variable(idx); v != nil {
			t, _ := v.Type.(*meta.TypeRef)
			return t
		}
	}
	return nil
}
