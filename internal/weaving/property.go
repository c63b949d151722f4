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

// PropertyWeaver injects validation and change notification into setters.
type PropertyWeaver struct {
	env      *Env
	dispatch *dispatcher
}

// NewPropertyWeaver binds a weaver to a run.
func NewPropertyWeaver(env *Env, g *typegraph.Graph) *PropertyWeaver {
	return &PropertyWeaver{env: env, dispatch: newDispatcher(env, g)}
}

// Execute visits the graph bases first. Only resolution failures are
// returned; member-level problems are reported and the member skipped.
func (w *PropertyWeaver) Execute(ctx context.Context, g *typegraph.Graph) error {
	ctx, span := trace.Start(ctx, trace.ScopePass, "pass:properties")
	woven := 0
	for _, n := range g.Nodes() {
		count, err := w.weaveNode(ctx, n)
		woven += count
		if err != nil {
			span.End("aborted")
			return err
		}
	}
	span.WithExtra("woven", strconv.Itoa(woven)).End("")
	return nil
}

func (w *PropertyWeaver) weaveNode(ctx context.Context, n *typegraph.Node) (int, error) {
	ctx, span := trace.Start(ctx, trace.ScopeType, "type:"+n.Type.FullName())
	defer span.End("")
	woven := 0
	for _, m := range n.Properties() {
		ok, err := w.weaveProperty(ctx, n, m)
		if err != nil {
			return woven, err
		}
		if ok {
			woven++
		}
	}
	return woven, nil
}

func (w *PropertyWeaver) weaveProperty(ctx context.Context, n *typegraph.Node, m *typegraph.Member) (bool, error) {
	_, span := trace.Start(ctx, trace.ScopeMember, "property:"+m.Property.Name)
	defer span.End("")

	p := m.Property
	owner := n.Type.FullName()
	setter := p.Setter
	if len(setter.Parameters) == 0 {
		w.env.skip(owner, p.Name, diag.WeaveUnsupportedShape, p.Span, fmt.Sprintf("%s: setter takes no value", p))
		return false, nil
	}

	var dispatch *meta.MethodRef
	if m.Notify {
		ref, err := w.dispatch.resolve(n)
		if err != nil {
			return false, err
		}
		if ref == nil {
			w.env.skip(owner, p.Name, diag.WeaveMissingDispatch, p.Span,
				fmt.Sprintf("%s: no %s(string) found on %s or its bases", p, w.env.Config.Conventions.NotifyMethod, owner))
			if len(m.Validations) == 0 {
				return false, nil
			}
		}
		dispatch = ref
	}

	var checks []string
	ok, err := w.env.edit(setter, owner, p.Name, p.Span, func(b *il.Body) error {
		if dispatch != nil {
			if err := w.injectNotify(b, p, dispatch); err != nil {
				return err
			}
		}
		// validation goes in front of the notify prologue
		value := setter.Parameters[len(setter.Parameters)-1]
		block, names, err := w.env.checkBlock(m.Validations, value.Name, setter.ArgIndex(value), value.ParameterType)
		if err != nil {
			return err
		}
		checks = names
		return b.Prepend(block...)
	})
	if err != nil || !ok {
		return false, err
	}
	if dispatch != nil {
		w.env.Result.woven(owner, p.Name, ChangeNotify, "")
	}
	for _, c := range checks {
		w.env.Result.woven(owner, p.Name, ChangeValidate, c)
	}
	w.env.info(diag.WeaveMemberWoven, p.Span, fmt.Sprintf("woven %s", p))
	return true, nil
}

// injectNotify makes the setter compute whether the value changes before any
// original statement runs, then raise the notification before every return.
func (w *PropertyWeaver) injectNotify(b *il.Body, p *meta.PropertyDef, dispatch *meta.MethodRef) error {
	rets := b.Find(il.Ret)
	if len(rets) == 0 {
		return unsupported("%s: setter has no return to notify before", p)
	}
	setter := p.Setter
	value := setter.Parameters[len(setter.Parameters)-1]
	valueSlot := setter.ArgIndex(value)

	changed := b.AddVariable("changed", w.env.Core.Boolean)
	old, err := w.loadOld(b, p, valueSlot)
	if err != nil {
		return err
	}
	var prologue []*il.Instruction
	if old == nil {
		prologue = []*il.Instruction{il.LoadInt(1), il.CreateOperand(il.Stloc, changed)}
	} else {
		valueBox, err := w.boxFor(value.ParameterType)
		if err != nil {
			return err
		}
		prologue = append(prologue, old...)
		prologue = append(prologue, il.LoadArg(valueSlot))
		prologue = append(prologue, valueBox...)
		prologue = append(prologue,
			il.CreateOperand(il.Call, w.env.Core.Equals),
			il.LoadInt(0),
			il.Create(il.Ceq),
			il.CreateOperand(il.Stloc, changed),
		)
	}
	if err := b.Prepend(prologue...); err != nil {
		return err
	}

	call := il.Call
	if dispatch.Instance {
		call = il.Callvirt
	}
	for _, ret := range rets {
		block := []*il.Instruction{
			il.CreateOperand(il.Ldloc, changed),
			il.CreateOperand(il.Brfalse, ret),
			il.Create(il.Ldarg0),
			il.CreateOperand(il.Ldstr, p.Name),
			il.CreateOperand(call, dispatch),
		}
		if err := b.Splice(ret, block...); err != nil {
			return err
		}
	}
	return nil
}

// loadOld returns instructions pushing the current value as an object: from
// the backing field the setter stores value into, else through the getter.
// It returns nil when neither exists.
func (w *PropertyWeaver) loadOld(b *il.Body, p *meta.PropertyDef, valueSlot int) ([]*il.Instruction, error) {
	var load []*il.Instruction
	var typ *meta.TypeRef
	if f := backingField(b, p, valueSlot); f != nil {
		load = []*il.Instruction{il.Create(il.Ldarg0), il.CreateOperand(il.Ldfld, f)}
		typ = f.FieldType
	} else if g := p.Getter; g != nil && !g.IsStatic() && g.ReturnsValue() {
		code := il.Call
		if g.IsVirtual() {
			code = il.Callvirt
		}
		load = []*il.Instruction{il.Create(il.Ldarg0), il.CreateOperand(code, g.Ref())}
		typ = g.ReturnType
	} else {
		return nil, nil
	}
	box, err := w.boxFor(typ)
	if err != nil {
		return nil, err
	}
	return append(load, box...), nil
}

func (w *PropertyWeaver) boxFor(typ *meta.TypeRef) ([]*il.Instruction, error) {
	box, err := w.env.needsBox(typ, w.env.Core.Object)
	if err != nil || !box {
		return nil, err
	}
	return []*il.Instruction{il.CreateOperand(il.Box, typ)}, nil
}

// backingField finds "ldarg.0; ldarg <value>; stfld F" with F declared on the
// property's type.
func backingField(b *il.Body, p *meta.PropertyDef, valueSlot int) *meta.FieldRef {
	owner := p.DeclaringType.FullName()
	for i, ins := range b.Instructions {
		if ins.Code != il.Stfld || i < 2 {
			continue
		}
		f, ok := ins.Operand.(*meta.FieldRef)
		if !ok || f.DeclaringType.FullName() != owner {
			continue
		}
		slot, ok := loadedArg(b.Instructions[i-1])
		if !ok || slot != valueSlot {
			continue
		}
		if this, ok := loadedArg(b.Instructions[i-2]); ok && this == 0 {
			return f
		}
	}
	return nil
}

// loadedArg returns the argument slot pushed by an ldarg form.
func loadedArg(ins *il.Instruction) (int, bool) {
	if ins.Code != il.Ldarg && (ins.Code < il.Ldarg0 || ins.Code > il.Ldarg3) {
		return 0, false
	}
	return ins.ArgSlot()
}
