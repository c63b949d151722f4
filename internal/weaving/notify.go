package weaving

import (
	"fmt"

	"propweave/internal/diag"
	"propweave/internal/il"
	"propweave/internal/meta"
	"propweave/internal/typegraph"
)

// dispatcher finds, per type node, the method that raises the change
// notification. Nodes are visited bases first, so a derived node can reuse
// what its base resolved or injected.
type dispatcher struct {
	env   *Env
	graph *typegraph.Graph
	found map[typegraph.NodeID]*meta.MethodRef
}

func newDispatcher(env *Env, g *typegraph.Graph) *dispatcher {
	return &dispatcher{env: env, graph: g, found: make(map[typegraph.NodeID]*meta.MethodRef)}
}

// resolve returns the dispatch method of n, or nil when none exists.
func (d *dispatcher) resolve(n *typegraph.Node) (*meta.MethodRef, error) {
	if ref, ok := d.found[n.ID]; ok {
		return ref, nil
	}
	ref, err := d.lookup(n)
	if err != nil {
		return nil, err
	}
	d.found[n.ID] = ref
	return ref, nil
}

func (d *dispatcher) lookup(n *typegraph.Node) (*meta.MethodRef, error) {
	name := d.env.Config.Conventions.NotifyMethod
	if m := dispatchOn(n.Type, name); m != nil {
		return m.Ref(), nil
	}
	if base := d.graph.Base(n); base != nil {
		ref, err := d.resolve(base)
		if err != nil || ref != nil {
			return ref, err
		}
	}
	for cur := n.Type; cur.BaseType != nil; {
		next, err := d.env.Cache.Resolve(cur.BaseType)
		if err != nil {
			return nil, err
		}
		if m := dispatchOn(next, name); m != nil {
			return m.Ref(), nil
		}
		cur = next
	}
	return d.inject(n)
}

// dispatchOn finds an instance method taking the property name.
func dispatchOn(def *meta.TypeDef, name string) *meta.MethodDef {
	m := def.FindMethod(name, "System.String")
	if m == nil || m.IsStatic() {
		return nil
	}
	return m
}

// inject adds the dispatch method to a type that implements the marker
// interface itself and declares the event field, but raises nothing:
//
//	handler = this.PropertyChanged
//	if handler != null { handler.Invoke(this, new PropertyChangedEventArgs(name)) }
func (d *dispatcher) inject(n *typegraph.Node) (*meta.MethodRef, error) {
	conv := &d.env.Config.Conventions
	def := n.Type
	if !implementsMarkerDirectly(def, conv.Markers) {
		return nil, nil
	}
	field := def.FindField(conv.EventField)
	if field == nil || field.Static {
		return nil, nil
	}
	handlerDef, err := d.env.Cache.Resolve(field.FieldType)
	if err != nil {
		return nil, err
	}
	if handlerDef.FullName() != conv.EventHandlerType {
		return nil, nil
	}
	invoke := handlerDef.FindMethod("Invoke", "System.Object", conv.EventArgsType)
	if invoke == nil {
		return nil, nil
	}
	argsDef, err := d.env.Cache.Resolve(invoke.Parameters[1].ParameterType)
	if err != nil {
		return nil, err
	}
	ctor := argsDef.FindMethod(".ctor", "System.String")
	if ctor == nil {
		return nil, nil
	}

	core := d.env.Core
	invokeCall := il.CreateOperand(il.Callvirt, invoke.Ref())
	ret := il.Create(il.Ret)
	body := il.NewBody(
		il.Create(il.Ldarg0),
		il.CreateOperand(il.Ldfld, field.Ref()),
		il.Create(il.Dup),
		il.CreateOperand(il.Brtrue, nil),
		il.Create(il.Pop),
		il.Create(il.Ret),
		il.Create(il.Ldarg0),
		il.Create(il.Ldarg1),
		il.CreateOperand(il.Newobj, ctor.Ref()),
		invokeCall,
		ret,
	)
	// the invoke block starts at the ldarg.0 after the early return
	body.Instructions[3].Operand = body.Instructions[6]
	method := &meta.MethodDef{
		Name:       conv.NotifyMethod,
		ReturnType: core.Void,
		Parameters: []*meta.ParameterDef{{Name: "propertyName", Index: 0, ParameterType: core.String}},
		Flags:      meta.MethodVirtual,
		Body:       body,
		Span:       def.Span,
	}
	stats, err := il.Validate(body, false)
	if err != nil {
		return nil, fmt.Errorf("injected %s: %w", conv.NotifyMethod, err)
	}
	body.MaxStack = stats.MaxStack
	def.AddMethod(method)
	d.env.Result.Injected = append(d.env.Result.Injected, method.String())
	d.env.info(diag.WeaveInfraInjected, def.Span, fmt.Sprintf("injected %s into %s", method, def.FullName()))
	return method.Ref(), nil
}

func implementsMarkerDirectly(def *meta.TypeDef, markers []string) bool {
	for _, m := range markers {
		if def.Implements(m) {
			return true
		}
	}
	return false
}
