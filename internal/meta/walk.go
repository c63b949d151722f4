package meta

// WalkTypeRefs calls visit for every type reference reachable from m:
// base types, interfaces, member signatures, attributes, locals and
// instruction operands. Walking stops when visit returns false.
func (m *Module) WalkTypeRefs(visit func(*TypeRef) bool) {
	w := refWalker{visit: visit}
	w.attrs(m.Attributes)
	for _, t := range m.AllTypes() {
		if !w.typeDef(t) {
			return
		}
	}
}

type refWalker struct {
	visit func(*TypeRef) bool
	done  bool
}

func (w *refWalker) ref(r *TypeRef) {
	if w.done || r == nil {
		return
	}
	if !w.visit(r) {
		w.done = true
	}
}

func (w *refWalker) attrs(attrs []*CustomAttribute) {
	for _, a := range attrs {
		w.ref(a.AttributeType)
	}
}

func (w *refWalker) typeDef(t *TypeDef) bool {
	w.ref(t.BaseType)
	for _, i := range t.Interfaces {
		w.ref(i)
	}
	w.attrs(t.Attributes)
	for _, f := range t.Fields {
		w.ref(f.FieldType)
		w.attrs(f.Attributes)
	}
	for _, p := range t.Properties {
		w.ref(p.PropertyType)
		w.attrs(p.Attributes)
	}
	for _, m := range t.Methods {
		w.method(m)
	}
	return !w.done
}

func (w *refWalker) method(m *MethodDef) {
	w.ref(m.ReturnType)
	w.attrs(m.Attributes)
	for _, p := range m.Parameters {
		w.ref(p.ParameterType)
		w.attrs(p.Attributes)
	}
	if m.Body == nil {
		return
	}
	for _, v := range m.Body.Variables {
		if r, ok := v.Type.(*TypeRef); ok {
			w.ref(r)
		}
	}
	for _, h := range m.Body.Handlers {
		if r, ok := h.CatchType.(*TypeRef); ok {
			w.ref(r)
		}
	}
	for _, ins := range m.Body.Instructions {
		switch op := ins.Operand.(type) {
		case *TypeRef:
			w.ref(op)
		case *FieldRef:
			w.ref(op.DeclaringType)
			w.ref(op.FieldType)
		case *MethodRef:
			w.ref(op.DeclaringType)
			w.ref(op.ReturnType)
			for _, p := range op.Parameters {
				w.ref(p)
			}
		}
	}
}
