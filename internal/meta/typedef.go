package meta

import "propweave/internal/source"

// TypeDef is a resolved type. Definitions are shared by pointer and never copied.
type TypeDef struct {
	Module        *Module
	Namespace     string
	Name          string
	DeclaringType *TypeDef
	BaseType      *TypeRef // nil for System.Object and interfaces
	Interfaces    []*TypeRef
	Flags         TypeFlags
	Fields        []*FieldDef
	Methods       []*MethodDef
	Properties    []*PropertyDef
	NestedTypes   []*TypeDef
	Attributes    []*CustomAttribute
	Span          source.Span
}

func (t *TypeDef) IsInterface() bool { return t.Flags&TypeInterface != 0 }
func (t *TypeDef) IsValueType() bool { return t.Flags&TypeValueType != 0 }
func (t *TypeDef) IsAbstract() bool  { return t.Flags&TypeAbstract != 0 }

// Ref returns a reference scoped to the owning module.
func (t *TypeDef) Ref() *TypeRef {
	if t == nil {
		return nil
	}
	ref := &TypeRef{Namespace: t.Namespace, Name: t.Name, IsValueType: t.IsValueType()}
	if t.Module != nil {
		ref.Scope = t.Module.Name
	}
	if t.DeclaringType != nil {
		ref.Namespace = ""
		ref.DeclaringType = t.DeclaringType.Ref()
	}
	return ref
}

// FullName returns the scope-free name of t.
func (t *TypeDef) FullName() string {
	return t.Ref().FullName()
}

// CanonicalName returns the cache identity of t.
func (t *TypeDef) CanonicalName() string {
	return t.Ref().CanonicalName()
}

func (t *TypeDef) String() string {
	return t.FullName()
}

// Implements reports whether t lists fullName among its own interfaces.
func (t *TypeDef) Implements(fullName string) bool {
	for _, i := range t.Interfaces {
		if i.Is(fullName) {
			return true
		}
	}
	return false
}

// FindField returns the field called name.
func (t *TypeDef) FindField(name string) *FieldDef {
	for _, f := range t.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// FindProperty returns the property called name.
func (t *TypeDef) FindProperty(name string) *PropertyDef {
	for _, p := range t.Properties {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// MethodsNamed returns the overloads of name in declaration order.
func (t *TypeDef) MethodsNamed(name string) []*MethodDef {
	var out []*MethodDef
	for _, m := range t.Methods {
		if m.Name == name {
			out = append(out, m)
		}
	}
	return out
}

// FindMethod returns the first overload of name whose parameter types match
// paramTypes by full name.
func (t *TypeDef) FindMethod(name string, paramTypes ...string) *MethodDef {
	for _, m := range t.Methods {
		if m.Name != name || len(m.Parameters) != len(paramTypes) {
			continue
		}
		match := true
		for i, p := range m.Parameters {
			if !p.ParameterType.Is(paramTypes[i]) {
				match = false
				break
			}
		}
		if match {
			return m
		}
	}
	return nil
}

// AddMethod appends m and makes t its declaring type.
func (t *TypeDef) AddMethod(m *MethodDef) {
	m.DeclaringType = t
	t.Methods = append(t.Methods, m)
}
