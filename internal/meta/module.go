package meta

import (
	"slices"

	"propweave/internal/source"
)

// Module is a loaded, mutable module.
type Module struct {
	Name         string
	Types        []*TypeDef
	AssemblyRefs []*AssemblyRef
	Attributes   []*CustomAttribute
	Docs         *source.DocumentSet
}

// AllTypes returns every type, nested ones right after their declaring type,
// in declaration order.
func (m *Module) AllTypes() []*TypeDef {
	var out []*TypeDef
	var walk func(types []*TypeDef)
	walk = func(types []*TypeDef) {
		for _, t := range types {
			out = append(out, t)
			walk(t.NestedTypes)
		}
	}
	walk(m.Types)
	return out
}

// FindType looks a type up by full name ("Ns.Name" or "Ns.Outer/Inner").
func (m *Module) FindType(fullName string) *TypeDef {
	for _, t := range m.AllTypes() {
		if t.FullName() == fullName {
			return t
		}
	}
	return nil
}

// FindAssemblyRef returns the reference called name.
func (m *Module) FindAssemblyRef(name string) *AssemblyRef {
	for _, r := range m.AssemblyRefs {
		if r.Name == name {
			return r
		}
	}
	return nil
}

// RemoveAssemblyRef drops the reference called name and reports whether it
// was present.
func (m *Module) RemoveAssemblyRef(name string) bool {
	n := len(m.AssemblyRefs)
	m.AssemblyRefs = slices.DeleteFunc(m.AssemblyRefs, func(r *AssemblyRef) bool { return r.Name == name })
	return len(m.AssemblyRefs) != n
}

// Methods returns every method of every type in declaration order.
func (m *Module) Methods() []*MethodDef {
	var out []*MethodDef
	for _, t := range m.AllTypes() {
		out = append(out, t.Methods...)
	}
	return out
}
