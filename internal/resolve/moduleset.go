package resolve

import (
	"fmt"

	"propweave/internal/meta"
)

// ModuleSet is a Host over loaded modules. References are looked up by scope
// first, then by full name inside that module. An empty scope searches every
// module in load order.
type ModuleSet struct {
	modules []*meta.Module
	byName  map[string]*meta.Module
}

// NewModuleSet indexes mods by name.
func NewModuleSet(mods ...*meta.Module) *ModuleSet {
	s := &ModuleSet{byName: make(map[string]*meta.Module, len(mods))}
	for _, m := range mods {
		s.Add(m)
	}
	return s
}

// Add registers m. The first module with a given name wins.
func (s *ModuleSet) Add(m *meta.Module) {
	if m == nil {
		return
	}
	if _, ok := s.byName[m.Name]; ok {
		return
	}
	s.byName[m.Name] = m
	s.modules = append(s.modules, m)
}

// Module returns the module called name.
func (s *ModuleSet) Module(name string) (*meta.Module, bool) {
	m, ok := s.byName[name]
	return m, ok
}

// Modules returns the modules in load order.
func (s *ModuleSet) Modules() []*meta.Module {
	return s.modules
}

func (s *ModuleSet) Resolve(ref *meta.TypeRef) (*meta.TypeDef, error) {
	if ref == nil {
		return nil, ErrNilReference
	}
	scope := scopeOf(ref)
	full := ref.FullName()
	if scope == "" {
		for _, m := range s.modules {
			if def := m.FindType(full); def != nil {
				return def, nil
			}
		}
		return nil, fmt.Errorf("%s: %w", full, ErrTypeNotFound)
	}
	m, ok := s.byName[scope]
	if !ok {
		return nil, fmt.Errorf("%s: %w", scope, ErrModuleNotFound)
	}
	if def := m.FindType(full); def != nil {
		return def, nil
	}
	return nil, fmt.Errorf("%s in %s: %w", full, scope, ErrTypeNotFound)
}

func scopeOf(ref *meta.TypeRef) string {
	for r := ref; r != nil; r = r.DeclaringType {
		if r.Scope != "" {
			return r.Scope
		}
	}
	return ""
}
