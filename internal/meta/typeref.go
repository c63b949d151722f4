package meta

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// TypeRef is a symbolic handle to a type that may live in another module.
// Scope names the module expected to define it.
type TypeRef struct {
	Scope         string
	Namespace     string
	Name          string
	DeclaringType *TypeRef
	IsValueType   bool
}

// NewTypeRef builds a top-level reference.
func NewTypeRef(scope, namespace, name string) *TypeRef {
	return &TypeRef{Scope: scope, Namespace: namespace, Name: name}
}

// FullName returns "Ns.Name"; nested types render as "Outer/Inner".
func (r *TypeRef) FullName() string {
	if r == nil {
		return ""
	}
	if r.DeclaringType != nil {
		return r.DeclaringType.FullName() + "/" + r.Name
	}
	if r.Namespace == "" {
		return r.Name
	}
	return r.Namespace + "." + r.Name
}

// CanonicalName is the module-qualified identity "[Scope]FullName" in NFC.
func (r *TypeRef) CanonicalName() string {
	if r == nil {
		return ""
	}
	return norm.NFC.String("[" + r.scope() + "]" + r.FullName())
}

// EffectiveScope is the scope of r, inherited from its declaring type when
// r has none of its own.
func (r *TypeRef) EffectiveScope() string {
	if r == nil {
		return ""
	}
	return r.scope()
}

func (r *TypeRef) scope() string {
	if r.Scope == "" && r.DeclaringType != nil {
		return r.DeclaringType.scope()
	}
	return r.Scope
}

func (r *TypeRef) String() string {
	return r.FullName()
}

// Is reports whether r names the type fullName regardless of scope.
func (r *TypeRef) Is(fullName string) bool {
	return r != nil && r.FullName() == fullName
}

// SameAs compares canonical identities.
func (r *TypeRef) SameAs(o *TypeRef) bool {
	if r == nil || o == nil {
		return r == o
	}
	return r.CanonicalName() == o.CanonicalName()
}

// ParseTypeRef parses "[Scope]Ns.Name" or "[Scope]Ns.Outer/Inner". The scope
// prefix is optional.
func ParseTypeRef(s string) (*TypeRef, error) {
	s = strings.TrimSpace(s)
	scope := ""
	if strings.HasPrefix(s, "[") {
		end := strings.IndexByte(s, ']')
		if end < 0 {
			return nil, fmt.Errorf("type reference %q: unterminated scope", s)
		}
		scope, s = s[1:end], s[end+1:]
	}
	if s == "" {
		return nil, fmt.Errorf("type reference %q: missing name", s)
	}
	parts := strings.Split(s, "/")
	var ref *TypeRef
	for i, part := range parts {
		if part == "" {
			return nil, fmt.Errorf("type reference %q: empty nested name", s)
		}
		if i == 0 {
			ns, name := splitNamespace(part)
			ref = &TypeRef{Scope: scope, Namespace: ns, Name: name}
			continue
		}
		ref = &TypeRef{Scope: scope, Name: part, DeclaringType: ref}
	}
	return ref, nil
}

// splitNamespace splits "Ns.Name" at the last dot.
func splitNamespace(full string) (ns, name string) {
	if i := strings.LastIndexByte(full, '.'); i >= 0 {
		return full[:i], full[i+1:]
	}
	return "", full
}
