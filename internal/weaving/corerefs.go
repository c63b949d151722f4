package weaving

import (
	"fmt"

	"propweave/internal/meta"
	"propweave/internal/resolve"
)

// CoreReferences are the base library types and methods injected code uses.
type CoreReferences struct {
	Object  *meta.TypeRef
	String  *meta.TypeRef
	Boolean *meta.TypeRef
	Void    *meta.TypeRef
	// Equals is the static Object.Equals(object, object).
	Equals *meta.MethodRef
}

// ResolveCoreReferences looks the core types up in scope. Any failure is
// fatal to the run.
func ResolveCoreReferences(cache *resolve.Cache, scope string) (*CoreReferences, error) {
	lookup := func(name string) (*meta.TypeDef, error) {
		return cache.Resolve(meta.NewTypeRef(scope, "System", name))
	}
	var defs [4]*meta.TypeDef
	for i, name := range []string{"Object", "String", "Boolean", "Void"} {
		def, err := lookup(name)
		if err != nil {
			return nil, err
		}
		defs[i] = def
	}
	equals := defs[0].FindMethod("Equals", "System.Object", "System.Object")
	if equals == nil || !equals.IsStatic() {
		return nil, &resolve.ResolutionError{
			Name: defs[0].CanonicalName() + "::Equals(System.Object,System.Object)",
			Err:  fmt.Errorf("static Equals: %w", resolve.ErrMethodNotFound),
		}
	}
	return &CoreReferences{
		Object:  defs[0].Ref(),
		String:  defs[1].Ref(),
		Boolean: defs[2].Ref(),
		Void:    defs[3].Ref(),
		Equals:  equals.Ref(),
	}, nil
}
