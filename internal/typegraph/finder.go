package typegraph

import (
	"errors"
	"fmt"

	"propweave/internal/meta"
	"propweave/internal/resolve"
)

// ErrInheritanceCycle is returned when a base chain loops.
var ErrInheritanceCycle = errors.New("inheritance cycle")

// BaseFinder answers whether a type derives from or implements one of the
// marker types. It keeps no memo; the cache below it does.
type BaseFinder struct {
	cache   *resolve.Cache
	markers map[string]struct{}
}

// NewBaseFinder builds a finder for the given marker full names.
func NewBaseFinder(cache *resolve.Cache, markers []string) *BaseFinder {
	set := make(map[string]struct{}, len(markers))
	for _, m := range markers {
		set[m] = struct{}{}
	}
	return &BaseFinder{cache: cache, markers: set}
}

func (f *BaseFinder) isMarker(ref *meta.TypeRef) bool {
	_, ok := f.markers[ref.FullName()]
	return ok
}

// IsDerivedFromMarker walks def's base chain through the cache. It stops at
// the first marker met as a base or as an implemented interface, or when the
// chain ends. Resolution errors propagate unchanged.
func (f *BaseFinder) IsDerivedFromMarker(def *meta.TypeDef) (bool, error) {
	seen := map[string]struct{}{def.CanonicalName(): {}}
	seenIfaces := make(map[string]struct{})
	for cur := def; cur != nil; {
		found, err := f.implementsMarker(cur, seenIfaces)
		if err != nil || found {
			return found, err
		}
		if cur.BaseType == nil {
			return false, nil
		}
		if f.isMarker(cur.BaseType) {
			return true, nil
		}
		next, err := f.cache.Resolve(cur.BaseType)
		if err != nil {
			return false, err
		}
		key := next.CanonicalName()
		if _, loop := seen[key]; loop {
			return false, fmt.Errorf("%s: %w", def.FullName(), ErrInheritanceCycle)
		}
		seen[key] = struct{}{}
		cur = next
	}
	return false, nil
}

// implementsMarker checks def's interfaces and the interfaces they inherit.
func (f *BaseFinder) implementsMarker(def *meta.TypeDef, seen map[string]struct{}) (bool, error) {
	for _, iface := range def.Interfaces {
		if f.isMarker(iface) {
			return true, nil
		}
		key := iface.CanonicalName()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		idef, err := f.cache.Resolve(iface)
		if err != nil {
			return false, err
		}
		found, err := f.implementsMarker(idef, seen)
		if err != nil || found {
			return found, err
		}
	}
	return false, nil
}
