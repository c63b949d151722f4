package resolve

import (
	"propweave/internal/meta"
)

// Host resolves references the cache has not seen yet.
type Host interface {
	Resolve(ref *meta.TypeRef) (*meta.TypeDef, error)
}

// HostFunc adapts a function to Host.
type HostFunc func(ref *meta.TypeRef) (*meta.TypeDef, error)

func (f HostFunc) Resolve(ref *meta.TypeRef) (*meta.TypeDef, error) { return f(ref) }

// Stats counts cache traffic.
type Stats struct {
	Hits    int
	Misses  int
	Entries int
}

// Cache memoizes resolution for one weaving run. A canonical name always maps
// to the same *meta.TypeDef; failures are returned to the caller and not
// remembered.
type Cache struct {
	host    Host
	entries map[string]*meta.TypeDef
	stats   Stats
}

// NewCache builds an empty cache over host.
func NewCache(host Host) *Cache {
	return &Cache{
		host:    host,
		entries: make(map[string]*meta.TypeDef, 64),
	}
}

// Seed registers definitions that are already in hand, typically the types of
// the module being woven.
func (c *Cache) Seed(defs ...*meta.TypeDef) {
	for _, def := range defs {
		key := def.CanonicalName()
		if _, ok := c.entries[key]; !ok {
			c.entries[key] = def
		}
	}
}

// Resolve returns the definition ref names.
func (c *Cache) Resolve(ref *meta.TypeRef) (*meta.TypeDef, error) {
	if ref == nil {
		return nil, &ResolutionError{Name: "<nil>", Err: ErrNilReference}
	}
	key := ref.CanonicalName()
	if def, ok := c.entries[key]; ok {
		c.stats.Hits++
		return def, nil
	}
	c.stats.Misses++
	if c.host == nil {
		return nil, &ResolutionError{Name: key, Err: ErrTypeNotFound}
	}
	def, err := c.host.Resolve(ref)
	if err != nil {
		return nil, &ResolutionError{Name: key, Err: err}
	}
	if def == nil {
		return nil, &ResolutionError{Name: key, Err: ErrTypeNotFound}
	}
	// a definition reached under another alias keeps a single identity
	if prev, ok := c.entries[def.CanonicalName()]; ok {
		def = prev
	}
	c.entries[key] = def
	return def, nil
}

// ResolveMethod resolves ref's declaring type and finds the overload with the
// same name and parameter types.
func (c *Cache) ResolveMethod(ref *meta.MethodRef) (*meta.MethodDef, error) {
	def, err := c.Resolve(ref.DeclaringType)
	if err != nil {
		return nil, err
	}
	params := make([]string, len(ref.Parameters))
	for i, p := range ref.Parameters {
		params[i] = p.FullName()
	}
	if m := def.FindMethod(ref.Name, params...); m != nil {
		return m, nil
	}
	return nil, &ResolutionError{Name: ref.String(), Err: ErrMethodNotFound}
}

// Len returns the number of cached names.
func (c *Cache) Len() int {
	return len(c.entries)
}

// Stats returns hit and miss counters.
func (c *Cache) Stats() Stats {
	s := c.stats
	s.Entries = len(c.entries)
	return s
}
