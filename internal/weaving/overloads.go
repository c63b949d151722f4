package weaving

import "propweave/internal/meta"

// selectOverload picks the helper method called name whose second parameter
// has the checked type. Without an exact match it falls back to the default
// overload: two parameters with System.Object second, else the first
// two-parameter overload in declaration order. It returns nil when the helper
// has no two-parameter overload of that name.
func selectOverload(helper *meta.TypeDef, name string, checked *meta.TypeRef) (sel *meta.MethodDef, exact bool) {
	var fallback, object *meta.MethodDef
	for _, m := range helper.MethodsNamed(name) {
		if len(m.Parameters) != 2 {
			continue
		}
		second := m.Parameters[1].ParameterType
		if checked != nil && second.FullName() == checked.FullName() {
			return m, true
		}
		if fallback == nil {
			fallback = m
		}
		if object == nil && second.Is("System.Object") {
			object = m
		}
	}
	if object != nil {
		return object, false
	}
	return fallback, false
}

// needsBox reports whether a value of type checked must be boxed to pass it
// as a parameter of type target.
func (e *Env) needsBox(checked, target *meta.TypeRef) (bool, error) {
	if checked == nil || target == nil {
		return false, nil
	}
	cv, err := e.isValueType(checked)
	if err != nil || !cv {
		return false, err
	}
	tv, err := e.isValueType(target)
	return !tv, err
}
