package meta

import (
	"strings"

	"propweave/internal/il"
	"propweave/internal/source"
)

// TypeFlags describe the kind of a type definition.
type TypeFlags uint8

const (
	TypeInterface TypeFlags = 1 << iota
	TypeValueType
	TypeAbstract
	TypeSealed
)

// MethodFlags describe a method definition.
type MethodFlags uint8

const (
	MethodStatic MethodFlags = 1 << iota
	MethodVirtual
	MethodAbstract
	MethodSpecialName
)

// CustomAttribute is an attribute application.
type CustomAttribute struct {
	AttributeType *TypeRef
	Args          []string
}

func (a *CustomAttribute) String() string {
	if len(a.Args) == 0 {
		return a.AttributeType.FullName()
	}
	return a.AttributeType.FullName() + "(" + strings.Join(a.Args, ", ") + ")"
}

// FindAttribute returns the first attribute whose type has fullName.
func FindAttribute(attrs []*CustomAttribute, fullName string) *CustomAttribute {
	for _, a := range attrs {
		if a.AttributeType.Is(fullName) {
			return a
		}
	}
	return nil
}

// HasAttribute reports whether attrs contains any of fullNames.
func HasAttribute(attrs []*CustomAttribute, fullNames ...string) bool {
	for _, name := range fullNames {
		if FindAttribute(attrs, name) != nil {
			return true
		}
	}
	return false
}

// FieldDef is a field of a type.
type FieldDef struct {
	DeclaringType *TypeDef
	Name          string
	FieldType     *TypeRef
	Static        bool
	Attributes    []*CustomAttribute
}

// Ref returns a reference usable as an instruction operand.
func (f *FieldDef) Ref() *FieldRef {
	return &FieldRef{DeclaringType: f.DeclaringType.Ref(), Name: f.Name, FieldType: f.FieldType}
}

// FieldRef names a field from an instruction.
type FieldRef struct {
	DeclaringType *TypeRef
	Name          string
	FieldType     *TypeRef
}

func (f *FieldRef) String() string {
	return f.DeclaringType.FullName() + "::" + f.Name
}

// ParameterDef is a declared method parameter. Index is zero-based and does
// not count the implicit this.
type ParameterDef struct {
	Name          string
	Index         int
	ParameterType *TypeRef
	Attributes    []*CustomAttribute
}

// MethodDef is a method with its body.
type MethodDef struct {
	DeclaringType *TypeDef
	Name          string
	ReturnType    *TypeRef // nil for void
	Parameters    []*ParameterDef
	Flags         MethodFlags
	Body          *il.Body
	Attributes    []*CustomAttribute
	Span          source.Span
}

func (m *MethodDef) IsStatic() bool   { return m.Flags&MethodStatic != 0 }
func (m *MethodDef) IsAbstract() bool { return m.Flags&MethodAbstract != 0 }
func (m *MethodDef) IsVirtual() bool  { return m.Flags&MethodVirtual != 0 }
func (m *MethodDef) HasBody() bool    { return m.Body != nil && m.Body.Len() > 0 }

// HasThis reports whether argument slot 0 is the instance.
func (m *MethodDef) HasThis() bool { return !m.IsStatic() }

// ReturnsValue reports whether the method yields a value.
func (m *MethodDef) ReturnsValue() bool {
	return m.ReturnType != nil && !m.ReturnType.Is("System.Void")
}

// ArgIndex maps a parameter to its argument slot.
func (m *MethodDef) ArgIndex(p *ParameterDef) int {
	if m.HasThis() {
		return p.Index + 1
	}
	return p.Index
}

// Parameter returns the parameter loaded from argument slot, or nil for this.
func (m *MethodDef) Parameter(slot int) *ParameterDef {
	if m.HasThis() {
		slot--
	}
	if slot < 0 || slot >= len(m.Parameters) {
		return nil
	}
	return m.Parameters[slot]
}

// Ref returns a reference usable as a call operand.
func (m *MethodDef) Ref() *MethodRef {
	params := make([]*TypeRef, len(m.Parameters))
	for i, p := range m.Parameters {
		params[i] = p.ParameterType
	}
	return &MethodRef{
		DeclaringType: m.DeclaringType.Ref(),
		Name:          m.Name,
		ReturnType:    m.ReturnType,
		Parameters:    params,
		Instance:      m.HasThis(),
	}
}

func (m *MethodDef) String() string {
	return m.Ref().String()
}

// MethodRef names a method from an instruction. It carries enough of the
// signature to compute stack effects.
type MethodRef struct {
	DeclaringType *TypeRef
	Name          string
	ReturnType    *TypeRef
	Parameters    []*TypeRef
	Instance      bool
}

var _ il.Signature = (*MethodRef)(nil)

func (m *MethodRef) ParamCount() int { return len(m.Parameters) }
func (m *MethodRef) HasThis() bool   { return m.Instance }

func (m *MethodRef) ReturnsValue() bool {
	return m.ReturnType != nil && !m.ReturnType.Is("System.Void")
}

func (m *MethodRef) String() string {
	var sb strings.Builder
	if m.Instance {
		sb.WriteString("instance ")
	}
	if m.ReturnType != nil {
		sb.WriteString(m.ReturnType.FullName())
	} else {
		sb.WriteString("System.Void")
	}
	sb.WriteByte(' ')
	sb.WriteString(m.DeclaringType.FullName())
	sb.WriteString("::")
	sb.WriteString(m.Name)
	sb.WriteByte('(')
	for i, p := range m.Parameters {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(p.FullName())
	}
	sb.WriteByte(')')
	return sb.String()
}

// PropertyDef pairs the accessors of a property.
type PropertyDef struct {
	DeclaringType *TypeDef
	Name          string
	PropertyType  *TypeRef
	Getter        *MethodDef
	Setter        *MethodDef
	Attributes    []*CustomAttribute
	Span          source.Span
}

func (p *PropertyDef) String() string {
	return p.DeclaringType.FullName() + "::" + p.Name
}

// AssemblyRef is a dependency of a module.
type AssemblyRef struct {
	Name    string
	Version string
}
