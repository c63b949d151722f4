package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"propweave/internal/il"
	"propweave/internal/meta"
	"propweave/internal/source"
)

// ModuleBuilder assembles a meta.Module for tests. Every declaration gets the
// next line of a synthetic source document so warnings carry locations.
type ModuleBuilder struct {
	mod  *meta.Module
	doc  source.DocID
	line int
}

// NewModule starts a module referencing the given assemblies.
func NewModule(name string, refs ...string) *ModuleBuilder {
	docs := source.NewDocumentSet()
	b := &ModuleBuilder{
		mod: &meta.Module{Name: name, Docs: docs},
		doc: docs.Add(name + ".cs"),
	}
	for _, r := range refs {
		b.mod.AssemblyRefs = append(b.mod.AssemblyRefs, &meta.AssemblyRef{Name: r, Version: "1.0.0.0"})
	}
	return b
}

// Build returns the module.
func (b *ModuleBuilder) Build() *meta.Module {
	return b.mod
}

func (b *ModuleBuilder) span() source.Span {
	b.line++
	line, err := safecast.Conv[uint32](b.line)
	if err != nil {
		panic(fmt.Errorf("line overflow: %w", err))
	}
	return source.At(b.doc, line, 5)
}

// Class declares a top-level class deriving from base.
func (b *ModuleBuilder) Class(ns, name string, base *meta.TypeRef) *TypeBuilder {
	def := &meta.TypeDef{Module: b.mod, Namespace: ns, Name: name, BaseType: base, Span: b.span()}
	b.mod.Types = append(b.mod.Types, def)
	return &TypeBuilder{mb: b, def: def}
}

// Interface declares a top-level interface.
func (b *ModuleBuilder) Interface(ns, name string, inherits ...*meta.TypeRef) *TypeBuilder {
	def := &meta.TypeDef{Module: b.mod, Namespace: ns, Name: name, Flags: meta.TypeInterface | meta.TypeAbstract, Interfaces: inherits, Span: b.span()}
	b.mod.Types = append(b.mod.Types, def)
	return &TypeBuilder{mb: b, def: def}
}

// TypeBuilder adds members to a type.
type TypeBuilder struct {
	mb  *ModuleBuilder
	def *meta.TypeDef
}

// Def returns the type definition.
func (t *TypeBuilder) Def() *meta.TypeDef { return t.def }

// Ref returns a reference to the type.
func (t *TypeBuilder) Ref() *meta.TypeRef { return t.def.Ref() }

// Flags sets type flags.
func (t *TypeBuilder) Flags(f meta.TypeFlags) *TypeBuilder {
	t.def.Flags |= f
	return t
}

// Implements adds interfaces.
func (t *TypeBuilder) Implements(refs ...*meta.TypeRef) *TypeBuilder {
	t.def.Interfaces = append(t.def.Interfaces, refs...)
	return t
}

// Attr attaches an attribute to the type.
func (t *TypeBuilder) Attr(attrs ...*meta.CustomAttribute) *TypeBuilder {
	t.def.Attributes = append(t.def.Attributes, attrs...)
	return t
}

// Nested declares a nested class.
func (t *TypeBuilder) Nested(name string, base *meta.TypeRef) *TypeBuilder {
	def := &meta.TypeDef{Module: t.mb.mod, Name: name, DeclaringType: t.def, BaseType: base, Span: t.mb.span()}
	t.def.NestedTypes = append(t.def.NestedTypes, def)
	return &TypeBuilder{mb: t.mb, def: def}
}

// Field declares an instance field.
func (t *TypeBuilder) Field(name string, typ *meta.TypeRef) *meta.FieldDef {
	f := &meta.FieldDef{DeclaringType: t.def, Name: name, FieldType: typ}
	t.def.Fields = append(t.def.Fields, f)
	return f
}

// Method declares a method. body may be nil for abstract methods.
func (t *TypeBuilder) Method(name string, ret *meta.TypeRef, flags meta.MethodFlags, params []*meta.ParameterDef, body ...*il.Instruction) *meta.MethodDef {
	for i, p := range params {
		p.Index = i
	}
	m := &meta.MethodDef{Name: name, ReturnType: ret, Flags: flags, Parameters: params, Span: t.mb.span()}
	if len(body) > 0 {
		m.Body = il.NewBody(body...)
	}
	t.def.AddMethod(m)
	return m
}

// Param builds a parameter.
func Param(name string, typ *meta.TypeRef, attrs ...*meta.CustomAttribute) *meta.ParameterDef {
	return &meta.ParameterDef{Name: name, ParameterType: typ, Attributes: attrs}
}

// Property declares a property over the given accessors.
func (t *TypeBuilder) Property(name string, typ *meta.TypeRef, getter, setter *meta.MethodDef, attrs ...*meta.CustomAttribute) *meta.PropertyDef {
	p := &meta.PropertyDef{DeclaringType: t.def, Name: name, PropertyType: typ, Getter: getter, Setter: setter, Attributes: attrs, Span: t.mb.span()}
	for _, acc := range []*meta.MethodDef{getter, setter} {
		if acc != nil {
			acc.Flags |= meta.MethodSpecialName
		}
	}
	t.def.Properties = append(t.def.Properties, p)
	return p
}

// AutoProperty declares a property backed by a compiler-style field: the
// getter loads it, the setter stores value into it.
func (t *TypeBuilder) AutoProperty(name string, typ *meta.TypeRef, attrs ...*meta.CustomAttribute) *meta.PropertyDef {
	field := t.Field("<"+name+">k__BackingField", typ)
	getter := t.Method("get_"+name, typ, 0, nil,
		il.Create(il.Ldarg0),
		il.CreateOperand(il.Ldfld, field.Ref()),
		il.Create(il.Ret),
	)
	setter := t.Method("set_"+name, Void(), 0, []*meta.ParameterDef{Param("value", typ)},
		il.Create(il.Ldarg0),
		il.Create(il.Ldarg1),
		il.CreateOperand(il.Stfld, field.Ref()),
		il.Create(il.Ret),
	)
	return t.Property(name, typ, getter, setter, attrs...)
}

// CheckCall builds the instructions of Argument.<check>("name", arg) as a
// compiler would bind it to the loosely typed overload.
func CheckCall(check, name string, slot int, typ *meta.TypeRef) []*il.Instruction {
	out := []*il.Instruction{il.CreateOperand(il.Ldstr, name), il.LoadArg(slot)}
	if typ.IsValueType {
		out = append(out, il.CreateOperand(il.Box, typ))
	}
	call := &meta.MethodRef{
		DeclaringType: Argument(),
		Name:          check,
		ReturnType:    Void(),
		Parameters:    []*meta.TypeRef{String(), Object()},
	}
	return append(out, il.CreateOperand(il.Call, call))
}
