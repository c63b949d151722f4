package fixture

import (
	"errors"
	"fmt"
	"strings"

	"fortio.org/safecast"

	"propweave/internal/diag"
	"propweave/internal/il"
	"propweave/internal/meta"
	"propweave/internal/source"
)

type builder struct {
	path string
	docs *source.DocumentSet
	doc  source.DocID
	opts Options
}

func (b *builder) span(line int) source.Span {
	if line < 1 {
		line = 1
	}
	l, err := safecast.Conv[uint32](line)
	if err != nil {
		panic(fmt.Errorf("line overflow: %w", err))
	}
	return source.At(b.doc, l, 1)
}

func (b *builder) errorf(line int, code diag.Code, format string, args ...any) *Error {
	return &Error{Path: b.path, Line: line, Code: code, Msg: fmt.Sprintf(format, args...), Span: b.span(line)}
}

// moduleBuild carries the state of one module while it is assembled.
type moduleBuild struct {
	*builder
	mod   *meta.Module
	types *typeParser
	specs map[*meta.TypeDef]*TypeSpec
}

func (b *builder) module(spec *ModuleSpec) (*meta.Module, error) {
	if strings.TrimSpace(spec.Name) == "" {
		return nil, b.errorf(spec.Line, diag.FixSyntax, "module without a name")
	}
	mb := &moduleBuild{
		builder: b,
		mod:     &meta.Module{Name: spec.Name, Docs: b.docs},
		types:   &typeParser{core: b.opts.CoreScope, module: spec.Name, local: make(map[string]*meta.TypeDef)},
		specs:   make(map[*meta.TypeDef]*TypeSpec),
	}
	for _, r := range spec.References {
		mb.mod.AssemblyRefs = append(mb.mod.AssemblyRefs, &meta.AssemblyRef{Name: r, Version: "1.0.0.0"})
	}
	// declare every type first so members can name types declared later
	for i := range spec.Types {
		if err := mb.declare(&spec.Types[i], nil); err != nil {
			return nil, err
		}
	}
	attrs, err := mb.types.attributes(spec.Attributes)
	if err != nil {
		return nil, b.errorf(spec.Line, diag.FixUnknownType, "%s: %v", spec.Name, err)
	}
	mb.mod.Attributes = attrs
	for _, def := range mb.mod.AllTypes() {
		if err := mb.members(def, mb.specs[def]); err != nil {
			return nil, err
		}
	}
	return mb.mod, nil
}

func (mb *moduleBuild) declare(spec *TypeSpec, parent *meta.TypeDef) error {
	if spec.Name == "" {
		return mb.errorf(spec.Line, diag.FixSyntax, "type without a name")
	}
	def := &meta.TypeDef{Module: mb.mod, Namespace: spec.Namespace, Name: spec.Name, DeclaringType: parent, Span: mb.span(spec.Line)}
	switch spec.Kind {
	case "", "class":
	case "interface":
		def.Flags |= meta.TypeInterface | meta.TypeAbstract
	case "struct":
		def.Flags |= meta.TypeValueType | meta.TypeSealed
	default:
		return mb.errorf(spec.Line, diag.FixSyntax, "%s: unknown kind %q", spec.Name, spec.Kind)
	}
	for _, f := range spec.Flags {
		switch f {
		case "abstract":
			def.Flags |= meta.TypeAbstract
		case "sealed":
			def.Flags |= meta.TypeSealed
		default:
			return mb.errorf(spec.Line, diag.FixSyntax, "%s: unknown flag %q", spec.Name, f)
		}
	}
	if parent != nil {
		def.Namespace = ""
		parent.NestedTypes = append(parent.NestedTypes, def)
	} else {
		mb.mod.Types = append(mb.mod.Types, def)
	}
	full := def.FullName()
	if _, dup := mb.types.local[full]; dup {
		return mb.errorf(spec.Line, diag.FixSyntax, "type %s declared twice", full)
	}
	mb.types.local[full] = def
	mb.specs[def] = spec
	for i := range spec.Nested {
		if err := mb.declare(&spec.Nested[i], def); err != nil {
			return err
		}
	}
	return nil
}

func (mb *moduleBuild) members(def *meta.TypeDef, spec *TypeSpec) error {
	fail := func(line int, code diag.Code, err error) error {
		return mb.errorf(line, code, "%s: %v", def.FullName(), err)
	}
	var err error
	if spec.Base != "" {
		if def.BaseType, err = mb.types.parse(spec.Base); err != nil {
			return fail(spec.Line, diag.FixUnknownType, fmt.Errorf("base: %w", err))
		}
	}
	if def.Interfaces, err = mb.types.list(spec.Interfaces); err != nil {
		return fail(spec.Line, diag.FixUnknownType, err)
	}
	if def.Attributes, err = mb.types.attributes(spec.Attributes); err != nil {
		return fail(spec.Line, diag.FixUnknownType, err)
	}
	for _, fs := range spec.Fields {
		f := &meta.FieldDef{DeclaringType: def, Name: fs.Name, Static: fs.Static}
		if f.FieldType, err = mb.types.parse(fs.Type); err != nil {
			return fail(spec.Line, diag.FixUnknownType, fmt.Errorf("field %s: %w", fs.Name, err))
		}
		if f.Attributes, err = mb.types.attributes(fs.Attributes); err != nil {
			return fail(spec.Line, diag.FixUnknownType, err)
		}
		def.Fields = append(def.Fields, f)
	}
	for i := range spec.Methods {
		if err := mb.method(def, &spec.Methods[i]); err != nil {
			return err
		}
	}
	for i := range spec.Properties {
		if err := mb.property(def, &spec.Properties[i]); err != nil {
			return err
		}
	}
	return nil
}

func (mb *moduleBuild) method(def *meta.TypeDef, ms *MethodSpec) error {
	fail := func(code diag.Code, err error) error {
		return mb.errorf(ms.Line, code, "%s::%s: %v", def.FullName(), ms.Name, err)
	}
	m := &meta.MethodDef{Name: ms.Name, Span: mb.span(ms.Line)}
	var err error
	if ms.Returns != "" {
		if m.ReturnType, err = mb.types.parse(ms.Returns); err != nil {
			return fail(diag.FixUnknownType, fmt.Errorf("return type: %w", err))
		}
	}
	if ms.Static {
		m.Flags |= meta.MethodStatic
	}
	if ms.Virtual {
		m.Flags |= meta.MethodVirtual
	}
	if ms.Abstract {
		m.Flags |= meta.MethodAbstract | meta.MethodVirtual
	}
	if strings.HasPrefix(ms.Name, ".") {
		m.Flags |= meta.MethodSpecialName
	}
	for i, ps := range ms.Params {
		p := &meta.ParameterDef{Name: ps.Name, Index: i}
		if p.ParameterType, err = mb.types.parse(ps.Type); err != nil {
			return fail(diag.FixUnknownType, fmt.Errorf("parameter %s: %w", ps.Name, err))
		}
		if p.Attributes, err = mb.types.attributes(ps.Attributes); err != nil {
			return fail(diag.FixUnknownType, err)
		}
		m.Parameters = append(m.Parameters, p)
	}
	if m.Attributes, err = mb.types.attributes(ms.Attributes); err != nil {
		return fail(diag.FixUnknownType, err)
	}
	def.AddMethod(m)
	if ms.Body == "" {
		return nil
	}
	if ms.Abstract {
		return fail(diag.FixSyntax, errors.New("abstract method with a body"))
	}
	body, err := assemble(ms.Body, mb.types, m)
	if err != nil {
		var ae *AsmError
		if errors.As(err, &ae) {
			line := ae.Line
			if ms.BodyLine > 0 {
				line = ms.BodyLine + ae.Line - 1
			}
			return mb.errorf(line, diag.FixInvalidInstruction, "%s::%s: %s", def.FullName(), ms.Name, ae.Msg)
		}
		return fail(diag.FixInvalidInstruction, err)
	}
	m.Body = body
	return nil
}

func (mb *moduleBuild) property(def *meta.TypeDef, ps *PropertySpec) error {
	fail := func(code diag.Code, format string, args ...any) error {
		return mb.errorf(ps.Line, code, "%s::%s: %s", def.FullName(), ps.Name, fmt.Sprintf(format, args...))
	}
	typ, err := mb.types.parse(ps.Type)
	if err != nil {
		return fail(diag.FixUnknownType, "%v", err)
	}
	attrs, err := mb.types.attributes(ps.Attributes)
	if err != nil {
		return fail(diag.FixUnknownType, "%v", err)
	}
	p := &meta.PropertyDef{DeclaringType: def, Name: ps.Name, PropertyType: typ, Attributes: attrs, Span: mb.span(ps.Line)}
	if ps.Auto {
		if ps.Getter != "" || ps.Setter != "" {
			return fail(diag.FixSyntax, "auto property names no accessors")
		}
		mb.autoAccessors(def, p)
	} else {
		if p.Getter, err = accessor(def, ps.Getter); err != nil {
			return fail(diag.FixUnknownMember, "getter: %v", err)
		}
		if p.Setter, err = accessor(def, ps.Setter); err != nil {
			return fail(diag.FixUnknownMember, "setter: %v", err)
		}
	}
	for _, acc := range []*meta.MethodDef{p.Getter, p.Setter} {
		if acc != nil {
			acc.Flags |= meta.MethodSpecialName
		}
	}
	def.Properties = append(def.Properties, p)
	return nil
}

func accessor(def *meta.TypeDef, name string) (*meta.MethodDef, error) {
	if name == "" {
		return nil, nil
	}
	found := def.MethodsNamed(name)
	if len(found) != 1 {
		return nil, fmt.Errorf("%d methods named %q", len(found), name)
	}
	return found[0], nil
}

// autoAccessors gives p a backing field and compiler-shaped accessors.
func (mb *moduleBuild) autoAccessors(def *meta.TypeDef, p *meta.PropertyDef) {
	field := &meta.FieldDef{DeclaringType: def, Name: "<" + p.Name + ">k__BackingField", FieldType: p.PropertyType}
	def.Fields = append(def.Fields, field)
	p.Getter = &meta.MethodDef{
		Name:       "get_" + p.Name,
		ReturnType: p.PropertyType,
		Span:       p.Span,
		Body: il.NewBody(
			il.Create(il.Ldarg0),
			il.CreateOperand(il.Ldfld, field.Ref()),
			il.Create(il.Ret),
		),
	}
	p.Setter = &meta.MethodDef{
		Name:       "set_" + p.Name,
		Parameters: []*meta.ParameterDef{{Name: "value", ParameterType: p.PropertyType}},
		Span:       p.Span,
		Body: il.NewBody(
			il.Create(il.Ldarg0),
			il.Create(il.Ldarg1),
			il.CreateOperand(il.Stfld, field.Ref()),
			il.Create(il.Ret),
		),
	}
	def.AddMethod(p.Getter)
	def.AddMethod(p.Setter)
}
