package typegraph

import (
	"propweave/internal/config"
	"propweave/internal/il"
	"propweave/internal/meta"
)

// collectMembers returns the qualifying properties then methods of def, each
// in declaration order.
func collectMembers(def *meta.TypeDef, hasMarker bool, conv *config.Conventions) []*Member {
	var members []*Member
	typeExcluded := meta.HasAttribute(def.Attributes, conv.ExcludeAttributes...)
	for _, p := range def.Properties {
		if m := propertyMember(p, hasMarker && !typeExcluded, conv); m != nil {
			members = append(members, m)
		}
	}
	for _, meth := range def.Methods {
		if m := methodMember(meth, conv); m != nil {
			members = append(members, m)
		}
	}
	return members
}

func propertyMember(p *meta.PropertyDef, notifiable bool, conv *config.Conventions) *Member {
	s := p.Setter
	if s == nil || !s.HasBody() {
		return nil
	}
	m := &Member{Kind: MemberProperty, Property: p, Method: s}
	excluded := meta.HasAttribute(p.Attributes, conv.ExcludeAttributes...)
	m.Notify = notifiable && !excluded && !s.IsStatic() && !s.IsAbstract()
	m.Validations = validationsOf(p.Attributes, nil, conv)
	if !m.Notify && len(m.Validations) == 0 {
		return nil
	}
	return m
}

func methodMember(meth *meta.MethodDef, conv *config.Conventions) *Member {
	if !meth.HasBody() {
		return nil
	}
	m := &Member{Kind: MemberMethod, Method: meth}
	for _, p := range meth.Parameters {
		m.Validations = append(m.Validations, validationsOf(p.Attributes, p, conv)...)
	}
	m.HasHelperCalls = callsHelper(meth.Body, conv.HelperType)
	if len(m.Validations) == 0 && !m.HasHelperCalls {
		return nil
	}
	return m
}

func validationsOf(attrs []*meta.CustomAttribute, param *meta.ParameterDef, conv *config.Conventions) []Validation {
	var out []Validation
	for _, a := range attrs {
		name := a.AttributeType.FullName()
		if check, ok := conv.CheckFor(name); ok {
			out = append(out, Validation{Attribute: name, Check: check, Param: param})
		}
	}
	return out
}

func callsHelper(body *il.Body, helperType string) bool {
	for _, ins := range body.Instructions {
		if ins.Code != il.Call {
			continue
		}
		if ref, ok := ins.Operand.(*meta.MethodRef); ok && ref.DeclaringType.Is(helperType) {
			return true
		}
	}
	return false
}
