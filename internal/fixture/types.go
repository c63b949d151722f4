package fixture

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"propweave/internal/meta"
)

type keyword struct {
	name  string
	value bool
}

var keywords = map[string]keyword{
	"void":   {"Void", true},
	"bool":   {"Boolean", true},
	"int32":  {"Int32", true},
	"int64":  {"Int64", true},
	"string": {"String", false},
	"object": {"Object", false},
}

// typeParser turns type text into references. Unscoped names declared in the
// module being built are bound to it.
type typeParser struct {
	core   string
	module string
	local  map[string]*meta.TypeDef
}

func (p *typeParser) parse(s string) (*meta.TypeRef, error) {
	ref, rest, err := p.next(s)
	if err != nil {
		return nil, err
	}
	if rest != "" {
		return nil, fmt.Errorf("unexpected %q after type", rest)
	}
	return ref, nil
}

// next parses the leading type of s and returns the remaining text.
func (p *typeParser) next(s string) (*meta.TypeRef, string, error) {
	s = strings.TrimSpace(s)
	value := false
	if rest, ok := strings.CutPrefix(s, "valuetype "); ok {
		value = true
		s = strings.TrimSpace(rest)
	}
	tok, rest := cutField(s)
	if tok == "" {
		return nil, "", errors.New("missing type")
	}
	if kw, ok := keywords[tok]; ok {
		ref := meta.NewTypeRef(p.core, "System", kw.name)
		ref.IsValueType = kw.value
		return ref, rest, nil
	}
	ref, err := meta.ParseTypeRef(tok)
	if err != nil {
		return nil, "", err
	}
	root := ref
	for root.DeclaringType != nil {
		root = root.DeclaringType
	}
	if def, ok := p.local[ref.FullName()]; ok && ref.EffectiveScope() == "" {
		root.Scope = p.module
		value = value || def.IsValueType()
	}
	ref.IsValueType = value
	return ref, rest, nil
}

func (p *typeParser) list(items []string) ([]*meta.TypeRef, error) {
	out := make([]*meta.TypeRef, 0, len(items))
	for _, it := range items {
		ref, err := p.parse(it)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", it, err)
		}
		out = append(out, ref)
	}
	return out, nil
}

// methodRef parses "[instance] <ret> <type>::<name>(<params>)".
func (p *typeParser) methodRef(s string) (*meta.MethodRef, error) {
	s = strings.TrimSpace(s)
	instance := false
	if rest, ok := strings.CutPrefix(s, "instance "); ok {
		instance = true
		s = rest
	}
	ret, rest, err := p.next(s)
	if err != nil {
		return nil, fmt.Errorf("return type: %w", err)
	}
	open := strings.IndexByte(rest, '(')
	if open < 0 || !strings.HasSuffix(rest, ")") {
		return nil, fmt.Errorf("method %q lacks a parameter list", rest)
	}
	decl, name, err := p.member(rest[:open])
	if err != nil {
		return nil, err
	}
	ref := &meta.MethodRef{DeclaringType: decl, Name: name, ReturnType: ret, Instance: instance}
	if args := strings.TrimSpace(rest[open+1 : len(rest)-1]); args != "" {
		for _, a := range strings.Split(args, ",") {
			t, err := p.parse(a)
			if err != nil {
				return nil, fmt.Errorf("parameter %q: %w", strings.TrimSpace(a), err)
			}
			ref.Parameters = append(ref.Parameters, t)
		}
	}
	return ref, nil
}

// fieldRef parses "<field type> <type>::<name>".
func (p *typeParser) fieldRef(s string) (*meta.FieldRef, error) {
	ft, rest, err := p.next(s)
	if err != nil {
		return nil, fmt.Errorf("field type: %w", err)
	}
	decl, name, err := p.member(rest)
	if err != nil {
		return nil, err
	}
	return &meta.FieldRef{DeclaringType: decl, Name: name, FieldType: ft}, nil
}

func (p *typeParser) member(s string) (*meta.TypeRef, string, error) {
	s = strings.TrimSpace(s)
	sep := strings.LastIndex(s, "::")
	if sep <= 0 || sep+2 >= len(s) {
		return nil, "", fmt.Errorf("%q is not Type::member", s)
	}
	decl, err := p.parse(s[:sep])
	if err != nil {
		return nil, "", err
	}
	return decl, s[sep+2:], nil
}

// attribute parses "Type" or `Type("arg", ...)`.
func (p *typeParser) attribute(s string) (*meta.CustomAttribute, error) {
	s = strings.TrimSpace(s)
	var args []string
	if open := strings.IndexByte(s, '('); open > 0 && strings.HasSuffix(s, ")") {
		for _, a := range strings.Split(s[open+1:len(s)-1], ",") {
			a = strings.TrimSpace(a)
			if a == "" {
				continue
			}
			if u, err := strconv.Unquote(a); err == nil {
				a = u
			}
			args = append(args, a)
		}
		s = s[:open]
	}
	t, err := p.parse(s)
	if err != nil {
		return nil, err
	}
	return &meta.CustomAttribute{AttributeType: t, Args: args}, nil
}

func (p *typeParser) attributes(items []string) ([]*meta.CustomAttribute, error) {
	var out []*meta.CustomAttribute
	for _, it := range items {
		a, err := p.attribute(it)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", it, err)
		}
		out = append(out, a)
	}
	return out, nil
}

func cutField(s string) (string, string) {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, " \t"); i >= 0 {
		return s[:i], strings.TrimSpace(s[i:])
	}
	return s, ""
}
