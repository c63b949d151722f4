package fixture

import "gopkg.in/yaml.v3"

// File is the on-disk form of a fixture set.
type File struct {
	Modules []ModuleSpec `toml:"module" yaml:"modules"`
}

// ModuleSpec describes one module.
type ModuleSpec struct {
	Name       string     `toml:"name" yaml:"name"`
	References []string   `toml:"references" yaml:"references"`
	Attributes []string   `toml:"attributes" yaml:"attributes"`
	Types      []TypeSpec `toml:"types" yaml:"types"`
	Line       int        `toml:"-" yaml:"-"`
}

// TypeSpec describes a type. Kind is class (default), interface or struct.
type TypeSpec struct {
	Namespace  string         `toml:"namespace" yaml:"namespace"`
	Name       string         `toml:"name" yaml:"name"`
	Kind       string         `toml:"kind" yaml:"kind"`
	Base       string         `toml:"base" yaml:"base"`
	Interfaces []string       `toml:"interfaces" yaml:"interfaces"`
	Flags      []string       `toml:"flags" yaml:"flags"`
	Attributes []string       `toml:"attributes" yaml:"attributes"`
	Fields     []FieldSpec    `toml:"fields" yaml:"fields"`
	Methods    []MethodSpec   `toml:"methods" yaml:"methods"`
	Properties []PropertySpec `toml:"properties" yaml:"properties"`
	Nested     []TypeSpec     `toml:"nested" yaml:"nested"`
	Line       int            `toml:"-" yaml:"-"`
}

type FieldSpec struct {
	Name       string   `toml:"name" yaml:"name"`
	Type       string   `toml:"type" yaml:"type"`
	Static     bool     `toml:"static" yaml:"static"`
	Attributes []string `toml:"attributes" yaml:"attributes"`
}

type ParamSpec struct {
	Name       string   `toml:"name" yaml:"name"`
	Type       string   `toml:"type" yaml:"type"`
	Attributes []string `toml:"attributes" yaml:"attributes"`
}

// MethodSpec describes a method. An empty Returns means void.
type MethodSpec struct {
	Name       string      `toml:"name" yaml:"name"`
	Returns    string      `toml:"returns" yaml:"returns"`
	Static     bool        `toml:"static" yaml:"static"`
	Virtual    bool        `toml:"virtual" yaml:"virtual"`
	Abstract   bool        `toml:"abstract" yaml:"abstract"`
	Params     []ParamSpec `toml:"params" yaml:"params"`
	Attributes []string    `toml:"attributes" yaml:"attributes"`
	Body       string      `toml:"body" yaml:"body"`
	Line       int         `toml:"-" yaml:"-"`
	// BodyLine is the file line of the first body line.
	BodyLine int `toml:"-" yaml:"-"`
}

// PropertySpec describes a property. Auto properties get a backing field and
// compiler-shaped accessors; otherwise Getter and Setter name methods of the
// same type.
type PropertySpec struct {
	Name       string   `toml:"name" yaml:"name"`
	Type       string   `toml:"type" yaml:"type"`
	Auto       bool     `toml:"auto" yaml:"auto"`
	Getter     string   `toml:"getter" yaml:"getter"`
	Setter     string   `toml:"setter" yaml:"setter"`
	Attributes []string `toml:"attributes" yaml:"attributes"`
	Line       int      `toml:"-" yaml:"-"`
}

func (m *ModuleSpec) UnmarshalYAML(n *yaml.Node) error {
	type plain ModuleSpec
	if err := n.Decode((*plain)(m)); err != nil {
		return err
	}
	m.Line = n.Line
	return nil
}

func (t *TypeSpec) UnmarshalYAML(n *yaml.Node) error {
	type plain TypeSpec
	if err := n.Decode((*plain)(t)); err != nil {
		return err
	}
	t.Line = n.Line
	return nil
}

func (m *MethodSpec) UnmarshalYAML(n *yaml.Node) error {
	type plain MethodSpec
	if err := n.Decode((*plain)(m)); err != nil {
		return err
	}
	m.Line = n.Line
	for i := 0; i+1 < len(n.Content); i += 2 {
		if key, val := n.Content[i], n.Content[i+1]; key.Value == "body" {
			m.BodyLine = val.Line
			if val.Style&(yaml.LiteralStyle|yaml.FoldedStyle) != 0 {
				m.BodyLine++
			}
		}
	}
	return nil
}

func (p *PropertySpec) UnmarshalYAML(n *yaml.Node) error {
	type plain PropertySpec
	if err := n.Decode((*plain)(p)); err != nil {
		return err
	}
	p.Line = n.Line
	return nil
}
