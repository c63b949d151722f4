package typegraph

import "propweave/internal/meta"

// NodeID indexes the graph arena. Zero is reserved.
type NodeID uint32

// NoNodeID marks a missing link.
const NoNodeID NodeID = 0

// Eligibility is computed once per type while the graph is built.
type Eligibility uint8

const (
	Unknown Eligibility = iota
	Eligible
	NotEligible
)

func (e Eligibility) String() string {
	switch e {
	case Eligible:
		return "eligible"
	case NotEligible:
		return "not-eligible"
	default:
		return "unknown"
	}
}

// MemberKind tells properties from methods.
type MemberKind uint8

const (
	MemberProperty MemberKind = iota + 1
	MemberMethod
)

func (k MemberKind) String() string {
	switch k {
	case MemberProperty:
		return "property"
	case MemberMethod:
		return "method"
	default:
		return "unknown"
	}
}

// Validation binds a validation attribute to a helper check. Param is nil for
// property validations, which check the setter's value.
type Validation struct {
	Attribute string
	Check     string
	Param     *meta.ParameterDef
}

// Member is a property or method that qualifies for weaving.
type Member struct {
	Kind           MemberKind
	Property       *meta.PropertyDef
	Method         *meta.MethodDef
	Notify         bool
	Validations    []Validation
	HasHelperCalls bool
}

// Name returns the member's declared name.
func (m *Member) Name() string {
	if m.Kind == MemberProperty {
		return m.Property.Name
	}
	return m.Method.Name
}

// Node wraps a type definition with weaving metadata.
type Node struct {
	ID          NodeID
	Type        *meta.TypeDef
	Eligibility Eligibility
	HasMarker   bool
	Members     []*Member
	Base        NodeID
	Derived     []NodeID
}

// Properties returns the property members in declaration order.
func (n *Node) Properties() []*Member {
	var out []*Member
	for _, m := range n.Members {
		if m.Kind == MemberProperty {
			out = append(out, m)
		}
	}
	return out
}

// Methods returns the method members in declaration order.
func (n *Node) Methods() []*Member {
	var out []*Member
	for _, m := range n.Members {
		if m.Kind == MemberMethod {
			out = append(out, m)
		}
	}
	return out
}
