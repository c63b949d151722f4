package il

import "fmt"

// Variable is a local slot of a body.
type Variable struct {
	Index int
	Name  string
	Type  fmt.Stringer
}

func (v *Variable) String() string {
	if v == nil {
		return "<nil>"
	}
	if v.Name != "" {
		return v.Name
	}
	return fmt.Sprintf("V_%d", v.Index)
}

// HandlerKind distinguishes exception handler regions.
type HandlerKind uint8

const (
	HandlerCatch HandlerKind = iota
	HandlerFinally
	HandlerFault
	HandlerFilter
)

func (k HandlerKind) String() string {
	switch k {
	case HandlerCatch:
		return "catch"
	case HandlerFinally:
		return "finally"
	case HandlerFault:
		return "fault"
	case HandlerFilter:
		return "filter"
	}
	return "unknown"
}

// ExceptionHandler describes a protected region and its handler.
// End boundaries are exclusive; a nil end means "to the end of the body".
type ExceptionHandler struct {
	Kind         HandlerKind
	TryStart     *Instruction
	TryEnd       *Instruction
	HandlerStart *Instruction
	HandlerEnd   *Instruction
	FilterStart  *Instruction
	CatchType    fmt.Stringer
}

// boundaries returns pointers to every instruction-valued field.
func (h *ExceptionHandler) boundaries() []**Instruction {
	return []**Instruction{&h.TryStart, &h.TryEnd, &h.HandlerStart, &h.HandlerEnd, &h.FilterStart}
}

// Body is the mutable instruction stream of one method.
type Body struct {
	Instructions []*Instruction
	Variables    []*Variable
	Handlers     []*ExceptionHandler
	MaxStack     int
	InitLocals   bool
}

// NewBody builds a body from instructions.
func NewBody(ins ...*Instruction) *Body {
	return &Body{Instructions: ins, MaxStack: 8}
}

// Len returns the number of instructions.
func (b *Body) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Instructions)
}

// First returns the first instruction or nil.
func (b *Body) First() *Instruction {
	if b.Len() == 0 {
		return nil
	}
	return b.Instructions[0]
}

// Last returns the last instruction or nil.
func (b *Body) Last() *Instruction {
	if b.Len() == 0 {
		return nil
	}
	return b.Instructions[len(b.Instructions)-1]
}

// IndexOf returns the position of ins, or -1.
func (b *Body) IndexOf(ins *Instruction) int {
	if b == nil || ins == nil {
		return -1
	}
	for i, cur := range b.Instructions {
		if cur == ins {
			return i
		}
	}
	return -1
}

// Next returns the instruction following ins, or nil.
func (b *Body) Next(ins *Instruction) *Instruction {
	idx := b.IndexOf(ins)
	if idx < 0 || idx+1 >= len(b.Instructions) {
		return nil
	}
	return b.Instructions[idx+1]
}

// Previous returns the instruction preceding ins, or nil.
func (b *Body) Previous(ins *Instruction) *Instruction {
	idx := b.IndexOf(ins)
	if idx <= 0 {
		return nil
	}
	return b.Instructions[idx-1]
}

// AddVariable appends a local slot and enables local initialisation.
func (b *Body) AddVariable(name string, typ fmt.Stringer) *Variable {
	v := &Variable{Index: len(b.Variables), Name: name, Type: typ}
	b.Variables = append(b.Variables, v)
	b.InitLocals = true
	return v
}

// Variable returns the local at index, or nil.
func (b *Body) Variable(index int) *Variable {
	if b == nil || index < 0 || index >= len(b.Variables) {
		return nil
	}
	return b.Variables[index]
}

// Find returns every instruction with code c, in stream order.
func (b *Body) Find(c Code) []*Instruction {
	var out []*Instruction
	for _, ins := range b.Instructions {
		if ins.Code == c {
			out = append(out, ins)
		}
	}
	return out
}

// Clone deep-copies the body. Branch operands and handler boundaries are
// remapped onto the copied instructions; other operands are shared.
func (b *Body) Clone() *Body {
	if b == nil {
		return nil
	}
	remap := make(map[*Instruction]*Instruction, len(b.Instructions))
	vars := make(map[*Variable]*Variable, len(b.Variables))
	out := &Body{
		Instructions: make([]*Instruction, len(b.Instructions)),
		Variables:    make([]*Variable, len(b.Variables)),
		Handlers:     make([]*ExceptionHandler, len(b.Handlers)),
		MaxStack:     b.MaxStack,
		InitLocals:   b.InitLocals,
	}
	for i, v := range b.Variables {
		cp := *v
		out.Variables[i] = &cp
		vars[v] = &cp
	}
	for i, ins := range b.Instructions {
		cp := *ins
		out.Instructions[i] = &cp
		remap[ins] = &cp
	}
	for _, ins := range out.Instructions {
		switch op := ins.Operand.(type) {
		case *Instruction:
			ins.Operand = remap[op]
		case []*Instruction:
			targets := make([]*Instruction, len(op))
			for i, t := range op {
				targets[i] = remap[t]
			}
			ins.Operand = targets
		case *Variable:
			if nv, ok := vars[op]; ok {
				ins.Operand = nv
			}
		}
	}
	for i, h := range b.Handlers {
		cp := *h
		for _, p := range cp.boundaries() {
			if *p != nil {
				*p = remap[*p]
			}
		}
		out.Handlers[i] = &cp
	}
	return out
}
