package il

import "fmt"

// Signature is the part of a method reference the stack analysis needs.
type Signature interface {
	ParamCount() int
	HasThis() bool
	ReturnsValue() bool
}

// Instruction is a single operation in a body. Branch operands point at other
// *Instruction values, never at offsets, so inserting code keeps them valid.
type Instruction struct {
	Code    Code
	Operand any
}

// Create builds an operand-less instruction.
func Create(c Code) *Instruction {
	return &Instruction{Code: c}
}

// CreateOperand builds an instruction carrying operand.
func CreateOperand(c Code, operand any) *Instruction {
	return &Instruction{Code: c, Operand: operand}
}

// Target returns the branch target of a single-target branch.
func (ins *Instruction) Target() *Instruction {
	if ins == nil || ins.Code.Operand() != OperandBranch {
		return nil
	}
	t, _ := ins.Operand.(*Instruction)
	return t
}

// Targets returns every branch target of ins.
func (ins *Instruction) Targets() []*Instruction {
	if ins == nil {
		return nil
	}
	switch ins.Code.Operand() {
	case OperandBranch:
		if t := ins.Target(); t != nil {
			return []*Instruction{t}
		}
	case OperandSwitch:
		ts, _ := ins.Operand.([]*Instruction)
		return ts
	}
	return nil
}

// Method returns the call target of a call/callvirt/newobj/ldftn.
func (ins *Instruction) Method() (Signature, bool) {
	if ins == nil || ins.Code.Operand() != OperandMethod {
		return nil, false
	}
	sig, ok := ins.Operand.(Signature)
	return sig, ok
}

// ArgSlot returns the argument slot read or written by ins.
func (ins *Instruction) ArgSlot() (int, bool) {
	if slot, ok := ins.Code.ArgSlot(); ok {
		return slot, true
	}
	if ins.Code.Operand() == OperandArg {
		n, ok := ins.Operand.(int)
		return n, ok
	}
	return 0, false
}

// LocalIndex returns the variable index read or written by ins.
func (ins *Instruction) LocalIndex() (int, bool) {
	if slot, ok := ins.Code.LocalSlot(); ok {
		return slot, true
	}
	if ins.Code.Operand() == OperandLocal {
		if v, ok := ins.Operand.(*Variable); ok && v != nil {
			return v.Index, true
		}
	}
	return 0, false
}

// stackEffect returns how many values ins pops and pushes.
// returns tells whether the enclosing method yields a value.
func (ins *Instruction) stackEffect(returns bool) (pop, push int, err error) {
	info := opTable[ins.Code]
	pop, push = int(info.pop), int(info.push)
	switch ins.Code {
	case Call, Callvirt, Newobj:
		sig, ok := ins.Method()
		if !ok {
			return 0, 0, fmt.Errorf("%s: operand is not a method", ins.Code)
		}
		pop = sig.ParamCount()
		if ins.Code == Newobj {
			return pop, 1, nil
		}
		if sig.HasThis() {
			pop++
		}
		push = 0
		if sig.ReturnsValue() {
			push = 1
		}
	case Ret:
		pop = 0
		if returns {
			pop = 1
		}
	}
	return pop, push, nil
}
