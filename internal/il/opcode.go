package il

import "fmt"

// Code enumerates the opcodes the weaver reads and emits.
type Code uint8

const (
	Nop Code = iota
	Ldarg0
	Ldarg1
	Ldarg2
	Ldarg3
	Ldarg
	Ldarga
	Starg
	Ldloc0
	Ldloc1
	Ldloc2
	Ldloc3
	Ldloc
	Ldloca
	Stloc0
	Stloc1
	Stloc2
	Stloc3
	Stloc
	Ldnull
	LdcI4M1
	LdcI40
	LdcI41
	LdcI42
	LdcI43
	LdcI44
	LdcI45
	LdcI46
	LdcI47
	LdcI48
	LdcI4
	LdcI8
	LdcR8
	Ldstr
	Dup
	Pop
	Call
	Callvirt
	Newobj
	Ret
	Br
	Brfalse
	Brtrue
	Beq
	Bne
	Bge
	Bgt
	Ble
	Blt
	Switch
	Leave
	Endfinally
	Endfilter
	Throw
	Rethrow
	Ceq
	Cgt
	Clt
	Add
	Sub
	Mul
	Div
	Rem
	And
	Or
	Xor
	Neg
	Not
	ConvI4
	ConvI8
	Ldfld
	Ldflda
	Stfld
	Ldsfld
	Stsfld
	Box
	UnboxAny
	Castclass
	Isinst
	Ldtoken
	Ldftn
	Initobj

	codeCount
)

// FlowControl describes how an opcode transfers control.
type FlowControl uint8

const (
	FlowNext FlowControl = iota
	FlowCall
	FlowBranch
	FlowCondBranch
	FlowReturn
	FlowThrow
)

// OperandKind tells what Instruction.Operand holds for an opcode.
type OperandKind uint8

const (
	OperandNone   OperandKind = iota
	OperandInt                // int
	OperandInt64              // int64
	OperandFloat              // float64
	OperandString             // string
	OperandArg                // int, argument slot (0 = this for instance methods)
	OperandLocal              // *Variable
	OperandBranch             // *Instruction
	OperandSwitch             // []*Instruction
	OperandMethod             // Signature
	OperandField              // fmt.Stringer
	OperandType               // fmt.Stringer
)

// varStack marks opcodes whose stack effect depends on the operand or method.
const varStack = -1

type opInfo struct {
	name    string
	flow    FlowControl
	operand OperandKind
	pop     int8
	push    int8
}

var opTable = [codeCount]opInfo{
	Nop:        {"nop", FlowNext, OperandNone, 0, 0},
	Ldarg0:     {"ldarg.0", FlowNext, OperandNone, 0, 1},
	Ldarg1:     {"ldarg.1", FlowNext, OperandNone, 0, 1},
	Ldarg2:     {"ldarg.2", FlowNext, OperandNone, 0, 1},
	Ldarg3:     {"ldarg.3", FlowNext, OperandNone, 0, 1},
	Ldarg:      {"ldarg", FlowNext, OperandArg, 0, 1},
	Ldarga:     {"ldarga", FlowNext, OperandArg, 0, 1},
	Starg:      {"starg", FlowNext, OperandArg, 1, 0},
	Ldloc0:     {"ldloc.0", FlowNext, OperandNone, 0, 1},
	Ldloc1:     {"ldloc.1", FlowNext, OperandNone, 0, 1},
	Ldloc2:     {"ldloc.2", FlowNext, OperandNone, 0, 1},
	Ldloc3:     {"ldloc.3", FlowNext, OperandNone, 0, 1},
	Ldloc:      {"ldloc", FlowNext, OperandLocal, 0, 1},
	Ldloca:     {"ldloca", FlowNext, OperandLocal, 0, 1},
	Stloc0:     {"stloc.0", FlowNext, OperandNone, 1, 0},
	Stloc1:     {"stloc.1", FlowNext, OperandNone, 1, 0},
	Stloc2:     {"stloc.2", FlowNext, OperandNone, 1, 0},
	Stloc3:     {"stloc.3", FlowNext, OperandNone, 1, 0},
	Stloc:      {"stloc", FlowNext, OperandLocal, 1, 0},
	Ldnull:     {"ldnull", FlowNext, OperandNone, 0, 1},
	LdcI4M1:    {"ldc.i4.m1", FlowNext, OperandNone, 0, 1},
	LdcI40:     {"ldc.i4.0", FlowNext, OperandNone, 0, 1},
	LdcI41:     {"ldc.i4.1", FlowNext, OperandNone, 0, 1},
	LdcI42:     {"ldc.i4.2", FlowNext, OperandNone, 0, 1},
	LdcI43:     {"ldc.i4.3", FlowNext, OperandNone, 0, 1},
	LdcI44:     {"ldc.i4.4", FlowNext, OperandNone, 0, 1},
	LdcI45:     {"ldc.i4.5", FlowNext, OperandNone, 0, 1},
	LdcI46:     {"ldc.i4.6", FlowNext, OperandNone, 0, 1},
	LdcI47:     {"ldc.i4.7", FlowNext, OperandNone, 0, 1},
	LdcI48:     {"ldc.i4.8", FlowNext, OperandNone, 0, 1},
	LdcI4:      {"ldc.i4", FlowNext, OperandInt, 0, 1},
	LdcI8:      {"ldc.i8", FlowNext, OperandInt64, 0, 1},
	LdcR8:      {"ldc.r8", FlowNext, OperandFloat, 0, 1},
	Ldstr:      {"ldstr", FlowNext, OperandString, 0, 1},
	Dup:        {"dup", FlowNext, OperandNone, 1, 2},
	Pop:        {"pop", FlowNext, OperandNone, 1, 0},
	Call:       {"call", FlowCall, OperandMethod, varStack, varStack},
	Callvirt:   {"callvirt", FlowCall, OperandMethod, varStack, varStack},
	Newobj:     {"newobj", FlowCall, OperandMethod, varStack, 1},
	Ret:        {"ret", FlowReturn, OperandNone, varStack, 0},
	Br:         {"br", FlowBranch, OperandBranch, 0, 0},
	Brfalse:    {"brfalse", FlowCondBranch, OperandBranch, 1, 0},
	Brtrue:     {"brtrue", FlowCondBranch, OperandBranch, 1, 0},
	Beq:        {"beq", FlowCondBranch, OperandBranch, 2, 0},
	Bne:        {"bne.un", FlowCondBranch, OperandBranch, 2, 0},
	Bge:        {"bge", FlowCondBranch, OperandBranch, 2, 0},
	Bgt:        {"bgt", FlowCondBranch, OperandBranch, 2, 0},
	Ble:        {"ble", FlowCondBranch, OperandBranch, 2, 0},
	Blt:        {"blt", FlowCondBranch, OperandBranch, 2, 0},
	Switch:     {"switch", FlowCondBranch, OperandSwitch, 1, 0},
	Leave:      {"leave", FlowBranch, OperandBranch, varStack, 0},
	Endfinally: {"endfinally", FlowThrow, OperandNone, varStack, 0},
	Endfilter:  {"endfilter", FlowThrow, OperandNone, 1, 0},
	Throw:      {"throw", FlowThrow, OperandNone, 1, 0},
	Rethrow:    {"rethrow", FlowThrow, OperandNone, 0, 0},
	Ceq:        {"ceq", FlowNext, OperandNone, 2, 1},
	Cgt:        {"cgt", FlowNext, OperandNone, 2, 1},
	Clt:        {"clt", FlowNext, OperandNone, 2, 1},
	Add:        {"add", FlowNext, OperandNone, 2, 1},
	Sub:        {"sub", FlowNext, OperandNone, 2, 1},
	Mul:        {"mul", FlowNext, OperandNone, 2, 1},
	Div:        {"div", FlowNext, OperandNone, 2, 1},
	Rem:        {"rem", FlowNext, OperandNone, 2, 1},
	And:        {"and", FlowNext, OperandNone, 2, 1},
	Or:         {"or", FlowNext, OperandNone, 2, 1},
	Xor:        {"xor", FlowNext, OperandNone, 2, 1},
	Neg:        {"neg", FlowNext, OperandNone, 1, 1},
	Not:        {"not", FlowNext, OperandNone, 1, 1},
	ConvI4:     {"conv.i4", FlowNext, OperandNone, 1, 1},
	ConvI8:     {"conv.i8", FlowNext, OperandNone, 1, 1},
	Ldfld:      {"ldfld", FlowNext, OperandField, 1, 1},
	Ldflda:     {"ldflda", FlowNext, OperandField, 1, 1},
	Stfld:      {"stfld", FlowNext, OperandField, 2, 0},
	Ldsfld:     {"ldsfld", FlowNext, OperandField, 0, 1},
	Stsfld:     {"stsfld", FlowNext, OperandField, 1, 0},
	Box:        {"box", FlowNext, OperandType, 1, 1},
	UnboxAny:   {"unbox.any", FlowNext, OperandType, 1, 1},
	Castclass:  {"castclass", FlowNext, OperandType, 1, 1},
	Isinst:     {"isinst", FlowNext, OperandType, 1, 1},
	Ldtoken:    {"ldtoken", FlowNext, OperandType, 0, 1},
	Ldftn:      {"ldftn", FlowNext, OperandMethod, 0, 1},
	Initobj:    {"initobj", FlowNext, OperandType, 1, 0},
}

var codeByName = func() map[string]Code {
	m := make(map[string]Code, codeCount)
	for c := Code(0); c < codeCount; c++ {
		m[opTable[c].name] = c
	}
	return m
}()

// Lookup finds an opcode by its mnemonic.
func Lookup(name string) (Code, bool) {
	c, ok := codeByName[name]
	return c, ok
}

func (c Code) valid() bool { return c < codeCount }

func (c Code) String() string {
	if !c.valid() {
		return fmt.Sprintf("Code(%d)", c)
	}
	return opTable[c].name
}

// Flow returns the control-flow class of the opcode.
func (c Code) Flow() FlowControl {
	if !c.valid() {
		return FlowNext
	}
	return opTable[c].flow
}

// Operand returns the operand kind the opcode expects.
func (c Code) Operand() OperandKind {
	if !c.valid() {
		return OperandNone
	}
	return opTable[c].operand
}

// IsBranch reports whether the opcode carries branch targets.
func (c Code) IsBranch() bool {
	k := c.Operand()
	return k == OperandBranch || k == OperandSwitch
}

// Terminates reports whether execution never falls through to the next instruction.
func (c Code) Terminates() bool {
	switch c.Flow() {
	case FlowBranch, FlowReturn, FlowThrow:
		return true
	}
	return false
}

// ArgSlot returns the argument slot of the short ldarg forms.
func (c Code) ArgSlot() (int, bool) {
	if c >= Ldarg0 && c <= Ldarg3 {
		return int(c - Ldarg0), true
	}
	return 0, false
}

// LocalSlot returns the variable index of the short ldloc/stloc forms.
func (c Code) LocalSlot() (int, bool) {
	switch {
	case c >= Ldloc0 && c <= Ldloc3:
		return int(c - Ldloc0), true
	case c >= Stloc0 && c <= Stloc3:
		return int(c - Stloc0), true
	}
	return 0, false
}

// LoadArg returns the shortest load for argument slot n.
func LoadArg(n int) *Instruction {
	if n >= 0 && n <= 3 {
		return Create(Ldarg0 + Code(n))
	}
	return CreateOperand(Ldarg, n)
}

// LoadInt returns the shortest constant load for v.
func LoadInt(v int) *Instruction {
	switch {
	case v == -1:
		return Create(LdcI4M1)
	case v >= 0 && v <= 8:
		return Create(LdcI40 + Code(v))
	}
	return CreateOperand(LdcI4, v)
}
