package il

import (
	"errors"
	"strings"
	"testing"
)

type testSig struct {
	params  int
	this    bool
	returns bool
	name    string
}

func (s testSig) ParamCount() int    { return s.params }
func (s testSig) HasThis() bool      { return s.this }
func (s testSig) ReturnsValue() bool { return s.returns }
func (s testSig) String() string     { return s.name }

type testType string

func (t testType) String() string { return string(t) }

// setterWithEarlyExit models:
//
//	if (value == null) return;
//	this.field = value;
//	return;
func setterWithEarlyExit() (*Body, *Instruction) {
	ret := Create(Ret)
	body := NewBody(
		Create(Ldarg1),
		CreateOperand(Brfalse, ret),
		Create(Ldarg0),
		Create(Ldarg1),
		CreateOperand(Stfld, testType("Model::_name")),
		ret,
	)
	return body, ret
}

func TestInsertBeforeKeepsBranchTargets(t *testing.T) {
	body, ret := setterWithEarlyExit()
	branch := body.Instructions[1]
	nop := Create(Nop)
	if err := body.InsertBefore(ret, nop); err != nil {
		t.Fatalf("InsertBefore: %v", err)
	}
	if branch.Target() != ret {
		t.Fatalf("InsertBefore must not retarget branches")
	}
	if body.Previous(ret) != nop {
		t.Fatalf("nop should sit right before ret")
	}
}

func TestSpliceRetargetsIncomingBranches(t *testing.T) {
	body, ret := setterWithEarlyExit()
	branch := body.Instructions[1]
	first := Create(Ldarg0)
	block := []*Instruction{first, CreateOperand(Ldstr, "Name"), CreateOperand(Call, testSig{params: 1, this: true, name: "Notify"})}
	if err := body.Splice(ret, block...); err != nil {
		t.Fatalf("Splice: %v", err)
	}
	if branch.Target() != first {
		t.Fatalf("branch should now enter the spliced block")
	}
	if body.Last() != ret {
		t.Fatalf("ret must stay last")
	}
	if _, err := Validate(body, false); err != nil {
		t.Fatalf("spliced body should validate: %v", err)
	}
}

func TestSpliceKeepsReferencesFromBlock(t *testing.T) {
	body, ret := setterWithEarlyExit()
	skip := CreateOperand(Brtrue, ret)
	block := []*Instruction{Create(LdcI40), skip}
	if err := body.Splice(ret, block...); err != nil {
		t.Fatalf("Splice: %v", err)
	}
	if skip.Target() != ret {
		t.Fatalf("a branch inside the block must keep pointing at the anchor")
	}
}

func TestSpliceMovesHandlerEnd(t *testing.T) {
	ret := Create(Ret)
	leave := CreateOperand(Leave, ret)
	tryStart := Create(Nop)
	catchStart := Create(Pop)
	catchLeave := CreateOperand(Leave, ret)
	body := NewBody(tryStart, leave, catchStart, catchLeave, ret)
	body.Handlers = []*ExceptionHandler{{
		Kind:         HandlerCatch,
		TryStart:     tryStart,
		TryEnd:       catchStart,
		HandlerStart: catchStart,
		HandlerEnd:   ret,
		CatchType:    testType("System.Exception"),
	}}
	tail := Create(Nop)
	if err := body.Splice(ret, tail); err != nil {
		t.Fatalf("Splice: %v", err)
	}
	if body.Handlers[0].HandlerEnd != tail {
		t.Fatalf("handler end should move to the spliced block so it stays outside the region")
	}
	if leave.Target() != tail || catchLeave.Target() != tail {
		t.Fatalf("leave targets should enter the spliced block")
	}
	if _, err := Validate(body, false); err != nil {
		t.Fatalf("body should validate: %v", err)
	}
}

func TestRemoveMovesReferencesToSuccessor(t *testing.T) {
	nop := Create(Nop)
	ret := Create(Ret)
	br := CreateOperand(Br, nop)
	body := NewBody(br, nop, ret)
	if err := body.Remove(nop); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if br.Target() != ret {
		t.Fatalf("branch should follow to the successor")
	}
	if body.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", body.Len())
	}
}

func TestRemoveLastReferencedFails(t *testing.T) {
	ret := Create(Ret)
	body := NewBody(CreateOperand(Br, ret), ret)
	if err := body.Remove(ret); !errors.Is(err, ErrDanglingReference) {
		t.Fatalf("Remove() error = %v, want ErrDanglingReference", err)
	}
}

func TestInsertRejectsDuplicates(t *testing.T) {
	body, ret := setterWithEarlyExit()
	if err := body.InsertBefore(ret, body.First()); !errors.Is(err, ErrAlreadyInBody) {
		t.Fatalf("error = %v, want ErrAlreadyInBody", err)
	}
	if err := body.InsertAfter(Create(Nop), Create(Nop)); !errors.Is(err, ErrNotInBody) {
		t.Fatalf("error = %v, want ErrNotInBody", err)
	}
}

func TestReplaceSwapsIdentity(t *testing.T) {
	body, ret := setterWithEarlyExit()
	branch := body.Instructions[1]
	newRet := Create(Ret)
	if err := body.Replace(ret, newRet); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if branch.Target() != newRet {
		t.Fatalf("branch should point at the replacement")
	}
}

func TestCloneRemapsReferences(t *testing.T) {
	body, _ := setterWithEarlyExit()
	v := body.AddVariable("flag", testType("bool"))
	body.Instructions = append([]*Instruction{CreateOperand(Stloc, v)}, body.Instructions...)
	cp := body.Clone()
	if cp.Instructions[2].Target() != cp.Last() {
		t.Fatalf("cloned branch must point into the clone")
	}
	if cp.Instructions[2].Target() == body.Last() {
		t.Fatalf("cloned branch must not point into the original")
	}
	if cp.Instructions[0].Operand.(*Variable) == v {
		t.Fatalf("cloned local operand must be remapped")
	}
}

func TestDumpListsLabels(t *testing.T) {
	body, _ := setterWithEarlyExit()
	var sb strings.Builder
	if err := Dump(&sb, body); err != nil {
		t.Fatalf("Dump: %v", err)
	}
	out := sb.String()
	for _, want := range []string{"IL_0001: brfalse IL_0005", "IL_0004: stfld Model::_name", "IL_0005: ret"} {
		if !strings.Contains(out, want) {
			t.Fatalf("listing missing %q:\n%s", want, out)
		}
	}
}
