package il

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrNotInBody is returned when an anchor instruction is not part of the body.
	ErrNotInBody = errors.New("instruction not in body")
	// ErrAlreadyInBody is returned when inserting an instruction twice.
	ErrAlreadyInBody = errors.New("instruction already in body")
	// ErrDanglingReference is returned when removing the last instruction while it is still a target.
	ErrDanglingReference = errors.New("instruction is still referenced")
)

// Prepend inserts ins at the start of the body. Branches that targeted the
// old first instruction keep doing so, which keeps loops off the new code.
func (b *Body) Prepend(ins ...*Instruction) error {
	return b.insertAt(0, ins)
}

// Append adds ins at the end of the body.
func (b *Body) Append(ins ...*Instruction) error {
	return b.insertAt(len(b.Instructions), ins)
}

// InsertBefore inserts ins right before target. References to target are
// left alone: jumps to target skip the new instructions.
func (b *Body) InsertBefore(target *Instruction, ins ...*Instruction) error {
	idx := b.IndexOf(target)
	if idx < 0 {
		return fmt.Errorf("insert before %s: %w", target.Code, ErrNotInBody)
	}
	return b.insertAt(idx, ins)
}

// InsertAfter inserts ins right after target.
func (b *Body) InsertAfter(target *Instruction, ins ...*Instruction) error {
	idx := b.IndexOf(target)
	if idx < 0 {
		return fmt.Errorf("insert after %s: %w", target.Code, ErrNotInBody)
	}
	return b.insertAt(idx+1, ins)
}

// Splice inserts block before target and hands target's identity to the
// block: every branch, switch entry and handler boundary that referred to
// target now refers to block[0]. References from inside block are kept, so the
// block may still jump to target itself.
func (b *Body) Splice(target *Instruction, block ...*Instruction) error {
	if len(block) == 0 {
		return nil
	}
	idx := b.IndexOf(target)
	if idx < 0 {
		return fmt.Errorf("splice before %s: %w", target.Code, ErrNotInBody)
	}
	if err := b.checkFresh(block); err != nil {
		return err
	}
	b.redirect(target, block[0])
	return b.insertAt(idx, block)
}

// Remove deletes ins. References to it move to the following instruction.
func (b *Body) Remove(ins *Instruction) error {
	idx := b.IndexOf(ins)
	if idx < 0 {
		return fmt.Errorf("remove %s: %w", ins.Code, ErrNotInBody)
	}
	var next *Instruction
	if idx+1 < len(b.Instructions) {
		next = b.Instructions[idx+1]
	}
	if next == nil && b.referenced(ins) {
		return fmt.Errorf("remove %s: %w", ins.Code, ErrDanglingReference)
	}
	if next != nil {
		b.redirect(ins, next)
	}
	b.Instructions = slices.Delete(b.Instructions, idx, idx+1)
	return nil
}

// Replace swaps old for repl in place; references to old move to repl.
func (b *Body) Replace(old, repl *Instruction) error {
	idx := b.IndexOf(old)
	if idx < 0 {
		return fmt.Errorf("replace %s: %w", old.Code, ErrNotInBody)
	}
	if err := b.checkFresh([]*Instruction{repl}); err != nil {
		return err
	}
	b.redirect(old, repl)
	b.Instructions[idx] = repl
	return nil
}

func (b *Body) insertAt(idx int, ins []*Instruction) error {
	if len(ins) == 0 {
		return nil
	}
	if err := b.checkFresh(ins); err != nil {
		return err
	}
	b.Instructions = slices.Insert(b.Instructions, idx, ins...)
	return nil
}

func (b *Body) checkFresh(ins []*Instruction) error {
	seen := make(map[*Instruction]struct{}, len(ins))
	for _, in := range ins {
		if in == nil {
			return errors.New("nil instruction")
		}
		if _, dup := seen[in]; dup {
			return fmt.Errorf("%s: %w", in.Code, ErrAlreadyInBody)
		}
		seen[in] = struct{}{}
	}
	for _, cur := range b.Instructions {
		if _, dup := seen[cur]; dup {
			return fmt.Errorf("%s: %w", cur.Code, ErrAlreadyInBody)
		}
	}
	return nil
}

// redirect moves every reference to from onto to. Returns the number of
// references rewritten.
func (b *Body) redirect(from, to *Instruction) int {
	n := 0
	for _, ins := range b.Instructions {
		switch op := ins.Operand.(type) {
		case *Instruction:
			if op == from && ins.Code.IsBranch() {
				ins.Operand = to
				n++
			}
		case []*Instruction:
			for i := range op {
				if op[i] == from {
					op[i] = to
					n++
				}
			}
		}
	}
	for _, h := range b.Handlers {
		for _, p := range h.boundaries() {
			if *p == from {
				*p = to
				n++
			}
		}
	}
	return n
}

func (b *Body) referenced(target *Instruction) bool {
	for _, ins := range b.Instructions {
		if slices.Contains(ins.Targets(), target) {
			return true
		}
	}
	for _, h := range b.Handlers {
		for _, p := range h.boundaries() {
			if *p == target {
				return true
			}
		}
	}
	return false
}
