package il

import (
	"errors"
	"fmt"
)

// Stats is what Validate learns about a body.
type Stats struct {
	MaxStack  int
	Reachable int
}

// Validate checks the invariants every woven body must keep:
// branch targets and handler boundaries live in the body, regions are well
// ordered, and the evaluation stack balances on every path (consistent depth
// at join points, no underflow, ret leaves exactly the return value).
// returns tells whether the owning method yields a value.
func Validate(b *Body, returns bool) (Stats, error) {
	if b == nil || len(b.Instructions) == 0 {
		return Stats{}, errors.New("empty body")
	}
	index := make(map[*Instruction]int, len(b.Instructions))
	var errs []error
	for i, ins := range b.Instructions {
		if ins == nil {
			errs = append(errs, fmt.Errorf("%s: nil instruction", Label(i)))
			continue
		}
		if _, dup := index[ins]; dup {
			errs = append(errs, fmt.Errorf("%s: instruction appears twice", Label(i)))
			continue
		}
		index[ins] = i
	}
	if len(errs) > 0 {
		return Stats{}, errors.Join(errs...)
	}

	if err := validateTargets(b, index); err != nil {
		errs = append(errs, err)
	}
	if err := validateHandlers(b, index); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return Stats{}, errors.Join(errs...)
	}

	stats, err := simulateStack(b, index, returns)
	if err != nil {
		return stats, err
	}
	return stats, nil
}

func validateTargets(b *Body, index map[*Instruction]int) error {
	var errs []error
	for i, ins := range b.Instructions {
		if !ins.Code.IsBranch() {
			continue
		}
		targets := ins.Targets()
		if len(targets) == 0 {
			errs = append(errs, fmt.Errorf("%s: %s without target", Label(i), ins.Code))
			continue
		}
		for _, t := range targets {
			if _, ok := index[t]; !ok {
				errs = append(errs, fmt.Errorf("%s: %s target is not in body", Label(i), ins.Code))
			}
		}
	}
	return errors.Join(errs...)
}

func validateHandlers(b *Body, index map[*Instruction]int) error {
	var errs []error
	pos := func(ins *Instruction, open bool) (int, bool) {
		if ins == nil {
			if open {
				return len(b.Instructions), true
			}
			return 0, false
		}
		i, ok := index[ins]
		return i, ok
	}
	for n, h := range b.Handlers {
		tryStart, ok1 := pos(h.TryStart, false)
		tryEnd, ok2 := pos(h.TryEnd, true)
		hStart, ok3 := pos(h.HandlerStart, false)
		hEnd, ok4 := pos(h.HandlerEnd, true)
		if !ok1 || !ok2 || !ok3 || !ok4 {
			errs = append(errs, fmt.Errorf("handler %d (%s): boundary not in body", n, h.Kind))
			continue
		}
		if tryStart >= tryEnd {
			errs = append(errs, fmt.Errorf("handler %d (%s): empty or inverted try region", n, h.Kind))
		}
		if hStart >= hEnd {
			errs = append(errs, fmt.Errorf("handler %d (%s): empty or inverted handler region", n, h.Kind))
		}
		if h.Kind == HandlerFilter {
			if _, ok := pos(h.FilterStart, false); !ok {
				errs = append(errs, fmt.Errorf("handler %d (filter): missing filter start", n))
			}
		}
	}
	return errors.Join(errs...)
}

type stackItem struct {
	idx   int
	depth int
}

func simulateStack(b *Body, index map[*Instruction]int, returns bool) (Stats, error) {
	n := len(b.Instructions)
	depth := make([]int, n)
	for i := range depth {
		depth[i] = -1
	}
	work := []stackItem{{idx: 0, depth: 0}}
	for _, h := range b.Handlers {
		entry := 0
		if h.Kind == HandlerCatch || h.Kind == HandlerFilter {
			entry = 1
		}
		work = append(work, stackItem{idx: index[h.HandlerStart], depth: entry})
		if h.Kind == HandlerFilter && h.FilterStart != nil {
			work = append(work, stackItem{idx: index[h.FilterStart], depth: 1})
		}
	}

	var errs []error
	stats := Stats{}
	for len(work) > 0 {
		item := work[len(work)-1]
		work = work[:len(work)-1]
		if seen := depth[item.idx]; seen >= 0 {
			if seen != item.depth {
				errs = append(errs, fmt.Errorf("%s: stack depth mismatch (%d vs %d)", Label(item.idx), seen, item.depth))
			}
			continue
		}
		depth[item.idx] = item.depth
		stats.Reachable++

		ins := b.Instructions[item.idx]
		pop, push, err := ins.stackEffect(returns)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", Label(item.idx), err))
			continue
		}
		if ins.Code == Leave || ins.Code == Endfinally {
			pop = item.depth
		}
		if item.depth < pop {
			errs = append(errs, fmt.Errorf("%s: %s underflows the stack (%d < %d)", Label(item.idx), ins.Code, item.depth, pop))
			continue
		}
		next := item.depth - pop + push
		stats.MaxStack = max(stats.MaxStack, item.depth, next)
		if ins.Code == Ret && next != 0 {
			errs = append(errs, fmt.Errorf("%s: ret leaves %d value(s) on the stack", Label(item.idx), next))
			continue
		}

		for _, t := range ins.Targets() {
			work = append(work, stackItem{idx: index[t], depth: next})
		}
		if ins.Code.Terminates() {
			continue
		}
		if item.idx+1 >= n {
			errs = append(errs, fmt.Errorf("%s: control falls off the end of the body", Label(item.idx)))
			continue
		}
		work = append(work, stackItem{idx: item.idx + 1, depth: next})
	}
	return stats, errors.Join(errs...)
}
