package il

import (
	"fmt"
	"io"
	"strings"
)

// Label renders the listing label of the instruction at index i.
func Label(i int) string {
	return fmt.Sprintf("IL_%04d", i)
}

// Dump writes a human-readable listing of b.
func Dump(w io.Writer, b *Body) error {
	if w == nil || b == nil {
		return nil
	}
	index := make(map[*Instruction]int, len(b.Instructions))
	for i, ins := range b.Instructions {
		index[ins] = i
	}
	ref := func(ins *Instruction) string {
		if i, ok := index[ins]; ok {
			return Label(i)
		}
		return "IL_????"
	}

	if _, err := fmt.Fprintf(w, ".maxstack %d\n", b.MaxStack); err != nil {
		return err
	}
	if len(b.Variables) > 0 {
		vars := make([]string, len(b.Variables))
		for i, v := range b.Variables {
			vars[i] = fmt.Sprintf("[%d] %s %s", v.Index, stringOf(v.Type), v)
		}
		init := ""
		if b.InitLocals {
			init = "init "
		}
		if _, err := fmt.Fprintf(w, ".locals %s(%s)\n", init, strings.Join(vars, ", ")); err != nil {
			return err
		}
	}
	for i, ins := range b.Instructions {
		if _, err := fmt.Fprintf(w, "%s: %s\n", Label(i), formatInstruction(ins, ref)); err != nil {
			return err
		}
	}
	for _, h := range b.Handlers {
		line := fmt.Sprintf(".%s try %s to %s handler %s to %s", h.Kind, bound(h.TryStart, ref), bound(h.TryEnd, ref),
			bound(h.HandlerStart, ref), bound(h.HandlerEnd, ref))
		if h.CatchType != nil {
			line += " type " + h.CatchType.String()
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// Format renders a single instruction without a body context.
func Format(ins *Instruction) string {
	return formatInstruction(ins, func(*Instruction) string { return "IL_????" })
}

func formatInstruction(ins *Instruction, ref func(*Instruction) string) string {
	if ins == nil {
		return "<nil>"
	}
	name := ins.Code.String()
	switch ins.Code.Operand() {
	case OperandNone:
		return name
	case OperandBranch:
		return name + " " + ref(ins.Target())
	case OperandSwitch:
		targets := ins.Targets()
		parts := make([]string, len(targets))
		for i, t := range targets {
			parts[i] = ref(t)
		}
		return name + " (" + strings.Join(parts, ", ") + ")"
	case OperandString:
		return fmt.Sprintf("%s %q", name, ins.Operand)
	default:
		return name + " " + stringOf(ins.Operand)
	}
}

func bound(ins *Instruction, ref func(*Instruction) string) string {
	if ins == nil {
		return "end"
	}
	return ref(ins)
}

func stringOf(v any) string {
	switch x := v.(type) {
	case nil:
		return "<nil>"
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
