package fixture

import (
	"fmt"
	"strconv"
	"strings"

	"propweave/internal/il"
	"propweave/internal/meta"
)

// AsmError is an assembler error at a line of the body text.
type AsmError struct {
	Line int
	Msg  string
}

func (e *AsmError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

type fixup struct {
	ins    *il.Instruction
	labels []string
	line   int
}

type region struct {
	tryStart, tryEnd string
	line             int
	handlers         []handlerSpec
}

type handlerSpec struct {
	kind       il.HandlerKind
	catch      *meta.TypeRef
	start, end string
	line       int
}

type assembler struct {
	types   *typeParser
	method  *meta.MethodDef
	body    *il.Body
	labels  map[string]int
	fixups  []fixup
	regions []*region
}

// assemble builds m's body from src.
func assemble(src string, types *typeParser, m *meta.MethodDef) (*il.Body, error) {
	a := &assembler{types: types, method: m, body: il.NewBody(), labels: make(map[string]int)}
	for i, raw := range strings.Split(src, "\n") {
		if err := a.line(i+1, raw); err != nil {
			return nil, err
		}
	}
	if err := a.resolve(); err != nil {
		return nil, err
	}
	return a.body, nil
}

func (a *assembler) line(n int, raw string) error {
	text := strings.TrimSpace(stripComment(raw))
	for {
		name, rest, ok := cutLabel(text)
		if !ok {
			break
		}
		if _, dup := a.labels[name]; dup || name == "end" {
			return &AsmError{n, fmt.Sprintf("label %q defined twice", name)}
		}
		a.labels[name] = len(a.body.Instructions)
		text = rest
	}
	if text == "" {
		return nil
	}
	if strings.HasPrefix(text, ".") {
		return a.directive(n, text)
	}
	return a.instruction(n, text)
}

func (a *assembler) directive(n int, text string) error {
	name, rest := cutField(text)
	fields := strings.Fields(rest)
	switch name {
	case ".local":
		t, tail, err := a.types.next(rest)
		if err != nil {
			return &AsmError{n, err.Error()}
		}
		if tail == "" || strings.ContainsAny(tail, " \t") {
			return &AsmError{n, ".local wants <type> <name>"}
		}
		a.body.AddVariable(tail, t)
	case ".try":
		if len(fields) != 2 {
			return &AsmError{n, ".try wants <start> <end>"}
		}
		a.regions = append(a.regions, &region{tryStart: fields[0], tryEnd: fields[1], line: n})
	case ".catch", ".finally", ".fault":
		if len(a.regions) == 0 {
			return &AsmError{n, name + " without .try"}
		}
		h := handlerSpec{line: n}
		switch name {
		case ".catch":
			if len(fields) != 3 {
				return &AsmError{n, ".catch wants <type> <start> <end>"}
			}
			t, err := a.types.parse(fields[0])
			if err != nil {
				return &AsmError{n, err.Error()}
			}
			h.kind, h.catch, fields = il.HandlerCatch, t, fields[1:]
		case ".finally":
			h.kind = il.HandlerFinally
		default:
			h.kind = il.HandlerFault
		}
		if len(fields) != 2 {
			return &AsmError{n, name + " wants <start> <end>"}
		}
		h.start, h.end = fields[0], fields[1]
		r := a.regions[len(a.regions)-1]
		r.handlers = append(r.handlers, h)
	default:
		return &AsmError{n, fmt.Sprintf("unknown directive %s", name)}
	}
	return nil
}

func (a *assembler) instruction(n int, text string) error {
	mnemonic, rest := cutField(text)
	code, ok := il.Lookup(mnemonic)
	if !ok {
		return &AsmError{n, fmt.Sprintf("unknown instruction %q", mnemonic)}
	}
	ins := il.Create(code)
	bad := func(err error) error {
		return &AsmError{n, fmt.Sprintf("%s: %v", mnemonic, err)}
	}
	if code.Operand() != il.OperandNone && rest == "" {
		return &AsmError{n, mnemonic + " needs an operand"}
	}
	switch code.Operand() {
	case il.OperandNone:
		if rest != "" {
			return &AsmError{n, fmt.Sprintf("%s takes no operand, got %q", mnemonic, rest)}
		}
	case il.OperandInt:
		v, err := strconv.Atoi(rest)
		if err != nil {
			return bad(err)
		}
		ins.Operand = v
	case il.OperandInt64:
		v, err := strconv.ParseInt(rest, 10, 64)
		if err != nil {
			return bad(err)
		}
		ins.Operand = v
	case il.OperandFloat:
		v, err := strconv.ParseFloat(rest, 64)
		if err != nil {
			return bad(err)
		}
		ins.Operand = v
	case il.OperandString:
		v, err := strconv.Unquote(rest)
		if err != nil {
			return bad(fmt.Errorf("want a quoted string, got %s", rest))
		}
		ins.Operand = v
	case il.OperandArg:
		slot, err := a.argSlot(rest)
		if err != nil {
			return bad(err)
		}
		ins.Operand = slot
	case il.OperandLocal:
		v, err := a.local(rest)
		if err != nil {
			return bad(err)
		}
		ins.Operand = v
	case il.OperandBranch:
		a.fixups = append(a.fixups, fixup{ins: ins, labels: []string{rest}, line: n})
	case il.OperandSwitch:
		inner, ok := strings.CutPrefix(rest, "(")
		inner, ok2 := strings.CutSuffix(inner, ")")
		if !ok || !ok2 {
			return &AsmError{n, "switch wants (label, ...)"}
		}
		var labels []string
		for _, l := range strings.Split(inner, ",") {
			labels = append(labels, strings.TrimSpace(l))
		}
		a.fixups = append(a.fixups, fixup{ins: ins, labels: labels, line: n})
	case il.OperandMethod:
		ref, err := a.types.methodRef(rest)
		if err != nil {
			return bad(err)
		}
		ins.Operand = ref
	case il.OperandField:
		ref, err := a.types.fieldRef(rest)
		if err != nil {
			return bad(err)
		}
		ins.Operand = ref
	case il.OperandType:
		ref, err := a.types.parse(rest)
		if err != nil {
			return bad(err)
		}
		ins.Operand = ref
	}
	a.body.Instructions = append(a.body.Instructions, ins)
	return nil
}

func (a *assembler) argSlot(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	if s == "this" {
		if !a.method.HasThis() {
			return 0, fmt.Errorf("static method has no this")
		}
		return 0, nil
	}
	for _, p := range a.method.Parameters {
		if p.Name == s {
			return a.method.ArgIndex(p), nil
		}
	}
	return 0, fmt.Errorf("no parameter %q", s)
}

func (a *assembler) local(s string) (*il.Variable, error) {
	if n, err := strconv.Atoi(s); err == nil {
		if v := a.body.Variable(n); v != nil {
			return v, nil
		}
		return nil, fmt.Errorf("no local %d", n)
	}
	for _, v := range a.body.Variables {
		if v.Name == s {
			return v, nil
		}
	}
	return nil, fmt.Errorf("no local %q", s)
}

// target maps a label to its instruction; nil means the end of the body.
func (a *assembler) target(label string) (*il.Instruction, bool) {
	if label == "end" {
		return nil, true
	}
	idx, ok := a.labels[label]
	if !ok {
		return nil, false
	}
	if idx >= len(a.body.Instructions) {
		return nil, true
	}
	return a.body.Instructions[idx], true
}

func (a *assembler) resolve() error {
	for _, f := range a.fixups {
		var targets []*il.Instruction
		for _, l := range f.labels {
			t, ok := a.target(l)
			if !ok {
				return &AsmError{f.line, fmt.Sprintf("undefined label %q", l)}
			}
			if t == nil {
				return &AsmError{f.line, fmt.Sprintf("branch to %q leaves the body", l)}
			}
			targets = append(targets, t)
		}
		if f.ins.Code.Operand() == il.OperandSwitch {
			f.ins.Operand = targets
		} else {
			f.ins.Operand = targets[0]
		}
	}
	for _, r := range a.regions {
		if len(r.handlers) == 0 {
			return &AsmError{r.line, ".try without a handler"}
		}
		tryStart, ok1 := a.target(r.tryStart)
		tryEnd, ok2 := a.target(r.tryEnd)
		if !ok1 || !ok2 {
			return &AsmError{r.line, "undefined label in .try"}
		}
		for _, h := range r.handlers {
			start, ok1 := a.target(h.start)
			end, ok2 := a.target(h.end)
			if !ok1 || !ok2 {
				return &AsmError{h.line, "undefined label in handler"}
			}
			eh := &il.ExceptionHandler{Kind: h.kind, TryStart: tryStart, TryEnd: tryEnd, HandlerStart: start, HandlerEnd: end}
			if h.catch != nil {
				eh.CatchType = h.catch
			}
			a.body.Handlers = append(a.body.Handlers, eh)
		}
	}
	return nil
}

// stripComment drops "//" comments outside string literals.
func stripComment(s string) string {
	quoted := false
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '\\' && quoted:
			i++
		case c == '"':
			quoted = !quoted
		case c == '/' && !quoted && i+1 < len(s) && s[i+1] == '/':
			return s[:i]
		}
	}
	return s
}

// cutLabel splits "name: rest". A "::" is a member separator, not a label.
func cutLabel(s string) (name, rest string, ok bool) {
	i := 0
	for i < len(s) && (isIdent(s[i]) || (i > 0 && s[i] >= '0' && s[i] <= '9')) {
		i++
	}
	if i == 0 || i >= len(s) || s[i] != ':' || (i+1 < len(s) && s[i+1] == ':') {
		return "", s, false
	}
	return s[:i], strings.TrimSpace(s[i+1:]), true
}

func isIdent(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
