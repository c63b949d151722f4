package il

import (
	"strings"
	"testing"
)

func TestValidateComputesMaxStack(t *testing.T) {
	body := NewBody(
		Create(Ldarg0),
		CreateOperand(Ldstr, "Name"),
		CreateOperand(Call, testSig{params: 1, this: true}),
		Create(Ret),
	)
	stats, err := Validate(body, false)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if stats.MaxStack != 2 {
		t.Fatalf("MaxStack = %d, want 2", stats.MaxStack)
	}
	if stats.Reachable != 4 {
		t.Fatalf("Reachable = %d, want 4", stats.Reachable)
	}
}

func TestValidateReportsViolations(t *testing.T) {
	dangling := Create(Ret)
	tests := []struct {
		name    string
		body    *Body
		returns bool
		want    string
	}{
		{
			name: "underflow",
			body: NewBody(Create(Pop), Create(Ret)),
			want: "underflows",
		},
		{
			name: "unbalanced ret",
			body: NewBody(Create(Ldarg0), Create(Ret)),
			want: "ret leaves 1",
		},
		{
			name:    "missing return value",
			body:    NewBody(Create(Ret)),
			returns: true,
			want:    "underflows",
		},
		{
			name: "falls off end",
			body: NewBody(Create(Nop)),
			want: "falls off",
		},
		{
			name: "foreign target",
			body: NewBody(CreateOperand(Br, dangling), Create(Ret)),
			want: "not in body",
		},
		{
			name: "depth mismatch at join",
			body: func() *Body {
				join := Create(Ret)
				return NewBody(
					Create(Ldarg1),
					CreateOperand(Brtrue, join),
					Create(Ldarg0),
					join,
				)
			}(),
			want: "mismatch",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Validate(tt.body, tt.returns)
			if err == nil {
				t.Fatalf("expected error containing %q", tt.want)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestValidateHandlerEntryDepth(t *testing.T) {
	ret := Create(Ret)
	tryStart := Create(Nop)
	catchStart := Create(Pop)
	body := NewBody(tryStart, CreateOperand(Leave, ret), catchStart, CreateOperand(Leave, ret), ret)
	body.Handlers = []*ExceptionHandler{{
		Kind:         HandlerCatch,
		TryStart:     tryStart,
		TryEnd:       catchStart,
		HandlerStart: catchStart,
		HandlerEnd:   ret,
	}}
	if _, err := Validate(body, false); err != nil {
		t.Fatalf("catch handler should start with the exception on the stack: %v", err)
	}
	body.Handlers[0].TryEnd = tryStart
	if _, err := Validate(body, false); err == nil || !strings.Contains(err.Error(), "inverted try") {
		t.Fatalf("expected inverted try region error, got %v", err)
	}
}
