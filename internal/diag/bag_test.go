package diag

import (
	"testing"

	"propweave/internal/source"
)

func TestBagLimitAndCounts(t *testing.T) {
	bag := NewBag(2)
	if !bag.Add(New(SevWarning, WeaveUnsupportedShape, source.At(1, 3, 1), "a")) {
		t.Fatalf("first add should succeed")
	}
	if !bag.Add(New(SevError, WeaveInvalidBody, source.At(1, 1, 1), "b")) {
		t.Fatalf("second add should succeed")
	}
	if bag.Add(New(SevInfo, WeaveInfo, source.Span{}, "c")) {
		t.Fatalf("third add should be dropped")
	}
	if !bag.HasErrors() || !bag.HasWarnings() {
		t.Fatalf("expected errors and warnings")
	}
	if got := bag.Count(SevWarning); got != 2 {
		t.Fatalf("Count(SevWarning) = %d, want 2", got)
	}
}

func TestBagSortOrdersByPosition(t *testing.T) {
	bag := NewBag(10)
	bag.Add(New(SevInfo, WeaveInfo, source.At(1, 9, 1), "late"))
	bag.Add(New(SevWarning, WeaveUnsupportedShape, source.At(1, 2, 1), "early"))
	bag.Add(New(SevError, WeaveInvalidBody, source.At(1, 2, 1), "early-error"))
	bag.Sort()
	items := bag.Items()
	if items[0].Message != "early-error" || items[1].Message != "early" || items[2].Message != "late" {
		t.Fatalf("unexpected order: %q %q %q", items[0].Message, items[1].Message, items[2].Message)
	}
}

func TestDedupReporterSuppressesRepeats(t *testing.T) {
	bag := NewBag(10)
	r := NewDedupReporter(BagReporter{Bag: bag})
	for i := 0; i < 3; i++ {
		r.Report(New(SevWarning, WeaveMissingDispatch, source.At(2, 4, 4), "no dispatch"))
	}
	r.Report(New(SevWarning, WeaveMissingDispatch, source.At(2, 5, 4), "no dispatch"))
	if bag.Len() != 2 {
		t.Fatalf("bag.Len() = %d, want 2", bag.Len())
	}
}

func TestCallbackLoggerRoutesBySeverityAndLocation(t *testing.T) {
	var infos, warns, warnPoints, errs, errPoints []string
	logger := CallbackLogger{
		LogInfo:         func(msg string) { infos = append(infos, msg) },
		LogWarning:      func(msg string) { warns = append(warns, msg) },
		LogWarningPoint: func(msg string, _ source.Span) { warnPoints = append(warnPoints, msg) },
		LogError:        func(msg string) { errs = append(errs, msg) },
		LogErrorPoint:   func(msg string, _ source.Span) { errPoints = append(errPoints, msg) },
	}
	logger.Report(New(SevInfo, WeaveInfo, source.Span{}, "hello"))
	logger.Report(New(SevWarning, WeaveUnsupportedShape, source.At(1, 1, 1), "located"))
	logger.Report(New(SevWarning, WeaveUnsupportedShape, source.Span{}, "plain"))
	logger.Report(New(SevError, WeaveInvalidBody, source.At(1, 1, 1), "bad"))
	logger.Report(New(SevError, WeaveInvalidBody, source.Span{}, "bad-plain"))

	if len(infos) != 1 || infos[0] != "WVE1000: hello" {
		t.Fatalf("infos = %v", infos)
	}
	if len(warnPoints) != 1 || len(warns) != 1 {
		t.Fatalf("warnings routed wrong: points=%v plain=%v", warnPoints, warns)
	}
	if len(errPoints) != 1 || len(errs) != 1 {
		t.Fatalf("errors routed wrong: points=%v plain=%v", errPoints, errs)
	}
}

func TestCodeID(t *testing.T) {
	tests := map[Code]string{
		WeaveUnsupportedShape: "WVE1001",
		ResUnresolved:         "RES2001",
		CleanRemovedReference: "CLN3001",
		CfgInvalidValue:       "CFG4001",
		FixInvalidInstruction: "FIX5001",
		ObsTimings:            "OBS6001",
		UnknownCode:           "E0000",
	}
	for code, want := range tests {
		if got := code.ID(); got != want {
			t.Fatalf("%d.ID() = %q, want %q", code, got, want)
		}
	}
}

func TestCountExactVersusAtLeast(t *testing.T) {
	bag := NewBag(8)
	bag.Add(New(SevInfo, WeaveInfo, source.Span{}, "i"))
	bag.Add(New(SevWarning, WeaveUnsupportedShape, source.Span{}, "w"))
	bag.Add(New(SevError, WeaveInvalidBody, source.Span{}, "e"))
	tests := []struct {
		sev            Severity
		atLeast, exact int
	}{
		{SevInfo, 3, 1},
		{SevWarning, 2, 1},
		{SevError, 1, 1},
	}
	for _, tt := range tests {
		if got := bag.Count(tt.sev); got != tt.atLeast {
			t.Fatalf("Count(%s) = %d, want %d", tt.sev, got, tt.atLeast)
		}
		if got := bag.CountExact(tt.sev); got != tt.exact {
			t.Fatalf("CountExact(%s) = %d, want %d", tt.sev, got, tt.exact)
		}
	}
}

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		in   string
		want Severity
		ok   bool
	}{
		{"info", SevInfo, true},
		{"Warn", SevWarning, true},
		{"WARNING", SevWarning, true},
		{" error ", SevError, true},
		{"fatal", SevError, false},
	}
	for _, tt := range tests {
		got, err := ParseSeverity(tt.in)
		if (err == nil) != tt.ok || (tt.ok && got != tt.want) {
			t.Fatalf("ParseSeverity(%q) = %s, %v", tt.in, got, err)
		}
	}
	if Severity(9).String() != "UNKNOWN" {
		t.Fatalf("out of range severity must render UNKNOWN")
	}
}

func TestReportBuilderEmitsOnceToEveryReporter(t *testing.T) {
	a, b := NewBag(4), NewBag(4)
	multi := MultiReporter{BagReporter{Bag: a}, nil, BagReporter{Bag: b}}
	rb := ReportWarning(multi, WeaveMissingDispatch, source.At(1, 2, 3), "no dispatch").
		WithNote(source.At(1, 1, 1), "declared here")
	rb.Emit()
	rb.Emit()
	if a.Len() != 1 || b.Len() != 1 {
		t.Fatalf("bags = %d, %d, want 1, 1", a.Len(), b.Len())
	}
	if notes := a.Items()[0].Notes; len(notes) != 1 || notes[0].Msg != "declared here" {
		t.Fatalf("notes = %+v", notes)
	}
	var nilBuilder *ReportBuilder
	nilBuilder.WithNote(source.Span{}, "x").Emit()
}
