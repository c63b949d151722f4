package observ

import (
	"errors"
	"strings"
	"testing"
)

func TestTimerRecordsPhasesInOrder(t *testing.T) {
	timer := NewTimer()
	idx := timer.Begin("graph")
	timer.End(idx, "3 nodes")
	err := timer.Time("properties", func() (string, error) { return "", errors.New("boom") })
	if err == nil {
		t.Fatalf("Time should return fn's error")
	}
	timer.End(42, "ignored")

	report := timer.Report()
	if len(report.Phases) != 2 {
		t.Fatalf("phases = %d, want 2", len(report.Phases))
	}
	if report.Phases[0].Name != "graph" || report.Phases[0].Note != "3 nodes" {
		t.Fatalf("first phase = %+v", report.Phases[0])
	}
	if report.Phases[1].Note != "failed" {
		t.Fatalf("failed phase note = %q", report.Phases[1].Note)
	}
	if !strings.Contains(timer.Summary(), "total") {
		t.Fatalf("summary lacks total line")
	}
}

func TestReportMerge(t *testing.T) {
	a := Report{TotalMS: 3, Phases: []PhaseReport{{Name: "graph", DurationMS: 1}, {Name: "clean", DurationMS: 2}}}
	b := Report{TotalMS: 5, Phases: []PhaseReport{{Name: "clean", DurationMS: 1}, {Name: "calls", DurationMS: 4}}}
	a.Merge(b)
	if a.TotalMS != 8 || len(a.Phases) != 3 {
		t.Fatalf("merged = %+v", a)
	}
	if a.Phases[1].DurationMS != 3 || a.Phases[2].Name != "calls" {
		t.Fatalf("merged phases = %+v", a.Phases)
	}
}
