package ui

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"propweave/internal/pipeline"
)

func TestApplyTracksFixtureState(t *testing.T) {
	m := NewProgressModel("weaving", []string{"a.toml", "b.toml"}, nil).(*progressModel)

	steps := []struct {
		ev      pipeline.Event
		want    state
		percent float64
	}{
		{pipeline.Event{File: "a.toml", Stage: pipeline.StageLoad, Status: pipeline.StatusWorking}, stateLoading, 0.1},
		{pipeline.Event{File: "a.toml", Stage: pipeline.StageWeave, Status: pipeline.StatusWorking, Elapsed: time.Millisecond}, stateWeaving, 0.3},
		{pipeline.Event{File: "a.toml", Stage: pipeline.StageWeave, Status: pipeline.StatusDone, Elapsed: time.Millisecond}, stateDone, 0.5},
		{pipeline.Event{File: "elsewhere.toml", Stage: pipeline.StageWeave, Status: pipeline.StatusDone}, stateDone, 0.5},
		{pipeline.Event{File: "a.toml", Stage: "unknown", Status: pipeline.StatusWorking}, stateDone, 0.5},
	}
	for i, s := range steps {
		m.apply(s.ev)
		if got := m.rows[0].state; got != s.want {
			t.Fatalf("step %d: state %s, want %s", i, got, s.want)
		}
		if got := m.percent(); math.Abs(got-s.percent) > 1e-9 {
			t.Fatalf("step %d: percent %v, want %v", i, got, s.percent)
		}
	}
	if m.rows[0].elapsed != 2*time.Millisecond {
		t.Fatalf("elapsed %v", m.rows[0].elapsed)
	}

	m.apply(pipeline.Event{File: "b.toml", Stage: pipeline.StageLoad, Status: pipeline.StatusError, Err: errors.New("boom")})
	if m.rows[1].state != stateFailed || m.count(stateFailed) != 1 {
		t.Fatalf("failure not recorded: %+v", m.rows[1])
	}
	view := m.View()
	for _, want := range []string{"(1 failed)", "a.toml", "error"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view lacks %q:\n%s", want, view)
		}
	}
}

func TestClosedEventsQuit(t *testing.T) {
	ch := make(chan pipeline.Event)
	close(ch)
	m := NewProgressModel("weaving", []string{"a.toml"}, ch).(*progressModel)
	msg := m.next()()
	if _, ok := msg.(doneMsg); !ok {
		t.Fatalf("closed channel yielded %T", msg)
	}
	m.Update(msg)
	if !m.done || !strings.HasPrefix(m.header(), "done: ") {
		t.Fatalf("header after done: %q", m.header())
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"short.toml", 20, "short.toml"},
		{"fixtures/very/long/path.toml", 12, "fixtures/..."},
		{"abcdef", 3, "abc"},
		{"abc", 0, "abc"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.width); got != tt.want {
			t.Fatalf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}
