package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"propweave/internal/config"
	"propweave/internal/diag"
	"propweave/internal/resolve"
)

const (
	modelFixture   = "../fixture/testdata/model.toml"
	counterFixture = "../fixture/testdata/counter.yaml"
)

type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordingSink) OnEvent(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *recordingSink) last(file string) Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ev Event
	for _, e := range s.events {
		if e.File == file {
			ev = e
		}
	}
	return ev
}

func writeFixture(t *testing.T, name, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(text), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestRunMixedBatch(t *testing.T) {
	broken := writeFixture(t, "broken.toml", "[[module]]\nname = \"App\"\n\n[[module.types]]\nname = \"X\"\nkind = \"enum\"\n")
	paths := []string{modelFixture, counterFixture, broken, filepath.Join(t.TempDir(), "missing.toml")}
	sink := &recordingSink{}

	outcomes, err := Run(context.Background(), paths, Options{Config: config.Default(), Jobs: 2, Progress: sink})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(outcomes) != len(paths) {
		t.Fatalf("got %d outcomes", len(outcomes))
	}
	for i, o := range outcomes {
		if o.Path != paths[i] {
			t.Fatalf("outcome %d is for %s", i, o.Path)
		}
		if o.Docs == nil {
			t.Fatalf("%s: no documents", o.Path)
		}
	}

	model := outcomes[0]
	if model.Failed() || model.Result == nil {
		t.Fatalf("model: err=%v errors=%v", model.Err, model.Bag.HasErrors())
	}
	if len(model.Result.Order) == 0 {
		t.Fatalf("model: nothing woven")
	}
	if !model.Timings.Has(StageLoad) || !model.Timings.Has(StageWeave) {
		t.Fatalf("model: timings missing")
	}
	if ev := sink.last(modelFixture); ev.Status != StatusDone || ev.Stage != StageWeave {
		t.Fatalf("model: last event %+v", ev)
	}

	counter := outcomes[1]
	var rerr *resolve.ResolutionError
	if counter.Result != nil || !errors.As(counter.Err, &rerr) {
		t.Fatalf("counter: expected resolution abort, got %v", counter.Err)
	}
	if len(counter.Bag.Filter(diag.ResUnresolved)) != 1 {
		t.Fatalf("counter: RES2001 not reported")
	}
	if ev := sink.last(counterFixture); ev.Status != StatusError {
		t.Fatalf("counter: last event %+v", ev)
	}

	bad := outcomes[2]
	if bad.Set != nil || bad.Err == nil {
		t.Fatalf("broken: expected load error")
	}
	d := bad.Bag.Items()[0]
	if d.Code != diag.FixSyntax || d.Primary.IsZero() {
		t.Fatalf("broken: diagnostic %+v", d)
	}
	if bad.Timings.Has(StageWeave) {
		t.Fatalf("broken: weave stage ran")
	}

	if missing := outcomes[3]; missing.Err == nil || !missing.Bag.HasErrors() {
		t.Fatalf("missing: expected an error")
	}
}

func TestRunQueuesEveryFixtureFirst(t *testing.T) {
	sink := &recordingSink{}
	paths := []string{modelFixture, counterFixture}
	if _, err := Run(context.Background(), paths, Options{Config: config.Default(), Jobs: 1, Progress: sink}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	for i, p := range paths {
		ev := sink.events[i]
		if ev.File != p || ev.Status != StatusQueued {
			t.Fatalf("event %d: %+v", i, ev)
		}
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, []string{modelFixture}, Options{Config: config.Default()})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRunEmpty(t *testing.T) {
	outcomes, err := Run(context.Background(), nil, Options{})
	if err != nil || len(outcomes) != 0 {
		t.Fatalf("got %v, %v", outcomes, err)
	}
}

func TestChannelSink(t *testing.T) {
	ch := make(chan Event, 1)
	ChannelSink{Ch: ch}.OnEvent(Event{File: "a", Status: StatusDone})
	if ev := <-ch; ev.File != "a" {
		t.Fatalf("got %+v", ev)
	}
	ChannelSink{}.OnEvent(Event{})
}

func TestTimings(t *testing.T) {
	var a, b Timings
	a.Set(StageLoad, time.Millisecond)
	b.Set(StageLoad, 2*time.Millisecond)
	b.Set(StageWeave, 3*time.Millisecond)
	a.Add(b)
	if a.Duration(StageLoad) != 3*time.Millisecond || a.Sum(StageLoad, StageWeave) != 6*time.Millisecond {
		t.Fatalf("got load=%v sum=%v", a.Duration(StageLoad), a.Sum(StageLoad, StageWeave))
	}
	var zero Timings
	if zero.Has(StageLoad) || zero.Duration(StageWeave) != 0 {
		t.Fatalf("zero timings report values")
	}
}

func TestRunObserverSeesDiagnostics(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]int{}
	opts := Options{
		Config: config.Default(),
		Observe: func(path string) diag.Reporter {
			return diag.CallbackLogger{LogInfo: func(string) {
				mu.Lock()
				seen[path]++
				mu.Unlock()
			}}
		},
	}
	outcomes, err := Run(context.Background(), []string{modelFixture}, opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	infos := outcomes[0].Bag.CountExact(diag.SevInfo)
	if infos == 0 || seen[modelFixture] != infos {
		t.Fatalf("observer saw %d infos, bag holds %d", seen[modelFixture], infos)
	}
}
