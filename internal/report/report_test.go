package report

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"propweave/internal/diag"
	"propweave/internal/observ"
	"propweave/internal/resolve"
	"propweave/internal/source"
	"propweave/internal/weaving"
)

func sampleResult() *weaving.Result {
	return &weaving.Result{
		Module: "App",
		Order:  []string{"App.Person", "App.Employee"},
		Woven: []weaving.MemberRecord{
			{Type: "App.Person", Member: "Name", Changes: []weaving.Change{weaving.ChangeNotify, weaving.ChangeValidate}, Checks: []string{"IsNotNull"}},
		},
		Skipped: []weaving.SkipRecord{
			{Type: "App.Person", Member: "Age", Code: diag.WeaveUnsupportedShape, Reason: "setter has no body"},
		},
		Calls: []weaving.CallRecord{
			{Method: "App.Person::.ctor", Checked: "System.String", From: "IsNotNull(System.String,System.Object)", To: "IsNotNull(System.String,System.Object)"},
		},
		Injected:          []string{"App.Observable"},
		RemovedAttributes: 3,
		RemovedReferences: []string{"Catel.Fody.Attributes"},
		Cache:             resolve.Stats{Hits: 7, Misses: 4, Entries: 4},
		Timings:           observ.Report{TotalMS: 2, Phases: []observ.PhaseReport{{Name: "graph", DurationMS: 2}}},
	}
}

func sampleReport() *Report {
	bag := diag.NewBag(8)
	bag.Add(diag.New(diag.SevWarning, diag.WeaveUnsupportedShape, source.Span{}, "skipped"))
	bag.Add(diag.New(diag.SevInfo, diag.WeaveMemberWoven, source.Span{}, "woven"))

	r := New("propweave test", time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	r.Add(FromResult("model.toml", sampleResult(), bag, nil))
	r.Add(FromResult("broken.toml", nil, nil, errors.New("core references: System.Object not found")))
	return r
}

func TestFromResult(t *testing.T) {
	run := sampleReport().Runs[0]
	if run.Module != "App" || run.Aborted {
		t.Fatalf("run: %+v", run)
	}
	if got := strings.Join(run.Woven[0].Changes, ","); got != "notify,validate" {
		t.Fatalf("changes: %s", got)
	}
	if run.Skipped[0].Code != "WVE1001" {
		t.Fatalf("skip code: %s", run.Skipped[0].Code)
	}
	if run.Cache.Hits != 7 || run.Diagnostics.Warnings != 1 || run.Diagnostics.Infos != 1 {
		t.Fatalf("counts: %+v %+v", run.Cache, run.Diagnostics)
	}
}

func TestFailed(t *testing.T) {
	r := sampleReport()
	if !r.Failed() {
		t.Fatalf("aborted run must fail the report")
	}
	r.Runs = r.Runs[:1]
	if r.Failed() {
		t.Fatalf("warnings alone must not fail the report")
	}
	r.Runs[0].Diagnostics.Errors = 1
	if !r.Failed() {
		t.Fatalf("errors must fail the report")
	}
}

func TestAddMergesTimings(t *testing.T) {
	r := New("t", time.Now())
	a := Run{Timings: observ.Report{TotalMS: 1, Phases: []observ.PhaseReport{{Name: "graph", DurationMS: 1}}}}
	b := Run{Timings: observ.Report{TotalMS: 2, Phases: []observ.PhaseReport{{Name: "graph", DurationMS: 2}}}}
	r.Add(a)
	r.Add(b)
	if r.Timings.TotalMS != 3 || len(r.Timings.Phases) != 1 || r.Timings.Phases[0].DurationMS != 3 {
		t.Fatalf("timings: %+v", r.Timings)
	}
}

func TestEncodeDecode(t *testing.T) {
	for _, format := range []Format{FormatJSON, FormatMsgpack} {
		var buf bytes.Buffer
		want := sampleReport()
		if err := Encode(&buf, want, format); err != nil {
			t.Fatalf("format %d: encode: %v", format, err)
		}
		got, err := Decode(&buf, format)
		if err != nil {
			t.Fatalf("format %d: decode: %v", format, err)
		}
		if !got.Generated.Equal(want.Generated) || got.Tool != want.Tool {
			t.Fatalf("format %d: header %+v", format, got)
		}
		if len(got.Runs) != 2 || got.Runs[0].Calls[0].To != want.Runs[0].Calls[0].To {
			t.Fatalf("format %d: runs %+v", format, got.Runs)
		}
		if !got.Runs[1].Aborted || got.Runs[1].Error == "" {
			t.Fatalf("format %d: aborted run lost: %+v", format, got.Runs[1])
		}
	}
}

func TestDecodeRejectsOtherSchema(t *testing.T) {
	r := sampleReport()
	r.Schema = SchemaVersion + 1
	var buf bytes.Buffer
	if err := Encode(&buf, r, FormatMsgpack); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := Decode(&buf, FormatMsgpack); err == nil {
		t.Fatalf("expected schema error")
	}
}

func TestWriteFilePicksFormatByExtension(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name   string
		format Format
	}{
		{"run.mp", FormatMsgpack},
		{"run.MP", FormatMsgpack},
		{"run.json", FormatJSON},
		{"nested/run", FormatJSON},
	}
	for _, tt := range tests {
		path := filepath.Join(dir, tt.name)
		if FormatFor(path) != tt.format {
			t.Fatalf("%s: format %d", tt.name, FormatFor(path))
		}
		if err := WriteFile(path, sampleReport()); err != nil {
			t.Fatalf("%s: write: %v", tt.name, err)
		}
		got, err := ReadFile(path)
		if err != nil {
			t.Fatalf("%s: read: %v", tt.name, err)
		}
		if got.Runs[0].Module != "App" {
			t.Fatalf("%s: got %+v", tt.name, got.Runs[0])
		}
	}
}
