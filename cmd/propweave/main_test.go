package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"propweave/internal/config"
	"propweave/internal/diag"
	"propweave/internal/report"
	"propweave/internal/source"
)

const (
	modelFixture   = "../../internal/fixture/testdata/model.toml"
	counterFixture = "../../internal/fixture/testdata/counter.yaml"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cfgPath := filepath.Join(t.TempDir(), config.FileName)
	if err := config.WriteDefault(cfgPath, false); err != nil {
		t.Fatalf("write config: %v", err)
	}
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--color", "off", "--config", cfgPath}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestReadUIMode(t *testing.T) {
	tests := []struct {
		in      string
		want    uiMode
		wantErr bool
	}{
		{"", uiModeAuto, false},
		{"AUTO", uiModeAuto, false},
		{" on ", uiModeOn, false},
		{"off", uiModeOff, false},
		{"sometimes", "", true},
	}
	for _, tt := range tests {
		got, err := readUIMode(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Fatalf("readUIMode(%q) = %q, %v", tt.in, got, err)
		}
	}
	if shouldUseTUI(uiModeOff) || !shouldUseTUI(uiModeOn) {
		t.Fatalf("explicit ui modes ignored")
	}
	if _, err := readColorMode("purple"); err == nil {
		t.Fatalf("expected error for bad color mode")
	}
}

func TestWeaveCommandWritesReport(t *testing.T) {
	dir := t.TempDir()
	reportPath := filepath.Join(dir, "run.mp")
	memPath := filepath.Join(dir, "mem.pprof")
	out, err := execute(t, "weave", "--ui", "off", "--format", "short", "--emit-il", "--report", reportPath, "--mem-profile", memPath, modelFixture)
	if err != nil {
		t.Fatalf("weave: %v\n%s", err, out)
	}
	if !strings.Contains(out, "INFO WVE1007") {
		t.Fatalf("short output lacks woven members:\n%s", out)
	}
	if !strings.Contains(out, "App.Person::set_Age") || !strings.Contains(out, ".maxstack") {
		t.Fatalf("IL listing missing:\n%s", out)
	}
	if _, err := os.Stat(memPath); err != nil {
		t.Fatalf("heap profile: %v", err)
	}
	rep, err := report.ReadFile(reportPath)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if len(rep.Runs) != 1 || rep.Runs[0].Module != "App" || rep.Failed() {
		t.Fatalf("report: %+v", rep.Runs)
	}
}

func TestWeaveCommandFailsOnAbort(t *testing.T) {
	out, err := execute(t, "weave", "--ui", "off", "--format", "json", modelFixture, counterFixture)
	if err == nil {
		t.Fatalf("expected failure")
	}
	start := strings.Index(out, "[")
	end := strings.LastIndex(out, "]")
	if start < 0 || end < start {
		t.Fatalf("no JSON in output:\n%s", out)
	}
	var payload []fixtureDiagnostics
	if err := json.Unmarshal([]byte(out[start:end+1]), &payload); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(payload) != 2 || payload[0].Aborted || !payload[1].Aborted {
		t.Fatalf("payload: %+v", payload)
	}
	if payload[1].Errors == 0 || payload[1].Diagnostics[0].Code != "RES2001" {
		t.Fatalf("aborted fixture diagnostics: %+v", payload[1].DiagnosticsOutput)
	}
}

func TestWeaveRejectsUnknownFormat(t *testing.T) {
	if _, err := execute(t, "weave", "--format", "xml", modelFixture); err == nil {
		t.Fatalf("expected format error")
	}
}

func TestListCommand(t *testing.T) {
	out, err := execute(t, "list", modelFixture)
	if err != nil {
		t.Fatalf("list: %v\n%s", err, out)
	}
	lines := strings.Split(out, "\n")
	if !strings.HasPrefix(lines[0], "App.Person") {
		t.Fatalf("first line %q", lines[0])
	}
	for _, want := range []string{"App.Employee", ": App.Person", "notify", "IsNotNull(value)", "IsNotNullOrEmpty(name)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("list output lacks %q:\n%s", want, out)
		}
	}
}

func TestInitCommand(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "proj")
	if _, err := execute(t, "init", dir); err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, err := config.Load(filepath.Join(dir, config.FileName)); err != nil {
		t.Fatalf("written config does not load: %v", err)
	}
	if _, err := execute(t, "init", dir); err == nil {
		t.Fatalf("second init must refuse to overwrite")
	}
	if _, err := execute(t, "init", "--force", dir); err != nil {
		t.Fatalf("init --force: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, config.FileName)); err != nil {
		t.Fatalf("stat: %v", err)
	}
}

func TestVersionJSON(t *testing.T) {
	out, err := execute(t, "version", "--format", "json")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	var payload versionPayload
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Tool != "propweave" || payload.Version == "" {
		t.Fatalf("payload: %+v", payload)
	}
}

func TestWeaveFailOnWarning(t *testing.T) {
	if _, err := execute(t, "weave", "--ui", "off", "--format", "short", modelFixture); err != nil {
		t.Fatalf("default threshold: %v", err)
	}
	if _, err := execute(t, "weave", "--ui", "off", "--fail-on", "info", "--format", "short", modelFixture); err == nil {
		t.Fatalf("info threshold must fail a run that reports infos")
	}
	if _, err := execute(t, "weave", "--ui", "off", "--fail-on", "fatal", modelFixture); err == nil {
		t.Fatalf("expected error for unknown severity")
	}
}

func TestStreamLogger(t *testing.T) {
	var buf bytes.Buffer
	r := newStreamLogger(&buf)("model.toml")
	r.Report(diag.New(diag.SevWarning, diag.WeaveMissingDispatch, source.At(1, 12, 3), "no dispatch"))
	r.Report(diag.New(diag.SevInfo, diag.WeaveMemberWoven, source.Span{}, "woven"))
	want := "model.toml:12:3: WARNING WVE1002: no dispatch\nmodel.toml: INFO WVE1007: woven\n"
	if buf.String() != want {
		t.Fatalf("got:\n%s\nwant:\n%s", buf.String(), want)
	}
}
