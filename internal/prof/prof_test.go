package prof

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSessionWritesHeapProfile(t *testing.T) {
	mem := filepath.Join(t.TempDir(), "mem.pprof")
	s, err := Start("", mem)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	st, err := os.Stat(mem)
	if err != nil || st.Size() == 0 {
		t.Fatalf("heap profile not written: %v", err)
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
}

func TestStartRejectsBadPath(t *testing.T) {
	if _, err := Start(filepath.Join(t.TempDir(), "missing", "cpu.pprof"), ""); err == nil {
		t.Fatalf("expected error for unwritable cpu profile path")
	}
}

func TestNilSessionStop(t *testing.T) {
	var s *Session
	if err := s.Stop(); err != nil {
		t.Fatalf("nil Stop: %v", err)
	}
}
