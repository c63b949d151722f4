package main

import (
	"fmt"
	"io"
	"sync"

	"propweave/internal/diag"
	"propweave/internal/source"
)

// newStreamLogger returns a pipeline observer that writes every diagnostic
// to w as "fixture[:line:col]: SEVERITY CODE: message". Fixtures run
// concurrently, so writes are serialized.
func newStreamLogger(w io.Writer) func(path string) diag.Reporter {
	var mu sync.Mutex
	write := func(prefix, sev, text string) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(w, "%s: %s %s\n", prefix, sev, text)
	}
	return func(path string) diag.Reporter {
		at := func(sp source.Span) string {
			return fmt.Sprintf("%s:%d:%d", path, sp.Start.Line, sp.Start.Col)
		}
		return diag.CallbackLogger{
			LogInfo:         func(text string) { write(path, "INFO", text) },
			LogWarning:      func(text string) { write(path, "WARNING", text) },
			LogWarningPoint: func(text string, sp source.Span) { write(at(sp), "WARNING", text) },
			LogError:        func(text string) { write(path, "ERROR", text) },
			LogErrorPoint:   func(text string, sp source.Span) { write(at(sp), "ERROR", text) },
		}
	}
}
