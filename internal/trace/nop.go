package trace

// nopTracer is installed when tracing is off. It reports LevelOff so spans
// started against it skip event construction entirely.
type nopTracer struct{}

func (nopTracer) Emit(*Event) {}

// Flush and Close have nothing buffered to write.
func (nopTracer) Flush() error { return nil }
func (nopTracer) Close() error { return nil }

func (nopTracer) Level() Level  { return LevelOff }
func (nopTracer) Enabled() bool { return false }

// Nop discards every event. New returns it for LevelOff, and FromContext
// falls back to it when a context carries no tracer.
var Nop Tracer = nopTracer{}
