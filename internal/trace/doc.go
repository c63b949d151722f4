// Package trace records what a weaving run spends its time on.
//
// Spans nest run → pass → type → member; the level decides how deep the
// recording goes:
//
//   - LevelPhase: runs and passes
//   - LevelDetail: plus one span per type node
//   - LevelDebug: plus one span per woven member
//
// Tracers travel in the context handed to ModuleWeaver.Execute:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	ctx, span := trace.Start(ctx, trace.ScopePass, "pass:graph")
//	defer span.End("")
//
// StreamTracer writes text or NDJSON as events happen; RingTracer keeps the
// tail in memory for a dump when a run aborts.
package trace
