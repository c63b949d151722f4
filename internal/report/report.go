// Package report holds the per-run summary written by `propweave weave --report`.
package report

import (
	"time"

	"propweave/internal/diag"
	"propweave/internal/observ"
	"propweave/internal/weaving"
)

// SchemaVersion is bumped whenever the encoded layout changes.
const SchemaVersion uint16 = 1

// Report covers one CLI invocation.
type Report struct {
	Schema    uint16        `json:"schema" msgpack:"schema"`
	Tool      string        `json:"tool" msgpack:"tool"`
	Generated time.Time     `json:"generated" msgpack:"generated"`
	Runs      []Run         `json:"runs" msgpack:"runs"`
	Timings   observ.Report `json:"timings" msgpack:"timings"`
}

// Run is the outcome of weaving one fixture.
type Run struct {
	Fixture           string        `json:"fixture" msgpack:"fixture"`
	Module            string        `json:"module" msgpack:"module"`
	Aborted           bool          `json:"aborted" msgpack:"aborted"`
	Error             string        `json:"error,omitempty" msgpack:"error,omitempty"`
	Order             []string      `json:"order" msgpack:"order"`
	Woven             []Member      `json:"woven,omitempty" msgpack:"woven,omitempty"`
	Skipped           []Skip        `json:"skipped,omitempty" msgpack:"skipped,omitempty"`
	Calls             []Call        `json:"calls,omitempty" msgpack:"calls,omitempty"`
	Injected          []string      `json:"injected,omitempty" msgpack:"injected,omitempty"`
	RemovedAttributes int           `json:"removed_attributes" msgpack:"removed_attributes"`
	RemovedReferences []string      `json:"removed_references,omitempty" msgpack:"removed_references,omitempty"`
	Cache             CacheStats    `json:"cache" msgpack:"cache"`
	Diagnostics       Counts        `json:"diagnostics" msgpack:"diagnostics"`
	Timings           observ.Report `json:"timings" msgpack:"timings"`
}

type Member struct {
	Type    string   `json:"type" msgpack:"type"`
	Member  string   `json:"member" msgpack:"member"`
	Changes []string `json:"changes" msgpack:"changes"`
	Checks  []string `json:"checks,omitempty" msgpack:"checks,omitempty"`
}

type Skip struct {
	Type   string `json:"type" msgpack:"type"`
	Member string `json:"member" msgpack:"member"`
	Code   string `json:"code" msgpack:"code"`
	Reason string `json:"reason" msgpack:"reason"`
}

type Call struct {
	Method  string `json:"method" msgpack:"method"`
	Checked string `json:"checked" msgpack:"checked"`
	From    string `json:"from" msgpack:"from"`
	To      string `json:"to,omitempty" msgpack:"to,omitempty"`
	Exact   bool   `json:"exact" msgpack:"exact"`
}

type CacheStats struct {
	Hits    int `json:"hits" msgpack:"hits"`
	Misses  int `json:"misses" msgpack:"misses"`
	Entries int `json:"entries" msgpack:"entries"`
}

// Counts tallies a run's diagnostics by severity.
type Counts struct {
	Errors   int `json:"errors" msgpack:"errors"`
	Warnings int `json:"warnings" msgpack:"warnings"`
	Infos    int `json:"infos" msgpack:"infos"`
}

// New starts an empty report stamped with now.
func New(tool string, now time.Time) *Report {
	return &Report{Schema: SchemaVersion, Tool: tool, Generated: now.UTC()}
}

// Add appends a run and folds its timings into the report total.
func (r *Report) Add(run Run) {
	r.Runs = append(r.Runs, run)
	r.Timings.Merge(run.Timings)
}

// Failed reports whether any run aborted or produced errors.
func (r *Report) Failed() bool {
	for _, run := range r.Runs {
		if run.Aborted || run.Diagnostics.Errors > 0 {
			return true
		}
	}
	return false
}

// FromResult converts a weaving result. res is nil when the run aborted;
// err then carries the cause.
func FromResult(fixture string, res *weaving.Result, bag *diag.Bag, err error) Run {
	run := Run{Fixture: fixture}
	if bag != nil {
		run.Diagnostics = Counts{
			Errors:   bag.CountExact(diag.SevError),
			Warnings: bag.CountExact(diag.SevWarning),
			Infos:    bag.CountExact(diag.SevInfo),
		}
	}
	if err != nil {
		run.Aborted = true
		run.Error = err.Error()
	}
	if res == nil {
		return run
	}
	run.Module = res.Module
	run.Order = res.Order
	run.Injected = res.Injected
	run.RemovedAttributes = res.RemovedAttributes
	run.RemovedReferences = res.RemovedReferences
	run.Cache = CacheStats(res.Cache)
	run.Timings = res.Timings
	for _, m := range res.Woven {
		changes := make([]string, len(m.Changes))
		for i, c := range m.Changes {
			changes[i] = string(c)
		}
		run.Woven = append(run.Woven, Member{Type: m.Type, Member: m.Member, Changes: changes, Checks: m.Checks})
	}
	for _, s := range res.Skipped {
		run.Skipped = append(run.Skipped, Skip{Type: s.Type, Member: s.Member, Code: s.Code.ID(), Reason: s.Reason})
	}
	for _, c := range res.Calls {
		run.Calls = append(run.Calls, Call(c))
	}
	return run
}
