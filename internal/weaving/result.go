package weaving

import (
	"propweave/internal/diag"
	"propweave/internal/observ"
	"propweave/internal/resolve"
)

// Change names one kind of injected logic.
type Change string

const (
	ChangeNotify   Change = "notify"
	ChangeValidate Change = "validate"
	ChangeRebind   Change = "rebind"
)

// MemberRecord describes a woven member.
type MemberRecord struct {
	Type    string
	Member  string
	Changes []Change
	Checks  []string
}

// SkipRecord describes a member left unwoven.
type SkipRecord struct {
	Type   string
	Member string
	Code   diag.Code
	Reason string
}

// CallRecord describes a validation call site.
type CallRecord struct {
	Method  string
	Checked string
	From    string
	To      string // empty when the call was left unchanged
	Exact   bool
}

// Result is what a run did to the module.
type Result struct {
	Module            string
	Order             []string
	Woven             []MemberRecord
	Skipped           []SkipRecord
	Calls             []CallRecord
	Injected          []string
	RemovedAttributes int
	RemovedReferences []string
	Cache             resolve.Stats
	Timings           observ.Report
}

// Fallbacks counts call sites bound to a default overload.
func (r *Result) Fallbacks() int {
	n := 0
	for _, c := range r.Calls {
		if !c.Exact && c.To != "" {
			n++
		}
	}
	return n
}

func (r *Result) woven(typ, member string, change Change, check string) {
	for i := range r.Woven {
		rec := &r.Woven[i]
		if rec.Type != typ || rec.Member != member {
			continue
		}
		if !hasChange(rec.Changes, change) {
			rec.Changes = append(rec.Changes, change)
		}
		if check != "" {
			rec.Checks = append(rec.Checks, check)
		}
		return
	}
	rec := MemberRecord{Type: typ, Member: member, Changes: []Change{change}}
	if check != "" {
		rec.Checks = []string{check}
	}
	r.Woven = append(r.Woven, rec)
}

func hasChange(list []Change, c Change) bool {
	for _, x := range list {
		if x == c {
			return true
		}
	}
	return false
}
