// Package diag defines the diagnostic model shared by every weaving pass.
//
// Passes never log directly. They emit through a Reporter, which the host
// supplies: BagReporter collects into a Bag for the CLI, CallbackLogger maps
// onto info/warning/error callbacks (with or without a sequence point), and
// DedupReporter/MultiReporter compose the others.
//
// Severity decides how a run is judged. Warnings mark members that were left
// unwoven; errors mark members whose rewrite had to be rolled back or calls
// that could not be bound under the strict overload policy. Fatal conditions
// (unresolvable references) abort the run: the weaver returns them as errors
// and reports them once under a RES code.
//
// Code values are grouped by range, each with a stable textual prefix:
//
//   - WVE1xxx weaving
//   - RES2xxx resolution
//   - CLN3xxx reference cleanup
//   - CFG4xxx configuration
//   - FIX5xxx module fixtures
//   - OBS6xxx observability
package diag
