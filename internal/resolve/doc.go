// Package resolve turns symbolic type references into definitions.
//
// A Cache is built per weaving run and handed to every component that needs
// lookups. It guarantees referential identity: resolving the same canonical
// name twice yields the same *meta.TypeDef. Failures surface as
// *ResolutionError and are never cached, so a fixed host can be retried.
package resolve
