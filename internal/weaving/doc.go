// Package weaving rewrites a module's method bodies.
//
// A run resolves the core references, builds the type graph and then applies
// the passes in a fixed order: property setters, argument prologues, helper
// call rebinding and finally removal of the compile-time support module.
// Every edit goes through a validated snapshot, so a member is either fully
// woven or left as it was.
package weaving
