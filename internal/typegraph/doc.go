// Package typegraph decides which types of a module get woven and in what
// order.
//
// Every type lands in an arena keyed by canonical name. Eligibility is
// computed once per type: a type is eligible when it derives from a marker
// (BaseFinder) or owns qualifying members. Eligible nodes link to their
// nearest eligible ancestor, walking past ineligible intermediates, and Order
// lists them bases first. Links are NodeIDs, not pointers.
package typegraph
