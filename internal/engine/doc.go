// Package engine implements PROV-Template expansion.
//
// Expand turns a template graph and a bindings graph into a concrete
// provenance graph. The work runs in fixed phases:
//
//  1. Classify (package compiler): variables, link groups, bundle
//     variables and blank-connected statement units.
//  2. Resolve (package binding): each variable's ordered value list.
//  3. Plan: one multiplicity per group, consistency checks, the cross
//     product of independent groups, fresh blank labels and generated
//     identifiers. Every failure that can be detected before rewriting is
//     detected here.
//  4. Rewrite: each batch of the plan is substituted independently.
//  5. Assemble: verbatim statements, then batches, then bundles.
//
// DETERMINISM:
//
// For fixed inputs the output is byte-identical across runs:
//   - Groups are numbered by first discovery in the template
//   - Combinations run in odometer order, first group outermost
//   - Fresh blank labels come from one serial counter advanced in plan order
//   - Generated identifiers are name-based UUIDs seeded by the run identity
//   - Parallel rewriting writes into slots indexed by batch sequence
//
// ERRORS:
//
// Every failure is an *ExpansionError with a stable Code. Expansion is
// all-or-nothing; no partial output is returned.
//
// CARDINALITY:
//
// A statement unit whose free groups have lengths n1..nk appears
// n1*...*nk times. Linked variables share a group and advance in lockstep.
// A group bound to an empty list yields zero instances and suppresses
// every unit that depends on it.
package engine
