// Package compiler classifies PROV-Template graphs.
//
// Classify turns a template graph into a Template:
//
//  1. Predicates are normalised through the vocabulary aliases.
//  2. Linking statements (tmpl:linked) are removed and recorded as Links.
//  3. Variables are discovered in a fixed order: root statements first,
//     then bundles in order, each bundle identifier before its contents.
//  4. Linked variables are merged into Groups with a union-find, so linking
//     is reflexive, symmetric and transitive. Groups are numbered by the
//     first discovered member.
//  5. Groups whose members name a bundle are marked as bundle variables.
//  6. Each scope (root or bundle) is partitioned into Units: maximal sets
//     of statements connected through shared blank nodes. A unit is the
//     smallest piece of a template that can be multiplied without
//     breaking blank-node co-reference.
//
// The package is a pure function of its inputs. It never reads bindings;
// that is the job of the binding package.
package compiler
