// Package ir provides the in-memory RDF model shared by every provtmpl package.
//
// This package contains value types only. All other internal packages
// import ir; ir imports nothing internal. This keeps the graph model the
// foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Term is an immutable value type; equality is structural (==)
//   - Statement order is significant and preserved end to end
//   - Bundles nest; Statement.Graph names the innermost enclosing bundle
//   - Content hashes use the canonical N-Quads line form, never Go's %v
package ir
