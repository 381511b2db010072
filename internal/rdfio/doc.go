// Package rdfio reads and writes RDF documents as ir graphs.
//
// Supported formats:
//   - N-Triples and N-Quads (line-based, no prefixes)
//   - Turtle and TriG (prefixes, base, abbreviations, graph blocks)
//
// Read returns a Document: the graph plus the prefixes the document
// declared, so writers can reuse them. Named graphs become ir bundles; a
// format without named graphs rejects a graph that has bundles.
//
// Anonymous blank nodes ([ ] and collections) receive labels that do not
// collide with any label written in the document. Explicit labels are
// kept as written.
package rdfio
