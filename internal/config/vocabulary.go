// Package config holds the template vocabulary and engine limits.
//
// The engine never hard-codes the PROV-Template namespaces: every IRI it
// recognizes (variable stems, the linking predicate, binding predicates)
// comes from a Vocabulary value passed in explicitly. DefaultVocabulary
// returns the PROV-Template conventions; Load reads overrides from a CUE
// file validated against the embedded schema.
package config

import (
	"strings"

	"github.com/roach88/provtmpl/internal/ir"
)

// PROV-Template namespaces.
const (
	DefaultVarNamespace    = "http://openprovenance.org/var#"
	DefaultVargenNamespace = "http://openprovenance.org/vargen#"
	DefaultTmplNamespace   = "http://openprovenance.org/tmpl#"
	DefaultUUIDNamespace   = "urn:uuid:"

	ProvNamespace = "http://www.w3.org/ns/prov#"
)

// Vocabulary names every IRI the engine treats specially.
type Vocabulary struct {
	// VarNamespace is the stem of ordinary variables. They must be bound
	// wherever they occur in an emitted statement.
	VarNamespace string `json:"var"`

	// VargenNamespace is the stem of generated variables. Unbound members
	// receive fresh identifiers under UUIDNamespace.
	VargenNamespace string `json:"vargen"`

	// LinkedPredicate connects variables that expand in lockstep.
	LinkedPredicate string `json:"linked"`

	// ValuePrefix is the predicate stem of indexed bindings (value_N).
	ValuePrefix string `json:"value_prefix"`

	// Value2DPrefix is the predicate stem of two-dimensional bindings (2dvalue_N_M).
	Value2DPrefix string `json:"value2d_prefix"`

	// ValuesPredicate binds a variable to an RDF collection.
	ValuesPredicate string `json:"values"`

	// Aliases rewrites template predicates before classification.
	Aliases map[string]string `json:"aliases"`

	// UUIDNamespace prefixes generated identifiers.
	UUIDNamespace string `json:"uuid_namespace"`
}

// DefaultVocabulary returns the PROV-Template vocabulary.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		VarNamespace:    DefaultVarNamespace,
		VargenNamespace: DefaultVargenNamespace,
		LinkedPredicate: DefaultTmplNamespace + "linked",
		ValuePrefix:     DefaultTmplNamespace + "value_",
		Value2DPrefix:   DefaultTmplNamespace + "2dvalue_",
		ValuesPredicate: DefaultTmplNamespace + "values",
		Aliases: map[string]string{
			DefaultTmplNamespace + "startTime": ProvNamespace + "startedAtTime",
			DefaultTmplNamespace + "endTime":   ProvNamespace + "endedAtTime",
			DefaultTmplNamespace + "time":      ProvNamespace + "atTime",
		},
		UUIDNamespace: DefaultUUIDNamespace,
	}
}

// IsVariable reports whether t is a template variable (ordinary or generated).
func IsVariable(t ir.Term, v Vocabulary) bool {
	return t.HasPrefix(v.VarNamespace) || t.HasPrefix(v.VargenNamespace)
}

// IsVargen reports whether t is a generated variable.
func IsVargen(t ir.Term, v Vocabulary) bool {
	return t.HasPrefix(v.VargenNamespace)
}

// IsLinked reports whether t is the linking predicate.
func (v Vocabulary) IsLinked(t ir.Term) bool {
	return t.IsIRI() && t.Value == v.LinkedPredicate
}

// Alias returns the replacement for predicate t, or t itself.
func (v Vocabulary) Alias(t ir.Term) ir.Term {
	if !t.IsIRI() {
		return t
	}
	if to, ok := v.Aliases[t.Value]; ok {
		return ir.NewIRI(to)
	}
	return t
}

// LocalName strips the variable namespace from a variable IRI.
func (v Vocabulary) LocalName(t ir.Term) string {
	switch {
	case t.HasPrefix(v.VarNamespace):
		return strings.TrimPrefix(t.Value, v.VarNamespace)
	case t.HasPrefix(v.VargenNamespace):
		return strings.TrimPrefix(t.Value, v.VargenNamespace)
	default:
		return t.Value
	}
}

// Pairs flattens the vocabulary into key/value pairs for content hashing.
func (v Vocabulary) Pairs() map[string]string {
	pairs := map[string]string{
		"var":            v.VarNamespace,
		"vargen":         v.VargenNamespace,
		"linked":         v.LinkedPredicate,
		"value_prefix":   v.ValuePrefix,
		"value2d_prefix": v.Value2DPrefix,
		"values":         v.ValuesPredicate,
		"uuid_namespace": v.UUIDNamespace,
	}
	for from, to := range v.Aliases {
		pairs["alias:"+from] = to
	}
	return pairs
}
