package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/provtmpl/internal/ir"
)

func TestDefaultVocabulary(t *testing.T) {
	v := DefaultVocabulary()

	assert.True(t, IsVariable(ir.NewIRI(DefaultVarNamespace+"x"), v))
	assert.True(t, IsVariable(ir.NewIRI(DefaultVargenNamespace+"id"), v))
	assert.True(t, IsVargen(ir.NewIRI(DefaultVargenNamespace+"id"), v))
	assert.False(t, IsVargen(ir.NewIRI(DefaultVarNamespace+"x"), v))
	assert.False(t, IsVariable(ir.NewIRI("http://example.org/x"), v))
	assert.False(t, IsVariable(ir.NewLiteral(DefaultVarNamespace+"x", ""), v))
	assert.False(t, IsVariable(ir.NewBlank("x"), v))
	assert.True(t, v.IsLinked(ir.NewIRI(DefaultTmplNamespace+"linked")))
}

func TestVocabularyAlias(t *testing.T) {
	v := DefaultVocabulary()
	assert.Equal(t, ir.NewIRI(ProvNamespace+"startedAtTime"), v.Alias(ir.NewIRI(DefaultTmplNamespace+"startTime")))
	assert.Equal(t, ir.NewIRI(ProvNamespace+"atTime"), v.Alias(ir.NewIRI(DefaultTmplNamespace+"time")))

	other := ir.NewIRI("http://example.org/p")
	assert.Equal(t, other, v.Alias(other))
}

func TestVocabularyLocalName(t *testing.T) {
	v := DefaultVocabulary()
	assert.Equal(t, "x", v.LocalName(ir.NewIRI(DefaultVarNamespace+"x")))
	assert.Equal(t, "id", v.LocalName(ir.NewIRI(DefaultVargenNamespace+"id")))
}

// TestVocabularyPairsChangeWithNamespace verifies pairs capture every configurable IRI.
func TestVocabularyPairsChangeWithNamespace(t *testing.T) {
	a := DefaultVocabulary()
	b := DefaultVocabulary()
	b.VarNamespace = "http://example.org/var#"

	assert.NotEqual(t, ir.VocabularyHash(a.Pairs()), ir.VocabularyHash(b.Pairs()))
	assert.Equal(t, ir.VocabularyHash(a.Pairs()), ir.VocabularyHash(DefaultVocabulary().Pairs()))
}

func TestParseEmptyKeepsDefaults(t *testing.T) {
	cfg, err := Parse([]byte(""), "empty.cue")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParseOverrides(t *testing.T) {
	src := `
vocabulary: {
	var:    "http://example.org/var#"
	linked: "http://example.org/tmpl#linked"
	aliases: "http://example.org/tmpl#t": "http://www.w3.org/ns/prov#atTime"
}
limits: {
	max_instantiations: 50
	workers:            4
}
`
	cfg, err := Parse([]byte(src), "vocab.cue")
	require.NoError(t, err)

	assert.Equal(t, "http://example.org/var#", cfg.Vocabulary.VarNamespace)
	assert.Equal(t, "http://example.org/tmpl#linked", cfg.Vocabulary.LinkedPredicate)
	assert.Equal(t, DefaultVargenNamespace, cfg.Vocabulary.VargenNamespace)
	assert.Equal(t, map[string]string{"http://example.org/tmpl#t": ProvNamespace + "atTime"}, cfg.Vocabulary.Aliases)
	assert.Equal(t, 50, cfg.Limits.MaxInstantiations)
	assert.Equal(t, 4, cfg.Limits.Workers)
}

func TestParseRejectsUnknownField(t *testing.T) {
	_, err := Parse([]byte(`vocabulary: { bogus: "x" }`), "bad.cue")
	require.Error(t, err)

	var cfgErr *Error
	assert.ErrorAs(t, err, &cfgErr)
}

func TestParseRejectsNonPositiveLimit(t *testing.T) {
	_, err := Parse([]byte(`limits: max_instantiations: 0`), "bad.cue")
	require.Error(t, err)
}

func TestParseRejectsRelativeIRI(t *testing.T) {
	_, err := Parse([]byte(`vocabulary: var: "var#"`), "bad.cue")
	require.Error(t, err)
}

func TestParseRejectsSameNamespaces(t *testing.T) {
	_, err := Parse([]byte(`vocabulary: {
	var:    "http://example.org/v#"
	vargen: "http://example.org/v#"
}`), "bad.cue")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vocabulary.vargen")
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "provtmpl.cue")
	require.NoError(t, os.WriteFile(path, []byte(`limits: workers: 2`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Limits.Workers)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.cue"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
