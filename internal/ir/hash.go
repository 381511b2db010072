package ir

import (
	"crypto/sha256"
	"encoding/hex"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainTemplate   = "provtmpl/template/v1"
	DomainBindings   = "provtmpl/bindings/v1"
	DomainVocabulary = "provtmpl/vocabulary/v1"
	DomainOutput     = "provtmpl/output/v1"
	DomainRun        = "provtmpl/run/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte (0x00) separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// TemplateHash computes the content hash of a template graph.
// Statement order is significant.
func TemplateHash(g *Graph) string {
	return hashWithDomain(DomainTemplate, MarshalCanonical(g))
}

// BindingsHash computes the content hash of a bindings graph.
// Statement order does not matter; duplicate statements collapse.
func BindingsHash(g *Graph) string {
	return hashWithDomain(DomainBindings, MarshalCanonicalSet(g))
}

// VocabularyHash computes the content hash of configuration pairs.
func VocabularyHash(pairs map[string]string) string {
	return hashWithDomain(DomainVocabulary, MarshalCanonicalPairs(pairs))
}

// OutputHash computes the content hash of an expansion result.
// Two runs with byte-identical output have the same OutputHash.
func OutputHash(g *Graph) string {
	return hashWithDomain(DomainOutput, MarshalCanonical(g))
}

// RunID derives the identity of an expansion run from its inputs.
// The same template, bindings and vocabulary always produce the same ID.
func RunID(templateHash, bindingsHash, vocabularyHash string) string {
	data := templateHash + "\x00" + bindingsHash + "\x00" + vocabularyHash
	return hashWithDomain(DomainRun, []byte(data))
}
