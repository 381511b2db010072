package rdfio

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Format names an RDF serialization.
type Format string

const (
	NTriples Format = "ntriples"
	NQuads   Format = "nquads"
	Turtle   Format = "turtle"
	TriG     Format = "trig"
)

var (
	// ErrUnsupportedFormat is returned for unknown format names and extensions.
	ErrUnsupportedFormat = errors.New("unsupported RDF format")

	// ErrBundlesUnsupported is returned when writing bundles to a format
	// without named graphs.
	ErrBundlesUnsupported = errors.New("format cannot hold bundles")
)

var extensions = map[string]Format{
	".nt":   NTriples,
	".nq":   NQuads,
	".ttl":  Turtle,
	".trig": TriG,
}

var names = map[string]Format{
	"nt":        NTriples,
	"ntriples":  NTriples,
	"n-triples": NTriples,
	"nq":        NQuads,
	"nquads":    NQuads,
	"n-quads":   NQuads,
	"ttl":       Turtle,
	"turtle":    Turtle,
	"trig":      TriG,
}

// FormatFromPath picks a format by file extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if f, ok := extensions[ext]; ok {
		return f, nil
	}
	return "", fmt.Errorf("%w: extension %q", ErrUnsupportedFormat, ext)
}

// ParseFormat resolves a format name such as "trig" or "n-quads".
func ParseFormat(name string) (Format, error) {
	if f, ok := names[strings.ToLower(name)]; ok {
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
}

// SupportsBundles reports whether f has named graphs.
func (f Format) SupportsBundles() bool {
	return f == NQuads || f == TriG
}

// Abbreviated reports whether f uses the Turtle family syntax.
func (f Format) Abbreviated() bool {
	return f == Turtle || f == TriG
}
