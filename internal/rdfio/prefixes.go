package rdfio

import (
	"strings"

	"github.com/roach88/provtmpl/internal/config"
)

// Prefix binds a prefix name to a namespace IRI.
type Prefix struct {
	Name      string
	Namespace string
}

// Prefixes is an ordered prefix map. Later bindings of a name replace the
// namespace in place.
type Prefixes struct {
	list []Prefix
}

// NewPrefixes creates a prefix map from ps.
func NewPrefixes(ps ...Prefix) *Prefixes {
	p := &Prefixes{}
	for _, x := range ps {
		p.Set(x.Name, x.Namespace)
	}
	return p
}

// DefaultPrefixes returns the prefixes used by PROV templates.
func DefaultPrefixes() *Prefixes {
	return NewPrefixes(
		Prefix{"prov", config.ProvNamespace},
		Prefix{"xsd", "http://www.w3.org/2001/XMLSchema#"},
		Prefix{"rdf", "http://www.w3.org/1999/02/22-rdf-syntax-ns#"},
		Prefix{"rdfs", "http://www.w3.org/2000/01/rdf-schema#"},
		Prefix{"tmpl", config.DefaultTmplNamespace},
		Prefix{"var", config.DefaultVarNamespace},
		Prefix{"vargen", config.DefaultVargenNamespace},
		Prefix{"uuid", config.DefaultUUIDNamespace},
	)
}

// Set binds name to namespace.
func (p *Prefixes) Set(name, namespace string) {
	for i := range p.list {
		if p.list[i].Name == name {
			p.list[i].Namespace = namespace
			return
		}
	}
	p.list = append(p.list, Prefix{Name: name, Namespace: namespace})
}

// Lookup returns the namespace bound to name.
func (p *Prefixes) Lookup(name string) (string, bool) {
	if p == nil {
		return "", false
	}
	for _, x := range p.list {
		if x.Name == name {
			return x.Namespace, true
		}
	}
	return "", false
}

// List returns the bindings in declaration order.
func (p *Prefixes) List() []Prefix {
	if p == nil {
		return nil
	}
	return append([]Prefix(nil), p.list...)
}

// Merge adds the bindings of other whose names are not yet bound.
func (p *Prefixes) Merge(other *Prefixes) {
	for _, x := range other.List() {
		if _, ok := p.Lookup(x.Name); !ok {
			p.Set(x.Name, x.Namespace)
		}
	}
}

// Compact returns iri as a prefixed name using the longest matching
// namespace, or false when no binding yields a valid local name.
func (p *Prefixes) Compact(iri string) (Prefix, string, bool) {
	var best Prefix
	found := false
	for _, x := range p.List() {
		if x.Namespace == "" || !strings.HasPrefix(iri, x.Namespace) {
			continue
		}
		if found && len(x.Namespace) <= len(best.Namespace) {
			continue
		}
		if !validLocal(iri[len(x.Namespace):]) {
			continue
		}
		best, found = x, true
	}
	if !found {
		return Prefix{}, "", false
	}
	return best, best.Name + ":" + iri[len(best.Namespace):], true
}

// validLocal accepts a conservative ASCII subset of Turtle local names.
func validLocal(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case isASCIILetter(c) || isDigit(c) || c == '_':
		case (c == '-' || c == '.') && i > 0:
		default:
			return false
		}
	}
	return s == "" || s[len(s)-1] != '.'
}

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
