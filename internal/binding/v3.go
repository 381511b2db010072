package binding

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/roach88/provtmpl/internal/config"
	"github.com/roach88/provtmpl/internal/ir"
)

// Prefixes every v3 document may use without declaring them.
var builtinPrefixes = map[string]string{
	"xsd":  "http://www.w3.org/2001/XMLSchema#",
	"prov": config.ProvNamespace,
	"rdf":  "http://www.w3.org/1999/02/22-rdf-syntax-ns#",
	"rdfs": "http://www.w3.org/2000/01/rdf-schema#",
}

// v3Document is the JSON "v3" bindings layout.
type v3Document struct {
	Context map[string]string            `json:"context"`
	Var     map[string][]json.RawMessage `json:"var"`
	Vargen  map[string][]json.RawMessage `json:"vargen"`
}

// ReadV3 reads JSON v3 bindings:
//
//	{
//	  "context": {"ex": "http://example.org/"},
//	  "var":    {"x": [{"@id": "ex:a"}, {"@value": "1", "@type": "xsd:int"}],
//	             "label": [[{"@value": "a"}, {"@value": "b"}]]},
//	  "vargen": {"id": [{"@id": "ex:run1"}]}
//	}
//
// Keys of "var" and "vargen" are local names under the vocabulary's
// namespaces. A nested array is a two-dimensional instance. An empty
// array marks the variable explicitly empty. Variables are added in
// sorted key order, var before vargen.
func ReadV3(r io.Reader, vocab config.Vocabulary) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read v3 bindings: %w", err)
	}

	var doc v3Document
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, &FormatError{Message: fmt.Sprintf("invalid v3 document: %v", err)}
	}

	prefixes := make(map[string]string, len(builtinPrefixes)+len(doc.Context))
	for k, v := range builtinPrefixes {
		prefixes[k] = v
	}
	for k, v := range doc.Context {
		prefixes[k] = v
	}
	rd := v3Reader{prefixes: prefixes}

	t := NewTable()
	sections := []struct {
		ns   string
		vars map[string][]json.RawMessage
	}{
		{vocab.VarNamespace, doc.Var},
		{vocab.VargenNamespace, doc.Vargen},
	}
	for _, sec := range sections {
		for _, name := range sortedKeys(sec.vars) {
			v := ir.NewIRI(sec.ns + name)
			instances, err := rd.instances(sec.vars[name])
			if err != nil {
				return nil, &FormatError{Variable: v, Message: err.Error()}
			}
			t.Set(v, instances)
		}
	}
	return t, nil
}

type v3Reader struct {
	prefixes map[string]string
}

func (rd v3Reader) instances(raw []json.RawMessage) ([][]ir.Term, error) {
	out := make([][]ir.Term, 0, len(raw))
	for i, msg := range raw {
		msg = bytes.TrimSpace(msg)
		if len(msg) > 0 && msg[0] == '[' {
			var inner []json.RawMessage
			if err := json.Unmarshal(msg, &inner); err != nil {
				return nil, fmt.Errorf("instance %d: %v", i, err)
			}
			if len(inner) == 0 {
				return nil, fmt.Errorf("instance %d: empty value list", i)
			}
			vals := make([]ir.Term, len(inner))
			for j, m := range inner {
				term, err := rd.term(m)
				if err != nil {
					return nil, fmt.Errorf("instance %d value %d: %v", i, j, err)
				}
				vals[j] = term
			}
			out = append(out, vals)
			continue
		}
		term, err := rd.term(msg)
		if err != nil {
			return nil, fmt.Errorf("instance %d: %v", i, err)
		}
		out = append(out, []ir.Term{term})
	}
	return out, nil
}

// v3Value is one value record. Exactly one of ID and Value is set.
type v3Value struct {
	ID       *string          `json:"@id"`
	Value    *json.RawMessage `json:"@value"`
	Type     *string          `json:"@type"`
	Language *string          `json:"@language"`
}

func (rd v3Reader) term(msg json.RawMessage) (ir.Term, error) {
	msg = bytes.TrimSpace(msg)
	if len(msg) == 0 {
		return ir.Term{}, fmt.Errorf("empty value")
	}
	if msg[0] != '{' {
		return rd.scalar(msg, nil, nil)
	}

	var rec v3Value
	dec := json.NewDecoder(bytes.NewReader(msg))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&rec); err != nil {
		return ir.Term{}, err
	}

	switch {
	case rec.ID != nil && rec.Value != nil:
		return ir.Term{}, fmt.Errorf("record has both @id and @value")
	case rec.ID != nil:
		iri, err := rd.expand(*rec.ID)
		if err != nil {
			return ir.Term{}, err
		}
		if strings.HasPrefix(iri, "_:") {
			return ir.NewBlank(iri), nil
		}
		return ir.NewIRI(iri), nil
	case rec.Value != nil:
		return rd.scalar(*rec.Value, rec.Type, rec.Language)
	default:
		return ir.Term{}, fmt.Errorf("record needs @id or @value")
	}
}

func (rd v3Reader) scalar(msg json.RawMessage, typ, lang *string) (ir.Term, error) {
	dec := json.NewDecoder(bytes.NewReader(msg))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return ir.Term{}, err
	}

	var lexical, datatype string
	switch x := v.(type) {
	case string:
		lexical, datatype = x, ir.XSDString
	case json.Number:
		lexical = x.String()
		datatype = ir.XSDInteger
		if strings.ContainsAny(lexical, ".eE") {
			datatype = ir.XSDDouble
		}
	case bool:
		lexical, datatype = fmt.Sprint(x), ir.XSDBoolean
	default:
		return ir.Term{}, fmt.Errorf("unsupported value %s", string(msg))
	}

	if lang != nil {
		if typ != nil {
			return ir.Term{}, fmt.Errorf("value has both @type and @language")
		}
		return ir.NewLangLiteral(lexical, *lang), nil
	}
	if typ != nil {
		dt, err := rd.expand(*typ)
		if err != nil {
			return ir.Term{}, err
		}
		datatype = dt
	}
	return ir.NewLiteral(lexical, datatype), nil
}

// expand resolves a prefixed name through the context. Absolute IRIs and
// blank labels pass through.
func (rd v3Reader) expand(name string) (string, error) {
	if strings.HasPrefix(name, "_:") {
		return name, nil
	}
	prefix, local, ok := strings.Cut(name, ":")
	if !ok {
		return "", fmt.Errorf("%q is not a qualified name", name)
	}
	if ns, ok := rd.prefixes[prefix]; ok {
		if strings.Contains(local, ":") {
			return "", fmt.Errorf("invalid qualified name %q", name)
		}
		return ns + local, nil
	}
	if strings.HasPrefix(local, "//") || prefix == "urn" {
		return name, nil
	}
	return "", fmt.Errorf("unknown prefix %q in %q", prefix, name)
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
