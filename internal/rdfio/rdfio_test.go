package rdfio

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/provtmpl/internal/ir"
)

const (
	exNS   = "http://example.org/"
	provNS = "http://www.w3.org/ns/prov#"
	xsdNS  = "http://www.w3.org/2001/XMLSchema#"
	rdfsNS = "http://www.w3.org/2000/01/rdf-schema#"
)

func ex(local string) ir.Term { return ir.NewIRI(exNS + local) }

func tri(s, p, o ir.Term) ir.Statement {
	return ir.Statement{Subject: s, Predicate: p, Object: o}
}

func samplePrefixes() *Prefixes {
	p := DefaultPrefixes()
	p.Set("ex", exNS)
	return p
}

func sampleGraph() *ir.Graph {
	g := ir.NewGraph()
	g.Add(
		tri(ex("act"), rdfType, ir.NewIRI(provNS+"Activity")),
		tri(ex("act"), ir.NewIRI(provNS+"startedAtTime"), ir.NewLiteral("2024-01-01T00:00:00Z", xsdNS+"dateTime")),
		tri(ex("act"), ir.NewIRI(rdfsNS+"label"), ir.NewLangLiteral("run", "en")),
		tri(ex("act"), ir.NewIRI(rdfsNS+"label"), ir.NewLangLiteral("lauf", "de")),
		tri(ir.NewBlank("b1"), ir.NewIRI(provNS+"used"), ex("data%20set")),
	)
	g.Bundle(ex("bundle1")).Add(
		tri(ex("e"), ir.NewIRI(provNS+"wasGeneratedBy"), ex("act")),
		tri(ex("e"), ir.NewIRI(provNS+"value"), ir.NewLiteral("say \"hi\"\n", "")),
	)
	return g
}

func golden(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func parse(t *testing.T, src string, format Format) *Document {
	t.Helper()
	doc, err := Parse(src, format)
	require.NoError(t, err)
	return doc
}

func statements(g *ir.Graph) []ir.Statement {
	return g.Quads()
}

// TestWrite_TriGGolden tests TriG output against the golden file.
func TestWrite_TriGGolden(t *testing.T) {
	out, err := Marshal(sampleGraph(), TriG, samplePrefixes())
	require.NoError(t, err)
	golden(t).Assert(t, "sample_trig", out)
}

// TestWrite_NQuadsGolden tests N-Quads output against the golden file.
func TestWrite_NQuadsGolden(t *testing.T) {
	out, err := Marshal(sampleGraph(), NQuads, nil)
	require.NoError(t, err)
	golden(t).Assert(t, "sample_nquads", out)
}

// TestRoundTrip tests every bundle-capable format reads back what it wrote.
func TestRoundTrip(t *testing.T) {
	for _, format := range []Format{TriG, NQuads} {
		t.Run(string(format), func(t *testing.T) {
			out, err := Marshal(sampleGraph(), format, samplePrefixes())
			require.NoError(t, err)

			doc := parse(t, string(out), format)
			if diff := cmp.Diff(sampleGraph(), doc.Graph); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// TestRoundTrip_Turtle tests Turtle output of a default-graph document.
func TestRoundTrip_Turtle(t *testing.T) {
	g := sampleGraph()
	g.Bundles = nil

	out, err := Marshal(g, Turtle, samplePrefixes())
	require.NoError(t, err)
	assert.NotContains(t, string(out), "{")

	doc := parse(t, string(out), Turtle)
	assert.Equal(t, g.Statements, doc.Graph.Statements)
}

// TestWrite_BundlesUnsupported tests formats without named graphs reject bundles.
func TestWrite_BundlesUnsupported(t *testing.T) {
	for _, format := range []Format{NTriples, Turtle} {
		_, err := Marshal(sampleGraph(), format, nil)
		assert.ErrorIs(t, err, ErrBundlesUnsupported, "format %s", format)
	}
}

// TestWrite_OnlyUsedPrefixes tests unused prefixes are not declared.
func TestWrite_OnlyUsedPrefixes(t *testing.T) {
	g := ir.NewGraph()
	g.Add(tri(ex("a"), ex("p"), ex("b")))

	out, err := Marshal(g, Turtle, samplePrefixes())
	require.NoError(t, err)
	assert.Equal(t, "@prefix ex: <http://example.org/> .\n\nex:a ex:p ex:b .\n", string(out))
}

// TestParse_TurtleAbbreviations tests 'a', ';' and ',' lists.
func TestParse_TurtleAbbreviations(t *testing.T) {
	doc := parse(t, `
@prefix ex: <http://example.org/> .
ex:s a ex:T ;
     ex:p ex:o1 , ex:o2 ;
     .
`, Turtle)

	assert.Equal(t, []ir.Statement{
		tri(ex("s"), rdfType, ex("T")),
		tri(ex("s"), ex("p"), ex("o1")),
		tri(ex("s"), ex("p"), ex("o2")),
	}, statements(doc.Graph))
	ns, ok := doc.Prefixes.Lookup("ex")
	assert.True(t, ok)
	assert.Equal(t, exNS, ns)
}

// TestParse_CollectionsAndBlankNodes tests anonymous nodes avoid explicit labels.
func TestParse_CollectionsAndBlankNodes(t *testing.T) {
	doc := parse(t, `
@prefix ex: <http://example.org/> .
_:b0 ex:q ex:r .
ex:s ex:list ( ex:a "b" 1 ) .
[ ex:p ex:o ] .
`, Turtle)

	b := ir.NewBlank
	one := ir.NewLiteral("1", ir.XSDInteger)
	assert.Equal(t, []ir.Statement{
		tri(b("b0"), ex("q"), ex("r")),
		tri(b("b1"), rdfFirst, ex("a")),
		tri(b("b1"), rdfRest, b("b2")),
		tri(b("b2"), rdfFirst, ir.NewLiteral("b", "")),
		tri(b("b2"), rdfRest, b("b3")),
		tri(b("b3"), rdfFirst, one),
		tri(b("b3"), rdfRest, rdfNil),
		tri(ex("s"), ex("list"), b("b1")),
		tri(b("b4"), ex("p"), ex("o")),
	}, statements(doc.Graph))
}

// TestParse_EmptyCollection tests () is rdf:nil.
func TestParse_EmptyCollection(t *testing.T) {
	doc := parse(t, `<http://example.org/s> <http://example.org/p> () .`, Turtle)
	assert.Equal(t, []ir.Statement{tri(ex("s"), ex("p"), rdfNil)}, statements(doc.Graph))
}

// TestParse_Literals tests literal forms and shorthand.
func TestParse_Literals(t *testing.T) {
	doc := parse(t, `
@prefix ex: <http://example.org/> .
@prefix xsd: <http://www.w3.org/2001/XMLSchema#> .
ex:s ex:p "x"@EN-us, 'single', """long
"line\"""", "7"^^xsd:int, "eé\t", 1.5, -2, 1e3, .5, true, false .
`, Turtle)

	var objects []ir.Term
	for _, st := range doc.Graph.Statements {
		objects = append(objects, st.Object)
	}
	assert.Equal(t, []ir.Term{
		ir.NewLangLiteral("x", "en-us"),
		ir.NewLiteral("single", ""),
		ir.NewLiteral("long\n\"line\"", ""),
		ir.NewLiteral("7", xsdNS+"int"),
		ir.NewLiteral("eé\t", ""),
		ir.NewLiteral("1.5", ir.XSDDecimal),
		ir.NewLiteral("-2", ir.XSDInteger),
		ir.NewLiteral("1e3", ir.XSDDouble),
		ir.NewLiteral(".5", ir.XSDDecimal),
		ir.NewLiteral("true", ir.XSDBoolean),
		ir.NewLiteral("false", ir.XSDBoolean),
	}, objects)
}

// TestParse_IntegerBeforeDot tests a trailing dot ends the statement.
func TestParse_IntegerBeforeDot(t *testing.T) {
	doc := parse(t, `<http://example.org/s> <http://example.org/p> 42.`, Turtle)
	assert.Equal(t, ir.NewLiteral("42", ir.XSDInteger), doc.Graph.Statements[0].Object)
}

// TestParse_Base tests relative IRIs resolve against the base.
func TestParse_Base(t *testing.T) {
	doc := parse(t, `
@base <http://example.org/dir/> .
<a> <p> <../b> .
BASE <http://other.org/>
<c> <p> <d> .
`, Turtle)

	assert.Equal(t, []ir.Statement{
		tri(ir.NewIRI("http://example.org/dir/a"), ir.NewIRI("http://example.org/dir/p"), ex("b")),
		tri(ir.NewIRI("http://other.org/c"), ir.NewIRI("http://other.org/p"), ir.NewIRI("http://other.org/d")),
	}, statements(doc.Graph))
	assert.Equal(t, "http://other.org/", doc.Base)
}

// TestParse_SPARQLPrefix tests PREFIX without a trailing dot.
func TestParse_SPARQLPrefix(t *testing.T) {
	doc := parse(t, "PREFIX ex: <http://example.org/>\nex:s ex:p ex:o .", Turtle)
	assert.Equal(t, []ir.Statement{tri(ex("s"), ex("p"), ex("o"))}, statements(doc.Graph))
}

// TestDocument_UUIDNamespace tests that only a declared uuid prefix is reported.
func TestDocument_UUIDNamespace(t *testing.T) {
	doc := parse(t, "@prefix uuid: <http://example.org/id/> .\n@prefix ex: <http://example.org/> .\nex:s ex:p ex:o .", Turtle)
	ns, ok := doc.UUIDNamespace()
	assert.True(t, ok)
	assert.Equal(t, "http://example.org/id/", ns)

	doc = parse(t, "@prefix ex: <http://example.org/> .\nex:s ex:p ex:o .", Turtle)
	_, ok = doc.UUIDNamespace()
	assert.False(t, ok)
}

// TestParse_LocalNames tests escapes and dots in prefixed names.
func TestParse_LocalNames(t *testing.T) {
	doc := parse(t, `
@prefix ex: <http://example.org/> .
@prefix : <http://default.org/> .
ex:a.b ex:p :x\-y.
`, Turtle)

	assert.Equal(t, []ir.Statement{
		tri(ex("a.b"), ex("p"), ir.NewIRI("http://default.org/x-y")),
	}, statements(doc.Graph))
}

// TestParse_TriGGraphs tests every graph block form.
func TestParse_TriGGraphs(t *testing.T) {
	doc := parse(t, `
@prefix ex: <http://example.org/> .
ex:d ex:p ex:o .
GRAPH ex:g { ex:s ex:p ex:o }
ex:h {
  ex:s ex:p ex:o .
  ex:s ex:q ex:o .
}
{ ex:d ex:q ex:o }
_:bg { [ ex:p ex:o ] }
ex:empty { }
`, TriG)

	g := doc.Graph
	assert.Equal(t, []ir.Statement{
		tri(ex("d"), ex("p"), ex("o")),
		tri(ex("d"), ex("q"), ex("o")),
	}, g.Statements)

	var ids []ir.Term
	for _, b := range g.Bundles {
		ids = append(ids, b.ID)
	}
	assert.Equal(t, []ir.Term{ex("g"), ex("h"), ir.NewBlank("bg"), ex("empty")}, ids)
	assert.Len(t, g.Bundles[1].Graph.Statements, 2)
	assert.Equal(t, ex("h"), g.Bundles[1].Graph.Statements[1].Graph)
	assert.Equal(t, ir.NewBlank("b0"), g.Bundles[2].Graph.Statements[0].Subject)
	assert.Empty(t, g.Bundles[3].Graph.Statements)
}

// TestParse_TurtleRejectsGraphs tests graph blocks are TriG only.
func TestParse_TurtleRejectsGraphs(t *testing.T) {
	_, err := Parse("<http://example.org/g> { <http://example.org/s> <http://example.org/p> <http://example.org/o> }", Turtle)
	assert.True(t, IsSyntaxError(err))
}

// TestParse_NQuads tests line-based input with comments and graphs.
func TestParse_NQuads(t *testing.T) {
	doc := parse(t, strings.Join([]string{
		"# header",
		"",
		`<http://example.org/s> <http://example.org/p> "v" .`,
		`_:x <http://example.org/p> <http://example.org/o> <http://example.org/g> . # trailing`,
		`<http://example.org/s> <http://example.org/p> "é"@fr _:g .`,
	}, "\n"), NQuads)

	assert.Equal(t, []ir.Statement{tri(ex("s"), ex("p"), ir.NewLiteral("v", ""))}, doc.Graph.Statements)
	require.Len(t, doc.Graph.Bundles, 2)
	assert.Equal(t, ir.NewBlank("g"), doc.Graph.Bundles[1].ID)
	assert.Equal(t, ir.NewLangLiteral("é", "fr"), doc.Graph.Bundles[1].Graph.Statements[0].Object)
}

// TestParseQuad tests the single-line form read back from the store.
func TestParseQuad(t *testing.T) {
	st, err := ParseQuad("_:b1 <http://example.org/p> \"v\"@en <http://example.org/g> .\n")
	require.NoError(t, err)
	assert.Equal(t, ir.NewBlank("b1"), st.Subject)
	assert.Equal(t, ir.NewLangLiteral("v", "en"), st.Object)
	assert.Equal(t, ex("g"), st.Graph)

	_, err = ParseQuad("<http://example.org/s> <http://example.org/p>")
	assert.True(t, IsSyntaxError(err))
}

// TestParse_NTriplesRejectsGraph tests N-Triples has no graph term.
func TestParse_NTriplesRejectsGraph(t *testing.T) {
	_, err := Parse(`<http://example.org/s> <http://example.org/p> <http://example.org/o> <http://example.org/g> .`, NTriples)
	assert.True(t, IsSyntaxError(err))
}

// TestParse_NTriplesRejectsPrefixedNames tests abbreviations are Turtle only.
func TestParse_NTriplesRejectsPrefixedNames(t *testing.T) {
	_, err := Parse(`ex:s <http://example.org/p> <http://example.org/o> .`, NTriples)
	assert.True(t, IsSyntaxError(err))
}

// TestParse_SyntaxErrorPosition tests errors report their line.
func TestParse_SyntaxErrorPosition(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		format Format
		line   int
	}{
		{"undefined prefix", "\n\nex:s <http://example.org/p> 1 .", Turtle, 3},
		{"unterminated string", "@prefix ex: <http://example.org/> .\nex:s ex:p \"open .", Turtle, 2},
		{"missing dot", "<http://example.org/s> <http://example.org/p> <http://example.org/o>\n", NQuads, 1},
		{"space in IRI", "<http://example.org/a b> <http://example.org/p> <http://example.org/o> .", NTriples, 1},
		{"unknown directive", "@foo <x> .", Turtle, 1},
		{"third quad", "<http://example.org/s> <http://example.org/p> \"a\" .\n\n<http://example.org/s> <http://example.org/p> .", NQuads, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.src, tt.format)
			var se *SyntaxError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.line, se.Line)
			assert.Equal(t, tt.format, se.Format)
		})
	}
}

// TestReadFile tests format detection from the file extension.
func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.trig")
	require.NoError(t, WriteFile(path, sampleGraph(), samplePrefixes()))

	doc, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 7, doc.Graph.Len())

	_, err = ReadFile(filepath.Join(dir, "doc.rdf"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(raw, []byte("@prefix prov:")))
}

// TestFormats tests format names and extensions.
func TestFormats(t *testing.T) {
	f, err := FormatFromPath("x/y.TTL")
	require.NoError(t, err)
	assert.Equal(t, Turtle, f)

	f, err = ParseFormat("N-Quads")
	require.NoError(t, err)
	assert.Equal(t, NQuads, f)

	_, err = ParseFormat("rdfxml")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	assert.True(t, TriG.SupportsBundles())
	assert.False(t, Turtle.SupportsBundles())
}

// TestPrefixesCompact tests longest-namespace compaction.
func TestPrefixesCompact(t *testing.T) {
	p := NewPrefixes(
		Prefix{"ex", "http://example.org/"},
		Prefix{"exv", "http://example.org/vocab#"},
	)

	_, name, ok := p.Compact("http://example.org/vocab#term")
	assert.True(t, ok)
	assert.Equal(t, "exv:term", name)

	_, name, ok = p.Compact("http://example.org/a-b.c")
	assert.True(t, ok)
	assert.Equal(t, "ex:a-b.c", name)

	for _, iri := range []string{"http://example.org/a/b", "http://example.org/end.", "http://example.org/-x", "http://other.org/x"} {
		_, _, ok := p.Compact(iri)
		assert.False(t, ok, iri)
	}
}

// TestPrefixesSetReplaces tests rebinding keeps the original position.
func TestPrefixesSetReplaces(t *testing.T) {
	p := NewPrefixes(Prefix{"a", "urn:a:"}, Prefix{"b", "urn:b:"})
	p.Set("a", "urn:z:")
	p.Merge(NewPrefixes(Prefix{"a", "urn:ignored:"}, Prefix{"c", "urn:c:"}))

	assert.Equal(t, []Prefix{{"a", "urn:z:"}, {"b", "urn:b:"}, {"c", "urn:c:"}}, p.List())
}
