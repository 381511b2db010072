package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const templateTTL = `@prefix prov: <http://www.w3.org/ns/prov#> .
@prefix var: <http://openprovenance.org/var#> .
@prefix tmpl: <http://openprovenance.org/tmpl#> .
@prefix ex: <http://example.org/> .

var:output prov:wasDerivedFrom var:input .
var:output tmpl:linked var:input .
`

const bindingsTTL = `@prefix var: <http://openprovenance.org/var#> .
@prefix tmpl: <http://openprovenance.org/tmpl#> .
@prefix ex: <http://example.org/> .

var:input tmpl:value_0 ex:raw1 ; tmpl:value_1 ex:raw2 .
var:output tmpl:value_0 ex:clean1 ; tmpl:value_1 ex:clean2 .
`

const bindingsJSON = `{
  "context": {"ex": "http://example.org/"},
  "var": {
    "input": [{"@id": "ex:raw1"}, {"@id": "ex:raw2"}],
    "output": [{"@id": "ex:clean1"}, {"@id": "ex:clean2"}]
  }
}
`

// Linked lengths disagree.
const inconsistentTTL = `@prefix var: <http://openprovenance.org/var#> .
@prefix tmpl: <http://openprovenance.org/tmpl#> .
@prefix ex: <http://example.org/> .

var:input tmpl:value_0 ex:raw1 ; tmpl:value_1 ex:raw2 .
var:output tmpl:value_0 ex:clean1 .
`

const expandedTriG = `@prefix prov: <http://www.w3.org/ns/prov#> .
@prefix ex: <http://example.org/> .

ex:clean1 prov:wasDerivedFrom ex:raw1 .
ex:clean2 prov:wasDerivedFrom ex:raw2 .
`

const expandedNQuads = `<http://example.org/clean1> <http://www.w3.org/ns/prov#wasDerivedFrom> <http://example.org/raw1> .
<http://example.org/clean2> <http://www.w3.org/ns/prov#wasDerivedFrom> <http://example.org/raw2> .
`

// writeFile writes content to name under dir and returns the path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// fixture holds the standard template and bindings files.
type fixture struct {
	dir      string
	template string
	bindings string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	return fixture{
		dir:      dir,
		template: writeFile(t, dir, "template.ttl", templateTTL),
		bindings: writeFile(t, dir, "bindings.ttl", bindingsTTL),
	}
}

// execute runs the root command with args and returns stdout, stderr and
// the command error.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}

	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), errOut.String(), err
}
