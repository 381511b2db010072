package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/provtmpl/internal/ir"
	"github.com/roach88/provtmpl/internal/store"
)

// recordFixture expands the fixture into a new database and returns its
// path and the run identifier.
func recordFixture(t *testing.T, f fixture) (string, string) {
	t.Helper()
	dbPath := filepath.Join(f.dir, "runs.db")

	out, _, err := execute(t, "--format", "json", "expand", "-t", f.template, "-b", f.bindings, "--db", dbPath, "-o", filepath.Join(f.dir, "out.trig"))
	require.NoError(t, err)

	var resp struct {
		Data ExpandResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.True(t, resp.Data.Recorded)
	return dbPath, resp.Data.RunID
}

func TestReplay_MissingDatabaseFlag(t *testing.T) {
	_, _, err := execute(t, "replay", "-t", "template.ttl")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestReplay_Deterministic(t *testing.T) {
	f := newFixture(t)
	dbPath, runID := recordFixture(t, f)

	out, _, err := execute(t, "replay", "--db", dbPath, "-t", f.template, "-b", f.bindings)
	require.NoError(t, err)
	assert.Contains(t, out, "Replay: run "+runID+", 2 statement(s)")
	assert.Contains(t, out, "✓ Replay matches the recorded run")

	out, _, err = execute(t, "--format", "json", "replay", "--db", dbPath, "--run", runID, "-t", f.template, "-b", f.bindings, "--workers", "3")
	require.NoError(t, err)

	var resp struct {
		Status string       `json:"status"`
		Data   ReplayResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Deterministic)
	assert.Equal(t, -1, resp.Data.FirstDifference)
	assert.Equal(t, resp.Data.RecordedHash, resp.Data.ReplayedHash)
}

func TestReplay_WrongRun(t *testing.T) {
	f := newFixture(t)
	dbPath, _ := recordFixture(t, f)

	out, _, err := execute(t, "replay", "--db", dbPath, "--run", "not-this-run", "-t", f.template, "-b", f.bindings)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E305]")
}

func TestReplay_RunNotRecorded(t *testing.T) {
	f := newFixture(t)
	dbPath, _ := recordFixture(t, f)
	other := writeFile(t, f.dir, "other.ttl", `@prefix var: <http://openprovenance.org/var#> .
@prefix tmpl: <http://openprovenance.org/tmpl#> .
@prefix ex: <http://example.org/> .

var:input tmpl:value_0 ex:raw9 .
var:output tmpl:value_0 ex:clean9 .
`)

	out, _, err := execute(t, "replay", "--db", dbPath, "-t", f.template, "-b", other)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E304]")
}

func TestReplay_DetectsDifference(t *testing.T) {
	f := newFixture(t)
	dbPath, runID := recordFixture(t, f)

	// Tamper with the recorded output.
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	_, err = st.DB().ExecContext(context.Background(),
		`UPDATE statements SET quad = ? WHERE run_id = ? AND seq = 2`,
		"<http://example.org/clean2> <http://www.w3.org/ns/prov#wasDerivedFrom> <http://example.org/tampered> .", runID)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, _, err := execute(t, "--format", "json", "replay", "--db", dbPath, "-t", f.template, "-b", f.bindings)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string       `json:"status"`
		Data   ReplayResult `json:"data"`
		Error  *CLIError    `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, ErrCodeReplayMismatch, resp.Error.Code)
	assert.False(t, resp.Data.Deterministic)
	assert.Equal(t, 1, resp.Data.FirstDifference)
	assert.Contains(t, resp.Data.Recorded, "tampered")
	assert.Contains(t, resp.Data.Replayed, "raw2")
}

func TestCompareReplay(t *testing.T) {
	p := ir.NewIRI("http://example.org/p")
	a := ir.Statement{Subject: ir.NewIRI("http://example.org/a"), Predicate: p, Object: ir.NewIRI("http://example.org/b")}
	b := ir.Statement{Subject: ir.NewIRI("http://example.org/b"), Predicate: p, Object: ir.NewIRI("http://example.org/c")}
	run := store.Run{ID: "run", OutputHash: "h1"}

	tests := []struct {
		name          string
		recorded      []ir.Statement
		replayed      []ir.Statement
		hash          string
		deterministic bool
		first         int
	}{
		{"identical", []ir.Statement{a, b}, []ir.Statement{a, b}, "h1", true, -1},
		{"reordered", []ir.Statement{a, b}, []ir.Statement{b, a}, "h2", false, 0},
		{"extra statement", []ir.Statement{a}, []ir.Statement{a, b}, "h2", false, 1},
		{"missing statement", []ir.Statement{a, b}, []ir.Statement{a}, "h2", false, 1},
		{"hash differs", []ir.Statement{a}, []ir.Statement{a}, "h2", false, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := compareReplay(run, tt.recorded, tt.hash, tt.replayed)
			assert.Equal(t, tt.deterministic, got.Deterministic)
			assert.Equal(t, tt.first, got.FirstDifference)
			assert.Equal(t, len(tt.replayed), got.Statements)
		})
	}
}
