package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sampleOutput = []string{
	"<http://example.org/a> <http://example.org/p> <http://example.org/b> .",
	"<http://example.org/b> <http://example.org/q> \"x\" .",
	"<http://example.org/c> <http://example.org/p> <http://example.org/d> <http://example.org/g> .",
}

func TestAssertContains(t *testing.T) {
	err := assertContains(sampleOutput, Assertion{
		Type:       AssertContains,
		Statements: []string{"<http://example.org/b>  <http://example.org/q>  \"x\" ."},
	})
	assert.NoError(t, err)

	err = assertContains(sampleOutput, Assertion{
		Type:       AssertContains,
		Statements: []string{"<http://example.org/a> <http://example.org/p> <http://example.org/z> ."},
	})
	require.Error(t, err)

	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, AssertContains, ae.Type)
	assert.Contains(t, ae.Actual, "example.org/z")
	assert.Equal(t, sampleOutput, ae.Output)
}

func TestAssertContains_GraphMatters(t *testing.T) {
	err := assertContains(sampleOutput, Assertion{
		Type:       AssertContains,
		Statements: []string{"<http://example.org/c> <http://example.org/p> <http://example.org/d> ."},
	})
	assert.Error(t, err)
}

func TestAssertAbsent(t *testing.T) {
	err := assertAbsent(sampleOutput, Assertion{
		Type:       AssertAbsent,
		Statements: []string{"<http://example.org/a> <http://example.org/p> <http://example.org/d> ."},
	})
	assert.NoError(t, err)

	err = assertAbsent(sampleOutput, Assertion{
		Type:       AssertAbsent,
		Statements: []string{sampleOutput[0]},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "found")
}

func TestAssertOrder(t *testing.T) {
	tests := []struct {
		name    string
		lines   []string
		wantErr string
	}{
		{
			name:  "in order, not consecutive",
			lines: []string{sampleOutput[0], sampleOutput[2]},
		},
		{
			name:    "out of order",
			lines:   []string{sampleOutput[2], sampleOutput[1]},
			wantErr: "before position",
		},
		{
			name:    "missing",
			lines:   []string{sampleOutput[0], "<http://example.org/z> <http://example.org/p> <http://example.org/z> ."},
			wantErr: "not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := assertOrder(sampleOutput, Assertion{Type: AssertOrder, Statements: tt.lines})
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestAssertCount(t *testing.T) {
	assert.NoError(t, assertCount(sampleOutput, Assertion{Type: AssertCount, Count: 3}))
	assert.NoError(t, assertCount(sampleOutput, Assertion{Type: AssertCount, Count: 2, Predicate: "http://example.org/p"}))
	assert.NoError(t, assertCount(nil, Assertion{Type: AssertCount}))

	err := assertCount(sampleOutput, Assertion{Type: AssertCount, Count: 1, Predicate: "http://example.org/p"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 statements with predicate http://example.org/p")
}

func TestAssertBundles(t *testing.T) {
	result := &Result{Bundles: []string{"<http://example.org/b1>", "_:b"}}

	assert.NoError(t, assertBundles(result, Assertion{
		Type:    AssertBundles,
		Bundles: []string{"<http://example.org/b1>", "_:b"},
	}))

	err := assertBundles(result, Assertion{
		Type:    AssertBundles,
		Bundles: []string{"_:b", "<http://example.org/b1>"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Assertion failed: bundles")
}

func TestEvaluateAssertions(t *testing.T) {
	result := &Result{Output: sampleOutput}

	errs := EvaluateAssertions(result, []Assertion{
		{Type: AssertCount, Count: 3},
		{Type: AssertContains, Statements: []string{sampleOutput[1]}},
		{Type: AssertCount, Count: 7},
		{Type: "bogus"},
	})

	require.Len(t, errs, 2)
	assert.Contains(t, errs[0], "Expected: 7 statements")
	assert.Contains(t, errs[1], `unknown assertion type "bogus"`)
}

func TestAssertionError_Format(t *testing.T) {
	err := &AssertionError{
		Type:     AssertCount,
		Expected: "1 statements",
		Actual:   "2 statements",
		Output:   []string{"a", "b"},
	}

	want := "Assertion failed: count\n" +
		"  Expected: 1 statements\n" +
		"  Actual: 2 statements\n" +
		"\nFull output:\n" +
		"  [1] a\n" +
		"  [2] b\n"
	assert.Equal(t, want, err.Error())
}
