package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/provtmpl/internal/ir"
	"github.com/roach88/provtmpl/internal/rdfio"
)

// RunWithGolden executes a scenario and compares its output against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if the scenario cannot run or its expansion fails.
// Test failure (via goldie) occurs if the output doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares a result's output against a golden file without
// re-running the scenario. The output is rendered as TriG with the
// default prefixes.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	quads := make([]ir.Statement, 0, len(result.Output))
	for _, line := range result.Output {
		st, err := rdfio.ParseQuad(line)
		if err != nil {
			return err
		}
		quads = append(quads, st)
	}

	data, err := GoldenOutput(ir.FromQuads(quads), nil)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
