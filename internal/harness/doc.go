// Package harness provides conformance testing for PROV template expansion.
//
// The harness loads a template and its bindings, expands them, records the
// run in a scratch store, and checks the output read back from the store
// against the scenario's expectations.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: linked_lockstep
//	description: "Linked variables advance together"
//	template: |
//	  @prefix var: <http://openprovenance.org/var#> .
//	  @prefix tmpl: <http://openprovenance.org/tmpl#> .
//	  @prefix ex: <http://example.org/> .
//	  var:a ex:p var:b .
//	  var:a tmpl:linked var:b .
//	bindings: |
//	  ...
//	expect:
//	  statements:
//	    - "<http://example.org/a0> <http://example.org/p> <http://example.org/b0> ."
//	assertions:
//	  - type: count
//	    count: 2
//	golden: ../golden/linked_lockstep.golden
//
// template and bindings hold inline documents in the format named by
// format (default trig). template_file and bindings_file name documents on
// disk, relative to the scenario file; their format follows the
// extension. bindings_format: v3 reads JSON bindings instead.
//
// expect.error names an expansion error code (for example
// UNBOUND_VARIABLE); the scenario passes only if expansion fails with it.
// expect.statements lists the exact output in order, as N-Quads lines.
//
// # Assertion Types
//
//   - contains: every listed statement is in the output
//   - absent: no listed statement is in the output
//   - order: the listed statements appear in this relative order
//   - count: the output has exactly count statements, optionally only
//     counting those with the given predicate
//   - bundles: the output's top-level bundle identifiers, in order
//
// # Deterministic Testing
//
// Generated identifiers come from testutil.SequenceGenerator unless the
// scenario sets options.ids: seeded, so golden files stay readable.
// Each scenario runs against a fresh in-memory SQLite store.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/lockstep.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
