package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/provtmpl/internal/engine"
	"github.com/roach88/provtmpl/internal/rdfio"
)

// Scenario defines a conformance test scenario.
// A scenario expands one template with one set of bindings and asserts on
// the output or on the error the expansion reports.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Template is an inline template document in Format.
	Template string `yaml:"template,omitempty"`

	// TemplateFile is a template document on disk.
	// Relative paths are resolved against the scenario file location.
	TemplateFile string `yaml:"template_file,omitempty"`

	// Bindings is an inline bindings document in Format, or JSON when
	// BindingsFormat is v3. Empty means no bindings.
	Bindings string `yaml:"bindings,omitempty"`

	// BindingsFile is a bindings document on disk.
	BindingsFile string `yaml:"bindings_file,omitempty"`

	// Format is the RDF format of inline documents. Default: trig.
	Format string `yaml:"format,omitempty"`

	// BindingsFormat selects "v3" JSON bindings. Empty means RDF.
	BindingsFormat string `yaml:"bindings_format,omitempty"`

	// Config is an optional CUE configuration file.
	Config string `yaml:"config,omitempty"`

	// Options tune the engine for this scenario.
	Options Options `yaml:"options,omitempty"`

	// Expect specifies the exact expected outcome.
	Expect Expect `yaml:"expect,omitempty"`

	// Assertions validate properties of the output.
	Assertions []Assertion `yaml:"assertions,omitempty"`

	// Golden is an optional golden file holding the TriG rendering of the
	// output. Relative paths are resolved against the scenario file.
	Golden string `yaml:"golden,omitempty"`
}

// Options configure the engine for one scenario.
type Options struct {
	// Workers is the number of concurrent batch rewriters. Default: 1.
	Workers int `yaml:"workers,omitempty"`

	// MaxInstantiations overrides the instantiation ceiling.
	MaxInstantiations int `yaml:"max_instantiations,omitempty"`

	// IDs selects the vargen identifier source: "sequence" (default) or
	// "seeded".
	IDs string `yaml:"ids,omitempty"`
}

// Identifier sources for Options.IDs.
const (
	IDsSequence = "sequence"
	IDsSeeded   = "seeded"
)

// BindingsFormatV3 selects JSON v3 bindings.
const BindingsFormatV3 = "v3"

// Expect specifies the expected outcome of the expansion.
type Expect struct {
	// Error is the expected expansion error code.
	Error string `yaml:"error,omitempty"`

	// Statements is the exact expected output as N-Quads lines, in order.
	Statements []string `yaml:"statements,omitempty"`
}

// Assertion validates a property of the expansion output.
type Assertion struct {
	// Type specifies the assertion type:
	// - "contains": every statement appears in the output
	// - "absent": no statement appears in the output
	// - "order": statements appear in the listed relative order
	// - "count": the output has exactly Count statements
	// - "bundles": the top-level bundle identifiers equal Bundles
	Type string `yaml:"type"`

	// Statements are N-Quads lines (used by contains, absent, order).
	Statements []string `yaml:"statements,omitempty"`

	// Count is the expected number of statements (used by count).
	Count int `yaml:"count,omitempty"`

	// Predicate restricts count to statements with this predicate IRI.
	Predicate string `yaml:"predicate,omitempty"`

	// Bundles are bundle identifiers in N-Quads term syntax (used by bundles).
	Bundles []string `yaml:"bundles,omitempty"`
}

// Assertion type constants.
const (
	AssertContains = "contains"
	AssertAbsent   = "absent"
	AssertOrder    = "order"
	AssertCount    = "count"
	AssertBundles  = "bundles"
)

// LoadScenario reads and parses a scenario YAML file.
// Relative file references are resolved against the scenario's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving relative file references against basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	for _, ref := range []*string{&scenario.TemplateFile, &scenario.BindingsFile, &scenario.Config, &scenario.Golden} {
		if *ref != "" && !filepath.IsAbs(*ref) && basePath != "" {
			*ref = filepath.Join(basePath, *ref)
		}
	}

	for _, ref := range []string{scenario.TemplateFile, scenario.BindingsFile, scenario.Config} {
		if ref == "" {
			continue
		}
		if _, err := os.Stat(ref); os.IsNotExist(err) {
			return nil, fmt.Errorf("invalid scenario: file not found: %s", ref)
		}
	}
	return scenario, nil
}

// ParseScenario parses scenario YAML. File references are left as written.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch {
	case s.Template == "" && s.TemplateFile == "":
		return fmt.Errorf("template or template_file is required")
	case s.Template != "" && s.TemplateFile != "":
		return fmt.Errorf("template and template_file are mutually exclusive")
	case s.Bindings != "" && s.BindingsFile != "":
		return fmt.Errorf("bindings and bindings_file are mutually exclusive")
	}

	if s.Format != "" {
		if _, err := rdfio.ParseFormat(s.Format); err != nil {
			return fmt.Errorf("format: %w", err)
		}
	}
	if s.BindingsFormat != "" && s.BindingsFormat != BindingsFormatV3 {
		return fmt.Errorf("bindings_format: unknown format %q", s.BindingsFormat)
	}

	switch s.Options.IDs {
	case "", IDsSequence, IDsSeeded:
	default:
		return fmt.Errorf("options.ids: unknown identifier source %q", s.Options.IDs)
	}
	if s.Options.Workers < 0 {
		return fmt.Errorf("options.workers must be non-negative")
	}
	if s.Options.MaxInstantiations < 0 {
		return fmt.Errorf("options.max_instantiations must be non-negative")
	}

	if s.Expect.Error != "" {
		if !knownErrorCode(s.Expect.Error) {
			return fmt.Errorf("expect.error: unknown error code %q", s.Expect.Error)
		}
		if len(s.Expect.Statements) > 0 || len(s.Assertions) > 0 || s.Golden != "" {
			return fmt.Errorf("expect.error excludes statements, assertions and golden")
		}
		return nil
	}

	if len(s.Expect.Statements) == 0 && len(s.Assertions) == 0 && s.Golden == "" {
		return fmt.Errorf("one of expect, assertions or golden is required")
	}

	for i, line := range s.Expect.Statements {
		if _, err := rdfio.ParseQuad(line); err != nil {
			return fmt.Errorf("expect.statements[%d]: %w", i, err)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertContains, AssertAbsent, AssertOrder:
		if len(a.Statements) == 0 {
			return fmt.Errorf("assertions[%d]: statements list is required for %s", index, a.Type)
		}
		for j, line := range a.Statements {
			if _, err := rdfio.ParseQuad(line); err != nil {
				return fmt.Errorf("assertions[%d].statements[%d]: %w", index, j, err)
			}
		}
	case AssertCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for count", index)
		}
	case AssertBundles:
		for j, id := range a.Bundles {
			if _, err := rdfio.ParseTerm(id); err != nil {
				return fmt.Errorf("assertions[%d].bundles[%d]: %w", index, j, err)
			}
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

func knownErrorCode(code string) bool {
	switch engine.ErrorCode(code) {
	case engine.ErrCodeInvalidTemplate,
		engine.ErrCodeBindingFormat,
		engine.ErrCodeInconsistentBinding,
		engine.ErrCodeUnboundVariable,
		engine.ErrCodeResidualVariable,
		engine.ErrCodePlanTooLarge,
		engine.ErrCodeInvalidPosition,
		engine.ErrCodeInternal:
		return true
	}
	return false
}
