package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/provtmpl/internal/binding"
	"github.com/roach88/provtmpl/internal/config"
	"github.com/roach88/provtmpl/internal/engine"
	"github.com/roach88/provtmpl/internal/rdfio"
)

// Error code constants - unified across all CLI commands.
// Expansion failures are reported with the engine's own codes.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeDatabase    = "E008" // Run database error

	ErrCodeSyntax         = "E301" // RDF syntax error
	ErrCodeFormat         = "E302" // Unsupported document format
	ErrCodeConfig         = "E303" // Invalid configuration file
	ErrCodeRunNotFound    = "E304" // Run not in database
	ErrCodeReplayMismatch = "E305" // Replay output differs from the recorded run
	ErrCodeTestFailed     = "E306" // One or more scenarios failed
)

// Bindings formats accepted by --bindings-format.
const (
	BindingsAuto = "auto" // v3 for .json files, RDF otherwise
	BindingsRDF  = "rdf"
	BindingsV3   = "v3"
)

// Identifier modes accepted by --ids.
const (
	IDsSeeded = "seeded" // UUIDv5 derived from the run inputs
	IDsRandom = "random" // UUIDv7, differs on every run
)

// LoadError represents an error that occurred while loading an input file.
type LoadError struct {
	Code    string
	Message string
	Path    string
	Line    int // 1-based, 0 when unknown
	Column  int
}

func (e *LoadError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Path, e.Line, e.Column, e.Code, e.Message)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Path, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// EngineFlags are the flags shared by commands that expand templates.
type EngineFlags struct {
	Config         string
	Workers        int
	BindingsFormat string
	IDs            string
}

// NewEngine builds an engine from the flags. A configuration file is
// applied first; a positive Workers flag overrides its limit.
func (f EngineFlags) NewEngine(logger *slog.Logger) (*engine.Engine, error) {
	opts := []engine.EngineOption{engine.WithLogger(logger)}
	if f.Config != "" {
		cfg, err := loadConfig(f.Config)
		if err != nil {
			return nil, err
		}
		opts = append(opts, engine.WithConfig(cfg))
	}
	if f.Workers > 0 {
		opts = append(opts, engine.WithWorkers(f.Workers))
	}
	switch f.IDs {
	case "", IDsSeeded:
	case IDsRandom:
		opts = append(opts, engine.WithIDGenerator(engine.UUIDv7Generator{}))
	default:
		return nil, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("unknown identifier mode %q (want %s or %s)", f.IDs, IDsSeeded, IDsRandom)}
	}
	return engine.New(opts...), nil
}

func loadConfig(path string) (config.Config, error) {
	if err := checkFile(path); err != nil {
		return config.Config{}, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, &LoadError{Code: ErrCodeConfig, Message: err.Error(), Path: path}
	}
	return cfg, nil
}

// LoadDocument parses an RDF document, choosing the format by extension.
func LoadDocument(path string) (*rdfio.Document, error) {
	if err := checkFile(path); err != nil {
		return nil, err
	}
	doc, err := rdfio.ReadFile(path)
	if err != nil {
		return nil, convertReadError(path, err)
	}
	return doc, nil
}

// LoadBindings reads a bindings file in the given format and resolves it
// with the engine's vocabulary. An empty path yields no bindings.
//
// Malformed value lists are returned as BINDING_FORMAT expansion errors;
// unreadable documents as *LoadError.
func LoadBindings(eng *engine.Engine, path, format string) (*binding.Table, error) {
	if path == "" {
		return binding.NewTable(), nil
	}
	if err := checkFile(path); err != nil {
		return nil, err
	}

	switch resolveBindingsFormat(path, format) {
	case BindingsV3:
		f, err := os.Open(path)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeNotFound, Message: err.Error(), Path: path}
		}
		defer f.Close()
		return eng.ResolveV3(f)
	case BindingsRDF:
		doc, err := LoadDocument(path)
		if err != nil {
			return nil, err
		}
		return eng.Resolve(doc.Graph)
	default:
		return nil, &LoadError{Code: ErrCodeFormat, Message: fmt.Sprintf("unknown bindings format %q", format)}
	}
}

func resolveBindingsFormat(path, format string) string {
	if format == "" || format == BindingsAuto {
		if strings.EqualFold(filepath.Ext(path), ".json") {
			return BindingsV3
		}
		return BindingsRDF
	}
	return format
}

func checkFile(path string) error {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &LoadError{Code: ErrCodeNotFound, Message: "file not found", Path: path}
	}
	if err != nil {
		return &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing file: %v", err), Path: path}
	}
	if info.IsDir() {
		return &LoadError{Code: ErrCodeNotFound, Message: "is a directory", Path: path}
	}
	return nil
}

// convertReadError converts a reader error to a LoadError with position info.
func convertReadError(path string, err error) *LoadError {
	var se *rdfio.SyntaxError
	if errors.As(err, &se) {
		return &LoadError{
			Code:    ErrCodeSyntax,
			Message: se.Message,
			Path:    path,
			Line:    se.Line,
			Column:  se.Column,
		}
	}
	if errors.Is(err, rdfio.ErrUnsupportedFormat) {
		return &LoadError{Code: ErrCodeFormat, Message: err.Error(), Path: path}
	}
	return &LoadError{Code: ErrCodeGeneric, Message: err.Error(), Path: path}
}

// reportError writes err through f and returns the exit error for it.
// Expansion errors keep their engine code and exit with ExitFailure;
// load errors exit with ExitCommandError.
func reportError(f *OutputFormatter, err error) error {
	var le *LoadError
	if errors.As(err, &le) {
		return f.Fail(ExitCommandError, le.Code, le.Error(), nil)
	}
	var ee *engine.ExpansionError
	if errors.As(err, &ee) {
		return f.Fail(ExitFailure, string(ee.Code), ee.Message, expansionDetails(ee))
	}
	return f.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
}

func expansionDetails(ee *engine.ExpansionError) map[string]string {
	details := make(map[string]string, len(ee.Details)+3)
	for k, v := range ee.Details {
		details[k] = v
	}
	if ee.Group != "" {
		details["group"] = ee.Group
	}
	if ee.Variable != "" {
		details["variable"] = ee.Variable
	}
	if ee.Statement != "" {
		details["statement"] = ee.Statement
	}
	if len(details) == 0 {
		return nil
	}
	return details
}

// mergedPrefixes returns the default prefixes extended with those the
// template declares, for compact output.
func mergedPrefixes(docs ...*rdfio.Document) *rdfio.Prefixes {
	p := rdfio.DefaultPrefixes()
	for _, d := range docs {
		if d != nil {
			p.Merge(d.Prefixes)
		}
	}
	return p
}
