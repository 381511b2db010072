package store

import (
	"errors"

	"github.com/roach88/provtmpl/internal/ir"
)

// ErrRunNotFound is returned when no run has the requested ID.
var ErrRunNotFound = errors.New("run not found")

// Run is the stored record of one expansion.
type Run struct {
	ID             string `json:"run_id"`
	TemplateHash   string `json:"template_hash"`
	BindingsHash   string `json:"bindings_hash"`
	VocabularyHash string `json:"vocabulary_hash"`
	OutputHash     string `json:"output_hash"`
	EngineVersion  string `json:"engine_version"`
	FormatVersion  string `json:"format_version"`
	Statements     int    `json:"statements"`

	// Seq is assigned by the store on insert.
	Seq int64 `json:"seq"`
}

// NewRun builds a run record for an expansion of output with the given
// input hashes. The run ID is derived from the input hashes.
func NewRun(templateHash, bindingsHash, vocabularyHash string, output *ir.Graph) Run {
	return Run{
		ID:             ir.RunID(templateHash, bindingsHash, vocabularyHash),
		TemplateHash:   templateHash,
		BindingsHash:   bindingsHash,
		VocabularyHash: vocabularyHash,
		OutputHash:     ir.OutputHash(output),
		EngineVersion:  ir.EngineVersion,
		FormatVersion:  ir.FormatVersion,
		Statements:     output.Len(),
	}
}
