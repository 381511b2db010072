package harness

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every expectation and assertion matched.
	Pass bool `json:"pass"`

	// Output contains the expanded statements as N-Quads lines, in output
	// order, as read back from the store.
	Output []string `json:"output"`

	// Bundles lists the top-level output bundle identifiers in order.
	Bundles []string `json:"bundles,omitempty"`

	// ErrorCode is the expansion error code when expansion failed.
	ErrorCode string `json:"error_code,omitempty"`

	// Error is the expansion error message when expansion failed.
	Error string `json:"error,omitempty"`

	RunID      string `json:"run_id,omitempty"`
	OutputHash string `json:"output_hash,omitempty"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Output: []string{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
