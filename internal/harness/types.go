package harness

import (
	"github.com/absbox/absc/internal/compiler"
	"github.com/absbox/absc/internal/ir"
)

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	// Label is the compiled deal's label.
	Label string `json:"label,omitempty"`

	// Fingerprint is the IR fingerprint; empty when compilation failed.
	Fingerprint string `json:"fingerprint,omitempty"`

	// RecordID is the id the deal got in the scenario's archive.
	RecordID string `json:"record_id,omitempty"`

	// IR is the compiled deal document.
	IR ir.IRTagged `json:"-"`

	// CompileErr is the compiler failure, if any. A failure is an outcome
	// to assert on, not a harness error.
	CompileErr error `json:"-"`

	// Validation holds the validator findings for the compiled deal.
	Validation []compiler.ValidationError `json:"validation,omitempty"`

	// Errors contains assertion failure messages.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Compiled reports whether the scenario produced an IR document.
func (r *Result) Compiled() bool {
	return r.CompileErr == nil && r.Fingerprint != ""
}
