package compiler

import (
	"errors"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/format"
	"cuelang.org/go/cue/token"
)

// Kind classifies a compilation failure.
type Kind string

const (
	// UnrecognizedPattern: unknown date pattern, frequency, reset or phase.
	UnrecognizedPattern Kind = "UnrecognizedPattern"
	// UnknownOperator: a formula, predicate or action shape matched nothing.
	UnknownOperator Kind = "UnknownOperator"
	// UnknownStatus: a deal status outside the status table.
	UnknownStatus Kind = "UnknownStatus"
	// UnmatchedEntityVariant: no case matches an entity description.
	UnmatchedEntityVariant Kind = "UnmatchedEntityVariant"
	// DuplicateName: two entities of one category share a name.
	DuplicateName Kind = "DuplicateName"
	// ReferenceNotFound: a referenced name has no declaration. Raised by
	// the validator only.
	ReferenceNotFound Kind = "ReferenceNotFound"
	// InvalidSource: the description is not well-formed CUE/YAML/JSON or a
	// required field is missing or has the wrong type.
	InvalidSource Kind = "InvalidSource"
)

// Sentinels for errors.Is matching on a *CompileError.
var (
	ErrUnrecognizedPattern    = errors.New("unrecognized pattern")
	ErrUnknownOperator        = errors.New("unknown operator")
	ErrUnknownStatus          = errors.New("unknown status")
	ErrUnmatchedEntityVariant = errors.New("unmatched entity variant")
	ErrDuplicateName          = errors.New("duplicate name")
	ErrReferenceNotFound      = errors.New("reference not found")
	ErrInvalidSource          = errors.New("invalid source")
)

func (k Kind) sentinel() error {
	switch k {
	case UnrecognizedPattern:
		return ErrUnrecognizedPattern
	case UnknownOperator:
		return ErrUnknownOperator
	case UnknownStatus:
		return ErrUnknownStatus
	case UnmatchedEntityVariant:
		return ErrUnmatchedEntityVariant
	case DuplicateName:
		return ErrDuplicateName
	case ReferenceNotFound:
		return ErrReferenceNotFound
	default:
		return ErrInvalidSource
	}
}

// Code is the stable diagnostic code of the kind (E1xx compile, E2xx
// validation).
func (k Kind) Code() string {
	switch k {
	case UnrecognizedPattern:
		return ErrCodeUnrecognizedPattern
	case UnknownOperator:
		return ErrCodeUnknownOperator
	case UnknownStatus:
		return ErrCodeUnknownStatus
	case UnmatchedEntityVariant:
		return ErrCodeUnmatchedVariant
	case DuplicateName:
		return ErrCodeDuplicateName
	case ReferenceNotFound:
		return ErrCodeReferenceNotFound
	default:
		return ErrCodeInvalidSource
	}
}

// CompileError is a translator failure. Fragment is the offending input
// as written, so the author can find and fix it.
type CompileError struct {
	Kind     Kind
	Field    string
	Message  string
	Fragment string
	Pos      token.Pos
}

func (e *CompileError) Error() string {
	var b strings.Builder
	if e.Pos.IsValid() {
		fmt.Fprintf(&b, "%s:%d:%d: ", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column())
	}
	fmt.Fprintf(&b, "%s: %s: %s", e.Kind, e.Field, e.Message)
	if e.Fragment != "" {
		fmt.Fprintf(&b, "\n\tin: %s", e.Fragment)
	}
	return b.String()
}

// Is matches the sentinel of the error's kind.
func (e *CompileError) Is(target error) bool {
	return target == e.Kind.sentinel()
}

// fail builds a CompileError positioned at v and carrying v's source text.
func fail(kind Kind, field string, v cue.Value, format string, args ...any) *CompileError {
	return &CompileError{
		Kind:     kind,
		Field:    field,
		Message:  fmt.Sprintf(format, args...),
		Fragment: fragment(v),
		Pos:      v.Pos(),
	}
}

// fragment renders v back to CUE source on one line.
func fragment(v cue.Value) string {
	if !v.Exists() {
		return ""
	}
	src, err := format.Node(v.Syntax(cue.Final(), cue.Concrete(false)), format.Simplify())
	if err != nil {
		return fmt.Sprint(v)
	}
	return strings.Join(strings.Fields(string(src)), " ")
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(field string, err error) error {
	if err == nil {
		return nil
	}

	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &CompileError{Kind: InvalidSource, Field: field, Message: err.Error()}
	}

	first := errs[0]
	ce := &CompileError{Kind: InvalidSource, Field: field, Message: first.Error()}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		ce.Pos = positions[0]
	}
	return ce
}
