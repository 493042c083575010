package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/token"

	"github.com/absbox/absc/internal/compiler"
	"github.com/absbox/absc/internal/store"
)

// Error code constants - unified across all CLI commands. Compile and
// validation failures carry the compiler's own E1xx/E2xx codes.
const (
	ErrCodeGeneric      = "E001" // Generic/unknown error
	ErrCodeReadFailed   = "E002" // File read error
	ErrCodeNoDeals      = "E003" // Description holds no deal
	ErrCodeNotFound     = "E005" // Path or label not found
	ErrCodeWriteFailed  = "E007" // File write error
	ErrCodeArchive      = "E008" // Archive open/read/write error
	ErrCodeBadResponse  = "E009" // Engine response could not be reshaped
	ErrCodeTestsFailed  = "E010" // One or more scenarios failed
	ErrCodeInvalidInput = "E011" // Bad flag value
)

// LoadError represents an error that occurred while reading a description.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Source is a parsed description file.
type Source struct {
	Path  string
	Data  []byte
	Value cue.Value
}

// LoadSource reads and parses a description file.
func LoadSource(path string) (*Source, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("file not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeReadFailed, Message: err.Error()}
	}
	if info.IsDir() {
		return nil, &LoadError{Code: ErrCodeReadFailed, Message: fmt.Sprintf("is a directory: %s", path)}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeReadFailed, Message: err.Error()}
	}
	v, err := compiler.ParseSource(path, data)
	if err != nil {
		return nil, convertCompileError(err)
	}
	return &Source{Path: path, Data: data, Value: v}, nil
}

// pickLabel returns label if it exists under section, or the first label
// when label is empty.
func (s *Source) pickLabel(section, label string) (string, error) {
	labels, err := compiler.Labels(s.Value, section)
	if err != nil {
		return "", convertCompileError(err)
	}
	if label == "" {
		if len(labels) == 0 {
			return "", &LoadError{Code: ErrCodeNoDeals, Message: fmt.Sprintf("no %s found in %s", section, s.Path)}
		}
		return labels[0], nil
	}
	for _, l := range labels {
		if l == label {
			return l, nil
		}
	}
	return "", &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("%s %q not found in %s (have %v)", section, label, s.Path, labels)}
}

// convertCompileError converts a compiler error to a LoadError with
// position info.
func convertCompileError(err error) *LoadError {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr
	}
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		msg := compileErr.Message
		if compileErr.Field != "" {
			msg = compileErr.Field + ": " + msg
		}
		return &LoadError{
			Code:    compileErr.Kind.Code(),
			Message: msg,
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{Code: ErrCodeGeneric, Message: err.Error()}
}

// openArchive opens the SQLite archive at path, creating its directory.
func openArchive(path string) (*store.Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, &LoadError{Code: ErrCodeArchive, Message: fmt.Sprintf("create archive dir: %v", err)}
		}
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeArchive, Message: err.Error()}
	}
	return st, nil
}

// fail reports err through the formatter and returns an ExitError with
// the given exit code.
func fail(formatter *OutputFormatter, exitCode int, err error) error {
	le := convertCompileError(err)
	if !formatter.JSON() && le.Pos.IsValid() {
		fmt.Fprintf(formatter.Writer, "%s:%d:%d\n", le.Pos.Filename(), le.Pos.Line(), le.Pos.Column())
	}
	_ = formatter.Error(le.Code, le.Message, nil)
	return WrapExitError(exitCode, le.Code, errors.New(le.Message))
}
