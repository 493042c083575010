package harness

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/absbox/absc/internal/compiler"
	"github.com/absbox/absc/internal/ir"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	Steps    []string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	if len(e.Steps) > 0 {
		fmt.Fprintf(&buf, "\nWaterfall:\n")
		for i, s := range e.Steps {
			fmt.Fprintf(&buf, "  [%d] %s\n", i, s)
		}
	}
	return buf.String()
}

// lookupPath walks a '>'-separated path through objects (by key), tagged
// nodes (by "tag" or "contents") and arrays (by index).
func lookupPath(v ir.IRValue, path string) (ir.IRValue, bool) {
	cur := v
	for _, seg := range strings.Split(path, ">") {
		switch node := cur.(type) {
		case ir.IRTagged:
			next, ok := node.Object()[seg]
			if !ok {
				return nil, false
			}
			cur = next
		case ir.IRObject:
			next, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = next
		case ir.IRArray:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(node) {
				return nil, false
			}
			cur = node[i]
		default:
			return nil, false
		}
	}
	return cur, true
}

// stepTags lists the tag of every step of a waterfall phase.
func stepTags(doc ir.IRTagged, phase string) ([]string, bool) {
	v, ok := lookupPath(doc, "contents>waterfall>"+phase)
	if !ok {
		return nil, false
	}
	arr, ok := v.(ir.IRArray)
	if !ok {
		return nil, false
	}
	tags := make([]string, len(arr))
	for i, s := range arr {
		if t, ok := s.(ir.IRTagged); ok {
			tags[i] = t.Tag
		}
	}
	return tags, true
}

// assertWaterfallOrder checks that the actions appear in the phase in the
// given order. Steps need not be consecutive.
func assertWaterfallOrder(doc ir.IRTagged, a Assertion) error {
	tags, ok := stepTags(doc, a.Phase)
	if !ok {
		return &AssertionError{
			Type:     AssertWaterfallOrder,
			Expected: fmt.Sprintf("waterfall phase %q", a.Phase),
			Actual:   "phase not found",
		}
	}

	pos := -1
	for _, want := range a.Actions {
		found := -1
		for i := pos + 1; i < len(tags); i++ {
			if tags[i] == want {
				found = i
				break
			}
		}
		if found < 0 {
			return &AssertionError{
				Type:     AssertWaterfallOrder,
				Expected: fmt.Sprintf("actions in order: %v", a.Actions),
				Actual:   fmt.Sprintf("no %s after step %d", want, pos),
				Steps:    tags,
			}
		}
		pos = found
	}
	return nil
}

func assertPathEquals(doc ir.IRTagged, a Assertion) error {
	got, ok := lookupPath(doc, a.Path)
	if !ok {
		return &AssertionError{
			Type:     AssertPathEquals,
			Expected: fmt.Sprintf("%s to exist", a.Path),
			Actual:   "path not found",
		}
	}
	want, err := toIR(a.Value)
	if err != nil {
		return fmt.Errorf("path_equals %s: expected value: %w", a.Path, err)
	}
	gotJSON, err := ir.MarshalCanonical(got)
	if err != nil {
		return fmt.Errorf("path_equals %s: %w", a.Path, err)
	}
	wantJSON, err := ir.MarshalCanonical(want)
	if err != nil {
		return fmt.Errorf("path_equals %s: %w", a.Path, err)
	}
	if !bytes.Equal(gotJSON, wantJSON) {
		return &AssertionError{
			Type:     AssertPathEquals,
			Expected: fmt.Sprintf("%s = %s", a.Path, wantJSON),
			Actual:   fmt.Sprintf("%s = %s", a.Path, gotJSON),
		}
	}
	return nil
}

func assertKeyAbsent(doc ir.IRTagged, a Assertion) error {
	if got, ok := lookupPath(doc, a.Path); ok {
		text, _ := ir.MarshalCanonical(got)
		return &AssertionError{
			Type:     AssertKeyAbsent,
			Expected: fmt.Sprintf("%s to be absent", a.Path),
			Actual:   fmt.Sprintf("%s = %s", a.Path, text),
		}
	}
	return nil
}

func assertEntityCount(doc ir.IRTagged, a Assertion) error {
	n := 0
	if v, ok := lookupPath(doc, "contents>"+a.Entity); ok {
		obj, ok := v.(ir.IRObject)
		if !ok {
			return fmt.Errorf("entity_count: %s is not a name map", a.Entity)
		}
		n = len(obj)
	}
	if n != *a.Count {
		return &AssertionError{
			Type:     AssertEntityCount,
			Expected: fmt.Sprintf("%d %s", *a.Count, a.Entity),
			Actual:   fmt.Sprintf("%d %s", n, a.Entity),
		}
	}
	return nil
}

// assertCompileError checks that compilation failed with the given kind
// (name or code) and message fragment.
func assertCompileError(result *Result, a Assertion) error {
	if result.CompileErr == nil {
		return &AssertionError{
			Type:     AssertCompileError,
			Expected: fmt.Sprintf("compile error %s %q", a.Kind, a.Contains),
			Actual:   "deal compiled",
		}
	}
	if a.Kind != "" {
		var ce *compiler.CompileError
		if !errors.As(result.CompileErr, &ce) || (string(ce.Kind) != a.Kind && ce.Kind.Code() != a.Kind) {
			return &AssertionError{
				Type:     AssertCompileError,
				Expected: fmt.Sprintf("error kind %s", a.Kind),
				Actual:   result.CompileErr.Error(),
			}
		}
	}
	if a.Contains != "" && !strings.Contains(result.CompileErr.Error(), a.Contains) {
		return &AssertionError{
			Type:     AssertCompileError,
			Expected: fmt.Sprintf("message containing %q", a.Contains),
			Actual:   result.CompileErr.Error(),
		}
	}
	return nil
}

// assertValidationError checks the number of validator findings with the
// given code: at least one, or exactly Count when set.
func assertValidationError(result *Result, a Assertion) error {
	n := 0
	for _, e := range result.Validation {
		if e.Code == a.Kind {
			n++
		}
	}
	if (a.Count == nil && n == 0) || (a.Count != nil && n != *a.Count) {
		want := "at least 1"
		if a.Count != nil {
			want = strconv.Itoa(*a.Count)
		}
		return &AssertionError{
			Type:     AssertValidationError,
			Expected: fmt.Sprintf("%s %s findings", want, a.Kind),
			Actual:   fmt.Sprintf("%d in %v", n, result.Validation),
		}
	}
	return nil
}

// toIR converts a YAML-decoded value to IR through JSON, so that numbers
// become exact decimals and {tag, contents} maps become tagged nodes.
func toIR(v any) (ir.IRValue, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return ir.UnmarshalIRValue(data)
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertCompileError:
			err = assertCompileError(result, assertion)
		default:
			if !result.Compiled() {
				err = fmt.Errorf("assertion[%d] %s: deal did not compile: %v", i, assertion.Type, result.CompileErr)
				break
			}
			switch assertion.Type {
			case AssertWaterfallOrder:
				err = assertWaterfallOrder(result.IR, assertion)
			case AssertPathEquals:
				err = assertPathEquals(result.IR, assertion)
			case AssertKeyAbsent:
				err = assertKeyAbsent(result.IR, assertion)
			case AssertEntityCount:
				err = assertEntityCount(result.IR, assertion)
			case AssertValidationError:
				err = assertValidationError(result, assertion)
			default:
				err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
			}
		}

		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	return errs
}
