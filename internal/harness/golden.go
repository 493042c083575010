package harness

import (
	"errors"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/absbox/absc/internal/compiler"
	"github.com/absbox/absc/internal/ir"
)

// Snapshot renders the outcome of a scenario for golden comparison: the
// indented canonical IR when the deal compiled, otherwise the error's
// code, kind and field. Messages and positions are left out so that
// rewording an error does not churn golden files.
func Snapshot(result *Result) ([]byte, error) {
	if result.Compiled() {
		return ir.MarshalIndent(result.IR)
	}
	snap := ir.IRObject{"kind": ir.Str(string(compiler.InvalidSource)), "code": ir.Str(compiler.ErrCodeInvalidSource)}
	var ce *compiler.CompileError
	if errors.As(result.CompileErr, &ce) {
		snap["kind"] = ir.Str(string(ce.Kind))
		snap["code"] = ir.Str(ce.Kind.Code())
		snap["field"] = ir.Str(ce.Field)
	}
	return ir.MarshalIndent(snap)
}

// RunWithGolden executes a scenario, fails the test on any assertion
// failure and compares the snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	for _, msg := range result.Errors {
		t.Error(msg)
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result against its golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	out, err := Snapshot(result)
	if err != nil {
		return err
	}
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, out)
	return nil
}
