package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/absbox/absc/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update bool   // regenerate golden files
	Filter string // scenario filter (glob pattern on the scenario name)
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name        string   `json:"name"`
	Pass        bool     `json:"pass"`
	Fingerprint string   `json:"fingerprint,omitempty"`
	Errors      []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run conformance scenarios",
		Long: `Run the YAML scenarios of a directory. Each scenario compiles one deal
and asserts on the IR or on the compile error. When
<scenarios-dir>/golden/<name>.golden exists, the outcome must also
match it byte for byte.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  absc test ./scenarios
  absc test ./scenarios --filter "demo_*"
  absc test ./scenarios --update
  absc test ./scenarios --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")

	return cmd
}

func runTests(opts *TestOptions, scenariosDir string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	if _, err := os.Stat(scenariosDir); os.IsNotExist(err) {
		return fail(formatter, ExitCommandError, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("scenarios directory not found: %s", scenariosDir)})
	}
	if opts.Filter != "" {
		if _, err := filepath.Match(opts.Filter, ""); err != nil {
			return fail(formatter, ExitCommandError, &LoadError{Code: ErrCodeInvalidInput, Message: fmt.Sprintf("invalid filter pattern: %v", err)})
		}
	}

	scenarios, err := harness.LoadScenarios(scenariosDir)
	if err != nil {
		return fail(formatter, ExitCommandError, &LoadError{Code: ErrCodeReadFailed, Message: err.Error()})
	}

	result := TestResult{Scenarios: []ScenarioResult{}}
	for _, sc := range scenarios {
		if opts.Filter != "" {
			if ok, _ := filepath.Match(opts.Filter, sc.Name); !ok {
				continue
			}
		}
		sr := runScenario(opts, sc, scenariosDir)
		opts.logger().Debug("scenario run", "scenario", sc.Name, "pass", sr.Pass)
		if !formatter.JSON() {
			printScenario(formatter, sr, opts.Update)
		}
		result.Scenarios = append(result.Scenarios, sr)
		result.Total++
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	if formatter.JSON() {
		return outputTestJSON(formatter, result)
	}
	return outputTestText(formatter, result)
}

// runScenario executes a single scenario and checks or rewrites its
// golden file.
func runScenario(opts *TestOptions, sc *harness.Scenario, scenariosDir string) ScenarioResult {
	sr := ScenarioResult{Name: sc.Name}

	result, err := harness.Run(sc)
	if err != nil {
		sr.Errors = []string{fmt.Sprintf("execution failed: %v", err)}
		return sr
	}
	sr.Fingerprint = result.Fingerprint
	sr.Errors = result.Errors

	snapshot, err := harness.Snapshot(result)
	if err != nil {
		sr.Errors = append(sr.Errors, fmt.Sprintf("snapshot failed: %v", err))
		return sr
	}

	goldenPath := goldenFilePath(scenariosDir, sc.Name)
	if opts.Update {
		if err := updateGoldenFile(goldenPath, snapshot); err != nil {
			sr.Errors = append(sr.Errors, fmt.Sprintf("failed to update golden file: %v", err))
		}
	} else if golden, err := os.ReadFile(goldenPath); err == nil {
		if !bytes.Equal(golden, snapshot) {
			sr.Errors = append(sr.Errors, "outcome does not match golden file (run with --update to regenerate)")
		}
	} else if !os.IsNotExist(err) {
		sr.Errors = append(sr.Errors, fmt.Sprintf("golden comparison failed: %v", err))
	}

	sr.Pass = len(sr.Errors) == 0
	return sr
}

// goldenFilePath returns the path to the golden file for a scenario.
func goldenFilePath(scenariosDir, name string) string {
	return filepath.Join(scenariosDir, "golden", name+".golden")
}

// updateGoldenFile writes the current snapshot as the golden file.
func updateGoldenFile(goldenPath string, snapshot []byte) error {
	if err := os.MkdirAll(filepath.Dir(goldenPath), 0o755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	if err := os.WriteFile(goldenPath, snapshot, 0o644); err != nil {
		return fmt.Errorf("failed to write golden file: %w", err)
	}
	return nil
}

func printScenario(formatter *OutputFormatter, sr ScenarioResult, updated bool) {
	w := formatter.Writer
	switch {
	case sr.Pass && updated:
		fmt.Fprintf(w, "✓ %s (golden updated)\n", sr.Name)
	case sr.Pass:
		fmt.Fprintf(w, "✓ %s\n", sr.Name)
	default:
		fmt.Fprintf(w, "✗ %s\n", sr.Name)
		for _, e := range sr.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}
}

// outputTestJSON outputs the test result as JSON.
func outputTestJSON(formatter *OutputFormatter, result TestResult) error {
	response := CLIResponse{Status: "ok", Data: result}
	if result.Failed > 0 {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    ErrCodeTestsFailed,
			Message: fmt.Sprintf("%d scenario(s) failed", result.Failed),
		}
	}
	if err := formatter.Encode(response); err != nil {
		return err
	}
	if result.Failed > 0 {
		// Test failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}

// outputTestText outputs the test result as text.
func outputTestText(formatter *OutputFormatter, result TestResult) error {
	w := formatter.Writer
	if result.Total == 0 {
		fmt.Fprintln(w, "No scenarios found.")
		return nil
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Test Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)

	if result.Failed > 0 {
		// Test failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}

	fmt.Fprintln(w, "✓ All scenarios passed")
	return nil
}
