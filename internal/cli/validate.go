package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/absbox/absc/internal/compiler"
	"github.com/absbox/absc/internal/ir"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Assumption string // assumption label checked against each pool
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid bool             `json:"valid"`
	Deals []DealValidation `json:"deals"`
}

// DealValidation holds the findings for one deal.
type DealValidation struct {
	Label    string                       `json:"label"`
	Errors   []compiler.ValidationError   `json:"errors,omitempty"`
	Warnings []compiler.ValidationWarning `json:"warnings,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <path>",
		Short: "Check deals for unresolved names and cycles",
		Long: `Compile every deal of a description file and check the IR for
references to undeclared accounts, bonds, fees, liquidity providers,
swaps, triggers and custom data, and for cyclic custom formulas.

With --assumption, ByIndex asset ids are also checked against the pool.
All findings are reported; any error exits with status 1.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Assumption, "assumption", "", "assumption label to check against each pool")

	return cmd
}

func runValidate(opts *ValidateOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	logger := opts.logger()

	src, err := LoadSource(path)
	if err != nil {
		return fail(formatter, ExitCommandError, err)
	}
	labels, err := compiler.Labels(src.Value, "deal")
	if err != nil {
		return fail(formatter, ExitCommandError, err)
	}
	if len(labels) == 0 {
		return fail(formatter, ExitCommandError, &LoadError{Code: ErrCodeNoDeals, Message: fmt.Sprintf("no deal found in %s", path)})
	}

	var assumption ir.IRValue
	if opts.Assumption != "" {
		label, err := src.pickLabel("assumption", opts.Assumption)
		if err != nil {
			return fail(formatter, ExitCommandError, err)
		}
		a, err := compiler.CompileAssumption(label, compiler.Section(src.Value, "assumption", label))
		if err != nil {
			return fail(formatter, ExitCommandError, err)
		}
		assumption = a.Encode()
	}

	result := ValidationResult{Valid: true}
	for _, label := range labels {
		formatter.VerboseLog("Validating deal: %s", label)
		dv := validateDeal(src, label, assumption)
		if len(dv.Errors) > 0 {
			result.Valid = false
		}
		logger.Debug("deal validated", "label", label, "errors", len(dv.Errors), "warnings", len(dv.Warnings))
		result.Deals = append(result.Deals, dv)
	}

	if err := outputValidation(formatter, result); err != nil {
		return err
	}
	if !result.Valid {
		return NewExitError(ExitFailure, "validation failed")
	}
	return nil
}

// validateDeal compiles one deal and checks its IR. A compile failure is
// reported as a single finding carrying the compiler's code.
func validateDeal(src *Source, label string, assumption ir.IRValue) DealValidation {
	dv := DealValidation{Label: label}
	cd, err := compiler.Compile(label, compiler.Section(src.Value, "deal", label))
	if err != nil {
		var ce *compiler.CompileError
		if errors.As(err, &ce) {
			dv.Errors = []compiler.ValidationError{{Field: ce.Field, Message: ce.Message, Code: ce.Kind.Code()}}
		} else {
			dv.Errors = []compiler.ValidationError{{Field: "deal." + label, Message: err.Error(), Code: ErrCodeGeneric}}
		}
		return dv
	}
	dv.Errors, dv.Warnings = compiler.ValidateDeal(cd.IR, assumption)
	compiler.SortErrors(dv.Errors)
	return dv
}

func outputValidation(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.JSON() {
		if result.Valid {
			return formatter.Success(result)
		}
		return formatter.Encode(CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    firstCode(result),
				Message: "validation failed",
			},
		})
	}

	w := formatter.Writer
	if result.Valid {
		fmt.Fprintf(w, "✓ %d deal(s) valid\n", len(result.Deals))
	} else {
		fmt.Fprintln(w, "✗ Validation failed")
	}
	for _, d := range result.Deals {
		if len(d.Errors) == 0 && len(d.Warnings) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s:\n", d.Label)
		for _, e := range d.Errors {
			fmt.Fprintf(w, "  %s %s: %s\n", e.Code, e.Field, e.Message)
		}
		for _, e := range d.Warnings {
			fmt.Fprintf(w, "  %s %s: %s (warning)\n", e.Code, e.Field, e.Message)
		}
	}
	return nil
}

func firstCode(result ValidationResult) string {
	for _, d := range result.Deals {
		if len(d.Errors) > 0 {
			return d.Errors[0].Code
		}
	}
	return ErrCodeGeneric
}
