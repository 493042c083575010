package cli

import (
	"fmt"
	"os"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/absbox/absc/internal/compiler"
	"github.com/absbox/absc/internal/deal"
	"github.com/absbox/absc/internal/ir"
)

// RequestOptions holds flags for the request command.
type RequestOptions struct {
	*RootOptions
	Deal        string   // deal label; empty takes the first
	Assumptions []string // assumption labels
	Pricing     string   // pricing label; empty takes the first, if any
	Output      string   // output file path
}

// RequestOutput is the request command's JSON payload.
type RequestOutput struct {
	Deal        string          `json:"deal"`
	Kind        string          `json:"kind"`
	Scenarios   []string        `json:"scenarios,omitempty"`
	Pricing     string          `json:"pricing,omitempty"`
	DealHash    string          `json:"deal_fingerprint"`
	Fingerprint string          `json:"fingerprint"`
	Request     json.RawMessage `json:"request"`
}

// NewRequestCommand creates the request command.
func NewRequestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RequestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "request <path>",
		Short: "Build an engine run request",
		Long: `Compile one deal and wrap it with assumptions and pricing into the
request document the cashflow engine accepts.

With zero or one --assumption the request is a SingleRunReq; with more
it is a MultiScenarioRunReq keyed by assumption label. The document is
printed, not sent.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRequest(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Deal, "deal", "", "deal label (default: first deal)")
	cmd.Flags().StringArrayVar(&opts.Assumptions, "assumption", nil, "assumption label (repeatable)")
	cmd.Flags().StringVar(&opts.Pricing, "pricing", "", "pricing label (default: first pricing, if any)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the request to this file")

	return cmd
}

func runRequest(opts *RequestOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	logger := opts.logger()

	src, err := LoadSource(path)
	if err != nil {
		return fail(formatter, ExitCommandError, err)
	}
	label, err := src.pickLabel("deal", opts.Deal)
	if err != nil {
		return fail(formatter, ExitCommandError, err)
	}
	cd, err := compiler.Compile(label, compiler.Section(src.Value, "deal", label))
	if err != nil {
		return fail(formatter, ExitCommandError, err)
	}
	if opts.Pricing != "" {
		if _, err := src.pickLabel("pricing", opts.Pricing); err != nil {
			return fail(formatter, ExitCommandError, err)
		}
	}
	sc, err := compiler.CompileScenario(src.Value, opts.Pricing)
	if err != nil {
		return fail(formatter, ExitCommandError, err)
	}
	scenarios, err := selectAssumptions(src, sc.Assumptions, opts.Assumptions)
	if err != nil {
		return fail(formatter, ExitCommandError, err)
	}

	// Every scenario must fit the pool before a request is built.
	for _, s := range scenarios {
		errs, _ := compiler.ValidateDeal(cd.IR, s.Encode())
		if len(errs) > 0 {
			compiler.SortErrors(errs)
			return fail(formatter, ExitFailure, &LoadError{Code: errs[0].Code, Message: fmt.Sprintf("assumption %s: %s: %s", s.Name, errs[0].Field, errs[0].Message)})
		}
	}

	var req ir.IRTagged
	switch len(scenarios) {
	case 0:
		req = deal.SingleRun(cd.IR, nil, sc.Pricing)
	case 1:
		req = deal.SingleRun(cd.IR, &scenarios[0], sc.Pricing)
	default:
		req = deal.MultiScenarioRun(cd.IR, scenarios, sc.Pricing)
	}
	raw, err := ir.MarshalCanonical(req)
	if err != nil {
		return fail(formatter, ExitCommandError, err)
	}
	logger.Debug("request built", "deal", label, "kind", req.Tag, "scenarios", len(scenarios))

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, append(raw, '\n'), 0o644); err != nil {
			return fail(formatter, ExitCommandError, &LoadError{Code: ErrCodeWriteFailed, Message: fmt.Sprintf("writing output file: %v", err)})
		}
	}

	if formatter.JSON() {
		out := RequestOutput{
			Deal:        label,
			Kind:        req.Tag,
			Scenarios:   deal.ScenarioNames(scenarios),
			DealHash:    cd.Fingerprint,
			Fingerprint: ir.MustFingerprint(ir.DomainRequest, req),
			Request:     raw,
		}
		if sc.Pricing != nil {
			out.Pricing = sc.Pricing.Name
		}
		return formatter.Success(out)
	}

	text := raw
	if formatter.Indent {
		if text, err = ir.MarshalIndent(req); err != nil {
			return fail(formatter, ExitCommandError, err)
		}
	}
	fmt.Fprintln(formatter.Writer, string(text))
	return nil
}

// selectAssumptions picks the named assumption sets in flag order.
func selectAssumptions(src *Source, all []deal.AssumptionSet, names []string) ([]deal.AssumptionSet, error) {
	var out []deal.AssumptionSet
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] {
			return nil, &LoadError{Code: ErrCodeInvalidInput, Message: fmt.Sprintf("assumption %q given twice", name)}
		}
		seen[name] = true
		if _, err := src.pickLabel("assumption", name); err != nil {
			return nil, err
		}
		for _, a := range all {
			if a.Name == name {
				out = append(out, a)
			}
		}
	}
	return out, nil
}
