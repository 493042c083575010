package cli

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/absbox/absc/internal/result"
)

// ReshapeOptions holds flags for the reshape command.
type ReshapeOptions struct {
	*RootOptions
	Positions []string // BOND=AMOUNT holdings
	Flow      string   // section>entity>column pulled from every scenario
	Agg       string   // sum, min or max for repeated dates
}

// ReshapeOutput is the reshape command's JSON payload.
type ReshapeOutput struct {
	*result.Result
	Positions map[string]*result.Table `json:"positions,omitempty"`
}

// ScenarioReshapeOutput is the reshape payload for a multi-scenario
// response.
type ScenarioReshapeOutput struct {
	Scenarios  map[string]*result.Result `json:"scenarios"`
	Flow       string                    `json:"flow,omitempty"`
	ByScenario *result.Table             `json:"byScenario,omitempty"`
}

// NewReshapeCommand creates the reshape command.
func NewReshapeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReshapeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "reshape <response.json>",
		Short: "Reshape an engine response into tables",
		Long: `Turn the engine's run response into per-entity tables keyed by date:
bonds, fees, accounts, liquidity providers, rate swaps and the pool,
plus the pricing table keyed by bond when the run was priced.

--position BOND=AMOUNT scales a bond's cashflows to a holding of AMOUNT
face.

A multi-scenario response ({scenario: response}) is reshaped per
scenario. --flow bonds>A1>cash pulls one column out of every scenario
and joins them by date; --agg sum|min|max folds repeated dates.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReshape(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Positions, "position", nil, "holding as BOND=AMOUNT (repeatable)")
	cmd.Flags().StringVar(&opts.Flow, "flow", "", "flow to compare across scenarios, e.g. bonds>A1>cash")
	cmd.Flags().StringVar(&opts.Agg, "agg", "", "aggregate repeated dates of --flow: sum, min or max")

	return cmd
}

func runReshape(opts *ReshapeOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	holdings, err := parseHoldings(opts.Positions)
	if err != nil {
		return fail(formatter, ExitCommandError, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fail(formatter, ExitCommandError, &LoadError{Code: ErrCodeReadFailed, Message: err.Error()})
	}
	if result.IsScenarioSet(data) {
		if len(holdings) > 0 {
			return fail(formatter, ExitCommandError, &LoadError{Code: ErrCodeInvalidInput, Message: "--position applies to a single-run response"})
		}
		return runReshapeScenarios(opts, data, formatter)
	}
	if opts.Flow != "" || opts.Agg != "" {
		return fail(formatter, ExitCommandError, &LoadError{Code: ErrCodeInvalidInput, Message: "--flow and --agg apply to a multi-scenario response"})
	}
	res, err := result.Reshape(data)
	if err != nil {
		return fail(formatter, ExitCommandError, &LoadError{Code: ErrCodeBadResponse, Message: err.Error()})
	}
	opts.logger().Debug("response reshaped", "deal", res.DealName, "bonds", len(res.Bonds))

	out := ReshapeOutput{Result: res}
	if len(holdings) > 0 {
		if out.Positions, err = res.Position(holdings); err != nil {
			return fail(formatter, ExitCommandError, &LoadError{Code: ErrCodeInvalidInput, Message: err.Error()})
		}
	}

	if formatter.JSON() {
		return formatter.Success(out)
	}
	printReshape(formatter, out)
	return nil
}

func runReshapeScenarios(opts *ReshapeOptions, data []byte, formatter *OutputFormatter) error {
	agg, err := result.ParseAggregation(opts.Agg)
	if err != nil {
		return fail(formatter, ExitCommandError, &LoadError{Code: ErrCodeInvalidInput, Message: err.Error()})
	}
	var path result.FlowPath
	if opts.Flow != "" {
		if path, err = result.ParseFlowPath(opts.Flow); err != nil {
			return fail(formatter, ExitCommandError, &LoadError{Code: ErrCodeInvalidInput, Message: err.Error()})
		}
	} else if agg != result.AggNone {
		return fail(formatter, ExitCommandError, &LoadError{Code: ErrCodeInvalidInput, Message: "--agg needs --flow"})
	}

	results, err := result.ReshapeScenarios(data)
	if err != nil {
		return fail(formatter, ExitCommandError, &LoadError{Code: ErrCodeBadResponse, Message: err.Error()})
	}
	opts.logger().Debug("scenarios reshaped", "scenarios", len(results))

	out := ScenarioReshapeOutput{Scenarios: results}
	if opts.Flow != "" {
		out.Flow = path.String()
		if out.ByScenario, err = result.ByScenario(results, path, agg); err != nil {
			return fail(formatter, ExitCommandError, &LoadError{Code: ErrCodeInvalidInput, Message: err.Error()})
		}
	}

	if formatter.JSON() {
		return formatter.Success(out)
	}
	w := formatter.Writer
	fmt.Fprintf(w, "✓ Reshaped %d scenario(s)\n", len(results))
	for _, name := range slices.Sorted(maps.Keys(results)) {
		r := results[name]
		fmt.Fprintf(w, "  %s: %s %q, %d bond(s), %d pool row(s)\n", name, r.DealType, r.DealName, len(r.Bonds), len(r.Pool.Rows))
	}
	if out.ByScenario != nil {
		fmt.Fprintf(w, "\n%s by scenario:\n", out.Flow)
		printTable(formatter, "", out.ByScenario)
	}
	return nil
}

// parseHoldings reads BOND=AMOUNT pairs.
func parseHoldings(pairs []string) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal, len(pairs))
	for _, p := range pairs {
		bond, amount, ok := strings.Cut(p, "=")
		if !ok || bond == "" {
			return nil, &LoadError{Code: ErrCodeInvalidInput, Message: fmt.Sprintf("position %q: want BOND=AMOUNT", p)}
		}
		d, err := decimal.NewFromString(amount)
		if err != nil || d.IsNegative() {
			return nil, &LoadError{Code: ErrCodeInvalidInput, Message: fmt.Sprintf("position %q: amount must be a non-negative number", p)}
		}
		if _, dup := out[bond]; dup {
			return nil, &LoadError{Code: ErrCodeInvalidInput, Message: fmt.Sprintf("position %q: bond given twice", p)}
		}
		out[bond] = d
	}
	return out, nil
}

func printReshape(formatter *OutputFormatter, out ReshapeOutput) {
	w := formatter.Writer
	fmt.Fprintf(w, "✓ Reshaped %s %q\n", out.DealType, out.DealName)

	section := func(title string, tables map[string]*result.Table) {
		if len(tables) == 0 {
			return
		}
		fmt.Fprintf(w, "\n%s:\n", title)
		for _, name := range slices.Sorted(maps.Keys(tables)) {
			printTable(formatter, name, tables[name])
		}
	}
	section("Bonds", out.Bonds)
	section("Fees", out.Fees)
	section("Accounts", out.Accounts)
	section("Liquidity", out.Liquidity)
	section("Rate swaps", out.RateSwaps)
	fmt.Fprintf(w, "\nPool: %d row(s)\n", len(out.Pool.Rows))
	if out.Pricing != nil {
		fmt.Fprintln(w, "\nPricing:")
		printTable(formatter, "", out.Pricing)
	}
	section("Positions", out.Positions)
}

// printTable prints a one-line summary, or every row in verbose mode.
func printTable(formatter *OutputFormatter, name string, t *result.Table) {
	w := formatter.Writer
	if name != "" {
		fmt.Fprintf(w, "  %s: %d row(s)\n", name, len(t.Rows))
		if !formatter.Verbose {
			return
		}
	}
	fmt.Fprintf(w, "    %s\t%s\n", t.Index, strings.Join(t.Columns, "\t"))
	for _, r := range t.Rows {
		cells := make([]string, len(r.Cells))
		for i, c := range r.Cells {
			cells[i] = c.String()
		}
		fmt.Fprintf(w, "    %s\t%s\n", r.Key, strings.Join(cells, "\t"))
	}
}
