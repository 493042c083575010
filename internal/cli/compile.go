package cli

import (
	"context"
	"fmt"
	"os"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/absbox/absc/internal/compiler"
	"github.com/absbox/absc/internal/deal"
	"github.com/absbox/absc/internal/ir"
	"github.com/absbox/absc/internal/store"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output  string // output file path
	Archive bool   // record compiled deals in the archive
}

// CompiledOutput is one compiled deal in JSON output.
type CompiledOutput struct {
	Label       string          `json:"label"`
	Name        string          `json:"name"`
	Type        string          `json:"type"`
	Fingerprint string          `json:"fingerprint"`
	RecordID    string          `json:"record_id,omitempty"`
	IR          json.RawMessage `json:"ir"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <path>",
		Short: "Compile deal descriptions to canonical IR",
		Long: `Compile every deal of a description file (.cue, .yaml, .yml, .json)
to the tagged JSON document the cashflow engine consumes.

Deals are compiled concurrently (compile.workers) and reported in
source order. Compilation is all or nothing: the first error fails the
command and no document is written.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write IR documents to this file")
	cmd.Flags().BoolVar(&opts.Archive, "archive", false, "record compiled deals in the archive")

	return cmd
}

func runCompile(ctx context.Context, opts *CompileOptions, path string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := opts.formatter(cmd)
	logger := opts.logger()
	cfg := opts.config()

	data, err := os.ReadFile(path)
	if err != nil {
		return fail(formatter, ExitCommandError, &LoadError{Code: ErrCodeReadFailed, Message: err.Error()})
	}

	deals, err := compiler.CompileSource(ctx, path, data, cfg.Compile.Workers)
	if err != nil {
		logger.Debug("compile failed", "path", path, "error", err)
		return fail(formatter, ExitCommandError, err)
	}
	for _, cd := range deals {
		logger.Debug("deal compiled", "label", cd.Label, "fingerprint", cd.Fingerprint)
	}

	out := make([]CompiledOutput, len(deals))
	for i, cd := range deals {
		raw, err := ir.MarshalCanonical(cd.IR)
		if err != nil {
			return fail(formatter, ExitCommandError, err)
		}
		out[i] = CompiledOutput{
			Label:       cd.Label,
			Name:        deal.DisplayName(cd.IR),
			Type:        cd.IR.Tag,
			Fingerprint: cd.Fingerprint,
			IR:          raw,
		}
	}

	if opts.Archive {
		if err := archiveDeals(ctx, opts, path, deals, out); err != nil {
			return fail(formatter, ExitCommandError, err)
		}
	}

	if opts.Output != "" {
		if err := writeIRToFile(deals, opts.Output); err != nil {
			return fail(formatter, ExitCommandError, &LoadError{Code: ErrCodeWriteFailed, Message: fmt.Sprintf("writing output file: %v", err)})
		}
	}

	return outputCompileSuccess(formatter, out, opts.Output)
}

// archiveDeals records every compiled deal, filling in the record ids.
func archiveDeals(ctx context.Context, opts *CompileOptions, source string, deals []*compiler.CompiledDeal, out []CompiledOutput) error {
	st, err := openArchive(opts.config().Archive.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	for i, cd := range deals {
		rec, inserted, err := st.WriteDeal(ctx, store.DealRecord{
			Label:       cd.Label,
			DealName:    out[i].Name,
			DealType:    out[i].Type,
			Fingerprint: cd.Fingerprint,
			IR:          cd.IR,
			Source:      source,
		})
		if err != nil {
			return &LoadError{Code: ErrCodeArchive, Message: err.Error()}
		}
		out[i].RecordID = rec.ID
		opts.logger().Info("archive written",
			"label", cd.Label,
			"record_id", rec.ID,
			"seq", rec.Seq,
			"inserted", inserted,
		)
	}
	return nil
}

// outputCompileSuccess outputs successful compilation results.
func outputCompileSuccess(formatter *OutputFormatter, out []CompiledOutput, outputFile string) error {
	if formatter.JSON() {
		return formatter.Success(out)
	}

	fmt.Fprintf(formatter.Writer, "✓ Compiled %d deal(s)\n\n", len(out))
	for _, o := range out {
		fmt.Fprintf(formatter.Writer, "  %s (%s %q): %s\n", o.Label, o.Type, o.Name, o.Fingerprint)
		if o.RecordID != "" {
			fmt.Fprintf(formatter.Writer, "    archived as %s\n", o.RecordID)
		}
	}
	if outputFile != "" {
		fmt.Fprintf(formatter.Writer, "\nWrote canonical IR to %s\n", outputFile)
	}
	return nil
}

// writeIRToFile writes the compiled documents to a file, keyed by label.
// Keys and numbers are canonical; the indentation is for readability only.
func writeIRToFile(deals []*compiler.CompiledDeal, filename string) error {
	docs := make(ir.IRObject, len(deals))
	for _, cd := range deals {
		docs[cd.Label] = cd.IR
	}
	data, err := ir.MarshalIndent(docs)
	if err != nil {
		return fmt.Errorf("marshaling IR: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}
