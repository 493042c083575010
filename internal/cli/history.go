package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// HistoryEntry is one archived version in JSON output.
type HistoryEntry struct {
	ID          string `json:"id"`
	Seq         int64  `json:"seq"`
	Label       string `json:"label"`
	DealName    string `json:"deal_name"`
	DealType    string `json:"deal_type"`
	Fingerprint string `json:"fingerprint"`
	IRVersion   string `json:"ir_version"`
	Compiler    string `json:"compiler"`
	Source      string `json:"source"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history <deal-name>",
		Short: "List archived versions of a deal",
		Long: `List every archived compilation of a deal, matched on deal name or
source label, oldest first. Deals are archived by 'absc compile --archive'.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return runHistory(ctx, rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runHistory(ctx context.Context, opts *RootOptions, name string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	st, err := openArchive(opts.config().Archive.Path)
	if err != nil {
		return fail(formatter, ExitCommandError, err)
	}
	defer st.Close()

	records, err := st.History(ctx, name)
	if err != nil {
		return fail(formatter, ExitCommandError, &LoadError{Code: ErrCodeArchive, Message: err.Error()})
	}
	opts.logger().Debug("history read", "deal", name, "versions", len(records))

	entries := make([]HistoryEntry, len(records))
	for i, r := range records {
		entries[i] = HistoryEntry{
			ID:          r.ID,
			Seq:         r.Seq,
			Label:       r.Label,
			DealName:    r.DealName,
			DealType:    r.DealType,
			Fingerprint: r.Fingerprint,
			IRVersion:   r.IRVersion,
			Compiler:    r.Compiler,
			Source:      r.Source,
		}
	}

	if formatter.JSON() {
		return formatter.Success(entries)
	}
	if len(entries) == 0 {
		fmt.Fprintf(formatter.Writer, "No archived versions of %q\n", name)
		return nil
	}
	fmt.Fprintf(formatter.Writer, "%d version(s) of %q:\n\n", len(entries), name)
	for _, e := range entries {
		fmt.Fprintf(formatter.Writer, "  #%d %s  %s  %s (%s)\n", e.Seq, e.ID, e.Fingerprint, e.Label, e.Source)
	}
	return nil
}
