package commands

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/reconcile/internal/runlog"
)

func newHistoryCommand() *cobra.Command {
	var repoDir string
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past reconciliation runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			absDir, err := filepath.Abs(repoDir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}
			return runHistory(cmd.OutOrStdout(), absDir, limit)
		},
	}

	cmd.Flags().StringVar(&repoDir, "repo", ".", "workspace directory")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "show only the most recent N runs")

	return cmd
}

func runHistory(out io.Writer, repoDir string, limit int) error {
	entries, err := runlog.Read(repoDir)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, "No reconciliation runs recorded")
		return nil
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
		headerStyle.Render("When"),
		headerStyle.Render("Statement"),
		headerStyle.Render("Txns"),
		headerStyle.Render("Matched"),
		headerStyle.Render("Rate"),
		headerStyle.Render("Run"))
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
		strings.Repeat("─", 16),
		strings.Repeat("─", 9),
		strings.Repeat("─", 4),
		strings.Repeat("─", 7),
		strings.Repeat("─", 4),
		strings.Repeat("─", 8))
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%.1f%%\t%s\n",
			e.Timestamp.Local().Format("2006-01-02 15:04"),
			e.Statement,
			e.Transactions,
			e.Matched,
			e.MatchRate,
			shortID(e.RunID))
	}
	return w.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
