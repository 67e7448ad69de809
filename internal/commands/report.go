package commands

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/reconcile/internal/model"
	"github.com/cleared-dev/reconcile/internal/repayments"
	"github.com/cleared-dev/reconcile/internal/report"
	"github.com/cleared-dev/reconcile/internal/results"
)

type reportOptions struct {
	unmatched      bool
	matched        bool
	repaymentsPath string
}

func newReportCommand() *cobra.Command {
	var opts reportOptions

	cmd := &cobra.Command{
		Use:   "report <matches.csv>",
		Short: "Summarize a saved results file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd.OutOrStdout(), args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.unmatched, "unmatched", false, "list transactions without a repayment")
	cmd.Flags().BoolVar(&opts.matched, "matched", false, "list matched transactions and their repayment")
	cmd.Flags().StringVar(&opts.repaymentsPath, "repayments", "", "repayments CSV to show due date, amount and status of matched repayments (implies --matched)")

	return cmd
}

func runReport(out io.Writer, path string, opts reportOptions) error {
	all, err := results.Load(path)
	if err != nil {
		return err
	}

	var svc *repayments.Service
	if opts.repaymentsPath != "" {
		if svc, err = repayments.Load(opts.repaymentsPath); err != nil {
			return err
		}
		opts.matched = true
	}

	matches := results.Reviewable(all)
	printReport(out, filepath.Base(path), report.Summarize(matches), len(all)-len(matches), 0)

	for _, m := range matches {
		switch {
		case m.Matched() && opts.matched:
			fmt.Fprintln(out, matchedLine(m, svc))
		case !m.Matched() && opts.unmatched:
			fmt.Fprintf(out, "  %s  %10s  %s\n",
				m.Transaction.Date.Format("2006-01-02"),
				m.Transaction.Amount.StringFixed(2),
				m.Transaction.Description)
		}
	}
	return nil
}

// matchedLine describes a matched row. Results files keep only the
// repayment ID, so details come from the pool when one is given.
func matchedLine(m model.ReconciliationMatch, svc *repayments.Service) string {
	line := fmt.Sprintf("  %s  %10s  %s  %s",
		m.Transaction.Date.Format("2006-01-02"),
		m.Transaction.Amount.StringFixed(2),
		renderConfidence(m.Confidence, fmt.Sprintf("%-6s", m.Confidence)),
		m.ObligationKey())
	if svc == nil {
		return line
	}
	r, ok := svc.Get(m.ObligationKey())
	if !ok {
		return line + "  " + subtleStyle.Render("(not in pool)")
	}
	due := "-"
	if !r.DueDate.IsZero() {
		due = r.DueDate.Format("2006-01-02")
	}
	return fmt.Sprintf("%s  due %s  %s  %s", line, due, r.AmountDue.StringFixed(2), r.Status)
}
