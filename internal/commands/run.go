package commands

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/reconcile/internal/config"
	"github.com/cleared-dev/reconcile/internal/gitops"
	"github.com/cleared-dev/reconcile/internal/ingest"
	"github.com/cleared-dev/reconcile/internal/model"
	"github.com/cleared-dev/reconcile/internal/reconcile"
	"github.com/cleared-dev/reconcile/internal/repayments"
	"github.com/cleared-dev/reconcile/internal/report"
	"github.com/cleared-dev/reconcile/internal/results"
	"github.com/cleared-dev/reconcile/internal/runlog"
)

type runOptions struct {
	repoDir        string
	repaymentsPath string
	keep           bool
}

func newRunCommand(g *globalFlags) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run [statement...]",
		Short: "Reconcile bank statements against the repayment pool",
		Long: `Reconcile each given statement file (CSV, XLSX or XLS) against the
repayment pool. With no arguments, every statement in import/ is reconciled
and then moved to import/processed/.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			absDir, err := filepath.Abs(opts.repoDir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}
			opts.repoDir = absDir
			return runReconcile(cmd.OutOrStdout(), cmd.ErrOrStderr(), g, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.repoDir, "repo", ".", "workspace directory")
	cmd.Flags().StringVar(&opts.repaymentsPath, "repayments", "", "repayments CSV (default <repo>/repayments.csv)")
	cmd.Flags().BoolVar(&opts.keep, "keep", false, "leave imported statements in import/")

	return cmd
}

// statementFile is one statement queued for a run.
type statementFile struct {
	path     string
	imported bool // found by scanning import/
}

func runReconcile(out, errOut io.Writer, g *globalFlags, opts runOptions, args []string) error {
	cfg, err := config.LoadOrDefault(filepath.Join(opts.repoDir, config.FileName))
	if err != nil {
		return err
	}
	logger, err := g.logger(cfg, errOut)
	if err != nil {
		return err
	}

	poolPath := opts.repaymentsPath
	if poolPath == "" {
		poolPath = filepath.Join(opts.repoDir, repayments.FileName)
	}
	svc, err := repayments.Load(poolPath)
	if err != nil {
		return err
	}

	files, err := queueStatements(opts.repoDir, args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintf(out, "No statements to reconcile in %s/\n", ingest.ImportDir)
		return nil
	}

	fmt.Fprintf(out, "Pool: %d repayments, %d outstanding\n", len(svc.All()), len(svc.Outstanding()))
	engine := reconcile.New(cfg.MatchOptions(), logger)
	pool := svc.Pool()
	outDir := filepath.Join(opts.repoDir, cfg.Output.Dir)

	var failed []string
	for _, sf := range files {
		if err := reconcileOne(out, engine, pool, opts.repoDir, outDir, sf.path); err != nil {
			failed = append(failed, filepath.Base(sf.path))
			fmt.Fprintln(errOut, errorStyle.Render(describeFailure(sf.path, err)))
			logger.Error("statement failed", "statement", sf.path, "error", err)
			continue
		}
		if sf.imported && !opts.keep {
			if err := ingest.MarkProcessed(opts.repoDir, filepath.Base(sf.path)); err != nil {
				return err
			}
		}
	}

	if cfg.Git.AutoCommit && gitops.IsRepo(opts.repoDir) {
		commitRun(out, logger, cfg, opts.repoDir, len(files)-len(failed))
	}

	if len(failed) > 0 {
		return fmt.Errorf("%d of %d statements failed: %v", len(failed), len(files), failed)
	}
	return nil
}

func queueStatements(repoDir string, args []string) ([]statementFile, error) {
	if len(args) > 0 {
		files := make([]statementFile, len(args))
		for i, a := range args {
			files[i] = statementFile{path: a}
		}
		return files, nil
	}

	scanned, err := ingest.Scan(repoDir)
	if err != nil {
		return nil, err
	}
	files := make([]statementFile, len(scanned))
	for i, fi := range scanned {
		files[i] = statementFile{path: fi.Path, imported: true}
	}
	return files, nil
}

func reconcileOne(out io.Writer, engine *reconcile.Engine, pool []model.Obligation, repoDir, outDir, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading statement: %w", err)
	}

	name := filepath.Base(path)
	res, err := engine.ReconcileFile(name, data, pool)
	if err != nil {
		return err
	}

	saved, err := results.Save(outDir, name, append(res.Matches, res.Rejected...))
	if err != nil {
		return err
	}

	printReport(out, name, res.Report, len(res.Rejected), res.Skipped)
	if rel, err := filepath.Rel(repoDir, saved); err == nil {
		saved = rel
	}
	fmt.Fprintf(out, "  %s\n", subtleStyle.Render("results: "+saved))

	return runlog.Append(repoDir, []runlog.Entry{{
		Timestamp:    time.Now().UTC().Truncate(time.Second),
		RunID:        res.RunID,
		Statement:    name,
		Transactions: res.Report.Total,
		Matched:      res.Report.Matched,
		Unmatched:    res.Report.Unmatched,
		MatchRate:    res.Report.MatchRate,
		Rejected:     len(res.Rejected),
		Skipped:      res.Skipped,
	}})
}

// describeFailure names the failure kind so an unreadable file is never
// mistaken for a statement with no matches.
func describeFailure(path string, err error) string {
	var kinded interface{ ErrorKind() string }
	if errors.As(err, &kinded) {
		return fmt.Sprintf("%s: %s error: %v", filepath.Base(path), kinded.ErrorKind(), err)
	}
	return fmt.Sprintf("%s: %v", filepath.Base(path), err)
}

func printReport(out io.Writer, name string, r report.Report, rejected, skipped int) {
	fmt.Fprintln(out, titleStyle.Render(name))
	if r.Total == 0 {
		fmt.Fprintln(out, "  0 transactions parsed")
	} else {
		fmt.Fprintf(out, "  %d transactions, %d matched (%.1f%%), %d unmatched\n",
			r.Total, r.Matched, r.MatchRate, r.Unmatched)
		fmt.Fprintf(out, "  confidence: %s, %s, %s\n",
			renderConfidence(model.ConfidenceHigh, fmt.Sprintf("high %d", r.High)),
			renderConfidence(model.ConfidenceMedium, fmt.Sprintf("medium %d", r.Medium)),
			renderConfidence(model.ConfidenceLow, fmt.Sprintf("low %d", r.LowMatched)))
		fmt.Fprintf(out, "  value: total %s, matched %s, unmatched %s\n",
			r.TotalValue.StringFixed(2), r.MatchedValue.StringFixed(2), r.UnmatchedValue.StringFixed(2))
	}
	if rejected > 0 || skipped > 0 {
		fmt.Fprintf(out, "  rejected %d (invalid date), skipped %d rows\n", rejected, skipped)
	}
}

func commitRun(out io.Writer, logger *slog.Logger, cfg *config.Config, repoDir string, reconciled int) {
	var paths []string
	for _, p := range []string{cfg.Output.Dir, "logs", ingest.ImportDir} {
		if _, err := os.Stat(filepath.Join(repoDir, p)); err == nil {
			paths = append(paths, p)
		}
	}
	if len(paths) == 0 {
		return
	}

	author := gitops.Author{Name: cfg.Git.AuthorName, Email: cfg.Git.AuthorEmail}
	msg := fmt.Sprintf("reconcile: %d statement(s)", reconciled)
	hash, err := gitops.Commit(repoDir, msg, author, paths...)
	switch {
	case errors.Is(err, gitops.ErrNothingToCommit):
	case err != nil:
		logger.Warn("auto-commit failed", "error", err)
	default:
		fmt.Fprintf(out, "Committed %s\n", hash)
	}
}
