// Package reconcile runs a bank statement through parsing, matching and
// reporting.
package reconcile

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/cleared-dev/reconcile/internal/ingest"
	"github.com/cleared-dev/reconcile/internal/match"
	"github.com/cleared-dev/reconcile/internal/model"
	"github.com/cleared-dev/reconcile/internal/report"
	"github.com/cleared-dev/reconcile/internal/statement"
)

// Result is everything a single reconciliation run produced.
type Result struct {
	RunID        string
	Transactions []model.BankTransaction
	// Matches has one entry per transaction, in statement order.
	Matches []model.ReconciliationMatch
	// Rejected rows had a usable amount but an unparsable date.
	Rejected []model.ReconciliationMatch
	// Skipped counts rows dropped as malformed during ingestion or building.
	Skipped int
	Report  report.Report
}

// Engine wires the ingest, statement, match and report stages together.
type Engine struct {
	decoders *ingest.Registry
	matcher  *match.Matcher
	logger   *slog.Logger
}

// New creates an Engine with the built-in decoders.
func New(opts match.Options, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	decoders := ingest.DefaultRegistry()
	decoders.SetHeaderFunc(statement.IsHeader)
	return &Engine{
		decoders: decoders,
		matcher:  match.New(opts),
		logger:   logger,
	}
}

// ReconcileFile derives the statement kind from name and reconciles data.
func (e *Engine) ReconcileFile(name string, data []byte, pool []model.Obligation) (*Result, error) {
	kind, err := ingest.KindFromName(name)
	if err != nil {
		return nil, err
	}
	res, err := e.Reconcile(data, kind, pool)
	if err != nil {
		return nil, fmt.Errorf("reconciling %s: %w", name, err)
	}
	return res, nil
}

// Reconcile parses a statement and matches it against pool. The only errors
// are *ingest.FormatError and *ingest.UnsupportedFormatError; malformed rows
// and unmatched transactions are reported in the Result.
func (e *Engine) Reconcile(data []byte, kind ingest.Kind, pool []model.Obligation) (*Result, error) {
	tbl, err := e.decoders.Read(data, kind)
	if err != nil {
		return nil, err
	}

	batch := statement.Build(tbl.Header, tbl.Rows, e.logger)
	for reason, n := range batch.Reasons {
		e.logger.Debug("skipped statement rows", "reason", string(reason), "rows", n)
	}
	matches := e.matcher.Match(batch.Transactions, pool)

	res := &Result{
		RunID:        uuid.NewString(),
		Transactions: batch.Transactions,
		Matches:      matches,
		Rejected:     rejectInvalidDates(batch.InvalidDates),
		Skipped:      tbl.Dropped + batch.Skipped,
		Report:       report.Summarize(matches),
	}

	e.logger.Info("reconciled statement",
		"run_id", res.RunID,
		"kind", string(kind),
		"transactions", res.Report.Total,
		"matched", res.Report.Matched,
		"high", res.Report.High,
		"medium", res.Report.Medium,
		"low_matched", res.Report.LowMatched,
		"invalid_dates", len(res.Rejected),
		"skipped", res.Skipped,
		"obligations", len(pool))
	return res, nil
}

func rejectInvalidDates(txns []model.BankTransaction) []model.ReconciliationMatch {
	if len(txns) == 0 {
		return nil
	}
	out := make([]model.ReconciliationMatch, len(txns))
	for i, t := range txns {
		out[i] = model.ReconciliationMatch{
			Transaction: t,
			Confidence:  model.ConfidenceLow,
			Reason:      model.ReasonInvalidDate,
		}
	}
	return out
}
