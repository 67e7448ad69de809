// Package results persists reconciliation matches for review.
package results

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/reconcile/internal/model"
)

// Header is the CSV header for a matches file.
const Header = "date,description,amount,reference,account,repayment_id,confidence,reason"

// DefaultDir is where results are written relative to the workspace root.
const DefaultDir = "results"

const (
	numFields  = 8
	dateFormat = "2006-01-02"
	colDate    = 0
	colDesc    = 1
	colAmount  = 2
	colRef     = 3
	colAccount = 4
	colRepayID = 5
	colConf    = 6
	colReason  = 7
	fileSuffix = "-matches.csv"
)

// ReadMatches reads a matches file. Matched rows carry a Repayment holding
// only the recorded ID; the rest of the obligation is not stored.
func ReadMatches(r io.Reader) ([]model.ReconciliationMatch, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading matches CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var out []model.ReconciliationMatch
	for i, rec := range records[1:] {
		m, err := UnmarshalMatch(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		out = append(out, m)
	}
	return out, nil
}

// WriteMatches writes matches (including header).
func WriteMatches(w io.Writer, matches []model.ReconciliationMatch) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, m := range matches {
		if err := cw.Write(MarshalMatch(m)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// MarshalMatch converts a match to a CSV row.
func MarshalMatch(m model.ReconciliationMatch) []string {
	row := make([]string, numFields)
	if !m.Transaction.Date.IsZero() {
		row[colDate] = m.Transaction.Date.Format(dateFormat)
	}
	row[colDesc] = m.Transaction.Description
	row[colAmount] = m.Transaction.Amount.StringFixed(2)
	row[colRef] = m.Transaction.Reference
	row[colAccount] = m.Transaction.Account
	row[colRepayID] = m.ObligationKey()
	row[colConf] = string(m.Confidence)
	row[colReason] = m.Reason
	return row
}

// UnmarshalMatch converts a CSV row to a match.
func UnmarshalMatch(record []string) (model.ReconciliationMatch, error) {
	if len(record) != numFields {
		return model.ReconciliationMatch{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	var txn model.BankTransaction
	if record[colDate] != "" {
		d, err := time.Parse(dateFormat, record[colDate])
		if err != nil {
			return model.ReconciliationMatch{}, fmt.Errorf("parsing date %q: %w", record[colDate], err)
		}
		txn.Date = d
	}
	amt, err := decimal.NewFromString(record[colAmount])
	if err != nil {
		return model.ReconciliationMatch{}, fmt.Errorf("parsing amount %q: %w", record[colAmount], err)
	}
	txn.Amount = amt
	txn.Description = record[colDesc]
	txn.Reference = record[colRef]
	txn.Account = record[colAccount]

	conf := model.Confidence(record[colConf])
	switch conf {
	case model.ConfidenceHigh, model.ConfidenceMedium, model.ConfidenceLow:
	default:
		return model.ReconciliationMatch{}, fmt.Errorf("unknown confidence %q", record[colConf])
	}

	m := model.ReconciliationMatch{
		Transaction: txn,
		Confidence:  conf,
		Reason:      record[colReason],
	}
	if id := record[colRepayID]; id != "" {
		m.Obligation = model.Repayment{ID: id}
	}
	return m, nil
}

// FileName returns the matches file name for a statement file.
func FileName(statement string) string {
	base := filepath.Base(statement)
	return strings.TrimSuffix(base, filepath.Ext(base)) + fileSuffix
}

// Save writes matches for a statement to <dir>/<statement>-matches.csv and
// returns the written path.
func Save(dir, statement string, matches []model.ReconciliationMatch) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating results dir: %w", err)
	}

	path := filepath.Join(dir, FileName(statement))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating results file: %w", err)
	}
	defer f.Close()

	if err := WriteMatches(f, matches); err != nil {
		return "", fmt.Errorf("writing results: %w", err)
	}
	return path, nil
}

// Load reads a matches file from disk.
func Load(path string) ([]model.ReconciliationMatch, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening results: %w", err)
	}
	defer f.Close()

	matches, err := ReadMatches(f)
	if err != nil {
		return nil, fmt.Errorf("reading results %s: %w", path, err)
	}
	return matches, nil
}

// Reviewable drops rows rejected before matching, leaving the set a
// report is computed over.
func Reviewable(matches []model.ReconciliationMatch) []model.ReconciliationMatch {
	out := make([]model.ReconciliationMatch, 0, len(matches))
	for _, m := range matches {
		if m.Reason == model.ReasonInvalidDate && !m.Matched() {
			continue
		}
		out = append(out, m)
	}
	return out
}
