// Package runlog keeps the append-only history of reconciliation runs.
package runlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Entry is one row in the run log.
type Entry struct {
	Timestamp    time.Time
	RunID        string
	Statement    string
	Transactions int
	Matched      int
	Unmatched    int
	MatchRate    float64
	Rejected     int
	Skipped      int
}

// Header is the CSV header for reconcile-log.csv.
const Header = "timestamp,run_id,statement,transactions,matched,unmatched,match_rate,rejected,skipped"

const (
	numFields       = 9
	logDir          = "logs"
	logFile         = "logs/reconcile-log.csv"
	colTimestamp    = 0
	colRunID        = 1
	colStatement    = 2
	colTransactions = 3
	colMatched      = 4
	colUnmatched    = 5
	colMatchRate    = 6
	colRejected     = 7
	colSkipped      = 8
)

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.Format(time.RFC3339)
	row[colRunID] = e.RunID
	row[colStatement] = e.Statement
	row[colTransactions] = strconv.Itoa(e.Transactions)
	row[colMatched] = strconv.Itoa(e.Matched)
	row[colUnmatched] = strconv.Itoa(e.Unmatched)
	row[colMatchRate] = strconv.FormatFloat(e.MatchRate, 'f', 1, 64)
	row[colRejected] = strconv.Itoa(e.Rejected)
	row[colSkipped] = strconv.Itoa(e.Skipped)
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}
	rate, err := strconv.ParseFloat(record[colMatchRate], 64)
	if err != nil {
		return Entry{}, fmt.Errorf("parsing match_rate %q: %w", record[colMatchRate], err)
	}

	e := Entry{
		Timestamp: ts,
		RunID:     record[colRunID],
		Statement: record[colStatement],
		MatchRate: rate,
	}
	counts := []struct {
		col  int
		name string
		dst  *int
	}{
		{colTransactions, "transactions", &e.Transactions},
		{colMatched, "matched", &e.Matched},
		{colUnmatched, "unmatched", &e.Unmatched},
		{colRejected, "rejected", &e.Rejected},
		{colSkipped, "skipped", &e.Skipped},
	}
	for _, c := range counts {
		n, err := strconv.Atoi(record[c.col])
		if err != nil {
			return Entry{}, fmt.Errorf("parsing %s %q: %w", c.name, record[c.col], err)
		}
		*c.dst = n
	}
	return e, nil
}

// Append writes entries to <repoRoot>/logs/reconcile-log.csv, creating the file and header if needed.
func Append(repoRoot string, entries []Entry) error {
	dir := filepath.Join(repoRoot, logDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	path := filepath.Join(repoRoot, logFile)
	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening run log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}

	return cw.Error()
}

// Read returns all entries from <repoRoot>/logs/reconcile-log.csv.
// Returns an empty slice if the file does not exist.
func Read(repoRoot string) ([]Entry, error) {
	f, err := os.Open(filepath.Join(repoRoot, logFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening run log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading run log CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
