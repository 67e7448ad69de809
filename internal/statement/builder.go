package statement

import (
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/reconcile/internal/model"
)

// SkipReason says why a row produced no transaction.
type SkipReason string

const (
	SkipNoColumns     SkipReason = "no date or amount column"
	SkipMissingField  SkipReason = "missing date or amount"
	SkipInvalidAmount SkipReason = "invalid amount"
	SkipNonPositive   SkipReason = "non-positive amount"
)

// Batch is the result of building transactions from statement rows.
type Batch struct {
	Transactions []model.BankTransaction
	// InvalidDates holds rows with a usable amount but an unparsable date.
	// Their Date is zero and they must not be matched.
	InvalidDates []model.BankTransaction
	// Skipped counts rows dropped for any SkipReason.
	Skipped int
	Reasons map[SkipReason]int
}

func (b *Batch) skip(reason SkipReason, n int) {
	if n == 0 {
		return
	}
	if b.Reasons == nil {
		b.Reasons = make(map[SkipReason]int)
	}
	b.Reasons[reason] += n
	b.Skipped += n
}

// IsHeader reports whether row maps to at least a date and an amount column.
func IsHeader(row []string) bool {
	return MapHeader(row).Usable()
}

// Build maps the header and converts each row into a BankTransaction.
// Rows that fail validation are dropped and counted, never returned as errors:
// section headers, subtotals and footers are routine in bank exports.
func Build(header []string, rows [][]string, logger *slog.Logger) Batch {
	if logger == nil {
		logger = slog.Default()
	}

	var b Batch
	cols := MapHeader(header)
	if !cols.Usable() {
		if len(rows) > 0 {
			logger.Debug("statement has no date or amount column", "header", header, "rows", len(rows))
		}
		b.skip(SkipNoColumns, len(rows))
		return b
	}

	for i, row := range rows {
		txn, reason, ok := buildRow(cols, row)
		if !ok {
			b.skip(reason, 1)
			logger.Debug("skipping statement row", "row", i+1, "reason", string(reason))
			continue
		}
		if txn.Date.IsZero() {
			b.InvalidDates = append(b.InvalidDates, txn)
			logger.Debug("statement row has invalid date", "row", i+1, "date", cell(row, cols.Date))
			continue
		}
		b.Transactions = append(b.Transactions, txn)
	}
	return b
}

// buildRow returns a transaction with a zero Date when only the date failed.
func buildRow(cols Columns, row []string) (model.BankTransaction, SkipReason, bool) {
	rawDate := cell(row, cols.Date)
	amount, reason, ok := rowAmount(cols, row)
	if !ok {
		return model.BankTransaction{}, reason, false
	}
	if rawDate == "" {
		return model.BankTransaction{}, SkipMissingField, false
	}

	txn := model.BankTransaction{
		Description: cell(row, cols.Description),
		Amount:      amount,
		Reference:   cell(row, cols.Reference),
		Account:     cell(row, cols.Account),
	}
	if date, err := ParseDate(rawDate); err == nil {
		txn.Date = date
	}
	return txn, "", true
}

// rowAmount takes the first amount column holding a positive value.
func rowAmount(cols Columns, row []string) (decimal.Decimal, SkipReason, bool) {
	reason := SkipMissingField
	for _, idx := range cols.Amount {
		raw := cell(row, idx)
		if raw == "" {
			continue
		}
		amount, err := ParseAmount(raw)
		switch {
		case err != nil:
			reason = SkipInvalidAmount
		case !amount.IsPositive():
			reason = SkipNonPositive
		default:
			return amount, "", true
		}
	}
	return decimal.Zero, reason, false
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
