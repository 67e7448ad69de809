package repayments

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/reconcile/internal/model"
)

// Header is the CSV header for repayments.csv.
const Header = "id,transaction_id,reference,due_date,paid_date,amount_due,amount_paid,status"

const (
	numFields     = 8
	dateFormat    = "2006-01-02"
	colID         = 0
	colTxnID      = 1
	colRef        = 2
	colDueDate    = 3
	colPaidDate   = 4
	colAmountDue  = 5
	colAmountPaid = 6
	colStatus     = 7
)

// ReadRepayments reads repayments.csv.
func ReadRepayments(r io.Reader) ([]model.Repayment, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading repayments CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var out []model.Repayment
	seen := make(map[string]bool, len(records)-1)
	for i, rec := range records[1:] {
		rp, err := UnmarshalRepayment(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		if seen[rp.ID] {
			return nil, fmt.Errorf("row %d: duplicate repayment id %q", i+2, rp.ID)
		}
		seen[rp.ID] = true
		out = append(out, rp)
	}
	return out, nil
}

// WriteRepayments writes repayments.csv (including header).
func WriteRepayments(w io.Writer, repayments []model.Repayment) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, rp := range repayments {
		if err := cw.Write(MarshalRepayment(rp)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// MarshalRepayment converts a Repayment to a CSV row.
func MarshalRepayment(rp model.Repayment) []string {
	row := make([]string, numFields)
	row[colID] = rp.ID
	row[colTxnID] = rp.TransactionID
	row[colRef] = rp.Reference
	if !rp.DueDate.IsZero() {
		row[colDueDate] = rp.DueDate.Format(dateFormat)
	}
	if !rp.PaidDate.IsZero() {
		row[colPaidDate] = rp.PaidDate.Format(dateFormat)
	}
	if !rp.AmountDue.IsZero() {
		row[colAmountDue] = rp.AmountDue.StringFixed(2)
	}
	if !rp.AmountPaid.IsZero() {
		row[colAmountPaid] = rp.AmountPaid.StringFixed(2)
	}
	row[colStatus] = string(rp.Status)
	return row
}

// UnmarshalRepayment converts a CSV row to a Repayment.
func UnmarshalRepayment(record []string) (model.Repayment, error) {
	if len(record) != numFields {
		return model.Repayment{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}
	if record[colID] == "" {
		return model.Repayment{}, errors.New("missing id")
	}

	var (
		rp  model.Repayment
		err error
	)
	rp.ID = record[colID]
	rp.TransactionID = record[colTxnID]
	rp.Reference = record[colRef]
	rp.Status = model.RepaymentStatus(strings.ToLower(record[colStatus]))

	if rp.DueDate, err = parseOptionalDate(record[colDueDate]); err != nil {
		return model.Repayment{}, fmt.Errorf("parsing due_date %q: %w", record[colDueDate], err)
	}
	if rp.PaidDate, err = parseOptionalDate(record[colPaidDate]); err != nil {
		return model.Repayment{}, fmt.Errorf("parsing paid_date %q: %w", record[colPaidDate], err)
	}
	if rp.AmountDue, err = parseOptionalAmount(record[colAmountDue]); err != nil {
		return model.Repayment{}, fmt.Errorf("parsing amount_due %q: %w", record[colAmountDue], err)
	}
	if rp.AmountPaid, err = parseOptionalAmount(record[colAmountPaid]); err != nil {
		return model.Repayment{}, fmt.Errorf("parsing amount_paid %q: %w", record[colAmountPaid], err)
	}

	if rp.DueDate.IsZero() && rp.PaidDate.IsZero() {
		return model.Repayment{}, fmt.Errorf("repayment %s has neither due_date nor paid_date", rp.ID)
	}
	if !rp.AmountDue.IsPositive() && !rp.AmountPaid.IsPositive() {
		return model.Repayment{}, fmt.Errorf("repayment %s has no positive amount", rp.ID)
	}
	return rp, nil
}

func parseOptionalDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(dateFormat, s)
}

func parseOptionalAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
