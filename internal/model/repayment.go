package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Obligation is the narrow view the matcher needs of an outstanding
// financial record. Storage of the record stays with the caller.
type Obligation interface {
	// Key uniquely identifies the obligation within a pool.
	Key() string
	// Refs returns the explicit reference and any alternate identifiers.
	Refs() []string
	// Date returns the due date, or the paid date when there is no due date.
	Date() time.Time
	// Amount returns the amount due, or the amount paid when nothing is due.
	Amount() decimal.Decimal
	// Outstanding reports whether the obligation is still pending or overdue.
	Outstanding() bool
}

// RepaymentStatus represents the lifecycle state of a repayment.
type RepaymentStatus string

const (
	RepaymentPending   RepaymentStatus = "pending"
	RepaymentOverdue   RepaymentStatus = "overdue"
	RepaymentPartial   RepaymentStatus = "partial"
	RepaymentPaid      RepaymentStatus = "paid"
	RepaymentCancelled RepaymentStatus = "cancelled"
)

// Repayment is a scheduled repayment, one row in repayments.csv.
type Repayment struct {
	ID            string
	TransactionID string // payment provider or bank transaction id, if known
	Reference     string
	DueDate       time.Time // zero if absent
	PaidDate      time.Time // zero if absent
	AmountDue     decimal.Decimal
	AmountPaid    decimal.Decimal
	Status        RepaymentStatus
}

// Key returns the repayment ID.
func (r Repayment) Key() string { return r.ID }

// Refs returns the non-empty transaction id and reference.
func (r Repayment) Refs() []string {
	var refs []string
	for _, s := range []string{r.TransactionID, r.Reference} {
		if s = strings.TrimSpace(s); s != "" {
			refs = append(refs, s)
		}
	}
	return refs
}

// Date returns DueDate, falling back to PaidDate.
func (r Repayment) Date() time.Time {
	if !r.DueDate.IsZero() {
		return r.DueDate
	}
	return r.PaidDate
}

// Amount returns AmountDue, falling back to AmountPaid.
func (r Repayment) Amount() decimal.Decimal {
	if r.AmountDue.IsPositive() {
		return r.AmountDue
	}
	return r.AmountPaid
}

// Outstanding reports whether the repayment is pending or overdue.
func (r Repayment) Outstanding() bool {
	switch RepaymentStatus(strings.ToLower(string(r.Status))) {
	case RepaymentPending, RepaymentOverdue:
		return true
	default:
		return false
	}
}
