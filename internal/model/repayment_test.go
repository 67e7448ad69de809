package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

var (
	due  = time.Date(2024, 3, 13, 0, 0, 0, 0, time.UTC)
	paid = time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
)

func TestRepaymentRefs(t *testing.T) {
	tests := []struct {
		txnID, ref string
		want       []string
	}{
		{"TXN-9", "LOAN-7", []string{"TXN-9", "LOAN-7"}},
		{"", " LOAN-7 ", []string{"LOAN-7"}},
		{"  ", "", nil},
	}
	for _, tt := range tests {
		r := Repayment{TransactionID: tt.txnID, Reference: tt.ref}
		assert.Equal(t, tt.want, r.Refs(), "Refs(%q, %q)", tt.txnID, tt.ref)
	}
}

func TestRepaymentDate(t *testing.T) {
	assert.Equal(t, due, Repayment{DueDate: due, PaidDate: paid}.Date())
	assert.Equal(t, paid, Repayment{PaidDate: paid}.Date())
	assert.True(t, Repayment{}.Date().IsZero())
}

func TestRepaymentAmount(t *testing.T) {
	hundred := decimal.NewFromInt(100)
	ninety := decimal.NewFromInt(90)

	assert.True(t, hundred.Equal(Repayment{AmountDue: hundred, AmountPaid: ninety}.Amount()))
	assert.True(t, ninety.Equal(Repayment{AmountPaid: ninety}.Amount()))
	assert.True(t, ninety.Equal(Repayment{AmountDue: decimal.Zero, AmountPaid: ninety}.Amount()))
}

func TestRepaymentOutstanding(t *testing.T) {
	tests := []struct {
		status RepaymentStatus
		want   bool
	}{
		{RepaymentPending, true},
		{RepaymentOverdue, true},
		{"Overdue", true},
		{RepaymentPartial, false},
		{RepaymentPaid, false},
		{RepaymentCancelled, false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Repayment{Status: tt.status}.Outstanding(), "status %q", tt.status)
	}
}

func TestReconciliationMatch(t *testing.T) {
	unmatched := ReconciliationMatch{Confidence: ConfidenceLow, Reason: ReasonNoMatch}
	assert.False(t, unmatched.Matched())
	assert.Empty(t, unmatched.ObligationKey())

	matched := ReconciliationMatch{Obligation: Repayment{ID: "R1"}, Confidence: ConfidenceHigh}
	assert.True(t, matched.Matched())
	assert.Equal(t, "R1", matched.ObligationKey())
}
