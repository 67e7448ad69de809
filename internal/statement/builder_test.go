package statement

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	header := []string{"Date", "Description", "Reference", "Amount", "Account"}
	rows := [][]string{
		{"10/04/2024", "Payment, ref TXN-9", "TXN-9", "500.00", "12345678"},
		{"15/03/2024", "Loan repayment", "", "1,200.00", "12345678"},
		{"2024-04-12", "Refund", "", "-77.00", ""},
		{"not a date", "Garbage row", "", "10.00", ""},
		{"2024-04-13", "Zero row", "", "0.00", ""},
		{"2024-04-14", "Text amount", "", "n/a", ""},
		{"", "Missing date", "", "5.00", ""},
	}

	b := Build(header, rows, nil)
	require.Len(t, b.Transactions, 3)
	require.Len(t, b.InvalidDates, 1)
	assert.Equal(t, 3, b.Skipped)
	assert.Equal(t, map[SkipReason]int{
		SkipNonPositive:   1,
		SkipInvalidAmount: 1,
		SkipMissingField:  1,
	}, b.Reasons)

	first := b.Transactions[0]
	assert.True(t, date(2024, 10, 4).Equal(first.Date))
	assert.Equal(t, "Payment, ref TXN-9", first.Description)
	assert.Equal(t, "TXN-9", first.Reference)
	assert.Equal(t, "12345678", first.Account)
	assert.Equal(t, "500.00", first.Amount.StringFixed(2))

	assert.True(t, date(2024, 3, 15).Equal(b.Transactions[1].Date))
	assert.Equal(t, "1200.00", b.Transactions[1].Amount.StringFixed(2))
	assert.Equal(t, "77.00", b.Transactions[2].Amount.StringFixed(2), "sign is discarded")

	invalid := b.InvalidDates[0]
	assert.True(t, invalid.Date.IsZero())
	assert.Equal(t, "Garbage row", invalid.Description)
	assert.Equal(t, "10.00", invalid.Amount.StringFixed(2))
}

func TestBuild_SplitDebitCredit(t *testing.T) {
	header := []string{"Txn Date", "Details", "Debit", "Credit", "Balance"}
	rows := [][]string{
		{"2024-01-02", "Card purchase", "25.00", "", "975.00"},
		{"2024-01-03", "Salary", "0.00", "1,500.00", "2475.00"},
		{"2024-01-04", "Nothing", "", "", "2475.00"},
	}

	b := Build(header, rows, nil)
	require.Len(t, b.Transactions, 2)
	assert.Equal(t, "25.00", b.Transactions[0].Amount.StringFixed(2))
	assert.Equal(t, "1500.00", b.Transactions[1].Amount.StringFixed(2))
	assert.Equal(t, 1, b.Skipped)
}

func TestBuild_NoDateColumn(t *testing.T) {
	b := Build([]string{"Description", "Amount", "Balance"}, [][]string{
		{"Rent", "100", "900"},
		{"Coffee", "3", "897"},
	}, nil)
	assert.Empty(t, b.Transactions)
	assert.Empty(t, b.InvalidDates)
	assert.Equal(t, 2, b.Skipped)
	assert.Equal(t, 2, b.Reasons[SkipNoColumns])
}

func TestBuild_ShortRows(t *testing.T) {
	b := Build([]string{"Date", "Description", "Amount", "Reference"}, [][]string{
		{"2024-01-02", "Ragged", "9.50"},
	}, nil)
	require.Len(t, b.Transactions, 1)
	assert.Empty(t, b.Transactions[0].Reference)
}

func TestBuild_Empty(t *testing.T) {
	b := Build(nil, nil, nil)
	assert.Empty(t, b.Transactions)
	assert.Zero(t, b.Skipped)
	assert.Empty(t, b.Reasons)
}

func TestBuild_LogsToGivenLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	Build([]string{"Date", "Description", "Amount"}, [][]string{
		{"2024-01-02", "Refund", "0.00"},
		{"someday", "Rent", "10.00"},
	}, logger)
	assert.Contains(t, buf.String(), `msg="skipping statement row" row=1 reason="non-positive amount"`)
	assert.Contains(t, buf.String(), `msg="statement row has invalid date" row=2 date=someday`)
}

func TestIsHeader(t *testing.T) {
	assert.True(t, IsHeader([]string{"Txn Date", "Narration", "Credit"}))
	assert.False(t, IsHeader([]string{"Account", "0123456789", "NGN"}), "no date column")
	assert.False(t, IsHeader([]string{"Date", "Branch", "Officer"}), "no amount column")
}
