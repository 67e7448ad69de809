package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// BankTransaction represents a parsed bank statement row.
type BankTransaction struct {
	Date        time.Time // calendar date, UTC midnight
	Description string
	Amount      decimal.Decimal // always positive; debit/credit direction is discarded
	Reference   string
	Account     string // source account, informational only
}
