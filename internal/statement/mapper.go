// Package statement turns decoded statement rows into bank transactions.
package statement

import "strings"

// Field is a logical transaction field a column can feed.
type Field int

const (
	FieldNone Field = iota
	FieldDate
	FieldDescription
	FieldAmount
	FieldReference
	FieldAccount
)

// fieldRules are checked in order; the first rule a header matches wins.
var fieldRules = []struct {
	field    Field
	synonyms []string
}{
	{FieldDate, []string{"date"}},
	{FieldDescription, []string{"description", "narration", "details", "memo", "particulars"}},
	{FieldAmount, []string{"amount", "debit", "credit", "value"}},
	{FieldReference, []string{"reference", "ref", "transaction"}},
	{FieldAccount, []string{"account"}},
}

// Columns holds the column index feeding each field, -1 when unmapped.
// Amount lists every amount-like column so split debit/credit exports work.
type Columns struct {
	Date        int
	Description int
	Amount      []int
	Reference   int
	Account     int
}

// Usable reports whether rows can produce transactions at all.
func (c Columns) Usable() bool {
	return c.Date >= 0 && len(c.Amount) > 0
}

// ClassifyHeader returns the field a single header name maps to.
func ClassifyHeader(header string) Field {
	h := strings.ToLower(strings.TrimSpace(header))
	if h == "" {
		return FieldNone
	}
	for _, rule := range fieldRules {
		for _, syn := range rule.synonyms {
			if strings.Contains(h, syn) {
				return rule.field
			}
		}
	}
	return FieldNone
}

// MapHeader assigns header columns to fields. For single-column fields the
// leftmost matching column wins.
func MapHeader(header []string) Columns {
	cols := Columns{Date: -1, Description: -1, Reference: -1, Account: -1}
	first := func(dst *int, i int) {
		if *dst < 0 {
			*dst = i
		}
	}
	for i, h := range header {
		switch ClassifyHeader(h) {
		case FieldDate:
			first(&cols.Date, i)
		case FieldDescription:
			first(&cols.Description, i)
		case FieldAmount:
			cols.Amount = append(cols.Amount, i)
		case FieldReference:
			first(&cols.Reference, i)
		case FieldAccount:
			first(&cols.Account, i)
		}
	}
	return cols
}
