// Package report summarizes a reconciliation run.
package report

import (
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/reconcile/internal/model"
)

// Report is a read-only aggregate over a list of matches.
type Report struct {
	Total      int
	Matched    int
	Unmatched  int
	High       int
	Medium     int
	LowMatched int // low confidence but resolved to an obligation

	TotalValue     decimal.Decimal
	MatchedValue   decimal.Decimal
	UnmatchedValue decimal.Decimal

	MatchRate float64 // percentage, 0 when Total is 0
}

// Summarize reduces matches into a Report. It does not modify its input.
func Summarize(matches []model.ReconciliationMatch) Report {
	r := Report{
		Total:        len(matches),
		TotalValue:   decimal.Zero,
		MatchedValue: decimal.Zero,
	}
	for _, m := range matches {
		r.TotalValue = r.TotalValue.Add(m.Transaction.Amount)
		if !m.Matched() {
			continue
		}
		r.Matched++
		r.MatchedValue = r.MatchedValue.Add(m.Transaction.Amount)
		switch m.Confidence {
		case model.ConfidenceHigh:
			r.High++
		case model.ConfidenceMedium:
			r.Medium++
		default:
			r.LowMatched++
		}
	}
	r.Unmatched = r.Total - r.Matched
	r.UnmatchedValue = r.TotalValue.Sub(r.MatchedValue)
	if r.Total > 0 {
		r.MatchRate = float64(r.Matched) * 100 / float64(r.Total)
	}
	return r
}
