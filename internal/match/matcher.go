// Package match assigns bank transactions to obligations.
//
// Each transaction tries three strategies in order and stops at the first
// that yields a candidate:
//
//  1. reference: the transaction reference equals or overlaps an obligation
//     identifier (high confidence);
//  2. proximity: amount within tolerance and date within the window, ranked
//     by score (medium confidence);
//  3. amount only: amount within tolerance on a still-outstanding obligation
//     (low confidence).
//
// Assignment is greedy and one-to-one: transactions are processed in input
// order and an obligation claimed by one is unavailable to the rest of the
// run. Reordering the input can change the result.
package match

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/reconcile/internal/model"
)

// Defaults for Options.
const (
	DefaultDateWindowDays = 5
	DefaultMinScore       = 0.1
)

// DefaultTolerance is the largest amount difference still treated as equal.
var DefaultTolerance = decimal.New(1, -2)

// scoreEpsilon keeps the proximity score finite for exact amounts.
var scoreEpsilon = decimal.New(1, -2)

// Options tunes the proximity and amount strategies.
type Options struct {
	DateWindowDays int
	Tolerance      decimal.Decimal // inclusive
	MinScore       float64         // proximity scores must exceed this
}

// DefaultOptions returns a 5-day window, 0.01 tolerance and 0.1 minimum score.
func DefaultOptions() Options {
	return Options{
		DateWindowDays: DefaultDateWindowDays,
		Tolerance:      DefaultTolerance,
		MinScore:       DefaultMinScore,
	}
}

// Matcher holds no per-run state and may be shared between goroutines.
type Matcher struct {
	opts Options
}

// New creates a Matcher.
func New(opts Options) *Matcher {
	return &Matcher{opts: opts}
}

// Match returns one ReconciliationMatch per transaction, in input order.
// Obligations are considered in pool order.
func (m *Matcher) Match(txns []model.BankTransaction, pool []model.Obligation) []model.ReconciliationMatch {
	r := run{opts: m.opts, pool: pool, claimed: make(map[string]bool, len(txns))}
	matches := make([]model.ReconciliationMatch, 0, len(txns))
	for _, txn := range txns {
		matches = append(matches, r.matchOne(txn))
	}
	return matches
}

// run owns the claimed set for a single Match call.
type run struct {
	opts    Options
	pool    []model.Obligation
	claimed map[string]bool
}

func (r *run) matchOne(txn model.BankTransaction) model.ReconciliationMatch {
	if o, ref := r.byReference(txn); o != nil {
		return r.claim(txn, o, model.ConfidenceHigh, fmt.Sprintf("Reference match on %q", ref))
	}
	if o, c := r.byProximity(txn); o != nil {
		return r.claim(txn, o, model.ConfidenceMedium,
			fmt.Sprintf("Amount and date match (%d days apart, score %.2f)", c.days, c.score))
	}
	if o := r.byAmount(txn); o != nil {
		return r.claim(txn, o, model.ConfidenceLow, "Amount match on outstanding obligation, date not checked")
	}
	return model.ReconciliationMatch{
		Transaction: txn,
		Confidence:  model.ConfidenceLow,
		Reason:      model.ReasonNoMatch,
	}
}

func (r *run) claim(txn model.BankTransaction, o model.Obligation, c model.Confidence, reason string) model.ReconciliationMatch {
	r.claimed[o.Key()] = true
	return model.ReconciliationMatch{
		Transaction: txn,
		Obligation:  o,
		Confidence:  c,
		Reason:      reason,
	}
}

func (r *run) available(o model.Obligation) bool {
	return o != nil && !r.claimed[o.Key()]
}

// byReference returns the first unclaimed obligation whose key or refs equal,
// contain, or are contained in the transaction reference.
func (r *run) byReference(txn model.BankTransaction) (model.Obligation, string) {
	ref := strings.ToLower(strings.TrimSpace(txn.Reference))
	if ref == "" {
		return nil, ""
	}
	for _, o := range r.pool {
		if !r.available(o) {
			continue
		}
		for _, id := range append([]string{o.Key()}, o.Refs()...) {
			if refsOverlap(ref, strings.ToLower(strings.TrimSpace(id))) {
				return o, id
			}
		}
	}
	return nil, ""
}

func refsOverlap(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return a == b || strings.Contains(a, b) || strings.Contains(b, a)
}

// withinTolerance reports |a-b| <= tolerance and returns the difference.
func (r *run) withinTolerance(a, b decimal.Decimal) (decimal.Decimal, bool) {
	diff := a.Sub(b).Abs()
	return diff, diff.LessThanOrEqual(r.opts.Tolerance)
}

// daysApart returns the absolute number of calendar days between a and b.
func daysApart(a, b time.Time) int {
	a = time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	b = time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	d := int(a.Sub(b).Hours() / 24)
	if d < 0 {
		return -d
	}
	return d
}
