package match

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/reconcile/internal/model"
)

type candidate struct {
	obligation model.Obligation
	days       int
	amountDiff decimal.Decimal
	score      float64
}

// Score rates a candidate by date distance and amount difference:
//
//	(1 / (days + 1)) * (1 / (amountDiff + 0.01))
//
// A same-day exact-amount pair scores 100.
func Score(days int, amountDiff decimal.Decimal) float64 {
	return 1 / float64(days+1) * (1 / amountDiff.Add(scoreEpsilon).InexactFloat64())
}

// byProximity returns the highest scoring unclaimed obligation within the
// date window and amount tolerance. Equal scores keep pool order.
func (r *run) byProximity(txn model.BankTransaction) (model.Obligation, candidate) {
	var cands []candidate
	for _, o := range r.pool {
		if !r.available(o) {
			continue
		}
		date := o.Date()
		if date.IsZero() {
			continue
		}
		days := daysApart(txn.Date, date)
		if days > r.opts.DateWindowDays {
			continue
		}
		diff, ok := r.withinTolerance(txn.Amount, o.Amount())
		if !ok {
			continue
		}
		cands = append(cands, candidate{
			obligation: o,
			days:       days,
			amountDiff: diff,
			score:      Score(days, diff),
		})
	}
	if len(cands) == 0 {
		return nil, candidate{}
	}

	sort.SliceStable(cands, func(i, j int) bool { return cands[i].score > cands[j].score })
	best := cands[0]
	if best.score <= r.opts.MinScore {
		return nil, candidate{}
	}
	return best.obligation, best
}

// byAmount returns the first unclaimed outstanding obligation whose amount is
// within tolerance, regardless of date.
func (r *run) byAmount(txn model.BankTransaction) model.Obligation {
	for _, o := range r.pool {
		if !r.available(o) || !o.Outstanding() {
			continue
		}
		if _, ok := r.withinTolerance(txn.Amount, o.Amount()); ok {
			return o
		}
	}
	return nil
}
