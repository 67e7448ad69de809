package model

// Confidence ranks how trustworthy an automatic match is before review.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Reasons recorded on matches that did not resolve to an obligation.
const (
	ReasonNoMatch     = "No match found"
	ReasonInvalidDate = "Invalid date format"
)

// ReconciliationMatch is the outcome for one bank transaction.
type ReconciliationMatch struct {
	Transaction BankTransaction
	Obligation  Obligation // nil when unmatched
	Confidence  Confidence
	Reason      string
}

// Matched reports whether an obligation was assigned.
func (m ReconciliationMatch) Matched() bool {
	return m.Obligation != nil
}

// ObligationKey returns the matched obligation's key, or "" when unmatched.
func (m ReconciliationMatch) ObligationKey() string {
	if m.Obligation == nil {
		return ""
	}
	return m.Obligation.Key()
}
