// Package entity defines the core domain models of the detection feature.
package entity

// Verdict is the classification outcome of a detection method or a decision strategy.
type Verdict string

const (
	VerdictPhishing     Verdict = "PHISHING"
	VerdictNotPhishing  Verdict = "NOT_PHISHING"
	VerdictInconclusive Verdict = "INCONCLUSIVE"
	// VerdictProcessing marks a result that is not final yet.
	// Decision strategies ignore it.
	VerdictProcessing Verdict = "PROCESSING"
)

// IsFinal reports whether v is a terminal classification.
func (v Verdict) IsFinal() bool {
	switch v {
	case VerdictPhishing, VerdictNotPhishing, VerdictInconclusive:
		return true
	default:
		return false
	}
}

// ParseVerdict maps a name to a Verdict. Unknown names yield VerdictInconclusive and false.
func ParseVerdict(s string) (Verdict, bool) {
	switch v := Verdict(s); v {
	case VerdictPhishing, VerdictNotPhishing, VerdictInconclusive, VerdictProcessing:
		return v, true
	default:
		return VerdictInconclusive, false
	}
}
