// Package risk holds the deterministic severity and aggregation policy. All
// functions are pure and total.
package risk

import "github.com/kailas-cloud/policyscan/internal/domain"

// Default severity thresholds.
const (
	DefaultHighThreshold   = 0.7
	DefaultMediumThreshold = 0.4
)

// Policy maps scores to severities via two thresholds.
type Policy struct {
	High   float64
	Medium float64
}

// Default returns the standard threshold policy.
func Default() Policy {
	return Policy{High: DefaultHighThreshold, Medium: DefaultMediumThreshold}
}

// Severity maps a score in [0,1] to a severity label. Monotonic
// non-decreasing; both thresholds are inclusive.
func (p Policy) Severity(score float64) domain.Severity {
	switch {
	case score >= p.High:
		return domain.SeverityHigh
	case score >= p.Medium:
		return domain.SeverityMedium
	default:
		return domain.SeverityLow
	}
}

// Aggregate folds per-violation severities plus an independent auxiliary
// signal into one document-level severity. A single High violation dominates;
// otherwise a strict majority of Medium violations dominates; otherwise the
// auxiliary score alone can still escalate.
func (p Policy) Aggregate(violations []domain.Violation, auxScore float64) domain.Severity {
	if len(violations) == 0 {
		return p.Severity(auxScore)
	}

	var high, medium int
	for _, v := range violations {
		switch v.Severity {
		case domain.SeverityHigh:
			high++
		case domain.SeverityMedium:
			medium++
		}
	}

	if high > 0 {
		return domain.SeverityHigh
	}
	// Strict majority: exactly half is not enough.
	if float64(medium) > float64(len(violations))/2 {
		return domain.SeverityMedium
	}
	return p.Severity(auxScore)
}
