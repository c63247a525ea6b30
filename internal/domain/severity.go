package domain

// Severity is a risk level assigned to a violation or a whole document.
type Severity string

const (
	SeverityLow    Severity = "Low"
	SeverityMedium Severity = "Medium"
	SeverityHigh   Severity = "High"
)

// DecisionLevel is the terminal decision of a screening call. It extends
// Severity with the no-input state, which is a valid outcome rather than an
// error.
type DecisionLevel string

const (
	DecisionLow     DecisionLevel = "Low"
	DecisionMedium  DecisionLevel = "Medium"
	DecisionHigh    DecisionLevel = "High"
	DecisionNoInput DecisionLevel = "no_input"
)

// Level converts a severity to the equivalent decision level.
func (s Severity) Level() DecisionLevel {
	return DecisionLevel(s)
}
