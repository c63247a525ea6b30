package domain

// Violation accumulates every observation of one policy id across the scopes
// of a single document screening. Created on first observation, updated on
// each subsequent one, never deleted within the call.
type Violation struct {
	PolicyID     string   `json:"policy_id"`
	BaseID       string   `json:"base_id"`
	RiskCategory string   `json:"risk_category"`
	BestScore    float64  `json:"best_score"`
	Occurrences  int      `json:"occurrences"`
	Pages        []int    `json:"pages"`
	Contexts     []string `json:"contexts"`
	Severity     Severity `json:"violation_severity"`
}
