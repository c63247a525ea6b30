package domain

// Decision is the terminal output of a single-query screening.
type Decision struct {
	Query        string        `json:"query"`
	Level        DecisionLevel `json:"decision"`
	Confidence   float64       `json:"confidence"`
	ViolatedAct  string        `json:"violated_act,omitempty"`
	PolicyID     string        `json:"policy_id,omitempty"`
	RiskCategory string        `json:"risk_category"`
	Reason       string        `json:"reason"`
	PII          []string      `json:"pii_detected"`
	Safety       SafetySummary `json:"safety_summary"`
	DurationSec  float64       `json:"duration_s"`
}

// Page is one pre-extracted scope of a document, produced by the external
// text extractor (one entry per page).
type Page struct {
	PageNum    int    `json:"page_num"`
	Text       string `json:"text"`
	Selectable bool   `json:"is_selectable"`
}

// PageEvidence is the per-page screening record included in a document report.
type PageEvidence struct {
	PageNum    int           `json:"page_num"`
	Selectable bool          `json:"is_selectable"`
	PII        []string      `json:"pii"`
	Safety     SafetySummary `json:"safety_summary"`
	TopMatches []Match       `json:"top_matches"`
}

// Guideline is the human-readable summary attached to a document report.
type Guideline struct {
	Text            string           `json:"text"`
	Counts          map[Severity]int `json:"counts"`
	AggregationRule string           `json:"aggregation_rule"`
	Examples        []string         `json:"examples"`
}

// DocumentReport is the terminal output of a document screening. Persisted by
// the caller, not by this service.
type DocumentReport struct {
	ReportID                 string         `json:"report_id"`
	NumPages                 int            `json:"num_pages"`
	Violations               []Violation    `json:"violations_all"`
	ViolationsAboveThreshold []Violation    `json:"violations_above_threshold"`
	NumViolations            int            `json:"num_violations"`
	NumAboveThreshold        int            `json:"num_violations_above_threshold"`
	OverallConfidence        float64        `json:"overall_confidence"`
	RiskLevel                Severity       `json:"risk_level"`
	PII                      []string       `json:"pii_detected_doc"`
	Safety                   SafetySummary  `json:"safety_summary_doc"`
	Pages                    []PageEvidence `json:"page_evidence"`
	Guideline                Guideline      `json:"guideline"`
	DurationSec              float64        `json:"duration_s"`
}
