package domain

import "context"

// Safety notice colors.
const (
	NoticeGreen = "green"
	NoticeRed   = "red"
)

// SafetySpan is a per-sentence toxicity observation.
type SafetySpan struct {
	Index      int                `json:"idx"`
	Text       string             `json:"text"`
	LexHits    []string           `json:"lex_hits"`
	MLScore    float64            `json:"ml_score"`
	PerLabel   map[string]float64 `json:"per_label"`
	Categories []string           `json:"categories"`
}

// SafetySummary is the document-level toxicity verdict. DocScore is the
// maximum per-sentence classifier score across the text and is the auxiliary
// signal consumed by decision fusing.
type SafetySummary struct {
	Notice     string   `json:"notice"`
	Message    string   `json:"message"`
	Categories []string `json:"categories,omitempty"`
	DocScore   float64  `json:"doc_toxic_score"`
}

// ToxicityClassifier scores one sentence against a set of toxicity labels,
// each in [0,1]. External model service; may be absent.
type ToxicityClassifier interface {
	Classify(ctx context.Context, sentence string) (map[string]float64, error)
}
