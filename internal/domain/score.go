package domain

import "math"

// DefaultAlpha is the fusion weight between reranker probability and scaled
// cosine similarity.
const DefaultAlpha = 0.75

// Match is a single reranked hit: one policy chunk scored against the input
// text. Ephemeral, recomputed per request.
type Match struct {
	PolicyID      string  `json:"policy_id"`
	BaseID        string  `json:"base_id"`
	RiskCategory  string  `json:"risk_category"`
	SnippetText   string  `json:"snippet_text"`
	RerankerLogit float64 `json:"reranker_logit"`
	RerankerProb  float64 `json:"reranker_prob"`
	CosSim        float64 `json:"cos_sim"`
	CombinedScore float64 `json:"combined_score"`
}

// Sigmoid maps a raw relevance logit to a probability in [0,1].
func Sigmoid(logit float64) float64 {
	return 1.0 / (1.0 + math.Exp(-logit))
}

// ScaleCosine maps a raw cosine similarity from [-1,1] to [0,1].
func ScaleCosine(cos float64) float64 {
	return (cos + 1.0) / 2.0
}

// CombineScores fuses the reranker probability with the scaled cosine
// similarity: alpha*prob + (1-alpha)*cosScaled. Both inputs and the result
// are in [0,1].
func CombineScores(prob, cosScaled, alpha float64) float64 {
	return alpha*prob + (1.0-alpha)*cosScaled
}
