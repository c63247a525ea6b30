package domain

import (
	"context"
	"fmt"
)

// LogitBatch normalizes the output shape of a pairwise relevance model. A
// provider scoring a single pair returns a scalar; scoring a batch returns an
// ordered sequence. The tag is fixed at construction, so consumers never
// inspect shapes at runtime.
type LogitBatch struct {
	single bool
	scalar float64
	batch  []float64
}

// OneLogit wraps a scalar relevance logit.
func OneLogit(v float64) LogitBatch {
	return LogitBatch{single: true, scalar: v}
}

// ManyLogits wraps an ordered batch of relevance logits.
func ManyLogits(vs []float64) LogitBatch {
	return LogitBatch{batch: vs}
}

// Values returns exactly n logits, expanding the scalar form into a
// one-element slice. A count mismatch is an internal invariant violation at
// the model boundary, reported as an error rather than silently truncated.
func (b LogitBatch) Values(n int) ([]float64, error) {
	if b.single {
		if n != 1 {
			return nil, fmt.Errorf("relevance model returned 1 logit for %d pairs", n)
		}
		return []float64{b.scalar}, nil
	}
	if len(b.batch) != n {
		return nil, fmt.Errorf("relevance model returned %d logits for %d pairs", len(b.batch), n)
	}
	return b.batch, nil
}

// RelevanceScorer is the pairwise relevance model contract. ScorePair covers
// the singleton case explicitly; ScorePairs scores (query, doc) for every doc
// in order.
type RelevanceScorer interface {
	ScorePair(ctx context.Context, query, doc string) (float64, error)
	ScorePairs(ctx context.Context, query string, docs []string) (LogitBatch, error)
}
