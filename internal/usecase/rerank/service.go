// Package rerank scores (text, candidate snippet) pairs with the pairwise
// relevance model and fuses that signal with raw vector similarity.
package rerank

import (
	"context"
	"fmt"
	"sort"

	"github.com/kailas-cloud/policyscan/internal/domain"
	"github.com/kailas-cloud/policyscan/internal/index"
)

// Service is the relevance reranker.
type Service struct {
	corpus  CorpusReader
	vectors VectorReader
	embed   Embedder
	scorer  domain.RelevanceScorer
	alpha   float64
}

// New creates a reranker. alpha is the fusion weight for the reranker
// probability; the remainder weights the scaled cosine similarity.
func New(corpus CorpusReader, vectors VectorReader, embed Embedder, scorer domain.RelevanceScorer, alpha float64) *Service {
	if alpha <= 0 || alpha > 1 {
		alpha = domain.DefaultAlpha
	}
	return &Service{corpus: corpus, vectors: vectors, embed: embed, scorer: scorer, alpha: alpha}
}

// Rerank scores every known candidate and returns at most topN matches sorted
// by combined score descending. Candidate ids missing from the corpus are
// dropped silently; an empty filtered list yields an empty result. Ties keep
// the original candidate order.
func (s *Service) Rerank(ctx context.Context, text string, candidateIDs []string, topN int) ([]domain.Match, error) {
	chunks := make([]domain.PolicyChunk, 0, len(candidateIDs))
	for _, id := range candidateIDs {
		if c, ok := s.corpus.Chunk(id); ok {
			chunks = append(chunks, c)
		}
	}
	if len(chunks) == 0 {
		return nil, nil
	}

	logits, err := s.scoreLogits(ctx, text, chunks)
	if err != nil {
		return nil, err
	}

	embResult, err := s.embed.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}

	matches := make([]domain.Match, len(chunks))
	for i, c := range chunks {
		prob := domain.Sigmoid(logits[i])

		// Missing chunk vector contributes the floor of the scaled range.
		cosScaled := 0.0
		if v, ok := s.vectors.ChunkVector(c.ID); ok {
			cosScaled = domain.ScaleCosine(index.Dot(embResult.Embedding, v))
		}

		matches[i] = domain.Match{
			PolicyID:      c.ID,
			BaseID:        c.BaseID,
			RiskCategory:  c.RiskCategory,
			SnippetText:   c.SnippetText,
			RerankerLogit: logits[i],
			RerankerProb:  prob,
			CosSim:        cosScaled,
			CombinedScore: domain.CombineScores(prob, cosScaled, s.alpha),
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].CombinedScore > matches[j].CombinedScore
	})

	if topN > 0 && len(matches) > topN {
		matches = matches[:topN]
	}
	return matches, nil
}

// scoreLogits covers both relevance-model shapes explicitly: a single
// candidate goes through the scalar path, a batch through the sequence path.
// The LogitBatch tag plus Values guards the count invariant either way.
func (s *Service) scoreLogits(ctx context.Context, text string, chunks []domain.PolicyChunk) ([]float64, error) {
	var (
		batch domain.LogitBatch
		err   error
	)
	if len(chunks) == 1 {
		var logit float64
		logit, err = s.scorer.ScorePair(ctx, text, chunks[0].SnippetText)
		batch = domain.OneLogit(logit)
	} else {
		docs := make([]string, len(chunks))
		for i, c := range chunks {
			docs[i] = c.SnippetText
		}
		batch, err = s.scorer.ScorePairs(ctx, text, docs)
	}
	if err != nil {
		return nil, fmt.Errorf("score pairs: %w", err)
	}

	logits, err := batch.Values(len(chunks))
	if err != nil {
		return nil, fmt.Errorf("score pairs: %w", err)
	}
	return logits, nil
}
