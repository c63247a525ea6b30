package screen

import (
	"context"

	"github.com/kailas-cloud/policyscan/internal/domain"
)

// Retriever produces candidate policy ids for a text.
type Retriever interface {
	Retrieve(ctx context.Context, text string, topK int) ([]string, error)
}

// Reranker scores candidates and returns the top matches.
type Reranker interface {
	Rerank(ctx context.Context, text string, candidateIDs []string, topN int) ([]domain.Match, error)
}

// SafetyAnalyzer produces the auxiliary toxicity signal.
type SafetyAnalyzer interface {
	Assess(ctx context.Context, text string) ([]domain.SafetySpan, domain.SafetySummary)
}

// CorpusReader exposes the full policy id set for the empty-retrieval fallback.
type CorpusReader interface {
	ChunkIDs() []string
}
