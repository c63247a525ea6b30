package rerank

import (
	"context"

	"github.com/kailas-cloud/policyscan/internal/domain"
)

// CorpusReader resolves candidate ids to policy chunks.
type CorpusReader interface {
	Chunk(id string) (domain.PolicyChunk, bool)
}

// VectorReader returns precomputed chunk snippet embeddings.
type VectorReader interface {
	ChunkVector(policyID string) ([]float32, bool)
}

// Embedder vectorizes the input text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
