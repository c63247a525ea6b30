package retrieval

import (
	"context"

	"github.com/kailas-cloud/policyscan/internal/domain"
)

// Searcher is the nearest-neighbor index contract.
type Searcher interface {
	Search(query []float32, k int) []int
	PolicyID(pos int) string
	Len() int
}

// Embedder vectorizes the input text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
