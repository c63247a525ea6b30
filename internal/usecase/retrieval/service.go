// Package retrieval turns raw text into an ordered list of unique candidate
// policy ids via nearest-neighbor search over the paraphrase index.
package retrieval

import (
	"context"
	"fmt"
)

// Service is the candidate retriever.
type Service struct {
	index Searcher
	embed Embedder
}

// New creates a retrieval service.
func New(index Searcher, embed Embedder) *Service {
	return &Service{index: index, embed: embed}
}

// Retrieve returns candidate policy ids ordered by proximity, deduplicated
// with first-occurrence rank preserved. An empty index yields an empty list
// without calling the embedder; the caller decides whether to fall back to
// the full policy id set.
func (s *Service) Retrieve(ctx context.Context, text string, topK int) ([]string, error) {
	if s.index.Len() == 0 {
		return nil, nil
	}

	embResult, err := s.embed.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}

	neighbors := s.index.Search(embResult.Embedding, topK)

	seen := make(map[string]struct{}, len(neighbors))
	uniq := make([]string, 0, len(neighbors))
	for _, pos := range neighbors {
		pid := s.index.PolicyID(pos)
		if _, ok := seen[pid]; ok {
			continue
		}
		seen[pid] = struct{}{}
		uniq = append(uniq, pid)
	}
	return uniq, nil
}
