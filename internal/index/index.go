// Package index provides the in-memory nearest-neighbor structure over
// paraphrase-query embeddings, plus the cached policy-chunk embeddings used
// for the reranker's cosine signal. Built once at startup, read-only on the
// request path.
package index

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/kailas-cloud/policyscan/internal/corpus"
	"github.com/kailas-cloud/policyscan/internal/domain"
)

// embedBatchSize bounds one provider call during startup indexing.
const embedBatchSize = 128

// Index is a flat inner-product index. Vectors are unit length, so the dot
// product equals cosine similarity.
type Index struct {
	vectors   [][]float32
	policyIDs []string
	chunkVecs map[string][]float32
}

// Build embeds every paraphrase query and every chunk snippet. Blocks startup;
// never called on the request path. An empty corpus yields an empty index.
func Build(ctx context.Context, store *corpus.Store, embedder domain.BatchEmbedder, logger *zap.Logger) (*Index, error) {
	idx := &Index{chunkVecs: make(map[string][]float32)}

	paraphrases := store.Paraphrases()
	texts := make([]string, len(paraphrases))
	for i, p := range paraphrases {
		texts[i] = p.Text
	}

	vectors, err := embedAll(ctx, embedder, texts)
	if err != nil {
		return nil, fmt.Errorf("embed paraphrases: %w", err)
	}
	idx.vectors = vectors
	idx.policyIDs = make([]string, len(paraphrases))
	for i, p := range paraphrases {
		idx.policyIDs[i] = p.PolicyID
	}

	chunkIDs := store.ChunkIDs()
	snippets := make([]string, len(chunkIDs))
	for i, id := range chunkIDs {
		c, _ := store.Chunk(id)
		snippets[i] = c.SnippetText
	}
	chunkVecs, err := embedAll(ctx, embedder, snippets)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	for i, id := range chunkIDs {
		idx.chunkVecs[id] = chunkVecs[i]
	}

	if idx.Len() == 0 {
		logger.Warn("Embedding index is empty", zap.Error(domain.ErrCorpusEmpty))
	} else {
		logger.Info("Embedding index built",
			zap.Int("paraphrase_vectors", idx.Len()),
			zap.Int("chunk_vectors", len(idx.chunkVecs)),
		)
	}
	return idx, nil
}

func embedAll(ctx context.Context, embedder domain.BatchEmbedder, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		res, err := embedder.BatchEmbed(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("batch [%d:%d]: %w", start, end, err)
		}
		out = append(out, res.Embeddings...)
	}
	return out, nil
}

// Len returns the number of indexed paraphrase vectors.
func (x *Index) Len() int { return len(x.vectors) }

// PolicyID maps a neighbor position back to its paraphrase's policy id.
func (x *Index) PolicyID(i int) string { return x.policyIDs[i] }

// ChunkVector returns the precomputed snippet embedding for a policy id.
func (x *Index) ChunkVector(policyID string) ([]float32, bool) {
	v, ok := x.chunkVecs[policyID]
	return v, ok
}

// Search returns the positions of the k nearest paraphrase vectors by inner
// product, nearest first. k larger than the index is clamped; an empty index
// returns nil.
func (x *Index) Search(query []float32, k int) []int {
	if x.Len() == 0 || k <= 0 {
		return nil
	}
	if k > x.Len() {
		k = x.Len()
	}

	type hit struct {
		pos   int
		score float64
	}
	hits := make([]hit, x.Len())
	for i, v := range x.vectors {
		hits[i] = hit{pos: i, score: Dot(query, v)}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })

	out := make([]int, k)
	for i := 0; i < k; i++ {
		out[i] = hits[i].pos
	}
	return out
}

// Dot computes the inner product of two vectors. Shorter length wins; unit
// vectors make this the cosine similarity.
func Dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
