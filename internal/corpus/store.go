// Package corpus loads the fixed set of policy chunks and labeled paraphrase
// queries from CSV files. The store is read-only after load; missing files
// produce an empty (degraded) store rather than a fatal error.
package corpus

import (
	"os"

	"go.uber.org/zap"

	"github.com/kailas-cloud/policyscan/internal/domain"
)

// Store is the read-only corpus: policy chunks keyed by id plus the
// paraphrase queries used to build the retrieval index.
type Store struct {
	chunks  map[string]domain.PolicyChunk
	ids     []string
	queries []domain.ParaphraseQuery
}

// Chunk returns the policy chunk for an id.
func (s *Store) Chunk(id string) (domain.PolicyChunk, bool) {
	c, ok := s.chunks[id]
	return c, ok
}

// ChunkIDs returns all chunk ids in load order. Callers use this as the
// retrieval fallback when the index yields no candidates.
func (s *Store) ChunkIDs() []string {
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

// Paraphrases returns the labeled paraphrase queries in load order.
func (s *Store) Paraphrases() []domain.ParaphraseQuery {
	return s.queries
}

// Len returns the number of loaded chunks.
func (s *Store) Len() int { return len(s.ids) }

// Load reads the paraphrase CSV and the chunk CSVs. A missing or empty file
// is logged and skipped; the resulting store may be empty, which downstream
// components treat as degraded mode, not an error.
func Load(paraphrasePath string, chunkPaths []string, logger *zap.Logger) (*Store, error) {
	s := &Store{chunks: make(map[string]domain.PolicyChunk)}

	if t := readOptional(paraphrasePath, logger); t != nil && !t.empty() {
		textCol := chooseTextColumn(t)
		for _, row := range t.rows {
			text, pid := row[textCol], row["policy_id"]
			if text == "" || pid == "" {
				continue
			}
			s.queries = append(s.queries, domain.ParaphraseQuery{Text: text, PolicyID: pid})
		}
	}

	for _, path := range chunkPaths {
		t := readOptional(path, logger)
		if t == nil || t.empty() {
			continue
		}
		textCol := chooseTextColumn(t)
		for _, row := range t.rows {
			pid := row["policy_id"]
			if pid == "" {
				continue
			}
			if _, exists := s.chunks[pid]; !exists {
				s.ids = append(s.ids, pid)
			}
			s.chunks[pid] = domain.PolicyChunk{
				ID:           pid,
				SnippetText:  row[textCol],
				RiskCategory: row["risk_category"],
				BaseID:       domain.DeriveBaseID(pid),
			}
		}
	}

	if len(s.queries) == 0 || len(s.ids) == 0 {
		logger.Warn("Corpus incomplete, retrieval will run degraded",
			zap.Int("paraphrases", len(s.queries)),
			zap.Int("chunks", len(s.ids)),
		)
	} else {
		logger.Info("Corpus loaded",
			zap.Int("paraphrases", len(s.queries)),
			zap.Int("chunks", len(s.ids)),
		)
	}
	return s, nil
}

func readOptional(path string, logger *zap.Logger) *table {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		logger.Warn("Missing corpus CSV", zap.String("path", path))
		return nil
	}
	t, err := readTable(path)
	if err != nil {
		logger.Warn("Failed to parse corpus CSV", zap.String("path", path), zap.Error(err))
		return nil
	}
	return t
}
