// Package rerank calls a TEI-compatible cross-encoder reranking endpoint.
package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/policyscan/internal/domain"
)

const defaultTimeout = 30 * time.Second

// Compile-time check: Client implements domain.RelevanceScorer.
var _ domain.RelevanceScorer = (*Client)(nil)

// Config holds the reranking provider settings.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	Logger  *zap.Logger
}

// Client scores (query, doc) pairs against a TEI-style POST /rerank endpoint
// with raw_scores enabled, so responses carry logits rather than probabilities.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *zap.Logger
}

// New creates a reranking client.
func New(cfg *Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
		logger:  cfg.Logger,
	}
}

type rerankRequest struct {
	Query     string   `json:"query"`
	Texts     []string `json:"texts"`
	RawScores bool     `json:"raw_scores"`
}

type rerankResult struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

// ScorePair scores a single (query, doc) pair and returns the raw logit.
func (c *Client) ScorePair(ctx context.Context, query, doc string) (float64, error) {
	scores, err := c.score(ctx, query, []string{doc})
	if err != nil {
		return 0, err
	}
	return scores[0], nil
}

// ScorePairs scores every (query, doc) pair in doc order.
func (c *Client) ScorePairs(ctx context.Context, query string, docs []string) (domain.LogitBatch, error) {
	if len(docs) == 0 {
		return domain.ManyLogits(nil), nil
	}
	scores, err := c.score(ctx, query, docs)
	if err != nil {
		return domain.LogitBatch{}, err
	}
	if len(docs) == 1 {
		return domain.OneLogit(scores[0]), nil
	}
	return domain.ManyLogits(scores), nil
}

// score returns one logit per text, in input order. TEI responds sorted by
// score descending, so results are reassembled by the index field.
func (c *Client) score(ctx context.Context, query string, texts []string) ([]float64, error) {
	body, err := json.Marshal(rerankRequest{Query: query, Texts: texts, RawScores: true})
	if err != nil {
		return nil, fmt.Errorf("marshal rerank request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rerank", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build rerank request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rerank request failed: %w", domain.ErrRelevanceProviderError)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Warn("Rerank API error",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", data))
		return nil, fmt.Errorf("rerank API error %d: %w", resp.StatusCode, domain.ErrRelevanceProviderError)
	}

	var results []rerankResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("decode rerank response: %w", domain.ErrRelevanceProviderError)
	}
	if len(results) != len(texts) {
		return nil, fmt.Errorf("rerank returned %d scores for %d texts: %w",
			len(results), len(texts), domain.ErrRelevanceProviderError)
	}

	scores := make([]float64, len(texts))
	for _, r := range results {
		if r.Index < 0 || r.Index >= len(texts) {
			return nil, fmt.Errorf("rerank returned index %d out of range: %w",
				r.Index, domain.ErrRelevanceProviderError)
		}
		scores[r.Index] = r.Score
	}
	return scores, nil
}
