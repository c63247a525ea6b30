// Package toxicity calls a HuggingFace-style text-classification endpoint.
package toxicity

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

const defaultTimeout = 15 * time.Second

// Compile-time check: Client implements domain.ToxicityClassifier.
var _ domain.ToxicityClassifier = (*Client)(nil)

// Config holds the toxicity provider settings.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	Logger  *zap.Logger
}

// Client scores sentences against a multi-label toxicity model served over
// the HF inference protocol.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *zap.Logger
}

// New creates a toxicity classification client.
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

type classifyRequest struct {
	Inputs string `json:"inputs"`
}

type labelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Classify returns per-label scores for one sentence. The endpoint answers
// either [[{label,score}...]] (one inner list per input) or the flat
// [{label,score}...] shape; both are accepted.
func (c *Client) Classify(ctx context.Context, sentence string) (map[string]float64, error) {
	body, err := json.Marshal(classifyRequest{Inputs: sentence})
	if err != nil {
		return nil, fmt.Errorf("marshal classify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build classify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("classify request failed: %w", domain.ErrSafetyProviderError)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Warn("Toxicity API error",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", data))
		return nil, fmt.Errorf("toxicity API error %d: %w", resp.StatusCode, domain.ErrSafetyProviderError)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read classify response: %w", domain.ErrSafetyProviderError)
	}

	labels, err := parseLabels(data)
	if err != nil {
		return nil, fmt.Errorf("decode classify response: %w", domain.ErrSafetyProviderError)
	}

	scores := make(map[string]float64, len(labels))
	for _, l := range labels {
		scores[l.Label] = l.Score
	}
	return scores, nil
}

func parseLabels(data []byte) ([]labelScore, error) {
	var nested [][]labelScore
	if err := json.Unmarshal(data, &nested); err == nil {
		if len(nested) == 0 {
			return nil, nil
		}
		return nested[0], nil
	}

	var flat []labelScore
	if err := json.Unmarshal(data, &flat); err != nil {
		return nil, err
	}
	return flat, nil
}
