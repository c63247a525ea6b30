package rerank

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/policyscan/internal/domain"
)

func newTestClient(baseURL string) *Client {
	return New(&Config{BaseURL: baseURL, Logger: zap.NewNop()})
}

func TestScorePairs_ReordersByIndex(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rerank" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req rerankRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if !req.RawScores {
			t.Error("raw_scores must be requested")
		}
		if len(req.Texts) != 3 {
			t.Fatalf("expected 3 texts, got %d", len(req.Texts))
		}

		// Sorted by score descending, as the endpoint actually responds.
		json.NewEncoder(w).Encode([]rerankResult{
			{Index: 2, Score: 4.5},
			{Index: 0, Score: -1.2},
			{Index: 1, Score: -3.0},
		})
	}))
	defer server.Close()

	batch, err := newTestClient(server.URL).ScorePairs(
		context.Background(), "query", []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("ScorePairs: %v", err)
	}

	scores, err := batch.Values(3)
	if err != nil {
		t.Fatalf("Values: %v", err)
	}
	want := []float64{-1.2, -3.0, 4.5}
	for i, s := range scores {
		if s != want[i] {
			t.Errorf("scores[%d] = %v, want %v", i, s, want[i])
		}
	}
}

func TestScorePair_SingleLogit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode([]rerankResult{{Index: 0, Score: 2.25}})
	}))
	defer server.Close()

	score, err := newTestClient(server.URL).ScorePair(context.Background(), "q", "doc")
	if err != nil {
		t.Fatalf("ScorePair: %v", err)
	}
	if score != 2.25 {
		t.Errorf("score = %v, want 2.25", score)
	}
}

func TestScorePairs_SingleDocScalarShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode([]rerankResult{{Index: 0, Score: 1.5}})
	}))
	defer server.Close()

	batch, err := newTestClient(server.URL).ScorePairs(context.Background(), "q", []string{"doc"})
	if err != nil {
		t.Fatalf("ScorePairs: %v", err)
	}
	if _, err := batch.Values(2); err == nil {
		t.Error("scalar batch must reject a 2-pair expansion")
	}
	scores, err := batch.Values(1)
	if err != nil {
		t.Fatalf("Values: %v", err)
	}
	if scores[0] != 1.5 {
		t.Errorf("score = %v, want 1.5", scores[0])
	}
}

func TestScorePairs_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).ScorePairs(context.Background(), "q", []string{"a"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, domain.ErrRelevanceProviderError) {
		t.Errorf("expected provider error, got %v", err)
	}
}

func TestScorePairs_CountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode([]rerankResult{{Index: 0, Score: 1.0}})
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).ScorePairs(context.Background(), "q", []string{"a", "b"})
	if err == nil {
		t.Fatal("expected error for count mismatch")
	}
	if !errors.Is(err, domain.ErrRelevanceProviderError) {
		t.Errorf("expected provider error, got %v", err)
	}
}

func TestScorePairs_AuthHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("unexpected auth header: %s", r.Header.Get("Authorization"))
		}
		json.NewEncoder(w).Encode([]rerankResult{{Index: 0, Score: 0}})
	}))
	defer server.Close()

	c := New(&Config{BaseURL: server.URL, APIKey: "secret", Logger: zap.NewNop()})
	if _, err := c.ScorePair(context.Background(), "q", "doc"); err != nil {
		t.Fatalf("ScorePair: %v", err)
	}
}

func TestScorePairs_Empty(t *testing.T) {
	batch, err := newTestClient("http://unused").ScorePairs(context.Background(), "q", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	scores, err := batch.Values(0)
	if err != nil {
		t.Fatalf("Values: %v", err)
	}
	if len(scores) != 0 {
		t.Errorf("expected no scores, got %v", scores)
	}
}
