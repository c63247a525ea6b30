package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/policyscan/internal/domain"
)

// --- Mocks ---

type mockIndex struct {
	ids       []string // position -> policy id
	neighbors []int
	lastK     int
}

func (m *mockIndex) Search(_ []float32, k int) []int {
	m.lastK = k
	return m.neighbors
}

func (m *mockIndex) PolicyID(pos int) string { return m.ids[pos] }

func (m *mockIndex) Len() int { return len(m.ids) }

type mockEmbedder struct {
	vec    []float32
	err    error
	called bool
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.called = true
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec}, nil
}

// --- Tests ---

func TestRetrieve_DedupesPreservingOrder(t *testing.T) {
	idx := &mockIndex{
		ids:       []string{"A", "B", "A", "C", "B"},
		neighbors: []int{0, 1, 2, 3, 4},
	}
	svc := New(idx, &mockEmbedder{vec: []float32{1}})

	got, err := svc.Retrieve(context.Background(), "text", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"A", "B", "C"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestRetrieve_EmptyIndex(t *testing.T) {
	embed := &mockEmbedder{vec: []float32{1}}
	svc := New(&mockIndex{}, embed)

	got, err := svc.Retrieve(context.Background(), "text", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty candidates, got %v", got)
	}
	if embed.called {
		t.Error("embedder must not be called for an empty index")
	}
}

func TestRetrieve_EmbedError(t *testing.T) {
	idx := &mockIndex{ids: []string{"A"}, neighbors: []int{0}}
	svc := New(idx, &mockEmbedder{err: errors.New("provider down")})

	if _, err := svc.Retrieve(context.Background(), "text", 1); err == nil {
		t.Fatal("expected error")
	}
}

func TestRetrieve_PassesTopK(t *testing.T) {
	idx := &mockIndex{ids: []string{"A"}, neighbors: []int{0}}
	svc := New(idx, &mockEmbedder{vec: []float32{1}})

	if _, err := svc.Retrieve(context.Background(), "text", 42); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx.lastK != 42 {
		t.Errorf("topK = %d, want 42", idx.lastK)
	}
}
