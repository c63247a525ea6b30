package screen

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/policyscan/internal/domain"
	"github.com/kailas-cloud/policyscan/internal/usecase/risk"
)

// --- Mocks ---

type mockRetriever struct {
	mu         sync.Mutex // document pages retrieve concurrently
	candidates []string
	err        error
	calls      int
	lastTopK   int
}

func (m *mockRetriever) Retrieve(_ context.Context, _ string, topK int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.lastTopK = topK
	return m.candidates, m.err
}

type mockReranker struct {
	matches  []domain.Match
	err      error
	calls    int
	lastIDs  []string
	lastTopN int
}

func (m *mockReranker) Rerank(_ context.Context, _ string, ids []string, topN int) ([]domain.Match, error) {
	m.calls++
	m.lastIDs = ids
	m.lastTopN = topN
	return m.matches, m.err
}

type mockSafety struct {
	summary domain.SafetySummary
	calls   atomic.Int64 // pages are assessed concurrently
}

func (m *mockSafety) Assess(_ context.Context, _ string) ([]domain.SafetySpan, domain.SafetySummary) {
	m.calls.Add(1)
	return nil, m.summary
}

type mockCorpus struct {
	ids []string
}

func (m *mockCorpus) ChunkIDs() []string { return m.ids }

func newTestService(t *testing.T, r *mockRetriever, rr *mockReranker, sf *mockSafety, c *mockCorpus) *Service {
	t.Helper()
	svc, err := New(r, rr, sf, c, risk.Default(), DefaultParams(), zap.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(svc.Close)
	return svc
}

func topMatch(score float64) []domain.Match {
	return []domain.Match{{
		PolicyID:      "EU_AI_Act_Art5_c1",
		BaseID:        "EU_AI_Act_Art5",
		RiskCategory:  "High",
		SnippetText:   "Prohibited AI practices...",
		CombinedScore: score,
	}}
}

func greenSafety(score float64) domain.SafetySummary {
	return domain.SafetySummary{Notice: domain.NoticeGreen, DocScore: score}
}

// --- Query tests ---

func TestQuery_EmptyInput(t *testing.T) {
	r := &mockRetriever{}
	rr := &mockReranker{}
	sf := &mockSafety{}
	svc := newTestService(t, r, rr, sf, &mockCorpus{})

	d, err := svc.Query(context.Background(), "   \t ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Level != domain.DecisionNoInput {
		t.Errorf("decision = %v, want no_input", d.Level)
	}
	if r.calls != 0 || rr.calls != 0 || sf.calls.Load() != 0 {
		t.Error("no retrieval, rerank, or safety calls allowed for empty input")
	}
}

func TestQuery_StrongMatch(t *testing.T) {
	r := &mockRetriever{candidates: []string{"EU_AI_Act_Art5_c1"}}
	rr := &mockReranker{matches: topMatch(0.85)}
	sf := &mockSafety{summary: greenSafety(0.0)}
	svc := newTestService(t, r, rr, sf, &mockCorpus{})

	d, err := svc.Query(context.Background(), "facial recognition in public spaces")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Level != domain.DecisionHigh {
		t.Errorf("decision = %v, want High", d.Level)
	}
	if d.Confidence != 0.85 {
		t.Errorf("confidence = %v, want 0.85", d.Confidence)
	}
	if d.ViolatedAct != "EU AI Act" {
		t.Errorf("violated act = %q, want EU AI Act", d.ViolatedAct)
	}
	if d.PolicyID != "EU_AI_Act_Art5_c1" {
		t.Errorf("policy id = %q", d.PolicyID)
	}
	if r.lastTopK != 50 {
		t.Errorf("query mode must use QueryTopK, got %d", r.lastTopK)
	}
}

func TestQuery_SubThresholdMatchEscalatedByAux(t *testing.T) {
	r := &mockRetriever{candidates: []string{"EU_AI_Act_Art5_c1"}}
	rr := &mockReranker{matches: topMatch(0.3)}
	sf := &mockSafety{summary: domain.SafetySummary{Notice: domain.NoticeRed, DocScore: 0.55}}
	svc := newTestService(t, r, rr, sf, &mockCorpus{})

	d, err := svc.Query(context.Background(), "some borderline text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Level != domain.DecisionMedium {
		t.Errorf("decision = %v, want Medium (max(0.3, 0.55) over medium threshold)", d.Level)
	}
	if d.Confidence != 0.55 {
		t.Errorf("confidence = %v, want 0.55", d.Confidence)
	}
}

func TestQuery_ToxicityEscalationBeatsWeakRetrieval(t *testing.T) {
	// No strong policy match, combined < 0.4, but toxicity >= 0.7:
	// the post-escalation pass must force High.
	r := &mockRetriever{candidates: []string{"EU_AI_Act_Art5_c1"}}
	rr := &mockReranker{matches: topMatch(0.2)}
	sf := &mockSafety{summary: domain.SafetySummary{
		Notice: domain.NoticeRed, Categories: []string{"Hate", "Threat"}, DocScore: 0.95,
	}}
	svc := newTestService(t, r, rr, sf, &mockCorpus{})

	d, err := svc.Query(context.Background(), "I hope you die, you immigrant!")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Level != domain.DecisionHigh {
		t.Errorf("decision = %v, want High via post-escalation", d.Level)
	}
	if d.Confidence != 0.95 {
		t.Errorf("confidence = %v, want 0.95", d.Confidence)
	}
}

func TestQuery_NoMatchesLowDecision(t *testing.T) {
	r := &mockRetriever{candidates: []string{"X"}}
	rr := &mockReranker{} // stale id dropped -> empty
	sf := &mockSafety{summary: greenSafety(0.0)}
	svc := newTestService(t, r, rr, sf, &mockCorpus{})

	d, err := svc.Query(context.Background(), "completely unrelated text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Level != domain.DecisionLow {
		t.Errorf("decision = %v, want Low", d.Level)
	}
	if d.Confidence != 0.0 {
		t.Errorf("confidence = %v, want 0.0", d.Confidence)
	}
	if d.Reason != noMatchReason {
		t.Errorf("reason = %q", d.Reason)
	}
}

func TestQuery_EmptyRetrievalFallsBackToAllIDs(t *testing.T) {
	r := &mockRetriever{} // degraded: no candidates
	rr := &mockReranker{}
	sf := &mockSafety{summary: greenSafety(0.0)}
	corpus := &mockCorpus{ids: []string{"A", "B", "C"}}
	svc := newTestService(t, r, rr, sf, corpus)

	if _, err := svc.Query(context.Background(), "text"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rr.lastIDs) != 3 {
		t.Errorf("reranker got %v, want fallback to all 3 chunk ids", rr.lastIDs)
	}
}

func TestQuery_RetrieverErrorPropagates(t *testing.T) {
	r := &mockRetriever{err: errors.New("embedding provider down")}
	svc := newTestService(t, r, &mockReranker{}, &mockSafety{}, &mockCorpus{})

	if _, err := svc.Query(context.Background(), "text"); err == nil {
		t.Fatal("expected error")
	}
}

func TestQuery_AuxNeverDowngrades(t *testing.T) {
	// Strong retrieval decision stays even with zero toxicity.
	r := &mockRetriever{candidates: []string{"EU_AI_Act_Art5_c1"}}
	rr := &mockReranker{matches: topMatch(0.65)}
	sf := &mockSafety{summary: greenSafety(0.0)}
	svc := newTestService(t, r, rr, sf, &mockCorpus{})

	d, err := svc.Query(context.Background(), "text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Level != domain.DecisionMedium {
		t.Errorf("decision = %v, want Medium from severity(0.65)", d.Level)
	}
	if d.Confidence != 0.65 {
		t.Errorf("confidence = %v, want 0.65", d.Confidence)
	}
}
