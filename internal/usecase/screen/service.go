// Package screen orchestrates the full screening pipeline: retrieval, rerank,
// violation aggregation, the risk policy, and decision fusing with the
// auxiliary toxicity signal.
package screen

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"strings"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/policyscan/internal/domain"
	"github.com/kailas-cloud/policyscan/internal/metrics"
	"github.com/kailas-cloud/policyscan/internal/usecase/risk"
	"github.com/kailas-cloud/policyscan/internal/usecase/safety"
)

const noMatchReason = "No direct policy violation detected."

// Params holds the screening breadth and threshold knobs.
type Params struct {
	TopK         int     // retrieval breadth for document scopes
	QueryTopK    int     // larger breadth for single-query mode
	RerankTop    int     // rerank depth
	SimThreshold float64 // combined-score decision threshold
	PageWorkers  int     // concurrent page scoring; 0 = NumCPU/2
}

// DefaultParams returns the standard screening parameters.
func DefaultParams() Params {
	return Params{TopK: 10, QueryTopK: 50, RerankTop: 6, SimThreshold: 0.60}
}

// Service runs query and document screenings.
type Service struct {
	retriever Retriever
	reranker  Reranker
	safety    SafetyAnalyzer
	corpus    CorpusReader
	policy    risk.Policy
	params    Params
	pool      *ants.Pool
	logger    *zap.Logger
}

// New creates a screening service and its page-scoring worker pool.
func New(
	retriever Retriever,
	reranker Reranker,
	safetyAnalyzer SafetyAnalyzer,
	corpus CorpusReader,
	policy risk.Policy,
	params Params,
	logger *zap.Logger,
) (*Service, error) {
	workers := params.PageWorkers
	if workers < 1 {
		workers = runtime.NumCPU() / 2
		if workers < 1 {
			workers = 1
		}
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("create page worker pool: %w", err)
	}

	return &Service{
		retriever: retriever,
		reranker:  reranker,
		safety:    safetyAnalyzer,
		corpus:    corpus,
		policy:    policy,
		params:    params,
		pool:      pool,
		logger:    logger,
	}, nil
}

// Close releases the worker pool.
func (s *Service) Close() {
	s.pool.Release()
}

// Query screens a single text and fuses the retrieval confidence with the
// toxicity signal into one decision. Empty input is the terminal no_input
// state; no retrieval or model calls happen for it.
func (s *Service) Query(ctx context.Context, text string) (domain.Decision, error) {
	start := time.Now()
	text = strings.TrimSpace(text)

	if text == "" {
		d := domain.Decision{
			Query:       text,
			Level:       domain.DecisionNoInput,
			PII:         []string{},
			DurationSec: time.Since(start).Seconds(),
		}
		metrics.ObserveScreening("query", string(d.Level), d.DurationSec)
		return d, nil
	}

	pii := safety.DetectPII(text)
	_, safetySummary := s.safety.Assess(ctx, text)
	auxScore := safetySummary.DocScore

	candidates, err := s.retriever.Retrieve(ctx, text, s.params.QueryTopK)
	if err != nil {
		return domain.Decision{}, fmt.Errorf("retrieve candidates: %w", err)
	}
	if len(candidates) == 0 {
		candidates = s.corpus.ChunkIDs()
	}

	matches, err := s.reranker.Rerank(ctx, text, candidates, s.params.RerankTop)
	if err != nil {
		return domain.Decision{}, fmt.Errorf("rerank candidates: %w", err)
	}

	decision := domain.Decision{
		Query:        text,
		Level:        domain.DecisionLow,
		Confidence:   0.0,
		RiskCategory: string(domain.SeverityLow),
		Reason:       noMatchReason,
		PII:          pii,
		Safety:       safetySummary,
	}

	if len(matches) > 0 {
		top := matches[0]
		conf := top.CombinedScore
		decision.Confidence = conf
		decision.PolicyID = top.PolicyID
		decision.ViolatedAct = domain.InstrumentName(top.BaseID)
		decision.RiskCategory = top.RiskCategory
		decision.Reason = top.SnippetText

		if conf >= s.params.SimThreshold {
			decision.Level = s.policy.Severity(conf).Level()
		} else {
			// A sub-threshold match can still be escalated by the aux signal.
			escalated := math.Max(conf, auxScore)
			decision.Level = s.policy.Severity(escalated).Level()
			decision.Confidence = escalated
		}
	}

	// Post-escalation: a strong aux signal wins over a weak retrieval signal
	// but never downgrades an already-computed Medium/High. Order is
	// authoritative; the second branch only lifts a Low decision.
	if decision.Confidence < s.policy.High && auxScore >= s.policy.High {
		decision.Level = domain.DecisionHigh
		decision.Confidence = math.Max(decision.Confidence, auxScore)
	} else if decision.Confidence < s.policy.Medium && auxScore >= s.policy.Medium &&
		decision.Level == domain.DecisionLow {
		decision.Level = domain.DecisionMedium
		decision.Confidence = math.Max(decision.Confidence, auxScore)
	}

	decision.DurationSec = time.Since(start).Seconds()
	metrics.ObserveScreening("query", string(decision.Level), decision.DurationSec)
	return decision, nil
}

// retrieveAndRerank applies the documented fallback: when retrieval yields no
// candidates, score against the full known policy id set.
func (s *Service) retrieveAndRerank(ctx context.Context, text string, topK int) ([]domain.Match, error) {
	candidates, err := s.retriever.Retrieve(ctx, text, topK)
	if err != nil {
		return nil, fmt.Errorf("retrieve candidates: %w", err)
	}
	if len(candidates) == 0 {
		candidates = s.corpus.ChunkIDs()
	}
	matches, err := s.reranker.Rerank(ctx, text, candidates, s.params.RerankTop)
	if err != nil {
		return nil, fmt.Errorf("rerank candidates: %w", err)
	}
	return matches, nil
}
