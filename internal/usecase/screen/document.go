package screen

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/policyscan/internal/domain"
	"github.com/kailas-cloud/policyscan/internal/metrics"
	"github.com/kailas-cloud/policyscan/internal/usecase/aggregate"
	"github.com/kailas-cloud/policyscan/internal/usecase/safety"
)

// pageContextRunes bounds the per-page context stored with each violation.
const pageContextRunes = 400

const aggregationRule = "any-High -> High; else majority-Medium -> Medium; else Low"

// Document screens pre-extracted pages: one whole-document pass plus one pass
// per page, merged in a violation accumulator. Pages are scored concurrently
// on the worker pool; page numbers are expected to be 1-based (0 marks a
// pageless observation).
func (s *Service) Document(ctx context.Context, pages []domain.Page) (domain.DocumentReport, error) {
	start := time.Now()
	acc := aggregate.New()

	var parts []string
	for _, p := range pages {
		if p.Text != "" {
			parts = append(parts, p.Text)
		}
	}
	fullText := strings.Join(parts, "\n\n")

	piiDoc := safety.DetectPII(fullText)
	_, safetyDoc := s.safety.Assess(ctx, fullText)
	auxScore := safetyDoc.DocScore

	if strings.TrimSpace(fullText) != "" {
		matches, err := s.retrieveAndRerank(ctx, fullText, s.params.TopK)
		if err != nil {
			return domain.DocumentReport{}, fmt.Errorf("document pass: %w", err)
		}
		for _, m := range matches {
			acc.Record(m, aggregate.NoPage, m.SnippetText)
		}
	}

	evidence := make([]domain.PageEvidence, len(pages))
	var (
		wg       sync.WaitGroup
		errMu    sync.Mutex
		firstErr error
	)
	for i, p := range pages {
		i, p := i, p
		wg.Add(1)
		task := func() {
			defer wg.Done()
			ev, err := s.screenPage(ctx, p, acc)
			if err != nil {
				errMu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("page %d: %w", p.PageNum, err)
				}
				errMu.Unlock()
				return
			}
			evidence[i] = ev
		}
		if err := s.pool.Submit(task); err != nil {
			wg.Done()
			return domain.DocumentReport{}, fmt.Errorf("submit page task: %w", err)
		}
	}
	wg.Wait()
	if firstErr != nil {
		return domain.DocumentReport{}, firstErr
	}

	violations := acc.Finalize(s.policy)

	topScore := 0.0
	if len(violations) > 0 {
		topScore = violations[0].BestScore
	}
	overallConfidence := math.Max(topScore, auxScore)
	riskLevel := s.policy.Aggregate(violations, auxScore)

	above := make([]domain.Violation, 0, len(violations))
	for _, v := range violations {
		if v.BestScore >= s.params.SimThreshold {
			above = append(above, v)
		}
	}

	counts := map[domain.Severity]int{
		domain.SeverityHigh:   0,
		domain.SeverityMedium: 0,
		domain.SeverityLow:    0,
	}
	for _, v := range violations {
		counts[v.Severity]++
	}

	report := domain.DocumentReport{
		ReportID:                 uuid.NewString(),
		NumPages:                 len(pages),
		Violations:               violations,
		ViolationsAboveThreshold: above,
		NumViolations:            len(violations),
		NumAboveThreshold:        len(above),
		OverallConfidence:        overallConfidence,
		RiskLevel:                riskLevel,
		PII:                      piiDoc,
		Safety:                   safetyDoc,
		Pages:                    evidence,
		Guideline:                buildGuideline(violations, counts, auxScore, riskLevel, overallConfidence),
		DurationSec:              time.Since(start).Seconds(),
	}
	metrics.ObserveScreening("document", string(riskLevel), report.DurationSec)
	return report, nil
}

func (s *Service) screenPage(ctx context.Context, p domain.Page, acc *aggregate.Accumulator) (domain.PageEvidence, error) {
	text := strings.TrimSpace(p.Text)
	if text == "" {
		return domain.PageEvidence{
			PageNum:    p.PageNum,
			Selectable: p.Selectable,
			PII:        []string{},
			Safety:     domain.SafetySummary{Notice: domain.NoticeGreen, Message: "No text"},
		}, nil
	}

	pii := safety.DetectPII(text)
	_, summary := s.safety.Assess(ctx, text)

	matches, err := s.retrieveAndRerank(ctx, text, s.params.TopK)
	if err != nil {
		return domain.PageEvidence{}, err
	}

	contextText := truncateRunes(text, pageContextRunes)
	for _, m := range matches {
		acc.Record(m, p.PageNum, contextText)
	}

	return domain.PageEvidence{
		PageNum:    p.PageNum,
		Selectable: p.Selectable,
		PII:        pii,
		Safety:     summary,
		TopMatches: matches,
	}, nil
}

func buildGuideline(
	violations []domain.Violation,
	counts map[domain.Severity]int,
	auxScore float64,
	riskLevel domain.Severity,
	confidence float64,
) domain.Guideline {
	lines := []string{
		fmt.Sprintf("Detected %d potential policy violations: %d High, %d Medium, %d Low.",
			len(violations),
			counts[domain.SeverityHigh], counts[domain.SeverityMedium], counts[domain.SeverityLow]),
		fmt.Sprintf("Document toxicity score: %.2f.", auxScore),
		"Aggregation rule: if any violation is High -> document is High risk; " +
			"else if majority of violations are Medium -> Medium risk; else Low risk.",
		fmt.Sprintf("Overall decision: %s (confidence %.2f).", riskLevel, confidence),
	}

	examples := make([]string, 0, 3)
	for _, v := range violations {
		if len(examples) == 3 {
			break
		}
		examples = append(examples, fmt.Sprintf("%s (%s, score %.2f) - pages %v",
			v.PolicyID, v.Severity, v.BestScore, v.Pages))
	}
	if len(examples) > 0 {
		lines = append(lines, "Examples: "+strings.Join(examples, " | "))
	}

	return domain.Guideline{
		Text:            strings.Join(lines, " "),
		Counts:          counts,
		AggregationRule: aggregationRule,
		Examples:        examples,
	}
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
