package aggregate

import (
	"sync"
	"testing"

	"github.com/kailas-cloud/policyscan/internal/domain"
	"github.com/kailas-cloud/policyscan/internal/usecase/risk"
)

func match(pid string, score float64) domain.Match {
	return domain.Match{PolicyID: pid, BaseID: pid, RiskCategory: "cat", SnippetText: "snippet", CombinedScore: score}
}

func TestRecord_BestScoreNeverDecreases(t *testing.T) {
	acc := New()
	acc.Record(match("P", 0.3), 1, "ctx1")
	acc.Record(match("P", 0.9), 2, "ctx2")
	acc.Record(match("P", 0.5), 3, "ctx3")

	got := acc.Finalize(risk.Default())
	if len(got) != 1 {
		t.Fatalf("expected 1 violation, got %d", len(got))
	}
	v := got[0]
	if v.BestScore != 0.9 {
		t.Errorf("best score = %v, want 0.9", v.BestScore)
	}
	if v.Occurrences != 3 {
		t.Errorf("occurrences = %d, want 3", v.Occurrences)
	}
	if v.Severity != domain.SeverityHigh {
		t.Errorf("severity = %v, want High", v.Severity)
	}
}

func TestRecord_PageSetSemantics(t *testing.T) {
	acc := New()
	acc.Record(match("P", 0.5), 2, "a")
	acc.Record(match("P", 0.5), 1, "b")
	acc.Record(match("P", 0.5), 2, "c") // duplicate page
	acc.Record(match("P", 0.5), NoPage, "d")

	v := acc.Finalize(risk.Default())[0]
	if len(v.Pages) != 2 || v.Pages[0] != 2 || v.Pages[1] != 1 {
		t.Errorf("pages = %v, want [2 1] (insertion order, no duplicates)", v.Pages)
	}
	if len(v.Contexts) != 4 {
		t.Errorf("contexts = %d, want 4 (list semantics)", len(v.Contexts))
	}
}

func TestRecord_EmptyContextFallsBackToSnippet(t *testing.T) {
	acc := New()
	acc.Record(match("P", 0.5), NoPage, "")

	v := acc.Finalize(risk.Default())[0]
	if len(v.Contexts) != 1 || v.Contexts[0] != "snippet" {
		t.Errorf("contexts = %v, want [snippet]", v.Contexts)
	}
}

func TestFinalize_SortedByBestScore(t *testing.T) {
	acc := New()
	acc.Record(match("low", 0.2), NoPage, "")
	acc.Record(match("high", 0.8), NoPage, "")
	acc.Record(match("mid", 0.5), NoPage, "")

	got := acc.Finalize(risk.Default())
	want := []string{"high", "mid", "low"}
	for i, pid := range want {
		if got[i].PolicyID != pid {
			t.Fatalf("position %d = %s, want %s (full: %+v)", i, got[i].PolicyID, pid, got)
		}
	}
}

func TestRecord_IgnoresEmptyPolicyID(t *testing.T) {
	acc := New()
	acc.Record(match("", 0.9), NoPage, "")
	if got := acc.Finalize(risk.Default()); len(got) != 0 {
		t.Errorf("expected no records, got %v", got)
	}
}

func TestRecord_ConcurrentScopes(t *testing.T) {
	acc := New()
	var wg sync.WaitGroup
	for page := 1; page <= 50; page++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			acc.Record(match("P", float64(p)/100.0), p, "ctx")
		}(page)
	}
	wg.Wait()

	v := acc.Finalize(risk.Default())[0]
	if v.Occurrences != 50 {
		t.Errorf("occurrences = %d, want 50", v.Occurrences)
	}
	if v.BestScore != 0.5 {
		t.Errorf("best score = %v, want 0.5", v.BestScore)
	}
	if len(v.Pages) != 50 {
		t.Errorf("pages = %d, want 50", len(v.Pages))
	}
}
