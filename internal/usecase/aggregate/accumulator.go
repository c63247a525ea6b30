// Package aggregate merges reranked matches observed across the scopes of one
// document screening into a single record per policy id.
package aggregate

import (
	"sort"
	"sync"

	"github.com/kailas-cloud/policyscan/internal/domain"
	"github.com/kailas-cloud/policyscan/internal/usecase/risk"
)

// NoPage marks an observation with no page scope (whole-document pass).
const NoPage = 0

// Accumulator is the per-call violation bookkeeping. Record is safe for
// concurrent use; pages are scored on a worker pool and Record performs a
// read-modify-write.
type Accumulator struct {
	mu      sync.Mutex
	records map[string]*domain.Violation
	order   []string // first-observation order, keeps Finalize deterministic
}

// New creates an empty accumulator. Lifetime is one document screening.
func New() *Accumulator {
	return &Accumulator{records: make(map[string]*domain.Violation)}
}

// Record folds one match into the accumulator. The first observation of a
// policy id creates the record; later ones bump occurrences, keep the best
// score, add the page once (insertion order preserved), and always append the
// context. A page of NoPage is not tracked.
func (a *Accumulator) Record(m domain.Match, page int, context string) {
	if m.PolicyID == "" {
		return
	}
	if context == "" {
		context = m.SnippetText
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	cur, ok := a.records[m.PolicyID]
	if !ok {
		v := &domain.Violation{
			PolicyID:     m.PolicyID,
			BaseID:       m.BaseID,
			RiskCategory: m.RiskCategory,
			BestScore:    m.CombinedScore,
			Occurrences:  1,
			Contexts:     []string{context},
		}
		if page != NoPage {
			v.Pages = []int{page}
		}
		a.records[m.PolicyID] = v
		a.order = append(a.order, m.PolicyID)
		return
	}

	cur.Occurrences++
	if m.CombinedScore > cur.BestScore {
		cur.BestScore = m.CombinedScore
	}
	if page != NoPage && !containsInt(cur.Pages, page) {
		cur.Pages = append(cur.Pages, page)
	}
	cur.Contexts = append(cur.Contexts, context)
}

// Finalize emits all records sorted by best score descending, each assigned a
// severity from its best score. Ties keep first-observation order.
func (a *Accumulator) Finalize(policy risk.Policy) []domain.Violation {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]domain.Violation, 0, len(a.order))
	for _, pid := range a.order {
		out = append(out, *a.records[pid])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].BestScore > out[j].BestScore
	})
	for i := range out {
		out[i].Severity = policy.Severity(out[i].BestScore)
	}
	return out
}

func containsInt(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
