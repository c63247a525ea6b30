package domain

import "strings"

// PolicyChunk is one indexed excerpt of a regulatory instrument, the unit of
// comparison for violation detection. Immutable once loaded; ids are unique.
type PolicyChunk struct {
	ID           string
	SnippetText  string
	RiskCategory string
	BaseID       string
}

// ParaphraseQuery is an example phrasing labeled with the policy id it
// exemplifies. Many paraphrases map to one chunk.
type ParaphraseQuery struct {
	Text     string
	PolicyID string
}

// DeriveBaseID extracts the instrument identifier from a policy id: the first
// four underscore-delimited segments, or the whole id when it has none.
func DeriveBaseID(id string) string {
	if !strings.Contains(id, "_") {
		return id
	}
	parts := strings.Split(id, "_")
	if len(parts) > 4 {
		parts = parts[:4]
	}
	return strings.Join(parts, "_")
}

// InstrumentName maps a base id to the human-readable name of the act it
// belongs to. Unknown instruments fall back to the base id itself.
func InstrumentName(baseID string) string {
	switch {
	case baseID == "":
		return ""
	case strings.HasPrefix(baseID, "EU_AI_Act"):
		return "EU AI Act"
	case strings.HasPrefix(baseID, "GDPR"):
		return "GDPR"
	default:
		return baseID
	}
}
