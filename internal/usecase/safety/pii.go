package safety

import (
	"regexp"
	"sort"
)

var (
	emailRe = regexp.MustCompile(`[\w.-]+@[\w.-]+\.\w+`)
	phoneRe = regexp.MustCompile(`\b(?:\+?\d{1,3}[-.\s]?)?(?:\(?\d{2,4}\)?[-.\s]?){2,}\d{2,4}\b`)
	idRe    = regexp.MustCompile(`(?i)\b(?:ssn|nid|nic|passport)[\s:]*[A-Za-z0-9\-]{3,}\b`)
	nameRe  = regexp.MustCompile(`\bmy name is ([A-Z][a-z]+)\b`)
)

// DetectPII returns the sorted set of PII category tags found in the text.
// Consumed only for pass-through reporting, never for scoring.
func DetectPII(text string) []string {
	found := make([]string, 0, 4)
	if text == "" {
		return found
	}
	if emailRe.MatchString(text) {
		found = append(found, "email")
	}
	if phoneRe.MatchString(text) {
		found = append(found, "phone")
	}
	if idRe.MatchString(text) {
		found = append(found, "id_number")
	}
	if nameRe.MatchString(text) {
		found = append(found, "name")
	}
	sort.Strings(found)
	return found
}
