package safety

import (
	"strings"
	"unicode"
)

// splitSentences breaks text at whitespace following a sentence terminator
// (. ! ? or newline). Empty fragments are dropped.
func splitSentences(text string) []string {
	var out []string
	var b strings.Builder
	runes := []rune(text)

	flush := func() {
		if s := strings.TrimSpace(b.String()); s != "" {
			out = append(out, s)
		}
		b.Reset()
	}

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		b.WriteRune(r)
		if isTerminator(r) && i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
			flush()
			for i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
				i++
			}
		}
	}
	flush()
	return out
}

func isTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?' || r == '\n'
}
