package safety

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// toxicLexicon is the fixed term list checked after normalization. It backs
// up the external classifier so obvious abuse is flagged even when the model
// is unavailable.
var toxicLexicon = []string{
	"fuck", "die", "kill", "bomb", "terror", "i hate", "immigrant", "immigrants",
	"nigger", "bitch", "slur", "go die", "go to hell", "fascist", "kill yourself",
}

// hateLexiconCues are lexicon hits that indicate identity-based hate on their own.
var hateLexiconCues = []string{"immigrant", "nigger", "fascist"}

var leetReplacer = strings.NewReplacer("4", "a", "3", "e", "1", "i", "0", "o", "5", "s")

// normalizeForLexicon lowercases, collapses runs of 3+ repeated characters to
// 2, undoes common leetspeak substitutions, and applies NFKD so accented
// evasions still hit the lexicon.
func normalizeForLexicon(t string) string {
	t = strings.ToLower(t)
	t = collapseRepeats(t)
	t = leetReplacer.Replace(t)
	return norm.NFKD.String(t)
}

// collapseRepeats reduces any run of 3 or more identical runes to exactly 2.
func collapseRepeats(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	var prev rune
	run := 0
	for _, r := range s {
		if r == prev {
			run++
		} else {
			prev, run = r, 1
		}
		if run <= 2 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// lexiconHits returns every lexicon term contained in the normalized text.
func lexiconHits(text string) []string {
	t := normalizeForLexicon(text)
	var hits []string
	for _, w := range toxicLexicon {
		if strings.Contains(t, w) {
			hits = append(hits, w)
		}
	}
	return hits
}
