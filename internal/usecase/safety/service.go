// Package safety produces the auxiliary toxicity signal and the PII tags. It
// fuses a fixed lexicon with an optional external classifier; the classifier
// score feeds decision escalation, lexicon hits only set categories.
package safety

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/policyscan/internal/domain"
)

// classifierMaxChars bounds the sentence length sent to the external model.
const classifierMaxChars = 1000

const cleanMessage = "No toxicity/hate/threat detected with current detectors."

// toxicLabels are the classifier labels folded into the per-sentence score.
var toxicLabels = []string{"toxic", "severe_toxicity", "threat", "insult", "identity_hate", "obscene"}

var threatCueRe = regexp.MustCompile(`(?i)\b(kill|bomb|die|harm|destroy)\b`)

// Analyzer assesses text for toxicity. The classifier may be nil (lexicon-only
// mode); classifier failures degrade a sentence to lexicon signals instead of
// failing the assessment.
type Analyzer struct {
	clf    domain.ToxicityClassifier
	logger *zap.Logger
}

// NewAnalyzer creates an analyzer. clf can be nil.
func NewAnalyzer(clf domain.ToxicityClassifier, logger *zap.Logger) *Analyzer {
	return &Analyzer{clf: clf, logger: logger}
}

// Assess splits the text into sentences, scores each, and summarizes. The
// summary DocScore is the maximum classifier score across sentences.
func (a *Analyzer) Assess(ctx context.Context, text string) ([]domain.SafetySpan, domain.SafetySummary) {
	if strings.TrimSpace(text) == "" {
		return nil, domain.SafetySummary{Notice: domain.NoticeGreen, Message: cleanMessage}
	}

	sentences := splitSentences(text)
	spans := make([]domain.SafetySpan, 0, len(sentences))
	for i, s := range sentences {
		spans = append(spans, a.assessSentence(ctx, i, s))
	}

	docScore := 0.0
	catSet := make(map[string]struct{})
	for _, sp := range spans {
		if sp.MLScore > docScore {
			docScore = sp.MLScore
		}
		for _, c := range sp.Categories {
			catSet[c] = struct{}{}
		}
	}

	if len(catSet) == 0 {
		return spans, domain.SafetySummary{
			Notice:   domain.NoticeGreen,
			Message:  cleanMessage,
			DocScore: docScore,
		}
	}

	cats := make([]string, 0, len(catSet))
	for c := range catSet {
		cats = append(cats, c)
	}
	sort.Strings(cats)

	return spans, domain.SafetySummary{
		Notice:     domain.NoticeRed,
		Message:    "Detected categories: " + strings.Join(cats, ", "),
		Categories: cats,
		DocScore:   docScore,
	}
}

func (a *Analyzer) assessSentence(ctx context.Context, idx int, sentence string) domain.SafetySpan {
	lex := lexiconHits(sentence)

	perLabel := map[string]float64{}
	if a.clf != nil {
		truncated := sentence
		if len(truncated) > classifierMaxChars {
			truncated = truncated[:classifierMaxChars]
		}
		scores, err := a.clf.Classify(ctx, truncated)
		if err != nil {
			a.logger.Warn("Toxicity classifier failed, using lexicon only", zap.Error(err))
		} else {
			for label, score := range scores {
				perLabel[strings.ToLower(label)] = score
			}
		}
	}

	mlScore := 0.0
	for _, label := range toxicLabels {
		if s := perLabel[label]; s > mlScore {
			mlScore = s
		}
	}

	var categories []string
	if perLabel["threat"] > 0.35 || threatCueRe.MatchString(sentence) {
		categories = append(categories, "Threat")
	}
	if perLabel["identity_hate"] > 0.25 || hasHateCue(lex) {
		categories = append(categories, "Hate")
	}
	if perLabel["insult"] > 0.25 || perLabel["obscene"] > 0.25 || len(lex) > 0 {
		categories = append(categories, "Toxic/Profanity")
	}
	sort.Strings(categories)

	return domain.SafetySpan{
		Index:      idx,
		Text:       sentence,
		LexHits:    lex,
		MLScore:    mlScore,
		PerLabel:   perLabel,
		Categories: categories,
	}
}

func hasHateCue(lexHits []string) bool {
	joined := strings.Join(lexHits, " ")
	for _, cue := range hateLexiconCues {
		if strings.Contains(joined, cue) {
			return true
		}
	}
	return false
}
