package engine

import (
	"math"
	"strings"

	"FocusNews/internal/domain"
)

// Weights parameterizes the scoring formula. Title hits are worth more than
// body hits; Repeat is the factor applied to each additional occurrence of
// the same keyword in the same surface. All values are expected positive.
type Weights struct {
	Title  float64
	Body   float64
	Repeat float64
}

// DefaultWeights favors title occurrences ten to one over body occurrences
// and halves the contribution of every repeated occurrence.
func DefaultWeights() Weights {
	return Weights{Title: 10, Body: 1, Repeat: 0.5}
}

// Engine scores articles against keyword rules. Evaluate is pure: no I/O,
// no shared state, safe to call from concurrent workers.
type Engine struct {
	weights Weights
}

// New builds an engine; a zero Weights value falls back to DefaultWeights.
func New(weights Weights) *Engine {
	if weights == (Weights{}) {
		weights = DefaultWeights()
	}
	return &Engine{weights: weights}
}

// Evaluate decides whether the article is relevant under the rule.
//
// Any exclude keyword found in the title or body vetoes the match. Otherwise
// every include keyword must occur at least once in title or body; a rule
// with no include keywords never matches. The score sums per-keyword
// occurrence weights, rounded to two decimals to fit the persisted scale.
// Matching is plain substring search over lowercased, whitespace-collapsed
// text: "art" does match inside "startup". That is deliberate, so multi-word
// phrases work without a tokenizer; word-boundary matching is a possible
// refinement, not current behavior.
func (e *Engine) Evaluate(article domain.Article, rule domain.Rule) domain.Verdict {
	title := domain.NormalizeText(article.Title)
	body := domain.NormalizeText(article.Body)

	if vetoed(title, body, rule.ExcludeKeywords()) {
		return domain.Verdict{}
	}

	includes := rule.IncludeKeywords()
	if len(includes) == 0 {
		// A rule that declares no positive interest never matches.
		return domain.Verdict{}
	}

	var score float64
	for _, kw := range includes {
		needle := domain.NormalizeText(kw.Text)
		if needle == "" {
			return domain.Verdict{}
		}

		titleHits := strings.Count(title, needle)
		bodyHits := strings.Count(body, needle)
		if titleHits == 0 && bodyHits == 0 {
			return domain.Verdict{}
		}

		score += occurrenceWeight(titleHits, e.weights.Title, e.weights.Repeat)
		score += occurrenceWeight(bodyHits, e.weights.Body, e.weights.Repeat)
	}

	score = roundScore(score)
	return domain.Verdict{Matched: score > 0, Score: score}
}

// vetoed applies the strict exclusion policy: any occurrence of an exclude
// keyword in either surface rejects the article. Kept as a single predicate
// so a bounded-occurrence relaxation would only touch this function.
func vetoed(title, body string, excludes []domain.Keyword) bool {
	for _, kw := range excludes {
		needle := domain.NormalizeText(kw.Text)
		if needle == "" {
			continue
		}
		if strings.Contains(title, needle) || strings.Contains(body, needle) {
			return true
		}
	}
	return false
}

// occurrenceWeight sums a geometric series: the first occurrence earns the
// full surface weight, each further one the previous contribution times the
// repeat factor. Extra occurrences always add something, but never more than
// weight/(1-repeat) in total.
func occurrenceWeight(hits int, weight, repeat float64) float64 {
	if hits <= 0 || weight <= 0 {
		return 0
	}
	if repeat == 1 {
		return weight * float64(hits)
	}
	return weight * (1 - math.Pow(repeat, float64(hits))) / (1 - repeat)
}

// roundScore caps the score at two fractional digits, the scale of the
// persisted score column.
func roundScore(v float64) float64 {
	return math.Round(v*100) / 100
}
