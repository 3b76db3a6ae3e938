package domain

import (
	"crypto/sha1"
	"encoding/hex"
	"sort"
	"strings"
)

// Polarity tells whether a keyword must or must not appear in an article.
type Polarity string

const (
	Include Polarity = "include"
	Exclude Polarity = "exclude"
)

// Keyword is an atomic text pattern; identity is the (text, polarity) pair.
type Keyword struct {
	Text     string
	Polarity Polarity
}

// NewKeyword normalizes the text so that identity and matching agree.
func NewKeyword(text string, polarity Polarity) Keyword {
	return Keyword{Text: NormalizeText(text), Polarity: polarity}
}

// Category is a label used to organize rules; it has no effect on scoring.
type Category struct {
	ID   int64
	Name string
}

// Rule is a named interest policy built from include/exclude keywords.
type Rule struct {
	ID       int64
	Name     string
	Active   bool
	Keywords []Keyword
	Tags     []string
}

// IncludeKeywords returns the keywords an article must contain.
func (r Rule) IncludeKeywords() []Keyword {
	return r.keywordsWith(Include)
}

// ExcludeKeywords returns the keywords that veto a match.
func (r Rule) ExcludeKeywords() []Keyword {
	return r.keywordsWith(Exclude)
}

func (r Rule) keywordsWith(polarity Polarity) []Keyword {
	var out []Keyword
	for _, kw := range r.Keywords {
		if kw.Polarity == polarity {
			out = append(out, kw)
		}
	}
	return out
}

// Fingerprint hashes the scoring-relevant definition of the rule. It changes
// only when the keyword set changes; toggling active or retagging does not
// invalidate previously computed scores.
func (r Rule) Fingerprint() string {
	parts := make([]string, 0, len(r.Keywords))
	for _, kw := range r.Keywords {
		parts = append(parts, string(kw.Polarity)+":"+kw.Text)
	}
	sort.Strings(parts)

	sum := sha1.Sum([]byte(strings.Join(parts, "\n")))
	return hex.EncodeToString(sum[:])
}

// NormalizeText lowercases and collapses whitespace runs to single spaces.
func NormalizeText(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
