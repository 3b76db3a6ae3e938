package domain

import "time"

// Article is a normalized news item deduplicated by source URL.
type Article struct {
	ID            int64
	URL           string
	Title         string
	Body          string
	PublishedAt   time.Time
	FirstSeenAt   time.Time
	LastUpdatedAt time.Time
	ReadAt        *time.Time
}

// Verdict is the outcome of evaluating a single article against a single rule.
type Verdict struct {
	Matched bool
	Score   float64
}

// ScoreEntry is the persisted verdict for one (article, rule) pair.
type ScoreEntry struct {
	ArticleID  int64
	RuleID     int64
	Score      float64
	ComputedAt time.Time
}

// Matched reports whether the stored score marks the pair as relevant.
func (e ScoreEntry) Matched() bool {
	return e.Score > 0
}

// ScoredArticle pairs an article with its score under one rule.
type ScoredArticle struct {
	Article Article
	Score   float64
}
