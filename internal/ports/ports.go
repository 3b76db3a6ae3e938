package ports

import (
	"context"
	"time"

	"FocusNews/internal/domain"
)

// ArticleSource pulls fresh articles from upstream feeds.
type ArticleSource interface {
	Fetch(ctx context.Context, now time.Time) ([]domain.Article, error)
}

// ArticleStore persists deduplicated articles keyed by URL.
type ArticleStore interface {
	Upsert(ctx context.Context, article domain.Article) (domain.Article, error)
	ByURL(ctx context.Context, url string) (*domain.Article, error)
	MarkRead(ctx context.Context, articleID int64, at time.Time) error
	PurgeArticles(ctx context.Context) error
}

// RuleStore mirrors the declarative rule set into persistent storage.
type RuleStore interface {
	Sync(ctx context.Context, rules []domain.Rule) ([]domain.Rule, error)
	All(ctx context.Context) ([]domain.Rule, error)
	PurgeRules(ctx context.Context) error
}

// ScoreLedger keeps exactly one verdict per (article, rule) pair.
type ScoreLedger interface {
	Record(ctx context.Context, articleID, ruleID int64, verdict domain.Verdict) error
	Get(ctx context.Context, articleID, ruleID int64) (*domain.ScoreEntry, error)
	Pending(ctx context.Context, ruleID int64) ([]domain.Article, error)
}

// ScoreReader answers consumer queries over recorded verdicts.
type ScoreReader interface {
	MatchedArticles(ctx context.Context, ruleName string, limit int) ([]domain.ScoredArticle, error)
	ArticleScore(ctx context.Context, url, ruleName string) (*domain.ScoreEntry, error)
}

// Evaluator scores a single article against a single rule.
type Evaluator interface {
	Evaluate(article domain.Article, rule domain.Rule) domain.Verdict
}

// Notifier streams run digests to Telegram or other channels.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// Scheduler controls when pipeline runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
