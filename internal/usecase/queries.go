package usecase

import (
	"context"
	"time"

	"FocusNews/internal/domain"
	"FocusNews/internal/ports"
)

// Queries exposes the consumer read side over recorded verdicts.
type Queries struct {
	reader   ports.ScoreReader
	rules    ports.RuleStore
	articles ports.ArticleStore
}

// NewQueries constructs the read-side facade.
func NewQueries(reader ports.ScoreReader, rules ports.RuleStore, articles ports.ArticleStore) *Queries {
	return &Queries{reader: reader, rules: rules, articles: articles}
}

// MatchedArticles lists matched articles for the named rule, best first.
func (q *Queries) MatchedArticles(ctx context.Context, ruleName string, limit int) ([]domain.ScoredArticle, error) {
	return q.reader.MatchedArticles(ctx, ruleName, limit)
}

// ArticleScore returns the recorded entry for (url, rule), nil when absent.
func (q *Queries) ArticleScore(ctx context.Context, url, ruleName string) (*domain.ScoreEntry, error) {
	return q.reader.ArticleScore(ctx, url, ruleName)
}

// Rules lists all stored rules with keywords and tags.
func (q *Queries) Rules(ctx context.Context) ([]domain.Rule, error) {
	return q.rules.All(ctx)
}

// MarkRead stamps an article as read.
func (q *Queries) MarkRead(ctx context.Context, articleID int64, at time.Time) error {
	return q.articles.MarkRead(ctx, articleID, at)
}
