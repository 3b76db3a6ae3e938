package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"

	"FocusNews/internal/domain"
)

// Record stores the verdict for one (article, rule) pair and keeps the
// matched-rules relation in step, all within a single transaction. The
// computed_at stamp uses the database clock so staleness comparisons against
// last_updated_at and updated_at never cross clocks.
func (r *PostgresRepository) Record(ctx context.Context, articleID, ruleID int64, verdict domain.Verdict) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin record: %w", err)
	}

	entryQuery := `INSERT INTO score_entries (article_id, rule_id, score, computed_at)
              VALUES ($1, $2, $3, NOW())
              ON CONFLICT (article_id, rule_id) DO UPDATE
              SET score = EXCLUDED.score,
                  computed_at = EXCLUDED.computed_at`

	if _, err := tx.ExecContext(ctx, entryQuery, articleID, ruleID, verdict.Score); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("upsert score entry: %w", err)
	}

	if verdict.Matched {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO article_rules (article_id, rule_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			articleID, ruleID)
	} else {
		_, err = tx.ExecContext(ctx,
			`DELETE FROM article_rules WHERE article_id = $1 AND rule_id = $2`,
			articleID, ruleID)
	}
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("update matched relation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit record: %w", err)
	}
	return nil
}

// Get returns the recorded entry for the pair, or nil when it was never scored.
func (r *PostgresRepository) Get(ctx context.Context, articleID, ruleID int64) (*domain.ScoreEntry, error) {
	query, args, err := psql.
		Select("se.article_id", "se.rule_id", "se.score", "se.computed_at").
		From("score_entries se").
		Where(squirrel.Eq{"se.article_id": articleID, "se.rule_id": ruleID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build entry query: %w", err)
	}

	var entry domain.ScoreEntry
	err = r.db.QueryRowContext(ctx, query, args...).
		Scan(&entry.ArticleID, &entry.RuleID, &entry.Score, &entry.ComputedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query entry: %w", err)
	}
	return &entry, nil
}

// Pending lists articles whose pair with the rule has no entry yet, or whose
// entry predates the article content or the rule definition.
func (r *PostgresRepository) Pending(ctx context.Context, ruleID int64) ([]domain.Article, error) {
	query, args, err := psql.
		Select(articleColumns...).
		From("articles a").
		Join("rules r ON r.id = ?", ruleID).
		LeftJoin("score_entries se ON se.article_id = a.id AND se.rule_id = r.id").
		Where(squirrel.Or{
			squirrel.Eq{"se.id": nil},
			squirrel.Expr("se.computed_at < a.last_updated_at"),
			squirrel.Expr("se.computed_at < r.updated_at"),
		}).
		OrderBy("a.id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build pending query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query pending: %w", err)
	}

	var pending []domain.Article
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan pending article: %w", err)
		}
		pending = append(pending, article)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("pending iteration: %w", rowsErr)
	}
	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close pending: %w", closeErr)
	}

	return pending, nil
}

// MatchedArticles lists matched articles for the named rule, best first.
func (r *PostgresRepository) MatchedArticles(ctx context.Context, ruleName string, limit int) ([]domain.ScoredArticle, error) {
	builder := psql.
		Select(append(append([]string{}, articleColumns...), "se.score")...).
		From("score_entries se").
		Join("articles a ON a.id = se.article_id").
		Join("rules r ON r.id = se.rule_id").
		Where(squirrel.Eq{"r.name": ruleName}).
		Where(squirrel.Gt{"se.score": 0}).
		OrderBy("se.score DESC", "a.published_at DESC")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build matched query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query matched: %w", err)
	}

	var matched []domain.ScoredArticle
	for rows.Next() {
		var (
			article domain.Article
			readAt  sql.NullTime
			score   float64
		)
		err := rows.Scan(
			&article.ID, &article.URL, &article.Title, &article.Body,
			&article.PublishedAt, &article.FirstSeenAt, &article.LastUpdatedAt, &readAt,
			&score,
		)
		if err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan matched article: %w", err)
		}
		if readAt.Valid {
			article.ReadAt = &readAt.Time
		}
		matched = append(matched, domain.ScoredArticle{Article: article, Score: score})
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("matched iteration: %w", rowsErr)
	}
	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close matched: %w", closeErr)
	}

	return matched, nil
}

// ArticleScore returns the current entry for (article URL, rule name), or nil
// when the pair was never scored. Entries of rules that no longer exist are
// unreachable here since the join runs over the current rules table.
func (r *PostgresRepository) ArticleScore(ctx context.Context, url, ruleName string) (*domain.ScoreEntry, error) {
	query, args, err := psql.
		Select("se.article_id", "se.rule_id", "se.score", "se.computed_at").
		From("score_entries se").
		Join("articles a ON a.id = se.article_id").
		Join("rules r ON r.id = se.rule_id").
		Where(squirrel.Eq{"a.url": url, "r.name": ruleName}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build score query: %w", err)
	}

	var entry domain.ScoreEntry
	err = r.db.QueryRowContext(ctx, query, args...).
		Scan(&entry.ArticleID, &entry.RuleID, &entry.Score, &entry.ComputedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query score: %w", err)
	}
	return &entry, nil
}
