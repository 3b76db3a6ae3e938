package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"FocusNews/internal/domain"
)

var articleColumns = []string{
	"a.id", "a.url", "a.title", "a.body",
	"a.published_at", "a.first_seen_at", "a.last_updated_at", "a.read_at",
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(s rowScanner) (domain.Article, error) {
	var (
		article domain.Article
		readAt  sql.NullTime
	)
	err := s.Scan(
		&article.ID, &article.URL, &article.Title, &article.Body,
		&article.PublishedAt, &article.FirstSeenAt, &article.LastUpdatedAt, &readAt,
	)
	if err != nil {
		return domain.Article{}, err
	}
	if readAt.Valid {
		article.ReadAt = &readAt.Time
	}
	return article, nil
}

// Upsert inserts the article or refreshes its content when the URL is known.
// Re-ingesting identical content leaves last_updated_at untouched so the
// pair does not look stale to the runner.
func (r *PostgresRepository) Upsert(ctx context.Context, article domain.Article) (domain.Article, error) {
	query := `INSERT INTO articles (url, title, body, published_at)
              VALUES ($1, $2, $3, $4)
              ON CONFLICT (url) DO UPDATE
              SET title = EXCLUDED.title,
                  body = EXCLUDED.body,
                  published_at = EXCLUDED.published_at,
                  last_updated_at = NOW()
              WHERE articles.title IS DISTINCT FROM EXCLUDED.title
                 OR articles.body IS DISTINCT FROM EXCLUDED.body
              RETURNING id, url, title, body, published_at, first_seen_at, last_updated_at, read_at`

	row := r.db.QueryRowContext(ctx, query, article.URL, article.Title, article.Body, article.PublishedAt)
	stored, err := scanArticle(row)
	if err == nil {
		return stored, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return domain.Article{}, fmt.Errorf("upsert article: %w", err)
	}

	// Conflict with identical content returns no row; read the stored one.
	existing, err := r.ByURL(ctx, article.URL)
	if err != nil {
		return domain.Article{}, err
	}
	if existing == nil {
		return domain.Article{}, fmt.Errorf("upsert article: %s vanished after conflict", article.URL)
	}
	return *existing, nil
}

// ByURL returns the stored article or nil when the URL is unknown.
func (r *PostgresRepository) ByURL(ctx context.Context, url string) (*domain.Article, error) {
	query, args, err := psql.
		Select(articleColumns...).
		From("articles a").
		Where("a.url = ?", url).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build article query: %w", err)
	}

	article, err := scanArticle(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query article: %w", err)
	}
	return &article, nil
}

// MarkRead stamps the article as read.
func (r *PostgresRepository) MarkRead(ctx context.Context, articleID int64, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE articles SET read_at = $2 WHERE id = $1`, articleID, at)
	if err != nil {
		return fmt.Errorf("mark read: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark read affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("mark read: article %d not found", articleID)
	}
	return nil
}

// PurgeArticles wipes all articles with their score entries and rule links.
func (r *PostgresRepository) PurgeArticles(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM articles`); err != nil {
		return fmt.Errorf("purge articles: %w", err)
	}
	return nil
}
