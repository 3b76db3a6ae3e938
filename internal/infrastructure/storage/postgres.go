package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"FocusNews/internal/ports"
)

// psql builds SELECT queries with Postgres placeholders.
var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// PostgresRepository persists articles, rules and score entries in Postgres.
type PostgresRepository struct {
	db *sql.DB
}

var _ ports.ArticleStore = (*PostgresRepository)(nil)
var _ ports.RuleStore = (*PostgresRepository)(nil)
var _ ports.ScoreLedger = (*PostgresRepository)(nil)
var _ ports.ScoreReader = (*PostgresRepository)(nil)

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return db, nil
}

var schemaDDL = []string{
	`CREATE TABLE IF NOT EXISTS articles (
		id BIGSERIAL PRIMARY KEY,
		url TEXT NOT NULL UNIQUE,
		title TEXT NOT NULL DEFAULT '',
		body TEXT NOT NULL DEFAULT '',
		published_at TIMESTAMPTZ NOT NULL,
		first_seen_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		last_updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		read_at TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS categories (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS keywords (
		id BIGSERIAL PRIMARY KEY,
		text TEXT NOT NULL,
		include BOOLEAN NOT NULL,
		UNIQUE (text, include)
	)`,
	`CREATE TABLE IF NOT EXISTS rules (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		fingerprint TEXT NOT NULL DEFAULT '',
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS rule_keywords (
		rule_id BIGINT NOT NULL REFERENCES rules(id) ON DELETE CASCADE,
		keyword_id BIGINT NOT NULL REFERENCES keywords(id) ON DELETE CASCADE,
		PRIMARY KEY (rule_id, keyword_id)
	)`,
	`CREATE TABLE IF NOT EXISTS rule_categories (
		rule_id BIGINT NOT NULL REFERENCES rules(id) ON DELETE CASCADE,
		category_id BIGINT NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
		PRIMARY KEY (rule_id, category_id)
	)`,
	`CREATE TABLE IF NOT EXISTS score_entries (
		id BIGSERIAL PRIMARY KEY,
		article_id BIGINT NOT NULL REFERENCES articles(id) ON DELETE CASCADE,
		rule_id BIGINT NOT NULL REFERENCES rules(id) ON DELETE CASCADE,
		score NUMERIC(8,2) NOT NULL DEFAULT 0,
		computed_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (article_id, rule_id)
	)`,
	`CREATE TABLE IF NOT EXISTS article_rules (
		article_id BIGINT NOT NULL REFERENCES articles(id) ON DELETE CASCADE,
		rule_id BIGINT NOT NULL REFERENCES rules(id) ON DELETE CASCADE,
		PRIMARY KEY (article_id, rule_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_score_entries_rule_score ON score_entries (rule_id, score DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_articles_last_updated ON articles (last_updated_at)`,
}

// InitSchema creates all tables and indexes if they do not exist yet.
func InitSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaDDL {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
