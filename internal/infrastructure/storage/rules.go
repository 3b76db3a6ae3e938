package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"FocusNews/internal/domain"
)

// Sync mirrors the loaded rule set into storage and returns the rules with
// their storage IDs bound. A rule's updated_at moves only when its keyword
// fingerprint changed, which is what triggers re-scoring downstream.
func (r *PostgresRepository) Sync(ctx context.Context, rules []domain.Rule) ([]domain.Rule, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin rule sync: %w", err)
	}

	synced := make([]domain.Rule, 0, len(rules))
	for _, rule := range rules {
		stored, err := syncRuleTx(ctx, tx, rule)
		if err != nil {
			_ = tx.Rollback()
			return nil, fmt.Errorf("sync rule %s: %w", rule.Name, err)
		}
		synced = append(synced, stored)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit rule sync: %w", err)
	}
	return synced, nil
}

func syncRuleTx(ctx context.Context, tx *sql.Tx, rule domain.Rule) (domain.Rule, error) {
	ruleQuery := `INSERT INTO rules (name, active, fingerprint)
              VALUES ($1, $2, $3)
              ON CONFLICT (name) DO UPDATE
              SET active = EXCLUDED.active,
                  updated_at = CASE WHEN rules.fingerprint IS DISTINCT FROM EXCLUDED.fingerprint
                                    THEN NOW()
                                    ELSE rules.updated_at END,
                  fingerprint = EXCLUDED.fingerprint
              RETURNING id`

	if err := tx.QueryRowContext(ctx, ruleQuery, rule.Name, rule.Active, rule.Fingerprint()).Scan(&rule.ID); err != nil {
		return domain.Rule{}, fmt.Errorf("upsert rule: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM rule_keywords WHERE rule_id = $1`, rule.ID); err != nil {
		return domain.Rule{}, fmt.Errorf("clear rule keywords: %w", err)
	}

	// The no-op update makes RETURNING yield the id on conflict.
	keywordQuery := `INSERT INTO keywords (text, include)
              VALUES ($1, $2)
              ON CONFLICT (text, include) DO UPDATE SET text = EXCLUDED.text
              RETURNING id`

	for _, kw := range rule.Keywords {
		var keywordID int64
		if err := tx.QueryRowContext(ctx, keywordQuery, kw.Text, kw.Polarity == domain.Include).Scan(&keywordID); err != nil {
			return domain.Rule{}, fmt.Errorf("upsert keyword %q: %w", kw.Text, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO rule_keywords (rule_id, keyword_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			rule.ID, keywordID); err != nil {
			return domain.Rule{}, fmt.Errorf("link keyword %q: %w", kw.Text, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM rule_categories WHERE rule_id = $1`, rule.ID); err != nil {
		return domain.Rule{}, fmt.Errorf("clear rule categories: %w", err)
	}

	categoryQuery := `INSERT INTO categories (name)
              VALUES ($1)
              ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
              RETURNING id`

	for _, tag := range rule.Tags {
		var categoryID int64
		if err := tx.QueryRowContext(ctx, categoryQuery, tag).Scan(&categoryID); err != nil {
			return domain.Rule{}, fmt.Errorf("upsert category %q: %w", tag, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO rule_categories (rule_id, category_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			rule.ID, categoryID); err != nil {
			return domain.Rule{}, fmt.Errorf("link category %q: %w", tag, err)
		}
	}

	return rule, nil
}

// All returns every stored rule with its keywords and tags.
func (r *PostgresRepository) All(ctx context.Context) ([]domain.Rule, error) {
	query, args, err := psql.
		Select("r.id", "r.name", "r.active").
		From("rules r").
		OrderBy("r.name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build rules query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query rules: %w", err)
	}

	var (
		rules []domain.Rule
		ids   []int64
	)
	index := map[int64]int{}
	for rows.Next() {
		var rule domain.Rule
		if err := rows.Scan(&rule.ID, &rule.Name, &rule.Active); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		index[rule.ID] = len(rules)
		rules = append(rules, rule)
		ids = append(ids, rule.ID)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rules iteration: %w", rowsErr)
	}
	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rules: %w", closeErr)
	}

	if len(rules) == 0 {
		return rules, nil
	}

	if err := r.loadRuleKeywords(ctx, ids, rules, index); err != nil {
		return nil, err
	}
	if err := r.loadRuleTags(ctx, ids, rules, index); err != nil {
		return nil, err
	}

	return rules, nil
}

func (r *PostgresRepository) loadRuleKeywords(ctx context.Context, ids []int64, rules []domain.Rule, index map[int64]int) error {
	query, args, err := psql.
		Select("rk.rule_id", "k.text", "k.include").
		From("rule_keywords rk").
		Join("keywords k ON k.id = rk.keyword_id").
		Where("rk.rule_id = ANY(?)", pq.Array(ids)).
		OrderBy("k.text").
		ToSql()
	if err != nil {
		return fmt.Errorf("build keywords query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("query keywords: %w", err)
	}

	for rows.Next() {
		var (
			ruleID  int64
			text    string
			include bool
		)
		if err := rows.Scan(&ruleID, &text, &include); err != nil {
			_ = rows.Close()
			return fmt.Errorf("scan keyword: %w", err)
		}
		polarity := domain.Exclude
		if include {
			polarity = domain.Include
		}
		if i, ok := index[ruleID]; ok {
			rules[i].Keywords = append(rules[i].Keywords, domain.Keyword{Text: text, Polarity: polarity})
		}
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return fmt.Errorf("keywords iteration: %w", rowsErr)
	}
	if closeErr := rows.Close(); closeErr != nil {
		return fmt.Errorf("close keywords: %w", closeErr)
	}
	return nil
}

func (r *PostgresRepository) loadRuleTags(ctx context.Context, ids []int64, rules []domain.Rule, index map[int64]int) error {
	query, args, err := psql.
		Select("rc.rule_id", "c.name").
		From("rule_categories rc").
		Join("categories c ON c.id = rc.category_id").
		Where("rc.rule_id = ANY(?)", pq.Array(ids)).
		OrderBy("c.name").
		ToSql()
	if err != nil {
		return fmt.Errorf("build categories query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("query categories: %w", err)
	}

	for rows.Next() {
		var (
			ruleID int64
			name   string
		)
		if err := rows.Scan(&ruleID, &name); err != nil {
			_ = rows.Close()
			return fmt.Errorf("scan category: %w", err)
		}
		if i, ok := index[ruleID]; ok {
			rules[i].Tags = append(rules[i].Tags, name)
		}
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return fmt.Errorf("categories iteration: %w", rowsErr)
	}
	if closeErr := rows.Close(); closeErr != nil {
		return fmt.Errorf("close categories: %w", closeErr)
	}
	return nil
}

// PurgeRules wipes rules, keywords and categories with their links.
func (r *PostgresRepository) PurgeRules(ctx context.Context) error {
	for _, stmt := range []string{
		`DELETE FROM rules`,
		`DELETE FROM keywords`,
		`DELETE FROM categories`,
	} {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("purge rules: %w", err)
		}
	}
	return nil
}
