package storage

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FocusNews/internal/domain"
)

func TestPostgresRepository_Sync_MirrorsRuleGraph(t *testing.T) {
	repo, mock := newMockRepository(t)

	rule := domain.Rule{
		Name:   "politics",
		Active: true,
		Keywords: []domain.Keyword{
			{Text: "election", Polarity: domain.Include},
			{Text: "advertisement", Polarity: domain.Exclude},
		},
		Tags: []string{"Politics"},
	}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO rules (name, active, fingerprint)")).
		WithArgs("politics", true, rule.Fingerprint()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM rule_keywords WHERE rule_id = $1")).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO keywords (text, include)")).
		WithArgs("election", true).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(21)))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO rule_keywords (rule_id, keyword_id)")).
		WithArgs(int64(7), int64(21)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO keywords (text, include)")).
		WithArgs("advertisement", false).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(22)))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO rule_keywords (rule_id, keyword_id)")).
		WithArgs(int64(7), int64(22)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM rule_categories WHERE rule_id = $1")).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO categories (name)")).
		WithArgs("Politics").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(3)))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO rule_categories (rule_id, category_id)")).
		WithArgs(int64(7), int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	synced, err := repo.Sync(context.Background(), []domain.Rule{rule})
	require.NoError(t, err)
	require.Len(t, synced, 1)
	assert.Equal(t, int64(7), synced[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_Sync_RollsBackOnFailure(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO rules (name, active, fingerprint)")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err := repo.Sync(context.Background(), []domain.Rule{{Name: "broken"}})
	require.Error(t, err)
	require.ErrorContains(t, err, "sync rule broken")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_All_AssemblesRules(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT r.id, r.name, r.active FROM rules r ORDER BY r.name")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "active"}).
			AddRow(int64(1), "politics", true).
			AddRow(int64(2), "sports", false))
	mock.ExpectQuery(regexp.QuoteMeta("FROM rule_keywords rk JOIN keywords k ON k.id = rk.keyword_id")).
		WillReturnRows(sqlmock.NewRows([]string{"rule_id", "text", "include"}).
			AddRow(int64(1), "advertisement", false).
			AddRow(int64(1), "election", true).
			AddRow(int64(2), "football", true))
	mock.ExpectQuery(regexp.QuoteMeta("FROM rule_categories rc JOIN categories c ON c.id = rc.category_id")).
		WillReturnRows(sqlmock.NewRows([]string{"rule_id", "name"}).
			AddRow(int64(1), "Politics"))

	rules, err := repo.All(context.Background())
	require.NoError(t, err)
	require.Len(t, rules, 2)

	politics := rules[0]
	assert.Equal(t, "politics", politics.Name)
	assert.True(t, politics.Active)
	require.Len(t, politics.IncludeKeywords(), 1)
	assert.Equal(t, "election", politics.IncludeKeywords()[0].Text)
	require.Len(t, politics.ExcludeKeywords(), 1)
	assert.Equal(t, []string{"Politics"}, politics.Tags)

	sports := rules[1]
	assert.False(t, sports.Active)
	require.Len(t, sports.Keywords, 1)
	assert.Empty(t, sports.Tags)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_All_Empty(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT r.id, r.name, r.active FROM rules r ORDER BY r.name")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "active"}))

	rules, err := repo.All(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rules)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_PurgeRules(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM rules")).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM keywords")).
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM categories")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.PurgeRules(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}
