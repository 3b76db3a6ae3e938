package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FocusNews/internal/domain"
)

func TestParseValidRules(t *testing.T) {
	t.Parallel()

	raw := []byte(`
rules:
  - name: politics
    include:
      - Election
      - vote
    exclude:
      - advertisement
    tags:
      - Politics
  - name: quiet
    active: false
    include:
      - nothing
`)

	loaded, issues, err := Parse(raw)
	require.NoError(t, err)
	assert.Empty(t, issues)
	require.Len(t, loaded, 2)

	politics := loaded[0]
	assert.Equal(t, "politics", politics.Name)
	assert.True(t, politics.Active, "active defaults to true")
	require.Len(t, politics.IncludeKeywords(), 2)
	assert.Equal(t, "election", politics.IncludeKeywords()[0].Text, "keywords are normalized")
	require.Len(t, politics.ExcludeKeywords(), 1)
	assert.Equal(t, []string{"Politics"}, politics.Tags)

	assert.False(t, loaded[1].Active)
}

func TestParseSkipsInvalidRuleOnly(t *testing.T) {
	t.Parallel()

	raw := []byte(`
rules:
  - name: broken
    include:
      - ""
  - name: fine
    include:
      - golang
`)

	loaded, issues, err := Parse(raw)
	require.NoError(t, err)

	require.Len(t, issues, 1)
	assert.Equal(t, "broken", issues[0].Rule)
	assert.Contains(t, issues[0].Error(), "must not be empty")

	require.Len(t, loaded, 1)
	assert.Equal(t, "fine", loaded[0].Name)
}

func TestParseRejectsDuplicateNames(t *testing.T) {
	t.Parallel()

	raw := []byte(`
rules:
  - name: twice
    include: [alpha]
  - name: twice
    include: [beta]
`)

	loaded, issues, err := Parse(raw)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "alpha", loaded[0].IncludeKeywords()[0].Text)
	require.Len(t, issues, 1)
	assert.Equal(t, "duplicate rule name", issues[0].Reason)
}

func TestParseCollapsesDuplicateKeywords(t *testing.T) {
	t.Parallel()

	raw := []byte(`
rules:
  - name: dedup
    include:
      - AI
      - ai
      - "  AI  "
    exclude:
      - ai
`)

	loaded, issues, err := Parse(raw)
	require.NoError(t, err)
	assert.Empty(t, issues)
	require.Len(t, loaded, 1)

	rule := loaded[0]
	assert.Len(t, rule.IncludeKeywords(), 1, "same text and polarity collapses")
	assert.Len(t, rule.ExcludeKeywords(), 1, "same text with other polarity is a distinct keyword")
}

func TestParseAllowsRuleWithoutIncludes(t *testing.T) {
	t.Parallel()

	raw := []byte(`
rules:
  - name: excludes-only
    exclude: [spam]
`)

	loaded, issues, err := Parse(raw)
	require.NoError(t, err)
	assert.Empty(t, issues)
	require.Len(t, loaded, 1)
	assert.Empty(t, loaded[0].IncludeKeywords())
}

func TestParseEmptyDocumentFails(t *testing.T) {
	t.Parallel()

	_, _, err := Parse([]byte("rules: []\n"))
	assert.Error(t, err)

	_, _, err = Parse([]byte("{not yaml"))
	assert.Error(t, err)
}

func TestLoadReadsFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := []byte("rules:\n  - name: disk\n    include: [news]\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	loaded, issues, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, issues)
	require.Len(t, loaded, 1)
	assert.Equal(t, "disk", loaded[0].Name)
	assert.Equal(t, []domain.Keyword{domain.NewKeyword("news", domain.Include)}, loaded[0].Keywords)

	_, _, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
