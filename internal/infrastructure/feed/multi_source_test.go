package feed

import (
	"context"
	"testing"
	"time"

	"FocusNews/internal/config"
	"FocusNews/internal/domain"
	"FocusNews/internal/source"
)

type stubSource struct {
	name     string
	articles []domain.Article
	err      error
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Fetch(ctx context.Context, req source.Request) ([]domain.Article, error) {
	return s.articles, s.err
}

type blockingSource struct{}

func (b *blockingSource) Name() string { return "blocking" }

func (b *blockingSource) Fetch(ctx context.Context, req source.Request) ([]domain.Article, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(5 * time.Second):
		return []domain.Article{{URL: "https://example.com/slow"}}, nil
	}
}

func TestMultiSourceAggregatesAndDeduplicates(t *testing.T) {
	t.Parallel()

	registry := source.NewRegistry()
	registry.Register(&stubSource{name: "a", articles: []domain.Article{
		{URL: "https://example.com/x"},
		{URL: "https://example.com/y"},
	}})
	registry.Register(&stubSource{name: "b", articles: []domain.Article{
		{URL: "https://example.com/y"},
		{URL: "https://example.com/z"},
	}})
	registry.Register(&stubSource{name: "bad", err: context.DeadlineExceeded})

	feeds := []config.FeedConfig{
		{Name: "one", Source: "a"},
		{Name: "two", Source: "b"},
		{Name: "three", Source: "bad"},
		{Name: "four", Source: "unregistered"},
	}

	ms := NewMultiSource(registry, feeds, 2, 0, nil)
	articles, err := ms.Fetch(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}

	if len(articles) != 3 {
		t.Fatalf("expected 3 unique articles, got %d", len(articles))
	}
	seen := map[string]bool{}
	for _, a := range articles {
		seen[a.URL] = true
	}
	for _, url := range []string{"https://example.com/x", "https://example.com/y", "https://example.com/z"} {
		if !seen[url] {
			t.Fatalf("missing article %s in %v", url, articles)
		}
	}
}

func TestMultiSourceTimeoutKeepsPartialResults(t *testing.T) {
	t.Parallel()

	registry := source.NewRegistry()
	registry.Register(&stubSource{name: "fast", articles: []domain.Article{{URL: "https://example.com/fast"}}})
	registry.Register(&blockingSource{})

	feeds := []config.FeedConfig{
		{Name: "quick", Source: "fast"},
		{Name: "slow", Source: "blocking"},
	}

	ms := NewMultiSource(registry, feeds, 2, 50*time.Millisecond, nil)

	start := time.Now()
	articles, err := ms.Fetch(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Fatal("run timeout was not applied")
	}

	if len(articles) != 1 || articles[0].URL != "https://example.com/fast" {
		t.Fatalf("expected only the fast feed result, got %+v", articles)
	}
}

func TestMultiSourceParentCancellation(t *testing.T) {
	t.Parallel()

	registry := source.NewRegistry()
	registry.Register(&stubSource{name: "fast", articles: []domain.Article{{URL: "https://example.com/fast"}}})

	ms := NewMultiSource(registry, []config.FeedConfig{{Name: "quick", Source: "fast"}}, 1, 0, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := ms.Fetch(ctx, time.Now()); err == nil {
		t.Fatal("expected error when parent context is cancelled")
	}
}
