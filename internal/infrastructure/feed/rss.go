package feed

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"FocusNews/internal/domain"
	"FocusNews/internal/infrastructure/extract"
	"FocusNews/internal/source"
)

// TextExtractor completes items whose feed body is empty.
type TextExtractor interface {
	ArticleText(ctx context.Context, pageURL string) (string, error)
}

// Fetcher implements the RSS/Atom retrieval strategy.
type Fetcher struct {
	parser    *gofeed.Parser
	extractor TextExtractor
	logger    *slog.Logger
}

var _ source.Source = (*Fetcher)(nil)

// NewFetcher creates the RSS strategy. The extractor is optional; without it
// items keep whatever body text the feed carries.
func NewFetcher(client *http.Client, extractor TextExtractor, log *slog.Logger) *Fetcher {
	parser := gofeed.NewParser()
	if client != nil {
		parser.Client = client
	}
	return &Fetcher{
		parser:    parser,
		extractor: extractor,
		logger:    log,
	}
}

// Name identifies the strategy in the source registry.
func (f *Fetcher) Name() string { return "rss" }

// Fetch downloads one configured feed and maps its items to articles.
func (f *Fetcher) Fetch(ctx context.Context, req source.Request) ([]domain.Article, error) {
	parsed, err := f.parser.ParseURLWithContext(req.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", req.FeedName, err)
	}

	articles := make([]domain.Article, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item == nil || item.Link == "" {
			continue
		}

		article := domain.Article{
			URL:         item.Link,
			Title:       extract.StripTags(item.Title),
			Body:        itemBody(item),
			PublishedAt: itemPublished(item, req.Now),
		}

		if article.Body == "" && f.extractor != nil && req.Options["full_text"] == "true" {
			text, err := f.extractor.ArticleText(ctx, item.Link)
			if err != nil {
				f.warn("extract article text", "feed", req.FeedName, "url", item.Link, "error", err)
			} else {
				article.Body = text
			}
		}

		articles = append(articles, article)
	}

	f.debug("feed parsed", "feed", req.FeedName, "items", len(parsed.Items), "articles", len(articles))
	return articles, nil
}

// itemBody prefers the full content element over the summary.
func itemBody(item *gofeed.Item) string {
	if item.Content != "" {
		return extract.FromHTML(item.Content)
	}
	return extract.FromHTML(item.Description)
}

// itemPublished falls back to the update stamp, then the run time.
func itemPublished(item *gofeed.Item, now time.Time) time.Time {
	if item.PublishedParsed != nil {
		return item.PublishedParsed.UTC()
	}
	if item.UpdatedParsed != nil {
		return item.UpdatedParsed.UTC()
	}
	return now.UTC()
}

func (f *Fetcher) debug(msg string, args ...any) {
	if f.logger != nil {
		f.logger.Debug(msg, args...)
	}
}

func (f *Fetcher) warn(msg string, args ...any) {
	if f.logger != nil {
		f.logger.Warn(msg, args...)
	}
}
