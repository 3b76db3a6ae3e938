package extract

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

// maxPageBytes caps how much of a fetched page is read.
const maxPageBytes = 2 << 20

var stripPolicy = bluemonday.StrictPolicy()

// Extractor downloads article pages and distills them into plain text.
type Extractor struct {
	http      *http.Client
	userAgent string
}

// New creates a reusable extractor with its own HTTP client.
func New(timeout time.Duration) *Extractor {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Extractor{
		http:      &http.Client{Timeout: timeout},
		userAgent: "FocusNews/1.0 (+news relevance scanner)",
	}
}

// ArticleText fetches the page behind pageURL and returns its readable text.
func (e *Extractor) ArticleText(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		closeErr := resp.Body.Close()
		if closeErr != nil {
			return "", fmt.Errorf("unexpected status %s, close body: %v", resp.Status, closeErr)
		}
		return "", fmt.Errorf("unexpected status %s", resp.Status)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		_ = resp.Body.Close()
		return "", fmt.Errorf("read body: %w", err)
	}
	if err := resp.Body.Close(); err != nil {
		return "", fmt.Errorf("close response body: %w", err)
	}

	return FromHTML(string(raw)), nil
}

// FromHTML converts article markup into plain-text paragraphs. Script, style
// and navigation chrome are dropped; headings, paragraphs, list items and
// quotes are kept in document order. Markup that yields no structured content
// degrades to plain tag stripping.
func FromHTML(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	// Payload is already plain text.
	if !strings.Contains(trimmed, "<") {
		return collapse(html.UnescapeString(trimmed))
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(trimmed))
	if err != nil {
		return StripTags(trimmed)
	}

	doc.Find("script, style, noscript, template, iframe, nav, header, footer, aside, form").Remove()

	var paragraphs []string
	doc.Find("h1, h2, h3, h4, p, li, blockquote").Each(func(_ int, s *goquery.Selection) {
		if text := collapse(s.Text()); text != "" {
			paragraphs = append(paragraphs, text)
		}
	})

	if len(paragraphs) == 0 {
		return StripTags(trimmed)
	}
	return strings.Join(paragraphs, "\n\n")
}

// StripTags removes all markup and collapses whitespace, keeping text only.
func StripTags(raw string) string {
	return collapse(html.UnescapeString(stripPolicy.Sanitize(raw)))
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
