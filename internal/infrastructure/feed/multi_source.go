package feed

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"FocusNews/internal/config"
	"FocusNews/internal/domain"
	"FocusNews/internal/ports"
	"FocusNews/internal/source"
)

const defaultWorkers = 4

// MultiSource implements ArticleSource by fanning out over configured feeds
// through registered strategies. Feed-level failures are logged and skipped;
// a run returns whatever the remaining feeds produced.
type MultiSource struct {
	registry *source.Registry
	feeds    []config.FeedConfig
	workers  int
	timeout  time.Duration
	logger   *slog.Logger
}

var _ ports.ArticleSource = (*MultiSource)(nil)

// NewMultiSource wires the strategy registry with config-defined feeds.
func NewMultiSource(reg *source.Registry, feeds []config.FeedConfig, workers int, timeout time.Duration, log *slog.Logger) *MultiSource {
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &MultiSource{
		registry: reg,
		feeds:    feeds,
		workers:  workers,
		timeout:  timeout,
		logger:   log,
	}
}

// Fetch pulls all configured feeds with bounded concurrency and deduplicates
// the result by article URL, keeping the first occurrence. Hitting the run
// timeout keeps whatever was fetched; parent cancellation aborts the run.
func (s *MultiSource) Fetch(ctx context.Context, now time.Time) ([]domain.Article, error) {
	runCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	g, gctx := errgroup.WithContext(runCtx)
	g.SetLimit(s.workers)

	var (
		mu         sync.Mutex
		aggregated []domain.Article
	)

	for _, fc := range s.feeds {
		fc := fc // per-iteration copy; required for the pre-1.22 loopvar scoping
		g.Go(func() error {
			strategy, err := s.registry.Resolve(fc.Source)
			if err != nil {
				s.warn("skip feed", "feed", fc.Name, "error", err)
				return nil
			}

			req := source.Request{
				Now:      now,
				FeedName: fc.Name,
				URL:      fc.URL,
				Options:  fc.Options,
			}

			articles, err := strategy.Fetch(gctx, req)
			if err != nil {
				s.warn("fetch feed", "feed", fc.Name, "error", err)
				return nil
			}

			mu.Lock()
			aggregated = append(aggregated, articles...)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(aggregated))
	unique := aggregated[:0]
	for _, article := range aggregated {
		if _, ok := seen[article.URL]; ok {
			continue
		}
		seen[article.URL] = struct{}{}
		unique = append(unique, article)
	}

	s.debug("feeds fetched", "feeds", len(s.feeds), "articles", len(unique))
	return unique, nil
}

func (s *MultiSource) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *MultiSource) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
