package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"FocusNews/internal/domain"
	"FocusNews/internal/ports"
)

// RunnerDeps wires all driven adapters into the scoring run.
type RunnerDeps struct {
	Source   ports.ArticleSource
	Articles ports.ArticleStore
	Rules    ports.RuleStore
	Ledger   ports.ScoreLedger
	Engine   ports.Evaluator
	Notifier ports.Notifier
	Logger   *slog.Logger
}

// Runner implements the ingest-and-score workflow: pull feeds, upsert
// articles, sync the rule set, evaluate every stale (article, rule) pair and
// record the verdicts. Failures on individual articles or pairs are logged
// and counted, never fatal to the run.
type Runner struct {
	source   ports.ArticleSource
	articles ports.ArticleStore
	rules    ports.RuleStore
	ledger   ports.ScoreLedger
	engine   ports.Evaluator
	notifier ports.Notifier
	logger   *slog.Logger
}

// RunStats summarizes a single run.
type RunStats struct {
	FetchedArticles int
	StoredArticles  int
	SyncedRules     int
	SkippedRules    int
	ScoredPairs     int
	MatchedPairs    int
	NewMatches      int
	Failures        int
}

type digestItem struct {
	Article domain.Article
	Rule    domain.Rule
	Score   float64
}

// NewRunner constructs the orchestration component.
func NewRunner(deps RunnerDeps) *Runner {
	return &Runner{
		source:   deps.Source,
		articles: deps.Articles,
		rules:    deps.Rules,
		ledger:   deps.Ledger,
		engine:   deps.Engine,
		notifier: deps.Notifier,
		logger:   deps.Logger,
	}
}

// Run executes one full pass with the given rule set. The rule set is passed
// explicitly so a run never observes a half-reloaded configuration.
func (r *Runner) Run(ctx context.Context, now time.Time, ruleset []domain.Rule) (RunStats, error) {
	var stats RunStats

	if r.source != nil {
		fetched, err := r.source.Fetch(ctx, now)
		if err != nil {
			return stats, fmt.Errorf("fetch articles: %w", err)
		}
		stats.FetchedArticles = len(fetched)

		for _, article := range fetched {
			if _, err := r.articles.Upsert(ctx, article); err != nil {
				r.warn("store article", "url", article.URL, "error", err)
				stats.Failures++
				continue
			}
			stats.StoredArticles++
		}
	}

	synced, err := r.rules.Sync(ctx, ruleset)
	if err != nil {
		return stats, fmt.Errorf("sync rules: %w", err)
	}
	stats.SyncedRules = len(synced)

	var newMatches []digestItem
	for _, rule := range synced {
		if !rule.Active {
			stats.SkippedRules++
			continue
		}
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		pending, err := r.ledger.Pending(ctx, rule.ID)
		if err != nil {
			r.warn("list pending", "rule", rule.Name, "error", err)
			stats.Failures++
			continue
		}

		for _, article := range pending {
			if err := ctx.Err(); err != nil {
				return stats, err
			}

			previous, err := r.ledger.Get(ctx, article.ID, rule.ID)
			if err != nil {
				r.warn("read previous verdict", "rule", rule.Name, "url", article.URL, "error", err)
				stats.Failures++
				continue
			}

			verdict := r.engine.Evaluate(article, rule)
			if err := r.ledger.Record(ctx, article.ID, rule.ID, verdict); err != nil {
				r.warn("record verdict", "rule", rule.Name, "url", article.URL, "error", err)
				stats.Failures++
				continue
			}

			stats.ScoredPairs++
			if !verdict.Matched {
				continue
			}
			stats.MatchedPairs++
			if previous == nil || !previous.Matched() {
				stats.NewMatches++
				newMatches = append(newMatches, digestItem{Article: article, Rule: rule, Score: verdict.Score})
			}
		}
	}

	if r.notifier != nil && len(newMatches) > 0 {
		if err := r.notifier.PublishDigest(ctx, buildDigestMessage(newMatches)); err != nil {
			r.warn("publish digest", "error", err)
		}
	}

	r.info("run complete",
		"fetched", stats.FetchedArticles,
		"stored", stats.StoredArticles,
		"rules", stats.SyncedRules,
		"scored", stats.ScoredPairs,
		"matched", stats.MatchedPairs,
		"new_matches", stats.NewMatches,
		"failures", stats.Failures,
	)
	return stats, nil
}

func buildDigestMessage(items []digestItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d new matched article(s)\n\n", len(items))
	for _, item := range items {
		fmt.Fprintf(&b, "- %s\nRule: %s | Score: %.2f\n%s\n\n",
			item.Article.Title,
			item.Rule.Name,
			item.Score,
			item.Article.URL)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (r *Runner) info(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Info(msg, args...)
	}
}

func (r *Runner) warn(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Warn(msg, args...)
	}
}
