package source

import (
	"context"
	"fmt"
	"time"

	"FocusNews/internal/domain"
)

// Request carries all parameters required to pull one configured feed.
type Request struct {
	Now      time.Time
	FeedName string
	URL      string
	Options  map[string]string
}

// Source captures a single retrieval strategy implementation (RSS, etc.).
type Source interface {
	Name() string
	Fetch(ctx context.Context, req Request) ([]domain.Article, error)
}

// Registry keeps a mapping from strategy names to their implementations.
type Registry struct {
	sources map[string]Source
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{sources: map[string]Source{}}
}

// Register adds or replaces a strategy implementation.
func (r *Registry) Register(src Source) {
	if r.sources == nil {
		r.sources = map[string]Source{}
	}
	r.sources[src.Name()] = src
}

// Resolve returns a strategy by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Source, error) {
	if src, ok := r.sources[name]; ok {
		return src, nil
	}
	return nil, fmt.Errorf("source %s is not registered", name)
}
