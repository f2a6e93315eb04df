// Package fetch discovers and scrapes bilingual news articles.
package fetch

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/Colmmm/xuexinwen/internal/article"
)

// Source fetches articles from one news provider.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]*article.Article, error)
}

// Result holds the results of a fetch run.
type Result struct {
	Fetched int
	Failed  int
}

// Fetcher runs all registered sources, isolating per-source failures.
type Fetcher struct {
	sources map[string]Source
}

// NewFetcher creates a fetcher over the given sources.
func NewFetcher(sources ...Source) *Fetcher {
	m := make(map[string]Source, len(sources))
	for _, s := range sources {
		m[s.Name()] = s
	}
	return &Fetcher{sources: m}
}

// Names returns the registered source names in sorted order.
func (f *Fetcher) Names() []string {
	names := make([]string, 0, len(f.sources))
	for name := range f.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Fetch pulls articles from one named source, or from all sources when name
// is empty. A failing source is logged and skipped, not fatal.
func (f *Fetcher) Fetch(ctx context.Context, name string) ([]*article.Article, *Result, error) {
	sources := f.sources
	if name != "" {
		src, ok := f.sources[name]
		if !ok {
			return nil, nil, fmt.Errorf("unsupported source: %s", name)
		}
		sources = map[string]Source{name: src}
	}

	var all []*article.Article
	r := &Result{}
	for _, src := range sources {
		articles, err := src.Fetch(ctx)
		if err != nil {
			log.Printf("Fetching from %s failed: %v", src.Name(), err)
			r.Failed++
			continue
		}
		log.Printf("Fetched %d articles from %s", len(articles), src.Name())
		all = append(all, articles...)
		r.Fetched += len(articles)
	}
	return all, r, nil
}
