package provider

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"NewsGenerator/internal/domain"
	"NewsGenerator/internal/ports"
)

// FetchResult is the merged candidate set plus per-provider outcomes.
type FetchResult struct {
	Candidates []domain.StoryCandidate
	// Degraded lists providers that failed; a single failure degrades
	// coverage, it does not abort the fetch.
	Degraded []string
	Errors   map[string]string
}

// Aggregator fans one search query out to every registered provider and
// merges the results into one identity-deduplicated, ordered candidate set.
type Aggregator struct {
	registry *Registry
	logger   *slog.Logger
}

// NewAggregator wires the provider registry.
func NewAggregator(reg *Registry, log *slog.Logger) *Aggregator {
	return &Aggregator{registry: reg, logger: log}
}

// Fetch queries providers in priority order. Order of the merged set is
// provider priority first, then recency within a provider; the first
// provider to report a canonical identity wins.
func (a *Aggregator) Fetch(ctx context.Context, query ports.SearchQuery) (FetchResult, error) {
	if a.registry == nil {
		return FetchResult{}, fmt.Errorf("provider registry is not configured")
	}

	result := FetchResult{Errors: map[string]string{}}
	seen := map[string]struct{}{}

	for _, name := range a.registry.Names() {
		p, err := a.registry.Resolve(name)
		if err != nil {
			return FetchResult{}, err
		}

		candidates, err := p.Search(ctx, query)
		if err != nil {
			a.warn("provider search failed", "provider", name, "error", err)
			result.Degraded = append(result.Degraded, name)
			result.Errors[name] = err.Error()
			continue
		}
		a.debug("provider produced candidates", "provider", name, "count", len(candidates))

		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].PublishedAt.After(candidates[j].PublishedAt)
		})

		for _, c := range candidates {
			c.Title = StripHTML(c.Title)
			c.Snippet = StripHTML(c.Snippet)
			if c.Source == "" {
				c.Source = name
			}

			id := c.CanonicalID()
			if id == "" {
				continue
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			result.Candidates = append(result.Candidates, c)
		}
	}

	a.debug("aggregation done", "total_candidates", len(result.Candidates), "degraded", len(result.Degraded))
	return result, nil
}

// StripHTML flattens provider snippets that embed highlight markup into
// plain text.
func StripHTML(value string) string {
	if !strings.ContainsAny(value, "<&") {
		return strings.TrimSpace(value)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(value))
	if err != nil {
		return strings.TrimSpace(value)
	}
	return strings.TrimSpace(strings.Join(strings.Fields(doc.Text()), " "))
}

func (a *Aggregator) debug(msg string, args ...interface{}) {
	if a.logger != nil {
		a.logger.Debug(msg, args...)
	}
}

func (a *Aggregator) warn(msg string, args ...interface{}) {
	if a.logger != nil {
		a.logger.Warn(msg, args...)
	}
}
