package ports

import (
	"context"
	"errors"
	"time"

	"NewsGenerator/internal/domain"
)

// ErrUnavailable marks an optional collaborator that is absent or unreachable.
// Callers branch on it to degrade instead of failing the run.
var ErrUnavailable = errors.New("dependency unavailable")

// SearchQuery carries everything a news provider needs for one search.
type SearchQuery struct {
	Keywords   []string
	Exclusions []string
	Location   string
	Language   string
	Window     time.Duration
	MaxResults int
}

// NewsProvider pulls story candidates from one upstream search API.
type NewsProvider interface {
	Name() string
	Search(ctx context.Context, query SearchQuery) ([]domain.StoryCandidate, error)
}

// ArticleStore lists articles the organization already created, for dedup.
type ArticleStore interface {
	RecentArticles(ctx context.Context, domainID string, since time.Time) ([]domain.StoredArticle, error)
}

// KnowledgeGraph answers "what do we already cover about this topic".
// Optional: Available reports whether the dependency is configured at all.
type KnowledgeGraph interface {
	Available() bool
	QueryCoverage(ctx context.Context, domainID, topic string) (domain.CoverageContext, error)
}

// AssessmentResult is one batch of scored stories plus the call's cost.
type AssessmentResult struct {
	Assessed []domain.AssessedStory
	Cost     float64
}

// Assessor scores a batch of candidates for relevance and priority.
type Assessor interface {
	AssessBatch(ctx context.Context, domainID string, batch []domain.StoryCandidate) (AssessmentResult, error)
}

// Notifier delivers the run digest to an out-of-band channel.
type Notifier interface {
	PublishRunSummary(ctx context.Context, summary string) error
}
