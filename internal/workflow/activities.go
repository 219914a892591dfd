package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"NewsGenerator/internal/config"
	"NewsGenerator/internal/domain"
	"NewsGenerator/internal/ports"
	"NewsGenerator/internal/provider"
)

// Activities bundles the driven adapters the workflow calls out to. Optional
// collaborators (graph, notifier) may be nil; their activities report an
// explicit unavailable result instead of erroring.
type Activities struct {
	Aggregator *provider.Aggregator
	Store      ports.ArticleStore
	Graph      ports.KnowledgeGraph
	Assessor   ports.Assessor
	Notifier   ports.Notifier
	Domains    []config.DomainConfig
}

func (a *Activities) domainConfig(id string) (config.DomainConfig, error) {
	for _, d := range a.Domains {
		if d.ID == id {
			return d, nil
		}
	}
	return config.DomainConfig{}, fmt.Errorf("unknown domain config %q", id)
}

// FetchCandidatesInput selects the domain and lookback window to search.
type FetchCandidatesInput struct {
	DomainConfigID string `json:"domain_config_id"`
	LookbackDays   int    `json:"lookback_days"`
}

// FetchCandidatesOutput is the merged candidate set plus provider outcomes.
type FetchCandidatesOutput struct {
	Candidates        []domain.StoryCandidate `json:"candidates"`
	DegradedProviders []string                `json:"degraded_providers,omitempty"`
	ProviderErrors    map[string]string       `json:"provider_errors,omitempty"`
}

// FetchCandidates fans the domain's search out to all registered providers.
func (a *Activities) FetchCandidates(ctx context.Context, input FetchCandidatesInput) (FetchCandidatesOutput, error) {
	cfg, err := a.domainConfig(input.DomainConfigID)
	if err != nil {
		return FetchCandidatesOutput{}, err
	}

	lookback := input.LookbackDays
	if lookback <= 0 {
		lookback = cfg.LookbackDays
	}

	result, err := a.Aggregator.Fetch(ctx, ports.SearchQuery{
		Keywords:   cfg.Keywords,
		Exclusions: cfg.Exclusions,
		Location:   cfg.Location,
		Language:   cfg.Language,
		Window:     time.Duration(lookback) * 24 * time.Hour,
		MaxResults: 30,
	})
	if err != nil {
		return FetchCandidatesOutput{}, err
	}

	activity.GetLogger(ctx).Info("fetched candidates",
		"domain", input.DomainConfigID,
		"count", len(result.Candidates),
		"degraded_providers", result.Degraded)

	return FetchCandidatesOutput{
		Candidates:        result.Candidates,
		DegradedProviders: result.Degraded,
		ProviderErrors:    result.Errors,
	}, nil
}

// ListRecentArticlesInput selects the dedup lookback window.
type ListRecentArticlesInput struct {
	DomainConfigID string `json:"domain_config_id"`
	LookbackDays   int    `json:"lookback_days"`
}

// ListRecentArticlesOutput carries the store rows used for dedup.
type ListRecentArticlesOutput struct {
	Articles []domain.StoredArticle `json:"articles"`
}

// ListRecentArticles loads articles created in the lookback window.
func (a *Activities) ListRecentArticles(ctx context.Context, input ListRecentArticlesInput) (ListRecentArticlesOutput, error) {
	if a.Store == nil {
		return ListRecentArticlesOutput{}, temporal.NewNonRetryableApplicationError(
			"article store not configured", "Unavailable", ports.ErrUnavailable)
	}

	lookback := input.LookbackDays
	if lookback <= 0 {
		lookback = 7
	}
	since := time.Now().UTC().AddDate(0, 0, -lookback)

	articles, err := a.Store.RecentArticles(ctx, input.DomainConfigID, since)
	if err != nil {
		return ListRecentArticlesOutput{}, fmt.Errorf("recent articles: %w", err)
	}

	return ListRecentArticlesOutput{Articles: articles}, nil
}

// QueryCoverageInput names the topic to check against the knowledge graph.
type QueryCoverageInput struct {
	DomainConfigID string `json:"domain_config_id"`
	Topic          string `json:"topic"`
}

// QueryCoverageOutput reports prior coverage, or Available=false when the
// knowledge graph is absent or unreachable. Unavailability is a first-class
// result, never an activity failure.
type QueryCoverageOutput struct {
	Available bool                   `json:"available"`
	Context   domain.CoverageContext `json:"context"`
}

// QueryCoverage asks the knowledge graph for related prior coverage.
func (a *Activities) QueryCoverage(ctx context.Context, input QueryCoverageInput) (QueryCoverageOutput, error) {
	if a.Graph == nil || !a.Graph.Available() {
		return QueryCoverageOutput{Available: false}, nil
	}

	coverage, err := a.Graph.QueryCoverage(ctx, input.DomainConfigID, input.Topic)
	if err != nil {
		if errors.Is(err, ports.ErrUnavailable) {
			activity.GetLogger(ctx).Warn("knowledge graph unreachable, degrading", "error", err)
			return QueryCoverageOutput{Available: false}, nil
		}
		return QueryCoverageOutput{}, err
	}

	return QueryCoverageOutput{Available: true, Context: coverage}, nil
}

// AssessBatchInput is one scoring batch.
type AssessBatchInput struct {
	DomainConfigID string                  `json:"domain_config_id"`
	Batch          []domain.StoryCandidate `json:"batch"`
}

// AssessBatchOutput carries the scored stories and the call's actual cost.
type AssessBatchOutput struct {
	Assessed []domain.AssessedStory `json:"assessed"`
	Cost     float64                `json:"cost"`
}

// AssessBatch scores one batch of candidates through the AI classifier.
func (a *Activities) AssessBatch(ctx context.Context, input AssessBatchInput) (AssessBatchOutput, error) {
	if a.Assessor == nil {
		return AssessBatchOutput{}, fmt.Errorf("assessor: %w", ports.ErrUnavailable)
	}

	result, err := a.Assessor.AssessBatch(ctx, input.DomainConfigID, input.Batch)
	if err != nil {
		return AssessBatchOutput{}, fmt.Errorf("assess batch: %w", err)
	}

	return AssessBatchOutput{Assessed: result.Assessed, Cost: result.Cost}, nil
}

// NotifyRunInput is the digest published after a completed run.
type NotifyRunInput struct {
	Summary string `json:"summary"`
}

// NotifyRun publishes the run digest; a missing notifier is a no-op.
func (a *Activities) NotifyRun(ctx context.Context, input NotifyRunInput) error {
	if a.Notifier == nil {
		return nil
	}
	return a.Notifier.PublishRunSummary(ctx, input.Summary)
}
