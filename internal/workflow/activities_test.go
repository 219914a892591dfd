package workflow

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"

	"NewsGenerator/internal/domain"
	"NewsGenerator/internal/ports"
)

type stubGraph struct {
	coverage domain.CoverageContext
	err      error
}

func (s stubGraph) Available() bool { return true }

func (s stubGraph) QueryCoverage(context.Context, string, string) (domain.CoverageContext, error) {
	return s.coverage, s.err
}

func newActivityEnv(t *testing.T, a *Activities) *testsuite.TestActivityEnvironment {
	t.Helper()
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestActivityEnvironment()
	env.RegisterActivity(a)
	return env
}

func TestQueryCoverageReportsUnavailableGraphAsResult(t *testing.T) {
	t.Parallel()

	env := newActivityEnv(t, &Activities{Graph: nil})

	val, err := env.ExecuteActivity((&Activities{}).QueryCoverage, QueryCoverageInput{
		DomainConfigID: "placement",
		Topic:          "anything",
	})
	require.NoError(t, err)

	var out QueryCoverageOutput
	require.NoError(t, val.Get(&out))
	require.False(t, out.Available)
}

func TestQueryCoverageDegradesOnUnreachableGraph(t *testing.T) {
	t.Parallel()

	graph := stubGraph{err: fmt.Errorf("zep search: %w", ports.ErrUnavailable)}
	env := newActivityEnv(t, &Activities{Graph: graph})

	val, err := env.ExecuteActivity((&Activities{}).QueryCoverage, QueryCoverageInput{
		DomainConfigID: "placement",
		Topic:          "campus hiring",
	})
	require.NoError(t, err, "an unreachable graph is a result, not a failure")

	var out QueryCoverageOutput
	require.NoError(t, val.Get(&out))
	require.False(t, out.Available)
}

func TestQueryCoveragePassesThroughCoverage(t *testing.T) {
	t.Parallel()

	graph := stubGraph{coverage: domain.CoverageContext{Found: true, Summary: "covered"}}
	env := newActivityEnv(t, &Activities{Graph: graph})

	val, err := env.ExecuteActivity((&Activities{}).QueryCoverage, QueryCoverageInput{
		DomainConfigID: "placement",
		Topic:          "campus hiring",
	})
	require.NoError(t, err)

	var out QueryCoverageOutput
	require.NoError(t, val.Get(&out))
	require.True(t, out.Available)
	require.True(t, out.Context.Found)
	require.Equal(t, "covered", out.Context.Summary)
}

func TestListRecentArticlesWithoutStoreIsNonRetryable(t *testing.T) {
	t.Parallel()

	env := newActivityEnv(t, &Activities{})

	_, err := env.ExecuteActivity((&Activities{}).ListRecentArticles, ListRecentArticlesInput{
		DomainConfigID: "placement",
		LookbackDays:   7,
	})
	require.Error(t, err)

	var appErr *temporal.ApplicationError
	require.ErrorAs(t, err, &appErr)
	require.True(t, appErr.NonRetryable())
}

func TestNotifyRunWithoutNotifierIsNoop(t *testing.T) {
	t.Parallel()

	a := &Activities{}
	require.NoError(t, a.NotifyRun(context.Background(), NotifyRunInput{Summary: "digest"}))
}

type stubStore struct {
	articles []domain.StoredArticle
	gotSince time.Time
}

func (s *stubStore) RecentArticles(_ context.Context, _ string, since time.Time) ([]domain.StoredArticle, error) {
	s.gotSince = since
	return s.articles, nil
}

func TestListRecentArticlesAppliesLookback(t *testing.T) {
	t.Parallel()

	store := &stubStore{articles: []domain.StoredArticle{{ID: "1", Title: "old story"}}}
	env := newActivityEnv(t, &Activities{Store: store})

	val, err := env.ExecuteActivity((&Activities{}).ListRecentArticles, ListRecentArticlesInput{
		DomainConfigID: "placement",
		LookbackDays:   7,
	})
	require.NoError(t, err)

	var out ListRecentArticlesOutput
	require.NoError(t, val.Get(&out))
	require.Len(t, out.Articles, 1)

	wantSince := time.Now().UTC().AddDate(0, 0, -7)
	require.WithinDuration(t, wantSince, store.gotSince, time.Minute)
}

func TestAssessBatchWithoutAssessorFails(t *testing.T) {
	t.Parallel()

	a := &Activities{}
	_, err := a.AssessBatch(context.Background(), AssessBatchInput{})
	require.Error(t, err)
	require.True(t, errors.Is(err, ports.ErrUnavailable))
}
