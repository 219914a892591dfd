package workflow

import (
	"errors"
	"fmt"
	"sort"
	"time"

	enumspb "go.temporal.io/api/enums/v1"
	tlog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"NewsGenerator/internal/domain"
)

// Workflow and query identifiers.
const (
	NewsCreationWorkflowName = "NewsCreationWorkflow"

	// ArticleCreationWorkflowName is the dependent work unit spawned per
	// qualifying story. Its implementation lives in another service; this
	// workflow only initiates it.
	ArticleCreationWorkflowName = "ArticleCreationWorkflow"

	QueryProgress = "progress"
)

// Application error types that surface as run-level failures.
const (
	ErrTypeNoCandidatesFound           = "NoCandidatesFound"
	ErrTypeAssessmentWhollyUnavailable = "AssessmentWhollyUnavailable"
)

// Degraded dependency labels reported in the run result.
const (
	depRecentArticles = "recent-articles"
	depKnowledgeGraph = "zep"
)

const (
	searchActivityTimeout = 5 * time.Minute
	storeActivityTimeout  = 30 * time.Second
	llmActivityTimeout    = 2 * time.Minute
	graphActivityTimeout  = 30 * time.Second
	notifyActivityTimeout = 10 * time.Second

	maxConcurrentAssessments = 2
	maxConcurrentEnrichments = 4

	defaultMinRelevanceScore   = 0.7
	defaultMaxArticlesToCreate = 3
	defaultLookbackDays        = 7
	defaultAssessBatchSize     = 10

	// defaultEstimatedCostPerStory is the conservative projection used to
	// truncate assessment before a batch would overrun the remaining budget.
	defaultEstimatedCostPerStory = 0.002
)

// progress is the internal state exposed via the progress query.
type progress struct {
	Stage           string  `json:"stage"`
	StoriesFound    int     `json:"stories_found"`
	StoriesRelevant int     `json:"stories_relevant"`
	ArticlesCreated int     `json:"articles_created"`
	Cost            float64 `json:"cost"`
}

// NewsCreationWorkflow discovers candidate stories for one topical domain,
// filters and ranks them, and spawns a bounded number of article-creation
// child workflows.
//
// Stages run to completion in order: Fetching, Deduplicating, Assessing,
// Enriching&Building, Spawning. Optional dependencies degrade the run
// (recorded in the result) without failing it; only an empty candidate set
// from every provider or a wholly unavailable assessor fails the run.
func NewsCreationWorkflow(ctx workflow.Context, input domain.RunInput) (*domain.RunResult, error) {
	logger := workflow.GetLogger(ctx)
	applyDefaults(&input)

	result := &domain.RunResult{DomainConfigID: input.DomainConfigID}
	budget := &domain.RunBudget{MaxCost: input.MaxCost, MaxSpawns: input.MaxArticlesToCreate}

	prog := &progress{Stage: "initializing"}
	if err := workflow.SetQueryHandler(ctx, QueryProgress, func() (*progress, error) {
		return prog, nil
	}); err != nil {
		return nil, fmt.Errorf("register progress query handler: %w", err)
	}

	degraded := map[string]struct{}{}
	markDegraded := func(dep string) {
		degraded[dep] = struct{}{}
	}

	var a *Activities

	searchCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: searchActivityTimeout,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    time.Minute,
			MaximumAttempts:    3,
		},
	})
	storeCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: storeActivityTimeout,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    500 * time.Millisecond,
			BackoffCoefficient: 2.0,
			MaximumInterval:    10 * time.Second,
			MaximumAttempts:    5,
		},
	})
	llmCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: llmActivityTimeout,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    30 * time.Second,
			MaximumAttempts:    3,
		},
	})
	graphCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: graphActivityTimeout,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    10 * time.Second,
			MaximumAttempts:    2,
		},
	})

	// =====================================================================
	// Stage: Fetching
	// =====================================================================

	prog.Stage = domain.StageFetching
	logger.Info("fetching candidates", "domain", input.DomainConfigID, "lookback_days", input.LookbackDays)

	var fetched FetchCandidatesOutput
	err := workflow.ExecuteActivity(searchCtx, a.FetchCandidates, FetchCandidatesInput{
		DomainConfigID: input.DomainConfigID,
		LookbackDays:   input.LookbackDays,
	}).Get(ctx, &fetched)
	if err != nil {
		return nil, temporal.NewNonRetryableApplicationError(
			"source fetch produced no candidates", ErrTypeNoCandidatesFound, err)
	}

	for _, dep := range fetched.DegradedProviders {
		markDegraded(dep)
	}
	result.StoriesFound = len(fetched.Candidates)
	prog.StoriesFound = result.StoriesFound

	if len(fetched.Candidates) == 0 {
		return nil, temporal.NewNonRetryableApplicationError(
			fmt.Sprintf("no candidates found for domain %s", input.DomainConfigID),
			ErrTypeNoCandidatesFound, nil)
	}

	// =====================================================================
	// Stage: Deduplicating
	// =====================================================================

	prog.Stage = domain.StageDeduplicating

	var recent ListRecentArticlesOutput
	err = workflow.ExecuteActivity(storeCtx, a.ListRecentArticles, ListRecentArticlesInput{
		DomainConfigID: input.DomainConfigID,
		LookbackDays:   input.LookbackDays,
	}).Get(ctx, &recent)
	if err != nil {
		logger.Warn("recent-article store unavailable, skipping store dedup", "error", err)
		markDegraded(depRecentArticles)
		result.Errors = append(result.Errors, domain.StageError{
			Stage:   domain.StageDeduplicating,
			Message: err.Error(),
		})
	}

	dedup := FilterKnown(fetched.Candidates, recent.Articles)
	result.RemovedByStore = dedup.RemovedByStore

	// Second, best-effort tier: flag candidates the knowledge graph already
	// covers semantically. Coverage contexts fetched here are reused during
	// enrichment.
	coverageByID := map[string]domain.CoverageContext{}
	survivors, removedByGraph := semanticFilter(graphCtx, a, input.DomainConfigID, dedup.Survivors, coverageByID, markDegraded)
	result.RemovedByGraph = removedByGraph
	result.StoriesAfterDedup = len(survivors)

	logger.Info("deduplication done",
		"removed_by_store", result.RemovedByStore,
		"removed_by_graph", result.RemovedByGraph,
		"surviving", len(survivors))

	// =====================================================================
	// Stage: Assessing
	// =====================================================================

	prog.Stage = domain.StageAssessing

	assessed, assessErrs, truncated, wholeFailure, cancelErr := assessAll(
		llmCtx, a, input, survivors, budget)
	result.Errors = append(result.Errors, assessErrs...)
	result.Truncated = truncated
	result.Cost = budget.Spent
	prog.Cost = budget.Spent

	if cancelErr != nil {
		return nil, cancelErr
	}
	if wholeFailure {
		return nil, temporal.NewNonRetryableApplicationError(
			"assessment failed for every batch", ErrTypeAssessmentWhollyUnavailable, nil)
	}

	relevant := make([]domain.AssessedStory, 0, len(assessed))
	for _, story := range assessed {
		if story.Relevance >= input.MinRelevanceScore {
			relevant = append(relevant, story)
		}
	}
	rankStories(relevant)
	result.StoriesRelevant = len(relevant)
	prog.StoriesRelevant = len(relevant)

	logger.Info("assessment done",
		"assessed", len(assessed),
		"relevant", len(relevant),
		"truncated", truncated,
		"cost", budget.Spent)

	// =====================================================================
	// Stage: Enriching & Building
	// =====================================================================

	prog.Stage = domain.StageEnriching

	top := relevant
	if len(top) > input.MaxArticlesToCreate {
		top = top[:input.MaxArticlesToCreate]
	}

	runDate := workflow.Now(ctx).UTC().Format("2006-01-02")
	briefs := buildBriefs(graphCtx, a, input.DomainConfigID, runDate, top, coverageByID, markDegraded)

	// =====================================================================
	// Stage: Spawning
	// =====================================================================

	prog.Stage = domain.StageSpawning

	if input.AutoCreate {
		spawnBriefs(ctx, briefs, budget, result, logger)
	} else {
		logger.Info("auto-create disabled, skipping spawn", "briefs", len(briefs))
	}
	prog.ArticlesCreated = result.ArticlesCreated

	// =====================================================================
	// Completed
	// =====================================================================

	prog.Stage = domain.StageNotifying
	result.Cost = budget.Spent
	for dep := range degraded {
		result.DegradedDependencies = append(result.DegradedDependencies, dep)
	}
	sort.Strings(result.DegradedDependencies)

	notifyCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: notifyActivityTimeout,
		RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 2},
	})
	if err := workflow.ExecuteActivity(notifyCtx, a.NotifyRun, NotifyRunInput{
		Summary: summarizeRun(result),
	}).Get(ctx, nil); err != nil {
		logger.Warn("run digest notification failed", "error", err)
		result.Errors = append(result.Errors, domain.StageError{
			Stage:   domain.StageNotifying,
			Message: err.Error(),
		})
	}
	prog.Stage = "completed"

	logger.Info("run completed",
		"stories_found", result.StoriesFound,
		"stories_relevant", result.StoriesRelevant,
		"articles_created", result.ArticlesCreated,
		"cost", result.Cost)

	return result, nil
}

func applyDefaults(input *domain.RunInput) {
	if input.MinRelevanceScore <= 0 {
		input.MinRelevanceScore = defaultMinRelevanceScore
	}
	if input.MaxArticlesToCreate <= 0 {
		input.MaxArticlesToCreate = defaultMaxArticlesToCreate
	}
	if input.LookbackDays <= 0 {
		input.LookbackDays = defaultLookbackDays
	}
	if input.AssessBatchSize <= 0 {
		input.AssessBatchSize = defaultAssessBatchSize
	}
	if input.EstimatedCostPerStory <= 0 {
		input.EstimatedCostPerStory = defaultEstimatedCostPerStory
	}
}

// semanticFilter removes candidates whose topic the knowledge graph already
// covers above the similarity threshold. Best effort: the first unavailable
// response degrades the stage and the remaining candidates pass through.
func semanticFilter(
	graphCtx workflow.Context,
	a *Activities,
	domainID string,
	candidates []domain.StoryCandidate,
	coverageByID map[string]domain.CoverageContext,
	markDegraded func(string),
) ([]domain.StoryCandidate, int) {
	logger := workflow.GetLogger(graphCtx)

	covered := make([]bool, len(candidates))
	unavailable := false

	for start := 0; start < len(candidates) && !unavailable; start += maxConcurrentEnrichments {
		end := start + maxConcurrentEnrichments
		if end > len(candidates) {
			end = len(candidates)
		}

		wg := workflow.NewWaitGroup(graphCtx)
		for i := start; i < end; i++ {
			i := i
			wg.Add(1)
			workflow.Go(graphCtx, func(gCtx workflow.Context) {
				defer wg.Done()

				var out QueryCoverageOutput
				err := workflow.ExecuteActivity(gCtx, a.QueryCoverage, QueryCoverageInput{
					DomainConfigID: domainID,
					Topic:          candidates[i].Title,
				}).Get(gCtx, &out)
				if err != nil {
					logger.Warn("coverage query failed, keeping candidate",
						"story", candidates[i].CanonicalID(), "error", err)
					unavailable = true
					return
				}
				if !out.Available {
					unavailable = true
					return
				}

				coverageByID[candidates[i].CanonicalID()] = out.Context
				covered[i] = out.Context.Found
			})
		}
		wg.Wait(graphCtx)
	}

	if unavailable {
		markDegraded(depKnowledgeGraph)
	}

	var survivors []domain.StoryCandidate
	removed := 0
	for i, candidate := range candidates {
		if covered[i] {
			removed++
			continue
		}
		survivors = append(survivors, candidate)
	}
	return survivors, removed
}

// assessAll dispatches scoring batches with bounded concurrency, charging
// actual cost back to the budget as each batch completes. Before each
// dispatch the projected batch cost is checked against the remaining budget;
// a projected overrun truncates assessment instead of exceeding the ceiling.
// External cancellation stops dispatch, drains the in-flight batches, and is
// returned as-is so the caller propagates it instead of converting it into an
// assessor-unavailable failure.
func assessAll(
	llmCtx workflow.Context,
	a *Activities,
	input domain.RunInput,
	candidates []domain.StoryCandidate,
	budget *domain.RunBudget,
) (assessed []domain.AssessedStory, errs []domain.StageError, truncated, wholeFailure bool, cancelErr error) {
	logger := workflow.GetLogger(llmCtx)

	type batch struct {
		start   int
		stories []domain.StoryCandidate
	}
	var batches []batch
	for start := 0; start < len(candidates); start += input.AssessBatchSize {
		end := start + input.AssessBatchSize
		if end > len(candidates) {
			end = len(candidates)
		}
		batches = append(batches, batch{start: start, stories: candidates[start:end]})
	}
	if len(batches) == 0 {
		return nil, nil, false, false, nil
	}

	type inflightBatch struct {
		batch     batch
		future    workflow.Future
		projected float64
	}
	var inflight []inflightBatch
	var inflightProjection float64
	dispatched, succeeded, failed := 0, 0, 0

	for dispatched < len(batches) || len(inflight) > 0 {
		for !truncated && cancelErr == nil && dispatched < len(batches) && len(inflight) < maxConcurrentAssessments {
			next := batches[dispatched]
			projected := float64(len(next.stories)) * input.EstimatedCostPerStory
			// In-flight batches have not reported actual cost yet, so their
			// projections count against the ceiling too.
			if !budget.CanAfford(inflightProjection + projected) {
				logger.Warn("budget ceiling reached, truncating assessment",
					"dispatched", dispatched, "remaining_batches", len(batches)-dispatched,
					"spent", budget.Spent, "remaining", budget.Remaining())
				truncated = true
				break
			}

			future := workflow.ExecuteActivity(llmCtx, a.AssessBatch, AssessBatchInput{
				DomainConfigID: input.DomainConfigID,
				Batch:          next.stories,
			})
			inflight = append(inflight, inflightBatch{batch: next, future: future, projected: projected})
			inflightProjection += projected
			dispatched++
		}

		if len(inflight) == 0 {
			break
		}

		current := inflight[0]
		inflight = inflight[1:]
		inflightProjection -= current.projected

		var out AssessBatchOutput
		if err := current.future.Get(llmCtx, &out); err != nil {
			if temporal.IsCanceledError(err) {
				logger.Info("assessment canceled", "batch_start", current.batch.start)
				cancelErr = err
				continue
			}
			logger.Warn("assessment batch dropped after retries",
				"batch_start", current.batch.start, "error", err)
			failed++
			errs = append(errs, domain.StageError{
				Stage:   domain.StageAssessing,
				Message: fmt.Sprintf("batch at offset %d: %v", current.batch.start, err),
			})
			continue
		}

		budget.Charge(out.Cost)
		succeeded++
		for i := range out.Assessed {
			// Fetch order is global across batches so ranking ties stay
			// deterministic.
			out.Assessed[i].FetchOrder = current.batch.start + i
			assessed = append(assessed, out.Assessed[i])
		}
	}

	wholeFailure = cancelErr == nil && succeeded == 0 && failed > 0
	return assessed, errs, truncated, wholeFailure, cancelErr
}

// rankStories orders by priority desc, then relevance desc, then original
// fetch order for deterministic, reproducible spawn order.
func rankStories(stories []domain.AssessedStory) {
	sort.SliceStable(stories, func(i, j int) bool {
		if stories[i].Priority != stories[j].Priority {
			return stories[i].Priority > stories[j].Priority
		}
		if stories[i].Relevance != stories[j].Relevance {
			return stories[i].Relevance > stories[j].Relevance
		}
		return stories[i].FetchOrder < stories[j].FetchOrder
	})
}

// buildBriefs enriches the top-ranked stories with coverage context and
// synthesizes one content brief per story. Enrichment is advisory: a failed
// or absent knowledge graph yields an empty context, never an error.
func buildBriefs(
	graphCtx workflow.Context,
	a *Activities,
	domainID, runDate string,
	top []domain.AssessedStory,
	coverageByID map[string]domain.CoverageContext,
	markDegraded func(string),
) []domain.ContentBrief {
	logger := workflow.GetLogger(graphCtx)

	briefs := make([]domain.ContentBrief, 0, len(top))
	for _, story := range top {
		coverage, cached := coverageByID[story.Candidate.CanonicalID()]
		if !cached {
			var out QueryCoverageOutput
			err := workflow.ExecuteActivity(graphCtx, a.QueryCoverage, QueryCoverageInput{
				DomainConfigID: domainID,
				Topic:          story.Candidate.Title,
			}).Get(graphCtx, &out)
			switch {
			case err != nil:
				logger.Warn("enrichment failed, using empty context",
					"story", story.Candidate.CanonicalID(), "error", err)
				markDegraded(depKnowledgeGraph)
			case !out.Available:
				markDegraded(depKnowledgeGraph)
			default:
				coverage = out.Context
			}
		}

		briefs = append(briefs, domain.ContentBrief{
			Story:   story,
			Context: coverage,
			Prompt:  BuildPrompt(domainID, story, coverage),
			SpawnID: DeriveSpawnID(domainID, story.Candidate, runDate),
		})
	}
	return briefs
}

// spawnBriefs initiates one article-creation child workflow per brief, in
// rank order, never exceeding the spawn cap. Each spawn is isolated: one
// story's failure does not cancel the remaining spawns, and a duplicate
// workflow ID (a replayed or re-run spawn) is suppressed, not failed. The
// workflow waits only for initiation, never for child completion.
func spawnBriefs(
	ctx workflow.Context,
	briefs []domain.ContentBrief,
	budget *domain.RunBudget,
	result *domain.RunResult,
	logger tlog.Logger,
) {
	for _, brief := range briefs {
		if !budget.ReserveSpawn() {
			logger.Info("spawn cap reached", "spawned", budget.Spawned)
			break
		}

		childCtx := workflow.WithChildOptions(ctx, workflow.ChildWorkflowOptions{
			WorkflowID:            brief.SpawnID,
			ParentClosePolicy:     enumspb.PARENT_CLOSE_POLICY_ABANDON,
			WorkflowIDReusePolicy: enumspb.WORKFLOW_ID_REUSE_POLICY_REJECT_DUPLICATE,
			RetryPolicy: &temporal.RetryPolicy{
				InitialInterval:    time.Second,
				BackoffCoefficient: 2.0,
				MaximumInterval:    30 * time.Second,
				MaximumAttempts:    3,
			},
		})

		future := workflow.ExecuteChildWorkflow(childCtx, ArticleCreationWorkflowName, brief)
		err := future.GetChildWorkflowExecution().Get(ctx, nil)
		switch {
		case err == nil:
			result.ArticlesCreated++
			logger.Info("article workflow spawned",
				"spawn_id", brief.SpawnID, "story", brief.Story.Candidate.Title)
		case isDuplicateSpawn(err):
			result.DuplicatesSuppressed++
			logger.Info("duplicate spawn suppressed", "spawn_id", brief.SpawnID)
		default:
			logger.Warn("spawn failed", "spawn_id", brief.SpawnID, "error", err)
			result.Errors = append(result.Errors, domain.StageError{
				Stage:   domain.StageSpawning,
				StoryID: brief.Story.Candidate.CanonicalID(),
				Message: err.Error(),
			})
		}
	}
}

func isDuplicateSpawn(err error) bool {
	var already *temporal.ChildWorkflowExecutionAlreadyStartedError
	return errors.As(err, &already)
}

func summarizeRun(result *domain.RunResult) string {
	return fmt.Sprintf(
		"*News run — %s*\nStories found: %d\nRelevant: %d\nArticles created: %d\nDuplicates suppressed: %d\nCost: $%.4f\nDegraded: %v\nErrors: %d",
		result.DomainConfigID,
		result.StoriesFound,
		result.StoriesRelevant,
		result.ArticlesCreated,
		result.DuplicatesSuppressed,
		result.Cost,
		result.DegradedDependencies,
		len(result.Errors),
	)
}
