package domain

// Pipeline stage names used in errors and degradation reports.
const (
	StageFetching      = "fetching"
	StageDeduplicating = "deduplicating"
	StageAssessing     = "assessing"
	StageEnriching     = "enriching"
	StageSpawning      = "spawning"
	StageNotifying     = "notifying"
)

// RunInput is the per-invocation request for one news-creation run.
type RunInput struct {
	DomainConfigID      string  `json:"domain_config_id"`
	MinRelevanceScore   float64 `json:"min_relevance_score"`
	AutoCreate          bool    `json:"auto_create"`
	MaxArticlesToCreate int     `json:"max_articles_to_create"`
	LookbackDays        int     `json:"lookback_days"`
	MaxCost             float64 `json:"max_cost"`
	// AssessBatchSize and EstimatedCostPerStory tune the assessment stage;
	// zero values fall back to the workflow defaults.
	AssessBatchSize       int     `json:"assess_batch_size,omitempty"`
	EstimatedCostPerStory float64 `json:"estimated_cost_per_story,omitempty"`
}

// StageError records a non-fatal failure scoped to one stage and,
// optionally, one story.
type StageError struct {
	Stage   string `json:"stage"`
	StoryID string `json:"story_id,omitempty"`
	Message string `json:"message"`
}

// RunResult is the run's output aggregate. Counters are appended during the
// run and finalized once at completion.
type RunResult struct {
	DomainConfigID       string       `json:"domain_config_id"`
	StoriesFound         int          `json:"stories_found"`
	StoriesAfterDedup    int          `json:"stories_after_dedup"`
	StoriesRelevant      int          `json:"stories_relevant"`
	ArticlesCreated      int          `json:"articles_created"`
	DuplicatesSuppressed int          `json:"duplicates_suppressed"`
	RemovedByStore       int          `json:"removed_by_store"`
	RemovedByGraph       int          `json:"removed_by_graph"`
	Cost                 float64      `json:"cost"`
	Truncated            bool         `json:"truncated"`
	DegradedDependencies []string     `json:"degraded_dependencies,omitempty"`
	Errors               []StageError `json:"errors,omitempty"`
}

// RunBudget tracks spend and spawn count for one run. It is owned by the
// workflow's control goroutine; concurrent activities report cost upward
// instead of mutating it.
type RunBudget struct {
	MaxCost   float64
	MaxSpawns int
	Spent     float64
	Spawned   int
}

// Remaining returns the unspent portion of the cost ceiling.
func (b *RunBudget) Remaining() float64 {
	if b.MaxCost <= 0 {
		return 0
	}
	if r := b.MaxCost - b.Spent; r > 0 {
		return r
	}
	return 0
}

// Charge records actual spend reported by a completed call.
func (b *RunBudget) Charge(cost float64) {
	if cost > 0 {
		b.Spent += cost
	}
}

// CanAfford reports whether a projected cost fits the remaining ceiling.
// A zero ceiling means the budget is unlimited.
func (b *RunBudget) CanAfford(projected float64) bool {
	if b.MaxCost <= 0 {
		return true
	}
	return b.Spent+projected <= b.MaxCost
}

// ReserveSpawn claims one spawn slot, reporting false once the cap is hit.
func (b *RunBudget) ReserveSpawn() bool {
	if b.Spawned >= b.MaxSpawns {
		return false
	}
	b.Spawned++
	return true
}
