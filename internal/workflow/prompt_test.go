package workflow

import (
	"strings"
	"testing"

	"NewsGenerator/internal/domain"
)

func TestDeriveSpawnIDIsStable(t *testing.T) {
	t.Parallel()

	story := domain.StoryCandidate{URL: "https://www.example.com/launch?utm_source=x"}
	first := DeriveSpawnID("placement", story, "2026-08-29")
	second := DeriveSpawnID("placement", story, "2026-08-29")

	if first != second {
		t.Fatalf("spawn id is not stable: %s vs %s", first, second)
	}
	if !strings.HasPrefix(first, "article-placement-") {
		t.Fatalf("unexpected spawn id format: %s", first)
	}

	// The same story through another provider's URL variant maps to the
	// same unit.
	variant := domain.StoryCandidate{URL: "http://example.com/launch/"}
	if DeriveSpawnID("placement", variant, "2026-08-29") != first {
		t.Fatalf("url variants should share a spawn id")
	}
}

func TestDeriveSpawnIDVariesByDomainStoryAndDate(t *testing.T) {
	t.Parallel()

	story := domain.StoryCandidate{URL: "https://example.com/a"}
	base := DeriveSpawnID("placement", story, "2026-08-29")

	if DeriveSpawnID("relocation", story, "2026-08-29") == base {
		t.Fatalf("different domains must not collide")
	}
	if DeriveSpawnID("placement", domain.StoryCandidate{URL: "https://example.com/b"}, "2026-08-29") == base {
		t.Fatalf("different stories must not collide")
	}
	if DeriveSpawnID("placement", story, "2026-08-30") == base {
		t.Fatalf("different run dates must not collide")
	}
}

func TestBuildPromptIsDeterministic(t *testing.T) {
	t.Parallel()

	story := domain.AssessedStory{
		Candidate: domain.StoryCandidate{
			Title:   "Hiring freeze lifted at major tech firms",
			Snippet: "Several firms resumed campus placements this week.",
			URL:     "https://example.com/hiring",
		},
		Relevance: 0.91,
		Priority:  8,
		Rationale: "directly about placements",
	}
	coverage := domain.CoverageContext{
		Found: true,
		Facts: []domain.CoverageFact{{Fact: "We covered the freeze announcement in March."}},
	}

	first := BuildPrompt("placement", story, coverage)
	second := BuildPrompt("placement", story, coverage)
	if first != second {
		t.Fatalf("prompt is not deterministic")
	}

	if !strings.Contains(first, "Existing coverage to differentiate from") {
		t.Fatalf("prompt should reference prior coverage when found:\n%s", first)
	}
	if !strings.Contains(first, "lead with what is new") {
		t.Fatalf("prompt should direct the differentiating angle:\n%s", first)
	}
}

func TestBuildPromptWithoutCoverage(t *testing.T) {
	t.Parallel()

	story := domain.AssessedStory{
		Candidate: domain.StoryCandidate{Title: "New visa rules announced"},
		Relevance: 0.8,
		Priority:  5,
	}

	prompt := BuildPrompt("relocation", story, domain.CoverageContext{})
	if !strings.Contains(prompt, "No prior coverage found") {
		t.Fatalf("empty coverage should be stated explicitly:\n%s", prompt)
	}
	if !strings.Contains(prompt, "first principles") {
		t.Fatalf("empty coverage should switch the angle:\n%s", prompt)
	}
}

func TestRankStoriesOrdering(t *testing.T) {
	t.Parallel()

	stories := []domain.AssessedStory{
		{Candidate: domain.StoryCandidate{ID: "c"}, Priority: 5, Relevance: 0.9, FetchOrder: 2},
		{Candidate: domain.StoryCandidate{ID: "a"}, Priority: 8, Relevance: 0.7, FetchOrder: 0},
		{Candidate: domain.StoryCandidate{ID: "d"}, Priority: 5, Relevance: 0.9, FetchOrder: 1},
		{Candidate: domain.StoryCandidate{ID: "b"}, Priority: 5, Relevance: 0.95, FetchOrder: 3},
	}

	rankStories(stories)

	want := []string{"a", "b", "d", "c"}
	for i, id := range want {
		if stories[i].Candidate.ID != id {
			t.Fatalf("position %d = %s, want %s", i, stories[i].Candidate.ID, id)
		}
	}
}
