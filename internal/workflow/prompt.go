package workflow

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"NewsGenerator/internal/domain"
)

// DeriveSpawnID produces the deterministic identifier for one dependent
// article-creation unit: the same domain, story and run date always map to
// the same ID, so a retried spawn cannot create a duplicate downstream.
func DeriveSpawnID(domainID string, story domain.StoryCandidate, runDate string) string {
	sum := sha256.Sum256([]byte(domainID + "|" + story.CanonicalID() + "|" + runDate))
	return fmt.Sprintf("article-%s-%s", domainID, hex.EncodeToString(sum[:])[:16])
}

// BuildPrompt synthesizes the content-generation brief for one assessed
// story. Pure function of its inputs: identical story and coverage always
// yield identical brief text.
func BuildPrompt(domainID string, story domain.AssessedStory, coverage domain.CoverageContext) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Create a short-form news article with video treatment for the %q domain.\n\n", domainID)
	fmt.Fprintf(&b, "Story: %s\n", story.Candidate.Title)
	if story.Candidate.Snippet != "" {
		fmt.Fprintf(&b, "Summary: %s\n", story.Candidate.Snippet)
	}
	if story.Candidate.URL != "" {
		fmt.Fprintf(&b, "Source: %s\n", story.Candidate.URL)
	}
	if !story.Candidate.PublishedAt.IsZero() {
		fmt.Fprintf(&b, "Published: %s\n", story.Candidate.PublishedAt.Format("2006-01-02"))
	}
	fmt.Fprintf(&b, "Relevance: %.2f (priority %d)\n", story.Relevance, story.Priority)
	if story.Rationale != "" {
		fmt.Fprintf(&b, "Why it matters: %s\n", story.Rationale)
	}

	b.WriteString("\n")
	if coverage.Found {
		b.WriteString("Existing coverage to differentiate from:\n")
		for _, fact := range coverage.Facts {
			fmt.Fprintf(&b, "- %s\n", fact.Fact)
		}
		b.WriteString("\nAngle: lead with what is new relative to the coverage above; " +
			"do not restate facts we have already published.\n")
	} else {
		b.WriteString("No prior coverage found for this topic.\n")
		b.WriteString("\nAngle: introduce the story from first principles for readers new to it.\n")
	}

	b.WriteString("Media treatment: one 30-60 second vertical video summarizing the key development, " +
		"with an attention-grabbing opening line drawn from the story's most concrete fact.\n")

	return b.String()
}
