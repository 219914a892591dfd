package workflow

import (
	"NewsGenerator/internal/domain"
)

// DedupOutcome reports the surviving candidates plus per-stage removal
// counts. Counts are observability, not control flow.
type DedupOutcome struct {
	Survivors      []domain.StoryCandidate
	RemovedByStore int
}

// FilterKnown removes candidates whose canonical URL or normalized title
// matches an article already present in the recent-article store. The filter
// is idempotent: running it twice against the same store yields the same
// surviving set.
func FilterKnown(candidates []domain.StoryCandidate, known []domain.StoredArticle) DedupOutcome {
	knownURLs := make(map[string]struct{}, len(known))
	knownTitles := make(map[string]struct{}, len(known))
	for _, article := range known {
		if article.URL != "" {
			knownURLs[domain.NormalizeURL(article.URL)] = struct{}{}
		}
		if title := domain.NormalizeTitle(article.Title); title != "" {
			knownTitles[title] = struct{}{}
		}
	}

	outcome := DedupOutcome{}
	for _, candidate := range candidates {
		if _, ok := knownURLs[candidate.CanonicalID()]; ok {
			outcome.RemovedByStore++
			continue
		}
		if title := domain.NormalizeTitle(candidate.Title); title != "" {
			if _, ok := knownTitles[title]; ok {
				outcome.RemovedByStore++
				continue
			}
		}
		outcome.Survivors = append(outcome.Survivors, candidate)
	}

	return outcome
}
