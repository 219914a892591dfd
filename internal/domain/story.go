package domain

import (
	"net/url"
	"sort"
	"strings"
	"time"
)

// StoryCandidate is a raw news story fetched from a search provider.
// Immutable once fetched; downstream stages only read it.
type StoryCandidate struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Snippet     string            `json:"snippet"`
	URL         string            `json:"url"`
	Source      string            `json:"source"`
	PublishedAt time.Time         `json:"published_at"`
	Raw         map[string]string `json:"raw,omitempty"`
}

// CanonicalID returns the identity used for deduplication and spawn keys:
// the normalized URL when present, the provider ID otherwise.
func (s StoryCandidate) CanonicalID() string {
	if s.URL != "" {
		return NormalizeURL(s.URL)
	}
	return strings.ToLower(strings.TrimSpace(s.ID))
}

// NormalizeURL lowers the host, drops scheme, fragment, tracking params and
// trailing slashes so the same story from two providers compares equal.
func NormalizeURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return strings.ToLower(strings.TrimSpace(raw))
	}

	host := strings.ToLower(strings.TrimPrefix(u.Host, "www."))
	path := strings.TrimSuffix(u.Path, "/")

	q := u.Query()
	for key := range q {
		if strings.HasPrefix(key, "utm_") || key == "ref" || key == "fbclid" || key == "gclid" {
			q.Del(key)
		}
	}

	normalized := host + path
	if encoded := canonicalQuery(q); encoded != "" {
		normalized += "?" + encoded
	}
	return normalized
}

func canonicalQuery(q url.Values) string {
	if len(q) == 0 {
		return ""
	}
	keys := make([]string, 0, len(q))
	for key := range q {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		for _, value := range q[key] {
			parts = append(parts, url.QueryEscape(key)+"="+url.QueryEscape(value))
		}
	}
	return strings.Join(parts, "&")
}

// NormalizeTitle collapses case, punctuation and whitespace for
// near-duplicate title matching against the recent-article store.
func NormalizeTitle(title string) string {
	var b strings.Builder
	lastSpace := true
	for _, r := range strings.ToLower(strings.TrimSpace(title)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastSpace = false
		default:
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// AssessedStory carries a candidate through ranking. Never mutated after
// creation; re-assessment produces a new value.
type AssessedStory struct {
	Candidate  StoryCandidate `json:"candidate"`
	Relevance  float64        `json:"relevance"`
	Priority   int            `json:"priority"`
	Rationale  string         `json:"rationale"`
	FetchOrder int            `json:"fetch_order"`
}

// CoverageFact is a single prior-coverage record from the knowledge graph.
type CoverageFact struct {
	Fact      string    `json:"fact"`
	Subject   string    `json:"subject,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// CoverageContext summarizes what the knowledge graph already knows about a
// story's topic. The zero value means "no prior coverage found" and is always
// safe to use; an absent knowledge graph must not fail the pipeline.
type CoverageContext struct {
	Found      bool           `json:"found"`
	Facts      []CoverageFact `json:"facts,omitempty"`
	Summary    string         `json:"summary,omitempty"`
	Similarity float64        `json:"similarity,omitempty"`
}

// ContentBrief is the ready-to-spawn payload: one brief maps to exactly one
// dependent article-creation work unit.
type ContentBrief struct {
	Story   AssessedStory   `json:"story"`
	Context CoverageContext `json:"context"`
	Prompt  string          `json:"prompt"`
	SpawnID string          `json:"spawn_id"`
}

// StoredArticle is a row from the recent-article store used for dedup.
type StoredArticle struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}
