package domain

import (
	"testing"
	"time"
)

func TestNormalizeURL(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "strips scheme and www",
			in:   "https://www.example.com/news/story",
			want: "example.com/news/story",
		},
		{
			name: "drops tracking params and trailing slash",
			in:   "https://example.com/story/?utm_source=x&utm_campaign=y&fbclid=abc",
			want: "example.com/story",
		},
		{
			name: "keeps meaningful query sorted",
			in:   "http://Example.com/a?b=2&a=1",
			want: "example.com/a?a=1&b=2",
		},
		{
			name: "non-url falls back to lowercased input",
			in:   "Provider-ID-42",
			want: "provider-id-42",
		},
	}

	for _, tc := range cases {
		if got := NormalizeURL(tc.in); got != tc.want {
			t.Fatalf("%s: NormalizeURL(%q) = %q, want %q", tc.name, tc.in, got, tc.want)
		}
	}
}

func TestCanonicalIDPrefersURL(t *testing.T) {
	t.Parallel()

	withURL := StoryCandidate{ID: "abc", URL: "https://www.example.com/x"}
	if got := withURL.CanonicalID(); got != "example.com/x" {
		t.Fatalf("unexpected canonical id: %s", got)
	}

	withoutURL := StoryCandidate{ID: " Story-1 "}
	if got := withoutURL.CanonicalID(); got != "story-1" {
		t.Fatalf("unexpected canonical id: %s", got)
	}
}

func TestNormalizeTitle(t *testing.T) {
	t.Parallel()

	got := NormalizeTitle("  Breaking: AI Beats Humans, Again!  ")
	want := "breaking ai beats humans again"
	if got != want {
		t.Fatalf("NormalizeTitle = %q, want %q", got, want)
	}

	if NormalizeTitle("!!!") != "" {
		t.Fatalf("punctuation-only title should normalize to empty")
	}
}

func TestSameStoryFromTwoProvidersSharesIdentity(t *testing.T) {
	t.Parallel()

	a := StoryCandidate{URL: "https://news.example.com/launch?utm_source=serper", Source: "serper", PublishedAt: time.Now()}
	b := StoryCandidate{URL: "http://news.example.com/launch/", Source: "dataforseo"}

	if a.CanonicalID() != b.CanonicalID() {
		t.Fatalf("expected equal canonical ids, got %q and %q", a.CanonicalID(), b.CanonicalID())
	}
}
