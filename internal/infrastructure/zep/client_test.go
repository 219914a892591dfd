package zep

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"NewsGenerator/internal/config"
	"NewsGenerator/internal/ports"
)

func TestQueryCoverageFiltersByThreshold(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/graph/search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Api-Key zep-key" {
			t.Errorf("missing auth header")
		}
		_, _ = w.Write([]byte(`{
			"edges": [
				{"fact": "we covered the merger", "name": "merger", "score": 0.92},
				{"fact": "weakly related note", "name": "note", "score": 0.4}
			]
		}`))
	}))
	defer server.Close()

	client := NewClient(config.ZepConfig{Endpoint: server.URL, APIKey: "zep-key", SimilarityThreshold: 0.85})

	coverage, err := client.QueryCoverage(context.Background(), "placement", "the merger")
	if err != nil {
		t.Fatalf("query coverage: %v", err)
	}

	if !coverage.Found {
		t.Fatalf("expected coverage above threshold to be found")
	}
	if len(coverage.Facts) != 1 || coverage.Facts[0].Fact != "we covered the merger" {
		t.Fatalf("unexpected facts: %+v", coverage.Facts)
	}
	if coverage.Similarity != 0.92 {
		t.Fatalf("similarity = %f", coverage.Similarity)
	}
}

func TestQueryCoverageEmptyBelowThreshold(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"edges": [{"fact": "barely related", "score": 0.2}]}`))
	}))
	defer server.Close()

	client := NewClient(config.ZepConfig{Endpoint: server.URL, APIKey: "k", SimilarityThreshold: 0.85})

	coverage, err := client.QueryCoverage(context.Background(), "placement", "topic")
	if err != nil {
		t.Fatalf("query coverage: %v", err)
	}
	if coverage.Found || len(coverage.Facts) != 0 {
		t.Fatalf("below-threshold edges should yield empty coverage: %+v", coverage)
	}
}

func TestQueryCoverageUnavailableWhenUnconfigured(t *testing.T) {
	t.Parallel()

	client := NewClient(config.ZepConfig{})
	if client.Available() {
		t.Fatalf("unconfigured client must not report available")
	}

	_, err := client.QueryCoverage(context.Background(), "placement", "topic")
	if !errors.Is(err, ports.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestQueryCoverageUnavailableOnServerError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(config.ZepConfig{Endpoint: server.URL, APIKey: "k"})

	_, err := client.QueryCoverage(context.Background(), "placement", "topic")
	if !errors.Is(err, ports.ErrUnavailable) {
		t.Fatalf("server errors should degrade, got %v", err)
	}
}
