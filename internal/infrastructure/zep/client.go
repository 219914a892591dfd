package zep

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"NewsGenerator/internal/config"
	"NewsGenerator/internal/domain"
	"NewsGenerator/internal/ports"
)

// Client talks to the Zep knowledge graph for prior-coverage context.
// The dependency is optional: every failure surfaces as ports.ErrUnavailable
// so callers degrade instead of aborting.
type Client struct {
	endpoint   string
	apiKey     string
	threshold  float64
	httpClient *http.Client
}

var _ ports.KnowledgeGraph = (*Client)(nil)

// NewClient creates a reusable knowledge-graph client.
func NewClient(cfg config.ZepConfig) *Client {
	return &Client{
		endpoint:  cfg.Endpoint,
		apiKey:    cfg.APIKey,
		threshold: cfg.SimilarityThreshold,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Available reports whether the knowledge graph is configured at all.
func (c *Client) Available() bool {
	return c != nil && c.apiKey != "" && c.endpoint != ""
}

type searchRequest struct {
	Query   string `json:"query"`
	GraphID string `json:"graph_id"`
	Scope   string `json:"scope"`
	Limit   int    `json:"limit"`
}

type searchResponse struct {
	Edges []struct {
		Fact      string    `json:"fact"`
		Name      string    `json:"name"`
		Score     float64   `json:"score"`
		CreatedAt time.Time `json:"created_at"`
	} `json:"edges"`
}

// QueryCoverage searches graph edges related to the topic and summarizes
// matches above the similarity threshold into a coverage context.
func (c *Client) QueryCoverage(ctx context.Context, domainID, topic string) (domain.CoverageContext, error) {
	if !c.Available() {
		return domain.CoverageContext{}, fmt.Errorf("zep: %w", ports.ErrUnavailable)
	}

	body, err := json.Marshal(searchRequest{
		Query:   topic,
		GraphID: domainID,
		Scope:   "edges",
		Limit:   10,
	})
	if err != nil {
		return domain.CoverageContext{}, fmt.Errorf("marshal search: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/graph/search", bytes.NewReader(body))
	if err != nil {
		return domain.CoverageContext{}, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Api-Key "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.CoverageContext{}, fmt.Errorf("zep search: %w: %v", ports.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return domain.CoverageContext{}, fmt.Errorf("zep %s: %w: %s",
			resp.Status, ports.ErrUnavailable, strings.TrimSpace(string(payload)))
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return domain.CoverageContext{}, fmt.Errorf("decode response: %w", err)
	}

	coverage := domain.CoverageContext{}
	var summary []string
	for _, edge := range parsed.Edges {
		if edge.Score < c.threshold {
			continue
		}
		coverage.Found = true
		if edge.Score > coverage.Similarity {
			coverage.Similarity = edge.Score
		}
		coverage.Facts = append(coverage.Facts, domain.CoverageFact{
			Fact:      edge.Fact,
			Subject:   edge.Name,
			CreatedAt: edge.CreatedAt,
		})
		summary = append(summary, edge.Fact)
	}
	coverage.Summary = strings.Join(summary, "; ")

	return coverage, nil
}
