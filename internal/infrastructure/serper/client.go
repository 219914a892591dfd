package serper

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

const providerName = "serper"

// Client implements ports.NewsProvider backed by the Serper Google News API.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

var _ ports.NewsProvider = (*Client)(nil)

// NewClient builds a client from configuration.
func NewClient(cfg config.SerperConfig) *Client {
	return &Client{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Name identifies the provider inside the registry.
func (c *Client) Name() string {
	return providerName
}

type request struct {
	Query    string `json:"q"`
	Country  string `json:"gl,omitempty"`
	Language string `json:"hl,omitempty"`
	TimeSpan string `json:"tbs,omitempty"`
	Num      int    `json:"num,omitempty"`
}

type response struct {
	News []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
		Source  string `json:"source"`
		Date    string `json:"date"`
	} `json:"news"`
}

// Search posts one news query and maps the returned entries into candidates.
func (c *Client) Search(ctx context.Context, query ports.SearchQuery) ([]domain.StoryCandidate, error) {
	if c.apiKey == "" || c.endpoint == "" {
		return nil, fmt.Errorf("serper client misconfigured")
	}

	body, err := json.Marshal(request{
		Query:    buildQuery(query),
		Country:  query.Location,
		Language: query.Language,
		TimeSpan: timeSpan(query.Window),
		Num:      query.MaxResults,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("serper error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var parsed response
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	now := time.Now().UTC()
	candidates := make([]domain.StoryCandidate, 0, len(parsed.News))
	for _, n := range parsed.News {
		if n.Link == "" && n.Title == "" {
			continue
		}
		candidates = append(candidates, domain.StoryCandidate{
			ID:          n.Link,
			Title:       n.Title,
			Snippet:     n.Snippet,
			URL:         n.Link,
			Source:      providerName,
			PublishedAt: parseRelativeDate(n.Date, now),
			Raw:         map[string]string{"publisher": n.Source},
		})
	}

	return candidates, nil
}

func buildQuery(query ports.SearchQuery) string {
	parts := make([]string, 0, len(query.Keywords)+len(query.Exclusions))
	parts = append(parts, query.Keywords...)
	for _, ex := range query.Exclusions {
		parts = append(parts, "-"+ex)
	}
	return strings.Join(parts, " ")
}

// timeSpan maps the lookback window onto Serper's qdr filter values.
func timeSpan(window time.Duration) string {
	switch {
	case window <= 0:
		return ""
	case window <= time.Hour:
		return "qdr:h"
	case window <= 24*time.Hour:
		return "qdr:d"
	case window <= 7*24*time.Hour:
		return "qdr:w"
	case window <= 31*24*time.Hour:
		return "qdr:m"
	default:
		return "qdr:y"
	}
}

// parseRelativeDate handles Serper's "2 hours ago" / "3 days ago" dates.
func parseRelativeDate(value string, now time.Time) time.Time {
	if ts, err := time.Parse("Jan 2, 2006", value); err == nil {
		return ts
	}

	fields := strings.Fields(strings.ToLower(value))
	if len(fields) != 3 || fields[2] != "ago" {
		return time.Time{}
	}

	var amount int
	if _, err := fmt.Sscanf(fields[0], "%d", &amount); err != nil {
		return time.Time{}
	}

	unit := strings.TrimSuffix(fields[1], "s")
	switch unit {
	case "minute":
		return now.Add(-time.Duration(amount) * time.Minute)
	case "hour":
		return now.Add(-time.Duration(amount) * time.Hour)
	case "day":
		return now.AddDate(0, 0, -amount)
	case "week":
		return now.AddDate(0, 0, -7*amount)
	case "month":
		return now.AddDate(0, -amount, 0)
	default:
		return time.Time{}
	}
}
