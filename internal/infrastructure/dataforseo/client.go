package dataforseo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"NewsGenerator/internal/config"
	"NewsGenerator/internal/domain"
	"NewsGenerator/internal/ports"
)

const providerName = "dataforseo"

// Client implements ports.NewsProvider backed by the DataForSEO news API.
type Client struct {
	endpoint   string
	login      string
	password   string
	httpClient *http.Client
}

var _ ports.NewsProvider = (*Client)(nil)

// NewClient builds a client from configuration.
func NewClient(cfg config.DataForSEOConfig) *Client {
	return &Client{
		endpoint: cfg.Endpoint,
		login:    cfg.Login,
		password: cfg.Password,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Name identifies the provider inside the registry.
func (c *Client) Name() string {
	return providerName
}

type task struct {
	Keyword      string `json:"keyword"`
	LocationName string `json:"location_name,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`
	DateFrom     string `json:"date_from,omitempty"`
	Depth        int    `json:"depth,omitempty"`
}

type response struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
	Tasks         []struct {
		StatusCode int `json:"status_code"`
		Result     []struct {
			Items []item `json:"items"`
		} `json:"result"`
	} `json:"tasks"`
}

type item struct {
	Type      string `json:"type"`
	Title     string `json:"title"`
	URL       string `json:"url"`
	Snippet   string `json:"snippet"`
	Source    string `json:"source"`
	Timestamp string `json:"timestamp"`
}

// Search posts one live news-search task per keyword phrase and flattens
// the returned items into story candidates.
func (c *Client) Search(ctx context.Context, query ports.SearchQuery) ([]domain.StoryCandidate, error) {
	if c.login == "" || c.password == "" || c.endpoint == "" {
		return nil, fmt.Errorf("dataforseo client misconfigured")
	}

	dateFrom := time.Now().UTC().Add(-query.Window).Format("2006-01-02")
	depth := query.MaxResults
	if depth <= 0 {
		depth = 30
	}

	tasks := []task{{
		Keyword:      buildKeyword(query),
		LocationName: query.Location,
		LanguageCode: query.Language,
		DateFrom:     dateFrom,
		Depth:        depth,
	}}

	body, err := json.Marshal(tasks)
	if err != nil {
		return nil, fmt.Errorf("marshal tasks: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.SetBasicAuth(c.login, c.password)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("dataforseo error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var parsed response
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if parsed.StatusCode >= 40000 {
		return nil, fmt.Errorf("dataforseo status %d: %s", parsed.StatusCode, parsed.StatusMessage)
	}

	var candidates []domain.StoryCandidate
	for _, t := range parsed.Tasks {
		for _, r := range t.Result {
			for _, it := range r.Items {
				if it.Type != "" && it.Type != "news_search" {
					continue
				}
				if it.URL == "" && it.Title == "" {
					continue
				}
				candidates = append(candidates, domain.StoryCandidate{
					ID:          it.URL,
					Title:       it.Title,
					Snippet:     it.Snippet,
					URL:         it.URL,
					Source:      providerName,
					PublishedAt: parseTimestamp(it.Timestamp),
					Raw:         map[string]string{"publisher": it.Source},
				})
			}
		}
	}

	return candidates, nil
}

func buildKeyword(query ports.SearchQuery) string {
	parts := make([]string, 0, len(query.Keywords)+len(query.Exclusions))
	parts = append(parts, query.Keywords...)
	for _, ex := range query.Exclusions {
		parts = append(parts, "-"+ex)
	}
	return strings.Join(parts, " ")
}

func parseTimestamp(value string) time.Time {
	for _, layout := range []string{"2006-01-02 15:04:05 -07:00", time.RFC3339, "2006-01-02"} {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts
		}
	}
	if unix, err := strconv.ParseInt(value, 10, 64); err == nil && unix > 0 {
		return time.Unix(unix, 0).UTC()
	}
	return time.Time{}
}
