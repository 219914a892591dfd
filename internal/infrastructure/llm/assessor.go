package llm

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

// BatchAssessor scores candidate batches through an OpenAI-compatible chat
// completions API and reports the estimated cost of each call.
type BatchAssessor struct {
	endpoint            string
	model               string
	apiKey              string
	instructions        string
	promptCostPer1K     float64
	completionCostPer1K float64
	httpClient          *http.Client
}

var _ ports.Assessor = (*BatchAssessor)(nil)

// NewBatchAssessor builds an assessor from configuration.
func NewBatchAssessor(cfg config.AssessorConfig) *BatchAssessor {
	return &BatchAssessor{
		endpoint:            cfg.Endpoint,
		model:               cfg.Model,
		apiKey:              cfg.APIKey,
		instructions:        cfg.AssessmentInstructions,
		promptCostPer1K:     cfg.PromptCostPer1K,
		completionCostPer1K: cfg.CompletionCostPer1K,
		httpClient: &http.Client{
			Timeout: 90 * time.Second,
		},
	}
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

type scoredItem struct {
	ID        string  `json:"id"`
	Relevance float64 `json:"relevance"`
	Priority  int     `json:"priority"`
	Rationale string  `json:"rationale"`
}

type scoredPayload struct {
	Stories []scoredItem `json:"stories"`
}

// AssessBatch posts one batch of candidates for scoring. Stories the model
// skips or scores out of range come back with zero relevance; the threshold
// downstream excludes them without failing the batch.
func (a *BatchAssessor) AssessBatch(ctx context.Context, domainID string, batch []domain.StoryCandidate) (ports.AssessmentResult, error) {
	if a.apiKey == "" || a.endpoint == "" || a.model == "" {
		return ports.AssessmentResult{}, fmt.Errorf("assessor misconfigured")
	}
	if len(batch) == 0 {
		return ports.AssessmentResult{}, nil
	}

	user, err := buildUserMessage(domainID, batch)
	if err != nil {
		return ports.AssessmentResult{}, fmt.Errorf("build batch payload: %w", err)
	}

	body, err := json.Marshal(map[string]any{
		"model": a.model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt(a.instructions)},
			{"role": "user", "content": user},
		},
		"response_format": map[string]string{"type": "json_object"},
		"temperature":     0,
	})
	if err != nil {
		return ports.AssessmentResult{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(body))
	if err != nil {
		return ports.AssessmentResult{}, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return ports.AssessmentResult{}, fmt.Errorf("assess batch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return ports.AssessmentResult{}, fmt.Errorf("assessor error %s: %s",
			resp.Status, strings.TrimSpace(string(payload)))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return ports.AssessmentResult{}, fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return ports.AssessmentResult{}, fmt.Errorf("assessor returned no choices")
	}

	var scored scoredPayload
	if err := json.Unmarshal([]byte(parsed.Choices[0].Message.Content), &scored); err != nil {
		return ports.AssessmentResult{}, fmt.Errorf("parse scores: %w", err)
	}

	byID := make(map[string]scoredItem, len(scored.Stories))
	for _, item := range scored.Stories {
		byID[item.ID] = item
	}

	result := ports.AssessmentResult{
		Cost: a.estimateCost(parsed.Usage.PromptTokens, parsed.Usage.CompletionTokens),
	}
	for i, candidate := range batch {
		assessed := domain.AssessedStory{Candidate: candidate, FetchOrder: i}
		if item, ok := byID[candidate.CanonicalID()]; ok {
			assessed.Relevance = clamp(item.Relevance)
			assessed.Priority = item.Priority
			assessed.Rationale = item.Rationale
		}
		result.Assessed = append(result.Assessed, assessed)
	}

	return result, nil
}

func (a *BatchAssessor) estimateCost(promptTokens, completionTokens int) float64 {
	return float64(promptTokens)/1000*a.promptCostPer1K +
		float64(completionTokens)/1000*a.completionCostPer1K
}

func buildUserMessage(domainID string, batch []domain.StoryCandidate) (string, error) {
	type entry struct {
		ID        string `json:"id"`
		Title     string `json:"title"`
		Snippet   string `json:"snippet"`
		Source    string `json:"source"`
		Published string `json:"published,omitempty"`
	}

	entries := make([]entry, 0, len(batch))
	for _, c := range batch {
		e := entry{
			ID:      c.CanonicalID(),
			Title:   c.Title,
			Snippet: c.Snippet,
			Source:  c.Source,
		}
		if !c.PublishedAt.IsZero() {
			e.Published = c.PublishedAt.Format("2006-01-02")
		}
		entries = append(entries, e)
	}

	payload, err := json.Marshal(map[string]any{
		"domain":  domainID,
		"stories": entries,
	})
	if err != nil {
		return "", err
	}
	return string(payload), nil
}

func systemPrompt(instructions string) string {
	instructions = strings.TrimSpace(instructions)
	if instructions == "" {
		instructions = "You assess news stories for topical relevance to the given domain."
	}
	return instructions + "\n" +
		`Respond with JSON: {"stories":[{"id":"<id>","relevance":0.0-1.0,"priority":1-10,"rationale":"<short reason>"}]}. ` +
		"Score every input story exactly once, keyed by its id."
}

func clamp(score float64) float64 {
	switch {
	case score < 0:
		return 0
	case score > 1:
		return 1
	default:
		return score
	}
}
