// Package classify wraps the external content-classification service. It
// normalizes the service's category output into a closed taxonomy and
// converts every failure mode into a fail-closed verdict: an unreachable
// safety classifier must never silently permit content through.
package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sort"
	"strings"
	"time"
)

// FailClosedReason is the verdict reason used whenever the classifier
// could not be reached and the verdict defaults to flagged.
const FailClosedReason = "Content moderation system temporarily unavailable"

// Verdict is the normalized classifier result. FailClosed is true only
// when the external service could not be consulted; Flagged is then true
// and the category maps are empty. Verdicts are created fresh per call
// and never cached: a repeated identical request re-invokes the service.
type Verdict struct {
	Flagged    bool                 `json:"flagged"`
	Categories map[Category]bool    `json:"categories,omitempty"`
	Scores     map[Category]float64 `json:"category_scores,omitempty"`
	Reason     string               `json:"reason,omitempty"`
	FailClosed bool                 `json:"fail_closed,omitempty"`
}

// Config holds classifier connection settings.
type Config struct {
	BaseURL string        // service base URL
	APIKey  string        // bearer token
	Model   string        // moderation model name
	Timeout time.Duration // per-call timeout, enforced via context
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL: "https://api.openai.com/v1",
		Model:   "omni-moderation-latest",
		Timeout: 10 * time.Second,
	}
}

// Client calls the moderation endpoint of the external classifier.
type Client struct {
	config     Config
	httpClient *http.Client
}

// NewClient creates a classifier client from the given config. Zero-value
// fields fall back to DefaultConfig.
func NewClient(config Config) *Client {
	defaults := DefaultConfig()
	if config.BaseURL == "" {
		config.BaseURL = defaults.BaseURL
	}
	if config.Model == "" {
		config.Model = defaults.Model
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
	}
}

type moderationRequest struct {
	Input string `json:"input"`
	Model string `json:"model"`
}

type moderationResponse struct {
	Results []struct {
		Flagged        bool               `json:"flagged"`
		Categories     map[string]bool    `json:"categories"`
		CategoryScores map[string]float64 `json:"category_scores"`
	} `json:"results"`
}

// Classify submits text to the external classifier and returns the
// normalized verdict. Any failure (network error, timeout, non-200
// status, malformed response) yields a fail-closed verdict; the error is
// logged, not returned, because the blocking verdict IS the error policy.
func (c *Client) Classify(ctx context.Context, text string) Verdict {
	verdict, err := c.classify(ctx, text)
	if err != nil {
		log.Printf("[classify] classifier error (failing closed): %v", err)
		return Verdict{
			Flagged:    true,
			Categories: map[Category]bool{},
			Scores:     map[Category]float64{},
			Reason:     FailClosedReason,
			FailClosed: true,
		}
	}
	return verdict
}

func (c *Client) classify(ctx context.Context, text string) (Verdict, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	body, err := json.Marshal(moderationRequest{Input: text, Model: c.config.Model})
	if err != nil {
		return Verdict{}, fmt.Errorf("classify: marshal request: %w", err)
	}

	url := strings.TrimSuffix(c.config.BaseURL, "/") + "/moderations"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Verdict{}, fmt.Errorf("classify: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Verdict{}, fmt.Errorf("classify: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain a little of the body for the log line.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return Verdict{}, fmt.Errorf("classify: status %d: %s", resp.StatusCode, snippet)
	}

	var parsed moderationResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Verdict{}, fmt.Errorf("classify: decode response: %w", err)
	}
	if len(parsed.Results) == 0 {
		return Verdict{}, fmt.Errorf("classify: response contains no results")
	}

	return normalize(parsed), nil
}

// normalize converts the wire response into a Verdict with canonical
// category names and a human-readable reason listing flagged categories.
func normalize(parsed moderationResponse) Verdict {
	result := parsed.Results[0]

	verdict := Verdict{
		Flagged:    result.Flagged,
		Categories: make(map[Category]bool, len(result.Categories)),
		Scores:     make(map[Category]float64, len(result.CategoryScores)),
	}

	var flagged []string
	for wire, isFlagged := range result.Categories {
		category, ok := ParseCategory(wire)
		if !ok {
			log.Printf("[classify] unknown category %q in response", wire)
			continue
		}
		verdict.Categories[category] = isFlagged
		if isFlagged {
			flagged = append(flagged, category.Display())
		}
	}
	for wire, score := range result.CategoryScores {
		category, ok := ParseCategory(wire)
		if !ok {
			continue
		}
		verdict.Scores[category] = score
	}

	if result.Flagged && len(flagged) > 0 {
		// Sorted so the reason string is deterministic across map
		// iteration order.
		sort.Strings(flagged)
		verdict.Reason = strings.Join(flagged, ", ")
	}
	return verdict
}
