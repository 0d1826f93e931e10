// SPDX-License-Identifier: Apache-2.0

package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	apperrors "github.com/ogyreck/ai-assistent-students/pkg/errors"
)

const defaultTavilyURL = "https://api.tavily.com"

// snippetLimit caps snippet length so tool observations stay compact.
const snippetLimit = 150

// TavilyClient implements Searcher against the Tavily search API.
type TavilyClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewTavily creates a Tavily search client. baseURL may be empty for the
// public endpoint.
func NewTavily(baseURL, apiKey string) *TavilyClient {
	if baseURL == "" {
		baseURL = defaultTavilyURL
	}
	return &TavilyClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type tavilyRequest struct {
	APIKey     string `json:"api_key"`
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

type tavilyResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

// Search runs the query and returns up to maxResults hits with truncated
// snippets.
func (c *TavilyClient) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	body, err := json.Marshal(tavilyRequest{
		APIKey:     c.apiKey,
		Query:      query,
		MaxResults: maxResults,
	})
	if err != nil {
		return nil, apperrors.New(apperrors.CodeSearchError, "failed to encode search request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.New(apperrors.CodeSearchError, "failed to build search request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, apperrors.New(apperrors.CodeSearchError, "search request failed", err).
			WithRecoverable(true)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		e := apperrors.New(apperrors.CodeSearchError,
			fmt.Sprintf("search api returned status %d", resp.StatusCode), nil)
		// 5xx responses are worth retrying, client errors are not.
		return nil, e.WithRecoverable(resp.StatusCode >= 500)
	}

	var tr tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, apperrors.New(apperrors.CodeSearchError, "failed to decode search response", err)
	}

	results := make([]Result, 0, len(tr.Results))
	for _, r := range tr.Results {
		results = append(results, Result{
			Title:   r.Title,
			URL:     r.URL,
			Snippet: truncateRunes(r.Content, snippetLimit),
		})
		if len(results) >= maxResults {
			break
		}
	}
	return results, nil
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

var _ Searcher = (*TavilyClient)(nil)
