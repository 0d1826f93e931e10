// SPDX-License-Identifier: Apache-2.0

// Package websearch provides web search clients for grounding assistant
// answers in fresh information.
package websearch

import "context"

// Result is a single search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Searcher performs a web search and returns up to maxResults hits.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]Result, error)
}
