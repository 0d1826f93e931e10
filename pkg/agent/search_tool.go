// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ogyreck/ai-assistent-students/pkg/resilience"
	"github.com/ogyreck/ai-assistent-students/pkg/websearch"
)

// degradedSearchObservation is returned when the search collaborator keeps
// failing; a single stub entry instead of an error keeps the loop moving.
const degradedSearchObservation = "1. Search Service Unavailable\n   #\n   Сервис поиска временно недоступен. Пожалуйста, попробуйте позже."

// searchBudget bounds one search including all retries, well inside the
// loop's wall-clock budget so a hung collaborator cannot eat the turn.
const searchBudget = 15 * time.Second

// SearchTool executes web searches with retries, an overall time budget,
// and a degraded fallback.
type SearchTool struct {
	searcher websearch.Searcher
	retry    resilience.RetryConfig
	budget   resilience.TimeoutConfig
	logger   *slog.Logger
}

// NewSearchTool creates the web-search capability.
func NewSearchTool(searcher websearch.Searcher, logger *slog.Logger) *SearchTool {
	if logger == nil {
		logger = slog.Default()
	}
	return &SearchTool{
		searcher: searcher,
		retry:    resilience.DefaultRetryConfig(),
		budget:   resilience.TimeoutConfig{Duration: searchBudget},
		logger:   logger,
	}
}

// Execute runs the search. Collaborator failures degrade to a stub result
// rather than erroring, so the model still gets an observation.
func (t *SearchTool) Execute(ctx context.Context, args SearchArgs) (string, error) {
	t.logger.InfoContext(ctx, "web search",
		slog.String("query", args.Query),
		slog.Int("max_results", args.MaxResults))

	var results []websearch.Result
	err := resilience.WithTimeout(ctx, t.budget, func() error {
		return t.retry.Do(ctx, func() error {
			var searchErr error
			results, searchErr = t.searcher.Search(ctx, args.Query, args.MaxResults)
			return searchErr
		})
	})
	if err != nil {
		t.logger.WarnContext(ctx, "search collaborator failed, degrading",
			slog.String("error", err.Error()))
		return degradedSearchObservation, nil
	}

	if len(results) == 0 {
		return fmt.Sprintf("По запросу '%s' ничего не найдено.", args.Query), nil
	}

	var sb strings.Builder
	for i, r := range results {
		fmt.Fprintf(&sb, "%d. %s\n   %s\n   %s\n", i+1, r.Title, r.URL, r.Snippet)
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

var _ SearchExecutor = (*SearchTool)(nil)
