// Package suggest fans book-suggestion requests out across a pool of
// credentialed LLM clients and merges the results into one deduplicated list.
package suggest

import (
	"context"
	"log/slog"
	"sync"

	"github.com/flashclev/flashclev/internal/llm"
	"github.com/flashclev/flashclev/internal/models"
)

// Orchestrator splits suggestion work into parallel batches, assigning each
// batch a client from the pool round-robin so load spreads across API keys.
type Orchestrator struct {
	pool []llm.Suggester
}

// NewOrchestrator creates an Orchestrator over a non-empty client pool.
func NewOrchestrator(pool []llm.Suggester) *Orchestrator {
	return &Orchestrator{pool: pool}
}

// Request fetches up to totalTarget suggestions for goal in parallel batches
// of batchSize. A failed batch contributes nothing and never aborts its
// siblings; the call itself never fails, though it can return fewer than
// totalTarget books (including zero). Within the merged result, titles are
// unique (exact match, first occurrence in launch order wins).
func (o *Orchestrator) Request(ctx context.Context, goal string, excludeTitles []string, batchSize, totalTarget int) []models.BookSuggestion {
	if batchSize <= 0 || totalTarget <= 0 || len(o.pool) == 0 {
		return nil
	}

	numBatches := (totalTarget + batchSize - 1) / batchSize

	// Results are indexed by launch order so the merge is deterministic
	// regardless of which batch finishes first.
	results := make([][]models.BookSuggestion, numBatches)

	var wg sync.WaitGroup
	for i := 0; i < numBatches; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			client := o.pool[i%len(o.pool)]
			books, err := client.SuggestBooks(ctx, goal, excludeTitles, batchSize)
			if err != nil {
				slog.Warn("Suggestion batch failed", "batch", i, "goal", goal, "error", err)
				return
			}
			results[i] = books
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool)
	merged := make([]models.BookSuggestion, 0, totalTarget)
	for _, batch := range results {
		for _, book := range batch {
			if seen[book.Title] {
				continue
			}
			seen[book.Title] = true
			merged = append(merged, book)
			if len(merged) == totalTarget {
				return merged
			}
		}
	}
	return merged
}
