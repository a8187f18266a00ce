package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/flashclev/flashclev/internal/covers"
	"github.com/flashclev/flashclev/internal/models"
)

// HandleSuggestions serves POST /api/suggestions. The exclude_titles field
// carries titles the user has already seen so "load more" calls avoid
// repeats.
func (h *Handler) HandleSuggestions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var request struct {
		Goal          string   `json:"goal"`
		ExcludeTitles []string `json:"exclude_titles"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	goal := strings.TrimSpace(request.Goal)
	if goal == "" {
		h.writeError(w, "goal is required", http.StatusBadRequest)
		return
	}

	suggestions := h.orchestrator.Request(r.Context(), goal, request.ExcludeTitles, h.suggestionBatchSize, h.suggestionTarget)
	books := h.resolveCovers(r.Context(), suggestions)

	h.writeJSON(w, map[string]any{
		"goal":  goal,
		"books": books,
	})
}

// resolveCovers resolves all covers in parallel, mirroring the suggestion
// flow's fan-out over books.
func (h *Handler) resolveCovers(ctx context.Context, suggestions []models.BookSuggestion) []models.Book {
	books := make([]models.Book, len(suggestions))

	var wg sync.WaitGroup
	for i, s := range suggestions {
		wg.Add(1)
		go func(i int, s models.BookSuggestion) {
			defer wg.Done()
			books[i] = models.Book{
				BookSuggestion: s,
				CoverImageURL: h.covers.Resolve(ctx, covers.Book{
					Title:       s.Title,
					Author:      s.Author,
					ISBN:        s.ISBN,
					Description: s.Description,
				}, covers.FlowSuggestion),
			}
		}(i, s)
	}
	wg.Wait()

	return books
}
