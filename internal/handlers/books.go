package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
)

// HandleBooks serves POST /api/books: deep-dive book detail resolution.
func (h *Handler) HandleBooks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var request struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	name := strings.TrimSpace(request.Name)
	if name == "" {
		h.writeError(w, "name is required", http.StatusBadRequest)
		return
	}

	book := h.details.Resolve(r.Context(), name)

	h.writeJSON(w, map[string]any{
		"title":         book.Title,
		"short_title":   book.ShortTitle(),
		"author":        book.Author,
		"chapters":      book.Chapters,
		"coverImageUrl": book.CoverImageURL,
	})
}
