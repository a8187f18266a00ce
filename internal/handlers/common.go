package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/flashclev/flashclev/internal/covers"
	"github.com/flashclev/flashclev/internal/details"
	"github.com/flashclev/flashclev/internal/suggest"
	"github.com/flashclev/flashclev/internal/tutor"
)

type Handler struct {
	orchestrator *suggest.Orchestrator
	covers       *covers.Resolver
	details      *details.Resolver
	sessions     *tutor.Manager

	suggestionBatchSize int
	suggestionTarget    int
}

// Options wires the Handler's collaborators.
type Options struct {
	Orchestrator *suggest.Orchestrator
	Covers       *covers.Resolver
	Details      *details.Resolver
	Sessions     *tutor.Manager

	SuggestionBatchSize int
	SuggestionTarget    int
}

func New(opts Options) *Handler {
	return &Handler{
		orchestrator:        opts.Orchestrator,
		covers:              opts.Covers,
		details:             opts.Details,
		sessions:            opts.Sessions,
		suggestionBatchSize: opts.SuggestionBatchSize,
		suggestionTarget:    opts.SuggestionTarget,
	}
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message)
	http.Error(w, message, code)
}
