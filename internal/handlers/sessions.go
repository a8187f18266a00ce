package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/flashclev/flashclev/internal/models"
	"github.com/flashclev/flashclev/internal/tutor"
)

func (h *Handler) HandleSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		sessions := h.sessions.All()
		infos := make([]models.TutorSessionInfo, 0, len(sessions))
		for _, s := range sessions {
			infos = append(infos, s.Info())
		}
		h.writeJSON(w, infos)
	case http.MethodPost:
		h.handleStartSession(w, r)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleStartSession opens a fresh tutor session, replacing (and discarding
// the transcript of) any session already bound to the same book.
func (h *Handler) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var request struct {
		BookTitle string `json:"book_title"`
		Goal      string `json:"goal"`
		Chapter   string `json:"chapter"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(request.BookTitle) == "" {
		h.writeError(w, "book_title is required", http.StatusBadRequest)
		return
	}

	session, err := h.sessions.Start(r.Context(), tutor.Params{
		BookTitle: request.BookTitle,
		Goal:      request.Goal,
		Chapter:   request.Chapter,
	})

	response := map[string]any{"session": session.Info()}
	var startErr *tutor.StartError
	if errors.As(err, &startErr) {
		// The session is live but the opening question never arrived; the
		// client shows the apology and lets the user retry.
		response["notice"] = startErr.Message
	}
	h.writeJSON(w, response)
}

func (h *Handler) HandleSessionDetail(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
	sessionID, sub, _ := strings.Cut(rest, "/")

	session, ok := h.sessions.Get(sessionID)
	if !ok {
		h.writeError(w, "Session not found", http.StatusNotFound)
		return
	}

	if sub == "messages" {
		h.handleSessionMessage(w, r, session)
		return
	}
	if sub != "" {
		h.writeError(w, "Not found", http.StatusNotFound)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.writeJSON(w, session.Info())
	case http.MethodDelete:
		h.sessions.Delete(session.ID)
		h.writeJSON(w, map[string]any{"deleted": session.ID})
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleSessionMessage(w http.ResponseWriter, r *http.Request, session *tutor.Session) {
	if r.Method != http.MethodPost {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var request struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(request.Text) == "" {
		h.writeError(w, "text is required", http.StatusBadRequest)
		return
	}

	reply := session.Send(r.Context(), request.Text)

	h.writeJSON(w, map[string]any{
		"message":  reply,
		"messages": session.Transcript(),
	})
}
