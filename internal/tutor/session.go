// Package tutor hosts stateful book-coaching conversations. Each session
// wraps one LLM chat context and owns an append-only transcript that is
// discarded wholesale when the user switches books or chapters.
package tutor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/flashclev/flashclev/internal/llm"
	"github.com/flashclev/flashclev/internal/models"
)

// Params selects the coaching template. Goal set -> goal-coaching template;
// otherwise the chapter-focused template with Chapter (ChapterAll when
// empty).
type Params struct {
	BookTitle string
	Goal      string
	Chapter   string
}

// slot identifies the logical conversation slot a session occupies. Starting
// a new session for the same book replaces (and cancels) the old one.
func (p Params) slot() string {
	return p.BookTitle
}

func (p Params) instruction() string {
	if p.Goal != "" {
		return goalCoachingInstruction(p.BookTitle, p.Goal)
	}
	chapter := p.Chapter
	if chapter == "" {
		chapter = ChapterAll
	}
	return chapterFocusedInstruction(p.BookTitle, chapter)
}

// Session is one tutor conversation.
type Session struct {
	ID        string
	Params    Params
	CreatedAt time.Time

	chat   llm.ChatSession
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	messages []models.ChatMessage
}

// Manager creates, looks up and replaces sessions. It is safe for
// concurrent use.
type Manager struct {
	chatter llm.Chatter

	mu       sync.RWMutex
	sessions map[string]*Session
	slots    map[string]string
}

// NewManager creates a Manager backed by the given chat capability.
func NewManager(chatter llm.Chatter) *Manager {
	return &Manager{
		chatter:  chatter,
		sessions: make(map[string]*Session),
		slots:    make(map[string]string),
	}
}

// Start opens a fresh session for params, cancelling and discarding any
// session already occupying the same slot along with its transcript. The
// synthetic start message is sent immediately so the transcript opens with
// the model's first question. If that send fails the session is still
// registered with an empty transcript and the returned error carries the
// scripted apology for the caller to display; the user may simply try again.
func (m *Manager) Start(ctx context.Context, params Params) (*Session, error) {
	sessionCtx, cancel := context.WithCancel(context.Background())
	session := &Session{
		ID:        uuid.NewString(),
		Params:    params,
		CreatedAt: time.Now(),
		chat:      m.chatter.StartChat(params.instruction()),
		ctx:       sessionCtx,
		cancel:    cancel,
	}

	m.mu.Lock()
	if oldID, ok := m.slots[params.slot()]; ok {
		if old, ok := m.sessions[oldID]; ok {
			old.cancel()
			delete(m.sessions, oldID)
			slog.Info("Replaced tutor session", "slot", params.slot(), "old_session_id", oldID, "session_id", session.ID)
		}
	}
	m.slots[params.slot()] = session.ID
	m.sessions[session.ID] = session
	m.mu.Unlock()

	text, err := session.chat.Send(joinContext(ctx, sessionCtx), StartMessage)
	if err != nil {
		slog.Error("Failed to start tutor conversation", "session_id", session.ID, "error", err)
		return session, &StartError{Message: startFailureText, cause: err}
	}
	session.append(models.SenderAI, text)

	return session, nil
}

// StartError reports a failed synthetic opening. Message is display copy for
// the caller; the session itself remains usable.
type StartError struct {
	Message string
	cause   error
}

func (e *StartError) Error() string { return e.Message }
func (e *StartError) Unwrap() error { return e.cause }

// Get returns the session with the given ID.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, ok := m.sessions[id]
	return session, ok
}

// All returns every live session.
func (m *Manager) All() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	return sessions
}

// Delete cancels and removes a session.
func (m *Manager) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[id]
	if !ok {
		return
	}
	session.cancel()
	delete(m.sessions, id)
	if m.slots[session.Params.slot()] == id {
		delete(m.slots, session.Params.slot())
	}
}

// Send appends the user's message, forwards it to the model, and appends the
// reply. On failure the reply is a scripted apology; the user message is
// never re-sent automatically and transcript ordering is preserved.
func (s *Session) Send(ctx context.Context, text string) models.ChatMessage {
	s.append(models.SenderUser, text)

	reply, err := s.chat.SendStream(joinContext(ctx, s.ctx), text, nil)
	if err != nil {
		slog.Error("Failed to send tutor message", "session_id", s.ID, "error", err)
		reply = sendFailureText
	}
	return s.append(models.SenderAI, reply)
}

// Transcript returns a snapshot of the session's messages.
func (s *Session) Transcript() []models.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ChatMessage, len(s.messages))
	copy(out, s.messages)
	return out
}

// Info returns the client-visible view of the session.
func (s *Session) Info() models.TutorSessionInfo {
	return models.TutorSessionInfo{
		ID:        s.ID,
		BookTitle: s.Params.BookTitle,
		Goal:      s.Params.Goal,
		Chapter:   s.Params.Chapter,
		Messages:  s.Transcript(),
		CreatedAt: s.CreatedAt,
	}
}

func (s *Session) append(sender models.Sender, text string) models.ChatMessage {
	msg := models.ChatMessage{
		ID:     uuid.NewString(),
		Sender: sender,
		Text:   text,
	}
	s.mu.Lock()
	s.messages = append(s.messages, msg)
	s.mu.Unlock()
	return msg
}

// joinContext derives a context cancelled when either the request or the
// session is cancelled, so a replaced session cannot keep a model call
// alive.
func joinContext(req, session context.Context) context.Context {
	ctx, cancel := context.WithCancel(req)
	if session.Err() != nil {
		cancel()
		return ctx
	}
	go func() {
		select {
		case <-session.Done():
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx
}
