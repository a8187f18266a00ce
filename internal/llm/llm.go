package llm

import (
	"context"

	"github.com/flashclev/flashclev/internal/models"
)

// Suggester asks a model for book suggestions matching a goal.
type Suggester interface {
	SuggestBooks(ctx context.Context, goal string, excludeTitles []string, count int) ([]models.BookSuggestion, error)
}

// Detailer normalizes a free-text book name into title, author and chapters.
type Detailer interface {
	BookDetails(ctx context.Context, bookName string) (models.BookDetails, error)
}

// ImageGenerator produces a cover image for a book, returned as a data URL.
type ImageGenerator interface {
	GenerateCoverImage(ctx context.Context, title, description string) (string, error)
}

// Chatter opens stateful chat sessions. The session accumulates all prior
// turns server-side; callers never resend history.
type Chatter interface {
	StartChat(systemInstruction string) ChatSession
}

// ChatSession is one conversation context.
type ChatSession interface {
	// Send forwards one user message and returns the model's full reply.
	Send(ctx context.Context, message string) (string, error)
	// SendStream forwards one user message and delivers the reply
	// incrementally through onFragment, returning the concatenated text.
	SendStream(ctx context.Context, message string, onFragment func(string)) (string, error)
}
