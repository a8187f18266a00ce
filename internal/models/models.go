package models

import (
	"strings"
	"time"
)

// BookSuggestion is one book recommended for a user goal. All fields come
// straight from the LLM's structured output; nothing beyond the schema is
// validated server-side.
type BookSuggestion struct {
	Title        string   `json:"title"`
	Author       string   `json:"author"`
	ISBN         string   `json:"isbn"`
	Description  string   `json:"description"`
	KeyTakeaways []string `json:"keyTakeaways"`
	Outcomes     []string `json:"outcomes"`
}

// Book is a suggestion with its resolved cover. An empty CoverImageURL means
// no usable cover was found and the client should render a placeholder.
type Book struct {
	BookSuggestion
	CoverImageURL string `json:"coverImageUrl"`
}

// BookDetails describes a single book for the deep-dive flow.
type BookDetails struct {
	Title         string   `json:"title"`
	Author        string   `json:"author"`
	Chapters      []string `json:"chapters"`
	CoverImageURL string   `json:"coverImageUrl"`
}

// ShortTitle returns the title with any subtitle after a colon removed,
// e.g. "Sapiens: A Brief History of Humankind" -> "Sapiens".
func (d BookDetails) ShortTitle() string {
	if i := strings.Index(d.Title, ":"); i != -1 {
		return strings.TrimSpace(d.Title[:i])
	}
	return d.Title
}

// Sender identifies which side of a tutor conversation produced a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

// ChatMessage is one turn in a tutor transcript. Messages are append-only
// and never mutated once added.
type ChatMessage struct {
	ID     string `json:"id"`
	Sender Sender `json:"sender"`
	Text   string `json:"text"`
}

// TutorSessionInfo is the client-visible view of a tutor session.
type TutorSessionInfo struct {
	ID        string        `json:"id"`
	BookTitle string        `json:"book_title"`
	Goal      string        `json:"goal,omitempty"`
	Chapter   string        `json:"chapter,omitempty"`
	Messages  []ChatMessage `json:"messages"`
	CreatedAt time.Time     `json:"created_at"`
}
