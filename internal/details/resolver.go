// Package details normalizes a free-text book name into title, author and
// chapters, with a static fallback when the model is unavailable or fails.
package details

import (
	"context"
	"log/slog"

	"github.com/flashclev/flashclev/internal/covers"
	"github.com/flashclev/flashclev/internal/llm"
	"github.com/flashclev/flashclev/internal/models"
)

// Resolver resolves book details for the deep-dive flow.
type Resolver struct {
	detailer llm.Detailer
	covers   *covers.Resolver
}

// NewResolver creates a Resolver. A nil detailer always yields the static
// fallback shape.
func NewResolver(detailer llm.Detailer, coverResolver *covers.Resolver) *Resolver {
	return &Resolver{detailer: detailer, covers: coverResolver}
}

// Resolve returns details for bookName. It never returns an error: model
// failures degrade to a static chapter outline, and cover resolution
// degrades to the deep-dive placeholder.
func (r *Resolver) Resolve(ctx context.Context, bookName string) models.BookDetails {
	details := fallbackDetails(bookName)

	if r.detailer == nil {
		slog.Warn("No detail model configured, using fallback data", "book", bookName)
	} else {
		resolved, err := r.detailer.BookDetails(ctx, bookName)
		if err != nil {
			slog.Error("Failed to fetch book details", "book", bookName, "error", err)
		} else {
			if resolved.Title != "" {
				details.Title = resolved.Title
			}
			if resolved.Author != "" {
				details.Author = resolved.Author
			}
			if len(resolved.Chapters) > 0 {
				details.Chapters = resolved.Chapters
			}
		}
	}

	details.CoverImageURL = r.covers.Resolve(ctx, covers.Book{
		Title:  details.Title,
		Author: details.Author,
	}, covers.FlowDeepDive)

	return details
}

func fallbackDetails(bookName string) models.BookDetails {
	return models.BookDetails{
		Title:    bookName,
		Author:   "Unknown Author",
		Chapters: []string{"Introduction", "Chapter 1", "Chapter 2", "Chapter 3", "Conclusion"},
	}
}
