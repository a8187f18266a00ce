// Package covers resolves a display-ready cover image URL for a book through
// a prioritized fallback chain: direct ISBN probe, generated artwork, fuzzy
// catalog search, then a flow-specific terminal fallback.
package covers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/flashclev/flashclev/internal/llm"
)

// Flow selects the terminal fallback when every strategy fails.
type Flow int

const (
	// FlowSuggestion returns an empty URL on exhaustion; the client renders
	// a placeholder icon.
	FlowSuggestion Flow = iota
	// FlowDeepDive returns a deterministic seeded placeholder image URL.
	FlowDeepDive
)

// Open Library serves a tiny placeholder image for unknown ISBNs; anything
// at or below this size is treated as missing.
const placeholderByteThreshold = 1000

// Book carries the fields cover resolution can key on. ISBN may be empty.
type Book struct {
	Title       string
	Author      string
	ISBN        string
	Description string
}

// Resolver resolves cover URLs. The zero base URLs point at Open Library;
// tests override them.
type Resolver struct {
	HTTPClient *http.Client
	Images     llm.ImageGenerator

	CoversBaseURL string
	SearchBaseURL string
}

// NewResolver creates a Resolver backed by Open Library and the given image
// generator. A nil generator skips the generation stage.
func NewResolver(images llm.ImageGenerator) *Resolver {
	return &Resolver{
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		Images:        images,
		CoversBaseURL: "https://covers.openlibrary.org",
		SearchBaseURL: "https://openlibrary.org",
	}
}

// Resolve walks the fallback chain and returns the first usable image URL.
// It never returns an error; total failure yields the flow's terminal
// fallback.
func (r *Resolver) Resolve(ctx context.Context, book Book, flow Flow) string {
	if book.ISBN != "" {
		coverURL := fmt.Sprintf("%s/b/isbn/%s-L.jpg", r.CoversBaseURL, url.PathEscape(CleanISBN(book.ISBN)))
		if r.probeImage(ctx, coverURL) {
			return coverURL
		}
		slog.Debug("No cover for ISBN, falling back", "isbn", book.ISBN, "title", book.Title)
	}

	if r.Images != nil {
		dataURL, err := r.Images.GenerateCoverImage(ctx, book.Title, book.Description)
		if err == nil {
			return dataURL
		}
		slog.Warn("Cover generation failed", "title", book.Title, "error", err)
	}

	if coverURL := r.searchCover(ctx, book.Title, book.Author); coverURL != "" {
		return coverURL
	}

	if flow == FlowDeepDive {
		return fmt.Sprintf("https://picsum.photos/seed/%s/300/450", url.QueryEscape(book.Title))
	}
	return ""
}

// probeImage checks that a cover URL serves a real image rather than the
// catalog's known-small placeholder.
func (r *Resolver) probeImage(ctx context.Context, coverURL string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, coverURL, nil)
	if err != nil {
		return false
	}

	resp, err := r.HTTPClient.Do(req)
	if err != nil {
		slog.Debug("Cover probe failed", "url", coverURL, "error", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return false
	}
	return len(imageData) > placeholderByteThreshold
}

// searchCover tries up to three fuzzy keyword queries against the catalog
// search endpoint, accepting the first candidate with a cover whose title is
// a case-insensitive substring match (either direction) of the requested
// title.
func (r *Resolver) searchCover(ctx context.Context, title, author string) string {
	queries := []string{
		title + " " + author,
		title,
		author + " " + title,
	}

	for _, q := range queries {
		coverID, ok := r.searchOnce(ctx, q, title)
		if ok {
			return fmt.Sprintf("%s/b/id/%d-L.jpg", r.CoversBaseURL, coverID)
		}
	}
	return ""
}

func (r *Resolver) searchOnce(ctx context.Context, query, wantTitle string) (int64, bool) {
	searchURL := fmt.Sprintf("%s/search.json?q=%s&fields=cover_i,title,author_name&limit=5",
		r.SearchBaseURL, url.QueryEscape(strings.TrimSpace(query)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return 0, false
	}

	resp, err := r.HTTPClient.Do(req)
	if err != nil {
		slog.Debug("Catalog search failed", "query", query, "error", err)
		return 0, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, false
	}

	var result struct {
		Docs []struct {
			CoverID int64  `json:"cover_i"`
			Title   string `json:"title"`
		} `json:"docs"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		slog.Debug("Failed to decode catalog search response", "query", query, "error", err)
		return 0, false
	}

	want := strings.ToLower(wantTitle)
	for _, doc := range result.Docs {
		if doc.CoverID == 0 {
			continue
		}
		got := strings.ToLower(doc.Title)
		if strings.Contains(got, want) || strings.Contains(want, got) {
			return doc.CoverID, true
		}
	}
	return 0, false
}

// CleanISBN removes hyphens and surrounding whitespace.
func CleanISBN(isbn string) string {
	return strings.ReplaceAll(strings.TrimSpace(isbn), "-", "")
}
