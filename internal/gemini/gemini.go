package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/flashclev/flashclev/internal/models"
)

// Client wraps one credentialed Gemini API client. A process typically holds
// several of these (one per configured API key) and rotates across them.
type Client struct {
	genai      *genai.Client
	textModel  string
	imageModel string
}

// New creates a Client for a single API key.
func New(ctx context.Context, apiKey, textModel, imageModel string) (*Client, error) {
	c, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create new gemini client: %w", err)
	}
	return &Client{
		genai:      c,
		textModel:  textModel,
		imageModel: imageModel,
	}, nil
}

// NewPool creates one Client per API key.
func NewPool(ctx context.Context, apiKeys []string, textModel, imageModel string) ([]*Client, error) {
	pool := make([]*Client, 0, len(apiKeys))
	for i, key := range apiKeys {
		c, err := New(ctx, key, textModel, imageModel)
		if err != nil {
			return nil, fmt.Errorf("failed to create gemini client %d: %w", i, err)
		}
		pool = append(pool, c)
	}
	return pool, nil
}

// Close releases the underlying API client.
func (c *Client) Close() error {
	return c.genai.Close()
}

// SuggestBooks asks the model for count books relevant to goal, excluding
// titles the user has already seen. The response is constrained by a
// structured-output schema and validated against it before unmarshalling.
func (c *Client) SuggestBooks(ctx context.Context, goal string, excludeTitles []string, count int) ([]models.BookSuggestion, error) {
	prompt := fmt.Sprintf(`Based on the goal %q, suggest %d self-help or relevant books. For each book, provide a title, author, a 13-digit ISBN (with no hyphens, crucial for cover fetching), a concise description (1-2 sentences), a list of 3-4 key takeaways, and a list of 2-3 expected outcomes after reading.`, goal, count)
	if len(excludeTitles) > 0 {
		prompt += fmt.Sprintf(" Do not suggest any of the following books, as the user has already seen them: %s.", strings.Join(excludeTitles, ", "))
	}

	model := c.genai.GenerativeModel(c.textModel)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = suggestionResponseSchema()

	text, err := c.generateText(ctx, model, prompt)
	if err != nil {
		return nil, err
	}

	if err := validateSuggestions(text); err != nil {
		return nil, err
	}

	var suggestions []models.BookSuggestion
	if err := json.Unmarshal([]byte(text), &suggestions); err != nil {
		return nil, fmt.Errorf("failed to parse suggestions: %w", err)
	}
	return suggestions, nil
}

// BookDetails asks the model to normalize a free-text book name into its
// corrected title, primary author and main chapters.
func (c *Client) BookDetails(ctx context.Context, bookName string) (models.BookDetails, error) {
	prompt := fmt.Sprintf(`Analyze the book title %q. Provide its accurately corrected official title, primary author, and a list of its main chapters or sections.`, bookName)

	model := c.genai.GenerativeModel(c.textModel)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = bookDetailsSchema()

	text, err := c.generateText(ctx, model, prompt)
	if err != nil {
		return models.BookDetails{}, err
	}

	var details models.BookDetails
	if err := json.Unmarshal([]byte(text), &details); err != nil {
		return models.BookDetails{}, fmt.Errorf("failed to parse book details: %w", err)
	}
	if details.Title == "" || details.Author == "" || len(details.Chapters) == 0 {
		return models.BookDetails{}, fmt.Errorf("incomplete book details returned for %q", bookName)
	}
	return details, nil
}

// GenerateCoverImage asks the image model for an abstract cover and returns
// it as a base64 data URL.
func (c *Client) GenerateCoverImage(ctx context.Context, title, description string) (string, error) {
	prompt := fmt.Sprintf(`Generate a minimalist, abstract book cover for a book titled %q. The book is about: %q. The cover should be symbolic and visually striking, avoiding literal text or representations of people. Use a sophisticated and modern color palette. Focus on concept, not detail.`, title, description)

	model := c.genai.GenerativeModel(c.imageModel)
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate cover image: %w", err)
	}

	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if blob, ok := part.(genai.Blob); ok {
				mime := blob.MIMEType
				if mime == "" {
					mime = "image/png"
				}
				return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(blob.Data)), nil
			}
		}
	}
	return "", fmt.Errorf("no image data found in gemini response")
}

func (c *Client) generateText(ctx context.Context, model *genai.GenerativeModel, prompt string) (string, error) {
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	return responseText(resp)
}
