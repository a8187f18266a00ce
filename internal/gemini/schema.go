package gemini

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// suggestionResponseSchema constrains the model to an array of complete
// book suggestion objects.
func suggestionResponseSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"title": {
					Type:        genai.TypeString,
					Description: "The title of the book.",
				},
				"author": {
					Type:        genai.TypeString,
					Description: "The author of the book.",
				},
				"isbn": {
					Type:        genai.TypeString,
					Description: "The 13-digit ISBN of the book, without hyphens.",
				},
				"description": {
					Type:        genai.TypeString,
					Description: "A concise 1-2 sentence description of the book.",
				},
				"keyTakeaways": {
					Type:        genai.TypeArray,
					Items:       &genai.Schema{Type: genai.TypeString},
					Description: "A list of 3-4 key takeaways from the book.",
				},
				"outcomes": {
					Type:        genai.TypeArray,
					Items:       &genai.Schema{Type: genai.TypeString},
					Description: "A list of 2-3 expected outcomes after reading the book.",
				},
			},
			Required: []string{"title", "author", "isbn", "description", "keyTakeaways", "outcomes"},
		},
	}
}

// bookDetailsSchema constrains the model to a single normalized book record.
func bookDetailsSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"title": {
				Type:        genai.TypeString,
				Description: "The full title of the book, corrected for any typos.",
			},
			"author": {
				Type:        genai.TypeString,
				Description: "The primary author of the book.",
			},
			"chapters": {
				Type:        genai.TypeArray,
				Items:       &genai.Schema{Type: genai.TypeString},
				Description: "A list of 5-10 key chapters or main sections of the book.",
			},
		},
		Required: []string{"title", "author", "chapters"},
	}
}

// suggestionsJSONSchema mirrors suggestionResponseSchema for validating the
// raw model output before it is unmarshalled. Models occasionally ignore
// response schemas; anything non-conforming is rejected here so the caller
// treats the batch as failed rather than half-parsed.
const suggestionsJSONSchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "properties": {
      "title": {"type": "string"},
      "author": {"type": "string"},
      "isbn": {"type": "string"},
      "description": {"type": "string"},
      "keyTakeaways": {"type": "array", "items": {"type": "string"}},
      "outcomes": {"type": "array", "items": {"type": "string"}}
    },
    "required": ["title", "author", "isbn", "description", "keyTakeaways", "outcomes"]
  }
}`

var suggestionsValidator = jsonschema.MustCompileString("suggestions.json", suggestionsJSONSchema)

func validateSuggestions(text string) error {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("suggestions are not valid JSON: %w", err)
	}
	if err := suggestionsValidator.Validate(v); err != nil {
		return fmt.Errorf("suggestions do not conform to schema: %w", err)
	}
	return nil
}
