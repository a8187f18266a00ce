package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"

	"github.com/flashclev/flashclev/internal/llm"
)

// chatSession adapts a genai chat to llm.ChatSession. The underlying session
// accumulates history server-side; callers only send the next turn.
type chatSession struct {
	chat *genai.ChatSession
}

// StartChat opens a stateful conversation governed by systemInstruction.
func (c *Client) StartChat(systemInstruction string) llm.ChatSession {
	model := c.genai.GenerativeModel(c.textModel)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemInstruction)},
	}
	return &chatSession{chat: model.StartChat()}
}

func (s *chatSession) Send(ctx context.Context, message string) (string, error) {
	resp, err := s.chat.SendMessage(ctx, genai.Text(message))
	if err != nil {
		return "", fmt.Errorf("failed to send chat message: %w", err)
	}
	return responseText(resp)
}

func (s *chatSession) SendStream(ctx context.Context, message string, onFragment func(string)) (string, error) {
	iter := s.chat.SendMessageStream(ctx, genai.Text(message))

	var sb strings.Builder
	for {
		resp, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to stream chat message: %w", err)
		}
		text, err := responseText(resp)
		if err != nil {
			continue
		}
		sb.WriteString(text)
		if onFragment != nil {
			onFragment(text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("empty streamed response from Gemini")
	}
	return sb.String(), nil
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates returned from Gemini")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("empty content returned from Gemini")
	}
	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("unexpected response format from Gemini")
	}
	return sb.String(), nil
}
