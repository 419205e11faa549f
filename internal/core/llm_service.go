package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const defaultModelName = "gemini-1.5-flash-latest"

// Turn is one prior exchange in a conversation, role "user" or "assistant".
type Turn struct {
	Role    string
	Content string
}

// TextGenerator is the text-completion collaborator consumed by the chat and
// diary services. history carries the prior turns in order; prompt is the
// final user input.
type TextGenerator interface {
	Generate(ctx context.Context, systemInstruction string, history []Turn, prompt string) (string, error)
}

// LLMService implements TextGenerator against the Gemini API.
type LLMService struct {
	client    *genai.Client
	modelName string
}

func NewLLMService(ctx context.Context, apiKey string) (*LLMService, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &LLMService{
		client:    client,
		modelName: defaultModelName,
	}, nil
}

func (s *LLMService) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

func (s *LLMService) Generate(ctx context.Context, systemInstruction string, history []Turn, prompt string) (string, error) {
	model := s.client.GenerativeModel(s.modelName)

	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemInstruction)},
	}

	maxTokens := int32(800)
	temp := float32(0.7)
	model.GenerationConfig = genai.GenerationConfig{
		MaxOutputTokens: &maxTokens,
		Temperature:     &temp,
	}

	chatSession := model.StartChat()
	chatSession.History = toGenaiHistory(history)

	resp, err := chatSession.SendMessage(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini completion request failed: %w", err)
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from model")
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			responseText.WriteString(string(txt))
		}
	}

	if responseText.Len() == 0 {
		return "", fmt.Errorf("non-text response from model")
	}

	return responseText.String(), nil
}

func toGenaiHistory(history []Turn) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history))
	for _, turn := range history {
		role := "user"
		if turn.Role == "assistant" {
			role = "model"
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(turn.Content)},
		})
	}
	return contents
}
