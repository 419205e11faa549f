package core

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mindrift/backend/internal/store"
)

const coachSystemInstruction = "Role: Emotion-oriented diary coach. " +
	"Goal: Identify daily emotions and events of user %s and obtain information for writing a diary. " +
	"Method: Empathy, emotional bond and question-oriented responses, no short answers and machine tone."

// ChatService runs one chat turn: persist the user message, ask the model for
// a coach reply over the full prior history, persist the reply.
type ChatService struct {
	store  *store.Store
	llm    TextGenerator
	logger *zap.Logger
}

func NewChatService(st *store.Store, llm TextGenerator, logger *zap.Logger) *ChatService {
	return &ChatService{
		store:  st,
		llm:    llm,
		logger: logger,
	}
}

func (s *ChatService) SendMessage(ctx context.Context, userID int64, displayName, content string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", ErrContentRequired
	}

	history, err := s.store.ListMessages(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to load chat history: %w", err)
	}

	turns := make([]Turn, 0, len(history))
	for _, m := range history {
		turns = append(turns, Turn{Role: m.Role, Content: m.Content})
	}

	system := fmt.Sprintf(coachSystemInstruction, displayName)
	reply, err := s.llm.Generate(ctx, system, turns, content)
	if err != nil {
		s.logger.Error("chat completion failed", zap.Int64("user_id", userID), zap.Error(err))
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	userMsg := &store.Message{UserID: userID, Role: "user", Content: content}
	if err := s.store.InsertMessage(ctx, userMsg); err != nil {
		return "", fmt.Errorf("failed to store user message: %w", err)
	}

	assistantMsg := &store.Message{UserID: userID, Role: "assistant", Content: reply}
	if err := s.store.InsertMessage(ctx, assistantMsg); err != nil {
		return "", fmt.Errorf("failed to store assistant message: %w", err)
	}

	return reply, nil
}

func (s *ChatService) ListMessages(ctx context.Context, userID int64) ([]store.Message, error) {
	return s.store.ListMessages(ctx, userID)
}
