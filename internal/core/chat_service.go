// Package core implements the conversation turn workflow: persist the user
// message, resolve the persona, compose the prompt, invoke generation, and
// persist the AI reply.
package core

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/wanasa-app/wanasa/internal/ai"
	"github.com/wanasa-app/wanasa/internal/store"
)

// DefaultPersona is used when a user has no stored persona prompt.
const DefaultPersona = "شخصية ودودة ومرحة"

var (
	ErrChatNotFound  = errors.New("chat not found")
	ErrChatForbidden = errors.New("chat belongs to another user")
	ErrEmptyContent  = errors.New("message content cannot be empty")
)

// Turn is one user-message-plus-AI-reply unit.
type Turn struct {
	UserMessage store.Message `json:"user_message"`
	AIMessage   store.Message `json:"ai_message"`
}

type ChatService struct {
	store    *store.Store
	gen      ai.Generator
	composer ai.Composer
	logger   *zap.Logger
}

func NewChatService(st *store.Store, gen ai.Generator, composer ai.Composer, logger *zap.Logger) *ChatService {
	return &ChatService{
		store:    st,
		gen:      gen,
		composer: composer,
		logger:   logger,
	}
}

// PostMessage runs one conversation turn. The user message is durable before
// generation starts, and a generation failure is persisted as the AI reply
// content rather than failing the turn. Nothing is rolled back or retried.
func (s *ChatService) PostMessage(ctx context.Context, userID, chatID int64, content, imagePath string) (*Turn, error) {
	if content == "" {
		return nil, ErrEmptyContent
	}

	// Verify chat exists and belongs to the caller before any write.
	ownerID, err := s.store.ChatOwner(chatID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrChatNotFound
		}
		return nil, fmt.Errorf("failed to verify chat: %w", err)
	}
	if ownerID != userID {
		return nil, ErrChatForbidden
	}

	userMsg := store.Message{
		ChatID:  chatID,
		UserID:  &userID,
		Content: content,
	}
	if imagePath != "" {
		userMsg.Image = &imagePath
	}
	if err := s.store.CreateMessage(&userMsg); err != nil {
		return nil, fmt.Errorf("failed to store user message: %w", err)
	}

	persona := s.ResolvePersona(userID)
	prompt := s.composer.Compose(persona, content)

	reply, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		s.logger.Error("generation failed, persisting diagnostic reply",
			zap.Int64("chat_id", chatID), zap.Error(err))
		reply = ai.DiagnosticReply(err)
	}

	aiMsg := store.Message{
		ChatID:  chatID,
		UserID:  nil,
		AI:      true,
		Content: reply,
	}
	if err := s.store.CreateMessage(&aiMsg); err != nil {
		return nil, fmt.Errorf("failed to store AI message: %w", err)
	}

	return &Turn{UserMessage: userMsg, AIMessage: aiMsg}, nil
}

// ResolvePersona returns the user's stored persona prompt, or the default
// when none is set. Absence is never an error.
func (s *ChatService) ResolvePersona(userID int64) string {
	status, err := s.store.PersonaStatusByUserID(userID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.logger.Warn("persona lookup failed, using default", zap.Int64("user_id", userID), zap.Error(err))
		}
		return DefaultPersona
	}
	if status.PersonaPrompt == "" {
		return DefaultPersona
	}
	return status.PersonaPrompt
}
