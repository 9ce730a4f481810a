// Package chat keeps follow-up conversations about a generated itinerary.
package chat

import (
	"context"
	"sync"

	apperrors "travel-planner/internal/common/errors"
	"travel-planner/internal/models"
)

// ErrChatNotFound is matched by errors.Is for any unknown session.
var ErrChatNotFound = apperrors.ErrChatNotFound

// Store persists the ordered message history of each chat session.
// Load and Append return a CHAT_NOT_FOUND error for unknown IDs.
type Store interface {
	Create(ctx context.Context, chatID string, msgs ...models.ChatMessage) error
	Append(ctx context.Context, chatID string, msgs ...models.ChatMessage) error
	Load(ctx context.Context, chatID string) ([]models.ChatMessage, error)
}

// MemoryStore keeps sessions in process memory for the life of the process.
type MemoryStore struct {
	mu    sync.RWMutex
	chats map[string][]models.ChatMessage
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{chats: make(map[string][]models.ChatMessage)}
}

func (s *MemoryStore) Create(ctx context.Context, chatID string, msgs ...models.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chats[chatID] = append([]models.ChatMessage(nil), msgs...)
	return nil
}

func (s *MemoryStore) Append(ctx context.Context, chatID string, msgs ...models.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	history, ok := s.chats[chatID]
	if !ok {
		return apperrors.NewChatNotFoundError(chatID)
	}
	s.chats[chatID] = append(history, msgs...)
	return nil
}

func (s *MemoryStore) Load(ctx context.Context, chatID string) ([]models.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	history, ok := s.chats[chatID]
	if !ok {
		return nil, apperrors.NewChatNotFoundError(chatID)
	}
	return append([]models.ChatMessage(nil), history...), nil
}
