// internal/chat/service.go
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"travel-planner/internal/common/logger"
	"travel-planner/internal/genai"
	"travel-planner/internal/models"
)

const systemPrompt = "You are a helpful travel assistant."

const openingTemplate = `You are given a detailed itinerary and a conversation message. You need to respond to the conversation message based on the itinerary.
The itinerary is: %s
The human message is: %s`

type Service struct {
	store  Store
	gen    genai.Generator
	now    func() time.Time
	newID  func() string
	logger logger.Logger
}

func NewService(store Store, gen genai.Generator, log logger.Logger) *Service {
	return &Service{
		store: store,
		gen:   gen,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
		logger: log.With(map[string]interface{}{
			"component": "chat",
		}),
	}
}

// Start opens a session about itinerary and answers the first message.
func (s *Service) Start(ctx context.Context, itinerary, message string) (*models.ChatResponse, error) {
	chatID := s.newID()
	opening := []models.ChatMessage{
		s.message(models.RoleSystem, systemPrompt),
		s.message(models.RoleHuman, fmt.Sprintf(openingTemplate, itinerary, message)),
	}
	if err := s.store.Create(ctx, chatID, opening...); err != nil {
		return nil, err
	}

	reply, err := s.reply(ctx, opening)
	if err != nil {
		s.logger.Error("chat start failed", map[string]interface{}{
			"chatId": chatID,
			"error":  err.Error(),
		})
		return nil, err
	}
	if err := s.store.Append(ctx, chatID, reply); err != nil {
		return nil, err
	}

	s.logger.Info("chat started", map[string]interface{}{"chatId": chatID})
	return &models.ChatResponse{ChatID: chatID, Response: reply}, nil
}

// Keep continues an existing session.
func (s *Service) Keep(ctx context.Context, chatID, message string) (*models.ChatResponse, error) {
	history, err := s.store.Load(ctx, chatID)
	if err != nil {
		return nil, err
	}

	human := s.message(models.RoleHuman, message)
	reply, err := s.reply(ctx, append(history, human))
	if err != nil {
		s.logger.Error("chat reply failed", map[string]interface{}{
			"chatId": chatID,
			"error":  err.Error(),
		})
		return nil, err
	}
	if err := s.store.Append(ctx, chatID, human, reply); err != nil {
		return nil, err
	}

	s.logger.Info("chat continued", map[string]interface{}{
		"chatId":   chatID,
		"messages": len(history) + 2,
	})
	return &models.ChatResponse{ChatID: chatID, Response: reply}, nil
}

// Get returns the full history of a session.
func (s *Service) Get(ctx context.Context, chatID string) (*models.ChatHistory, error) {
	history, err := s.store.Load(ctx, chatID)
	if err != nil {
		return nil, err
	}
	return &models.ChatHistory{ChatID: chatID, Messages: history}, nil
}

func (s *Service) reply(ctx context.Context, history []models.ChatMessage) (models.ChatMessage, error) {
	text, err := s.gen.Generate(ctx, toRequest(history))
	if err != nil {
		return models.ChatMessage{}, err
	}
	return s.message(models.RoleAssistant, strings.TrimSpace(text)), nil
}

func (s *Service) message(role, content string) models.ChatMessage {
	return models.ChatMessage{Role: role, Content: content, CreatedAt: s.now()}
}

// toRequest moves system messages into the request's system prompt.
func toRequest(history []models.ChatMessage) genai.Request {
	var req genai.Request
	var system []string
	for _, m := range history {
		switch m.Role {
		case models.RoleSystem:
			system = append(system, m.Content)
		case models.RoleAssistant:
			req.Messages = append(req.Messages, genai.Message{Role: genai.RoleAssistant, Content: m.Content})
		default:
			req.Messages = append(req.Messages, genai.Message{Role: genai.RoleUser, Content: m.Content})
		}
	}
	req.System = strings.Join(system, "\n\n")
	return req
}
