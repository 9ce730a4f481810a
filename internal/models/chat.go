// internal/models/chat.go
package models

import "time"

// Chat message roles.
const (
	RoleSystem    = "system"
	RoleHuman     = "human"
	RoleAssistant = "ai"
)

type ChatMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type ChatRequest struct {
	Itinerary    string `json:"itinerary"`
	HumanMessage string `json:"human_message"`
}

type KeepChatRequest struct {
	ChatID       string `json:"chat_id"`
	HumanMessage string `json:"human_message"`
}

type ChatResponse struct {
	ChatID   string      `json:"chat_id"`
	Response ChatMessage `json:"response"`
}

type ChatHistory struct {
	ChatID   string        `json:"chat_id"`
	Messages []ChatMessage `json:"messages"`
}
