// internal/chat/postgres.go
package chat

import (
	"context"
	"database/sql"
	"fmt"

	apperrors "travel-planner/internal/common/errors"
	"travel-planner/internal/models"
)

// Schema creates the table PostgresStore writes to.
const Schema = `
CREATE TABLE IF NOT EXISTS chat_messages (
	id         BIGSERIAL PRIMARY KEY,
	chat_id    TEXT        NOT NULL,
	role       TEXT        NOT NULL,
	content    TEXT        NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_chat_messages_chat_id ON chat_messages (chat_id, id);`

const insertMessage = `INSERT INTO chat_messages (chat_id, role, content, created_at) VALUES ($1, $2, $3, $4)`

// PostgresStore keeps one row per message; insertion order is the id order.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the chat_messages table if it is missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("create chat schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, chatID string, msgs ...models.ChatMessage) error {
	if err := s.insert(ctx, chatID, msgs); err != nil {
		return apperrors.NewChatStoreFailedError(err)
	}
	return nil
}

func (s *PostgresStore) Append(ctx context.Context, chatID string, msgs ...models.ChatMessage) error {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM chat_messages WHERE chat_id = $1)`, chatID,
	).Scan(&exists)
	if err != nil {
		return apperrors.NewChatStoreFailedError(fmt.Errorf("check chat %s: %w", chatID, err))
	}
	if !exists {
		return apperrors.NewChatNotFoundError(chatID)
	}

	if err := s.insert(ctx, chatID, msgs); err != nil {
		return apperrors.NewChatStoreFailedError(err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, chatID string) ([]models.ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT role, content, created_at FROM chat_messages WHERE chat_id = $1 ORDER BY id`, chatID)
	if err != nil {
		return nil, apperrors.NewChatStoreFailedError(fmt.Errorf("load chat %s: %w", chatID, err))
	}
	defer rows.Close()

	var msgs []models.ChatMessage
	for rows.Next() {
		var m models.ChatMessage
		if err := rows.Scan(&m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, apperrors.NewChatStoreFailedError(fmt.Errorf("scan chat %s: %w", chatID, err))
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewChatStoreFailedError(fmt.Errorf("iterate chat %s: %w", chatID, err))
	}
	if len(msgs) == 0 {
		return nil, apperrors.NewChatNotFoundError(chatID)
	}
	return msgs, nil
}

func (s *PostgresStore) insert(ctx context.Context, chatID string, msgs []models.ChatMessage) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, m := range msgs {
		if _, err := tx.ExecContext(ctx, insertMessage, chatID, m.Role, m.Content, m.CreatedAt); err != nil {
			return fmt.Errorf("insert message: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
