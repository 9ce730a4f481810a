// internal/chat/redis.go
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "travel-planner/internal/common/errors"
	"travel-planner/internal/models"
)

const redisKeyPrefix = "travel:chat:"

// RedisStore keeps each session as a list of JSON-encoded messages.
type RedisStore struct {
	rdb redis.Cmdable
	ttl time.Duration
}

// NewRedisStore builds a store whose sessions expire ttl after their last write. Zero keeps them forever.
func NewRedisStore(rdb redis.Cmdable, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func RedisKey(chatID string) string {
	return redisKeyPrefix + chatID
}

func (s *RedisStore) Create(ctx context.Context, chatID string, msgs ...models.ChatMessage) error {
	values, err := encodeMessages(msgs)
	if err != nil {
		return apperrors.NewChatStoreFailedError(err)
	}

	key := RedisKey(chatID)
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.RPush(ctx, key, values...)
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
		return nil
	})
	if err != nil {
		return apperrors.NewChatStoreFailedError(fmt.Errorf("create %s: %w", key, err))
	}
	return nil
}

func (s *RedisStore) Append(ctx context.Context, chatID string, msgs ...models.ChatMessage) error {
	key := RedisKey(chatID)
	n, err := s.rdb.Exists(ctx, key).Result()
	if err != nil {
		return apperrors.NewChatStoreFailedError(fmt.Errorf("exists %s: %w", key, err))
	}
	if n == 0 {
		return apperrors.NewChatNotFoundError(chatID)
	}

	values, err := encodeMessages(msgs)
	if err != nil {
		return apperrors.NewChatStoreFailedError(err)
	}
	if err := s.rdb.RPush(ctx, key, values...).Err(); err != nil {
		return apperrors.NewChatStoreFailedError(fmt.Errorf("append %s: %w", key, err))
	}
	if s.ttl > 0 {
		if err := s.rdb.Expire(ctx, key, s.ttl).Err(); err != nil {
			return apperrors.NewChatStoreFailedError(fmt.Errorf("expire %s: %w", key, err))
		}
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, chatID string) ([]models.ChatMessage, error) {
	key := RedisKey(chatID)
	raw, err := s.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, apperrors.NewChatStoreFailedError(fmt.Errorf("load %s: %w", key, err))
	}
	if len(raw) == 0 {
		return nil, apperrors.NewChatNotFoundError(chatID)
	}

	msgs := make([]models.ChatMessage, 0, len(raw))
	for _, item := range raw {
		var msg models.ChatMessage
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			return nil, apperrors.NewChatStoreFailedError(fmt.Errorf("decode %s: %w", key, err))
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

func encodeMessages(msgs []models.ChatMessage) ([]interface{}, error) {
	values := make([]interface{}, 0, len(msgs))
	for _, m := range msgs {
		data, err := json.Marshal(m)
		if err != nil {
			return nil, fmt.Errorf("encode message: %w", err)
		}
		values = append(values, string(data))
	}
	return values, nil
}
