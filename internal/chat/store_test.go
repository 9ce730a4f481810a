// internal/chat/store_test.go
package chat

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "travel-planner/internal/common/errors"
	"travel-planner/internal/models"
)

func sampleMessages() []models.ChatMessage {
	return []models.ChatMessage{
		{Role: models.RoleSystem, Content: "You are a helpful travel assistant.", CreatedAt: testNow},
		{Role: models.RoleHuman, Content: "Where should I eat?", CreatedAt: testNow},
	}
}

func assertCode(t *testing.T, err error, code apperrors.ErrorCode) {
	t.Helper()
	stdErr, ok := apperrors.As(err)
	require.True(t, ok, "expected a StandardError, got %v", err)
	assert.Equal(t, code, stdErr.Code)
}

// ---- redis ----

func TestRedisStore_RoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(rdb, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, "abc", sampleMessages()...))
	assert.Equal(t, time.Hour, mr.TTL(RedisKey("abc")))

	reply := models.ChatMessage{Role: models.RoleAssistant, Content: "Try the market.", CreatedAt: testNow}
	require.NoError(t, store.Append(ctx, "abc", reply))

	msgs, err := store.Load(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, append(sampleMessages(), reply), msgs)
}

func TestRedisStore_NotFound(t *testing.T) {
	mr := miniredis.RunT(t)
	store := NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), 0)
	ctx := context.Background()

	_, err := store.Load(ctx, "nope")
	assert.True(t, errors.Is(err, ErrChatNotFound))

	err = store.Append(ctx, "nope", models.ChatMessage{Role: models.RoleHuman})
	assert.True(t, errors.Is(err, ErrChatNotFound))
	assert.False(t, mr.Exists(RedisKey("nope")), "append must not create a session")
}

func TestRedisStore_BackendErrors(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	store := NewRedisStore(rdb, 0)
	ctx := context.Background()

	mock.ExpectLRange(RedisKey("abc"), 0, -1).SetErr(errors.New("connection reset"))
	_, err := store.Load(ctx, "abc")
	assertCode(t, err, apperrors.ErrCodeChatStoreFailed)

	mock.ExpectExists(RedisKey("abc")).SetErr(errors.New("connection reset"))
	err = store.Append(ctx, "abc", models.ChatMessage{})
	assertCode(t, err, apperrors.ErrCodeChatStoreFailed)

	mock.ExpectLRange(RedisKey("abc"), 0, -1).SetVal([]string{"{not json"})
	_, err = store.Load(ctx, "abc")
	assertCode(t, err, apperrors.ErrCodeChatStoreFailed)

	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---- postgres ----

func TestPostgresStore_CreateAndLoad(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgresStore(db)
	ctx := context.Background()

	mock.ExpectBegin()
	for _, m := range sampleMessages() {
		mock.ExpectExec(regexp.QuoteMeta(insertMessage)).
			WithArgs("abc", m.Role, m.Content, m.CreatedAt).
			WillReturnResult(sqlmock.NewResult(1, 1))
	}
	mock.ExpectCommit()
	require.NoError(t, store.Create(ctx, "abc", sampleMessages()...))

	rows := sqlmock.NewRows([]string{"role", "content", "created_at"})
	for _, m := range sampleMessages() {
		rows.AddRow(m.Role, m.Content, m.CreatedAt)
	}
	mock.ExpectQuery(`SELECT role, content, created_at FROM chat_messages WHERE chat_id = \$1 ORDER BY id`).
		WithArgs("abc").
		WillReturnRows(rows)

	msgs, err := store.Load(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, sampleMessages(), msgs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Append(t *testing.T) {
	reply := models.ChatMessage{Role: models.RoleAssistant, Content: "Sure.", CreatedAt: testNow}

	t.Run("existing chat", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM chat_messages WHERE chat_id = \$1\)`).
			WithArgs("abc").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(insertMessage)).
			WithArgs("abc", reply.Role, reply.Content, reply.CreatedAt).
			WillReturnResult(sqlmock.NewResult(3, 1))
		mock.ExpectCommit()

		require.NoError(t, NewPostgresStore(db).Append(context.Background(), "abc", reply))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown chat", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT EXISTS`).
			WithArgs("nope").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		err = NewPostgresStore(db).Append(context.Background(), "nope", reply)
		assert.True(t, errors.Is(err, ErrChatNotFound))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("insert failure rolls back", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT EXISTS`).
			WithArgs("abc").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(insertMessage)).WillReturnError(errors.New("disk full"))
		mock.ExpectRollback()

		err = NewPostgresStore(db).Append(context.Background(), "abc", reply)
		assertCode(t, err, apperrors.ErrCodeChatStoreFailed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresStore_LoadMissingAndFailing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewPostgresStore(db)

	mock.ExpectQuery(`SELECT role, content, created_at FROM chat_messages`).
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows([]string{"role", "content", "created_at"}))
	_, err = store.Load(context.Background(), "nope")
	assert.True(t, errors.Is(err, ErrChatNotFound))

	mock.ExpectQuery(`SELECT role, content, created_at FROM chat_messages`).
		WithArgs("abc").
		WillReturnError(errors.New("connection refused"))
	_, err = store.Load(context.Background(), "abc")
	assertCode(t, err, apperrors.ErrCodeChatStoreFailed)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_EnsureSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS chat_messages`).WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, NewPostgresStore(db).EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
