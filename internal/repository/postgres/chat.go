package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/maggiegpt/server/internal/model"
)

var _ model.ChatStore = (*ChatRepository)(nil)

// ChatRepository stores one ledger row per user. Session partitions are
// kept as jsonb documents; the version column backs the compare-and-swap
// in Update.
type ChatRepository struct {
	db *Connection
}

func NewChatRepository(db *Connection) *ChatRepository {
	return &ChatRepository{
		db: db,
	}
}

func (r *ChatRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (model.Chat, error) {
	var chat model.Chat
	query := `SELECT user_id, sessions, history, version, created_at, updated_at
			  FROM chats WHERE user_id = $1`

	err := r.db.QueryRow(ctx, query, userID).Scan(
		&chat.UserID, &chat.Sessions, &chat.History, &chat.Version,
		&chat.CreatedAt, &chat.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Chat{}, model.ErrNotFound
		}
		return model.Chat{}, fmt.Errorf("failed to get chat ledger: %w", err)
	}

	return chat, nil
}

func (r *ChatRepository) Create(ctx context.Context, chat model.Chat) (model.Chat, error) {
	query := `INSERT INTO chats (user_id, sessions, history, version, created_at, updated_at)
			  VALUES ($1, $2, $3, 1, $4, $5)
			  RETURNING user_id, sessions, history, version, created_at, updated_at`

	var savedChat model.Chat
	err := r.db.QueryRow(ctx, query,
		chat.UserID, normalizeSessions(chat.Sessions), normalizeSessions(chat.History),
		chat.CreatedAt, chat.UpdatedAt,
	).Scan(
		&savedChat.UserID, &savedChat.Sessions, &savedChat.History, &savedChat.Version,
		&savedChat.CreatedAt, &savedChat.UpdatedAt,
	)
	if err != nil {
		return model.Chat{}, fmt.Errorf("failed to create chat ledger: %w", err)
	}

	return savedChat, nil
}

// Update writes the ledger guarded by its version: the row is replaced
// only when the stored version still matches the one the caller read.
// A missed match reports ErrVersionConflict so the caller can reload
// and retry.
func (r *ChatRepository) Update(ctx context.Context, chat model.Chat) (model.Chat, error) {
	query := `UPDATE chats
			  SET sessions = $2, history = $3, version = version + 1, updated_at = $4
			  WHERE user_id = $1 AND version = $5
			  RETURNING user_id, sessions, history, version, created_at, updated_at`

	var savedChat model.Chat
	err := r.db.QueryRow(ctx, query,
		chat.UserID, normalizeSessions(chat.Sessions), normalizeSessions(chat.History),
		chat.UpdatedAt, chat.Version,
	).Scan(
		&savedChat.UserID, &savedChat.Sessions, &savedChat.History, &savedChat.Version,
		&savedChat.CreatedAt, &savedChat.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Chat{}, model.ErrVersionConflict
		}
		return model.Chat{}, fmt.Errorf("failed to update chat ledger: %w", err)
	}

	return savedChat, nil
}

// normalizeSessions keeps the jsonb columns as arrays: a nil slice would
// otherwise serialize to SQL NULL.
func normalizeSessions(sessions []model.Session) []model.Session {
	if sessions == nil {
		return []model.Session{}
	}
	return sessions
}
