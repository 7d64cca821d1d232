package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Message roles. Replies use "ai" rather than "assistant" to match the
// persisted record layout consumed by the frontend.
const (
	RoleUser = "user"
	RoleAI   = "ai"
)

// ChatStore defines persistence operations for per-user chat ledgers.
// Update performs a compare-and-swap on Version and returns
// ErrVersionConflict when the stored ledger has moved on; callers are
// expected to reload and retry.
type ChatStore interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (Chat, error)
	Create(ctx context.Context, chat Chat) (Chat, error)
	Update(ctx context.Context, chat Chat) (Chat, error)
}

// Message is a single chat turn.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is one conversation: an opaque id and an ordered message list.
// Message timestamps are non-decreasing.
type Session struct {
	SessionID string    `json:"sessionId"`
	Messages  []Message `json:"messages"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Chat is the per-user session ledger. Sessions holds conversations still
// eligible for implicit append; History holds archived ones. A session id
// appears in at most one of the two.
type Chat struct {
	UserID    uuid.UUID
	Sessions  []Session
	History   []Session
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FindSession returns the index of the session with the given id in the
// active partition, or -1.
func (c *Chat) FindSession(sessionID string) int {
	for i, s := range c.Sessions {
		if s.SessionID == sessionID {
			return i
		}
	}
	return -1
}
