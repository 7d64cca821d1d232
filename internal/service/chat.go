package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/maggiegpt/server/internal/logger"
	"github.com/maggiegpt/server/internal/model"
	"github.com/maggiegpt/server/internal/provider"
)

// ledgerRetries bounds the reload-and-retry loop on version conflicts.
const ledgerRetries = 3

// Chat owns the per-user session ledger and orchestrates provider calls.
type Chat struct {
	chatStore model.ChatStore
	generator model.Generator
	quota     model.QuotaTracker
	logger    *logger.Logger
}

// NewChat creates the chat service.
func NewChat(chatStore model.ChatStore, generator model.Generator, quota model.QuotaTracker, logger *logger.Logger) *Chat {
	return &Chat{
		chatStore: chatStore,
		generator: generator,
		quota:     quota,
		logger:    logger,
	}
}

// ChatReply is the outcome of a chat turn.
type ChatReply struct {
	Reply     string
	SessionID string
	ImageURL  string
	// GuestRemaining is the remaining guest allowance; meaningful only
	// for guest turns.
	GuestRemaining int
}

// SendMessage runs one authenticated chat turn: it calls the generation
// provider, then appends the user prompt and the reply to the named
// active session, or to a freshly created one when sessionID is empty.
// A sessionID that is not in the active partition fails with ErrNotFound.
func (c *Chat) SendMessage(ctx context.Context, userID uuid.UUID, sessionID, prompt string) (ChatReply, error) {
	if prompt == "" {
		return ChatReply{}, model.ErrMissingFields
	}

	reply, imageURL, err := c.generate(ctx, prompt)
	if err != nil {
		return ChatReply{}, err
	}

	content := reply
	if imageURL != "" {
		content = imageURL
	}

	effectiveID := sessionID
	createIfMissing := sessionID == ""

	err = c.mutateLedger(ctx, userID, createIfMissing, func(chat *model.Chat) error {
		now := time.Now()
		turn := []model.Message{
			{Role: model.RoleUser, Content: prompt, Timestamp: now},
			{Role: model.RoleAI, Content: content, Timestamp: now},
		}

		if sessionID != "" {
			idx := chat.FindSession(sessionID)
			if idx == -1 {
				return model.ErrNotFound
			}
			chat.Sessions[idx].Messages = append(chat.Sessions[idx].Messages, turn...)
			chat.Sessions[idx].UpdatedAt = now
			return nil
		}

		effectiveID = uuid.NewString()
		chat.Sessions = append(chat.Sessions, model.Session{
			SessionID: effectiveID,
			Messages:  turn,
			UpdatedAt: now,
		})
		return nil
	})
	if err != nil {
		return ChatReply{}, err
	}

	return ChatReply{Reply: reply, SessionID: effectiveID, ImageURL: imageURL}, nil
}

// SendGuestMessage runs one unauthenticated chat turn. The quota is
// checked and consumed before any provider call, and the conversation is
// never persisted.
func (c *Chat) SendGuestMessage(ctx context.Context, clientKey, prompt string) (ChatReply, error) {
	if prompt == "" {
		return ChatReply{}, model.ErrMissingFields
	}

	remaining, err := c.quota.Allow(ctx, clientKey)
	if err != nil {
		if errors.Is(err, model.ErrGuestLimitReached) {
			c.logger.Info("Chat service: guest limit reached", "client", clientKey)
			return ChatReply{}, model.ErrGuestLimitReached
		}
		return ChatReply{}, fmt.Errorf("failed to check guest quota: %w", err)
	}

	reply, imageURL, err := c.generate(ctx, prompt)
	if err != nil {
		return ChatReply{}, err
	}

	return ChatReply{Reply: reply, ImageURL: imageURL, GuestRemaining: remaining}, nil
}

// StartNewChat archives every active session into history and creates
// one empty active session, returning its id. Archived sessions remain
// readable but stop receiving implicit appends.
func (c *Chat) StartNewChat(ctx context.Context, userID uuid.UUID) (string, error) {
	sessionID := uuid.NewString()

	err := c.mutateLedger(ctx, userID, true, func(chat *model.Chat) error {
		chat.History = append(chat.History, chat.Sessions...)
		chat.Sessions = []model.Session{{
			SessionID: sessionID,
			Messages:  []model.Message{},
			UpdatedAt: time.Now(),
		}}
		return nil
	})
	if err != nil {
		return "", err
	}

	c.logger.Info("Chat service: new chat started", "user_id", userID, "session_id", sessionID)

	return sessionID, nil
}

// ListSessions returns the union of active and archived sessions sorted
// by last update, newest first. A user without a ledger gets an empty
// list.
func (c *Chat) ListSessions(ctx context.Context, userID uuid.UUID) ([]model.Session, error) {
	chat, err := c.chatStore.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return []model.Session{}, nil
		}
		return nil, fmt.Errorf("failed to get chat ledger: %w", err)
	}

	combined := make([]model.Session, 0, len(chat.Sessions)+len(chat.History))
	combined = append(combined, chat.Sessions...)
	combined = append(combined, chat.History...)

	for i := range combined {
		if combined[i].UpdatedAt.IsZero() && len(combined[i].Messages) > 0 {
			combined[i].UpdatedAt = combined[i].Messages[len(combined[i].Messages)-1].Timestamp
		}
	}

	sort.SliceStable(combined, func(i, j int) bool {
		return combined[i].UpdatedAt.After(combined[j].UpdatedAt)
	})

	return combined, nil
}

// DeleteSession removes the session from whichever partition holds it.
// An id present in neither fails with ErrNotFound and changes nothing.
func (c *Chat) DeleteSession(ctx context.Context, userID uuid.UUID, sessionID string) error {
	return c.mutateLedger(ctx, userID, false, func(chat *model.Chat) error {
		sessions, removedActive := removeSession(chat.Sessions, sessionID)
		history, removedArchived := removeSession(chat.History, sessionID)
		if !removedActive && !removedArchived {
			return model.ErrNotFound
		}
		chat.Sessions = sessions
		chat.History = history
		return nil
	})
}

// ClearAll empties both partitions. A user without a ledger is a no-op.
func (c *Chat) ClearAll(ctx context.Context, userID uuid.UUID) error {
	err := c.mutateLedger(ctx, userID, false, func(chat *model.Chat) error {
		chat.Sessions = nil
		chat.History = nil
		return nil
	})
	if errors.Is(err, model.ErrNotFound) {
		return nil
	}
	return err
}

func (c *Chat) generate(ctx context.Context, prompt string) (reply, imageURL string, err error) {
	if provider.IsImagePrompt(prompt) {
		imageURL, err = c.generator.GenerateImage(ctx, prompt)
		if err != nil {
			return "", "", fmt.Errorf("failed to generate image: %w", err)
		}
		return fmt.Sprintf("Here is the image for your prompt: %s", prompt), imageURL, nil
	}

	reply, err = c.generator.GenerateText(ctx, prompt)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate reply: %w", err)
	}
	return reply, "", nil
}

// mutateLedger runs a load-mutate-save cycle with optimistic concurrency:
// on ErrVersionConflict the ledger is reloaded and the mutation replayed,
// so concurrent writers against the same user never silently drop each
// other's updates. A missing ledger either aborts with ErrNotFound or is
// created empty, per createIfMissing.
func (c *Chat) mutateLedger(ctx context.Context, userID uuid.UUID, createIfMissing bool, fn func(*model.Chat) error) error {
	for attempt := 0; attempt < ledgerRetries; attempt++ {
		chat, err := c.chatStore.GetByUserID(ctx, userID)
		created := false
		if err != nil {
			if !errors.Is(err, model.ErrNotFound) {
				return fmt.Errorf("failed to get chat ledger: %w", err)
			}
			if !createIfMissing {
				return model.ErrNotFound
			}
			now := time.Now()
			chat = model.Chat{UserID: userID, CreatedAt: now, UpdatedAt: now}
			created = true
		}

		if err := fn(&chat); err != nil {
			return err
		}
		chat.UpdatedAt = time.Now()

		if created {
			if _, err := c.chatStore.Create(ctx, chat); err != nil {
				return fmt.Errorf("failed to create chat ledger: %w", err)
			}
			return nil
		}

		_, err = c.chatStore.Update(ctx, chat)
		if err == nil {
			return nil
		}
		if !errors.Is(err, model.ErrVersionConflict) {
			return fmt.Errorf("failed to update chat ledger: %w", err)
		}
		c.logger.Debug("Chat service: ledger version conflict, retrying", "user_id", userID)
	}

	return fmt.Errorf("failed to update chat ledger: %w", model.ErrVersionConflict)
}

func removeSession(sessions []model.Session, sessionID string) ([]model.Session, bool) {
	for i, s := range sessions {
		if s.SessionID == sessionID {
			return append(sessions[:i:i], sessions[i+1:]...), true
		}
	}
	return sessions, false
}
