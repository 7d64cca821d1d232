package handler

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/maggiegpt/server/internal/logger"
	"github.com/maggiegpt/server/internal/model"
	"github.com/maggiegpt/server/internal/service"
)

// ChatService defines the session ledger and message operations.
type ChatService interface {
	SendMessage(ctx context.Context, userID uuid.UUID, sessionID, prompt string) (service.ChatReply, error)
	SendGuestMessage(ctx context.Context, clientKey, prompt string) (service.ChatReply, error)
	StartNewChat(ctx context.Context, userID uuid.UUID) (string, error)
	ListSessions(ctx context.Context, userID uuid.UUID) ([]model.Session, error)
	DeleteSession(ctx context.Context, userID uuid.UUID, sessionID string) error
	ClearAll(ctx context.Context, userID uuid.UUID) error
}

// Chat handles HTTP endpoints for chat messages and session management.
type Chat struct {
	chatService    ChatService
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewChat creates a new Chat handler.
func NewChat(chatService ChatService, contextManager model.ContextManager, logger *logger.Logger) *Chat {
	return &Chat{
		chatService:    chatService,
		contextManager: contextManager,
		logger:         logger,
	}
}

type chatRequest struct {
	Prompt    string `json:"prompt"`
	SessionID string `json:"sessionId"`
}

// SendMessage handles one chat turn. Authenticated callers get their
// conversation appended to the session ledger; guests are served against
// the per-address quota with no persistence.
func (h *Chat) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Prompt is required")
		return
	}

	userID, authenticated := h.contextManager.GetUserIDFromContext(r.Context())

	if !authenticated {
		reply, err := h.chatService.SendGuestMessage(r.Context(), clientKey(r), req.Prompt)
		if err != nil {
			respondError(w, h.logger, err, messageOverrides{missingFields: "Prompt is required"})
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{
			"reply":          reply.Reply,
			"sessionId":      nil,
			"imageUrl":       emptyAsNil(reply.ImageURL),
			"guestRemaining": reply.GuestRemaining,
		})
		return
	}

	reply, err := h.chatService.SendMessage(r.Context(), userID, req.SessionID, req.Prompt)
	if err != nil {
		respondError(w, h.logger, err, messageOverrides{
			missingFields: "Prompt is required",
			notFound:      "Session not found",
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"reply":     reply.Reply,
		"sessionId": reply.SessionID,
		"imageUrl":  emptyAsNil(reply.ImageURL),
	})
}

// StartNewChat archives the active sessions and opens a fresh one.
func (h *Chat) StartNewChat(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.contextManager.GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, h.logger, model.ErrMissingToken, messageOverrides{})
		return
	}

	sessionID, err := h.chatService.StartNewChat(r.Context(), userID)
	if err != nil {
		respondError(w, h.logger, err, messageOverrides{})
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message":   "New chat started",
		"sessionId": sessionID,
	})
}

// History returns every session, active and archived, newest first.
func (h *Chat) History(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.contextManager.GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, h.logger, model.ErrMissingToken, messageOverrides{})
		return
	}

	sessions, err := h.chatService.ListSessions(r.Context(), userID)
	if err != nil {
		respondError(w, h.logger, err, messageOverrides{})
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"chatHistory": sessions})
}

// DeleteSession removes one session by id.
func (h *Chat) DeleteSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.contextManager.GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, h.logger, model.ErrMissingToken, messageOverrides{})
		return
	}

	sessionID := r.PathValue("id")
	if err := h.chatService.DeleteSession(r.Context(), userID, sessionID); err != nil {
		respondError(w, h.logger, err, messageOverrides{notFound: "Session not found"})
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message":   "Session deleted",
		"sessionId": sessionID,
	})
}

// ClearAll removes every session for the user.
func (h *Chat) ClearAll(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.contextManager.GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, h.logger, model.ErrMissingToken, messageOverrides{})
		return
	}

	if err := h.chatService.ClearAll(r.Context(), userID); err != nil {
		respondError(w, h.logger, err, messageOverrides{})
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "All chats cleared"})
}

// clientKey identifies a guest caller by network address, preferring the
// first forwarded address when the server sits behind a proxy.
func clientKey(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if first, _, found := strings.Cut(forwarded, ","); found || first != "" {
			return strings.TrimSpace(first)
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func emptyAsNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}
