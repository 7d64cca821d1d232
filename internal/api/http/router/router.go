package router

import (
	"net/http"

	"github.com/maggiegpt/server/internal/api/http/handler"
	"github.com/maggiegpt/server/internal/api/http/middleware"
	"github.com/maggiegpt/server/internal/logger"
	"github.com/maggiegpt/server/internal/model"
	"github.com/maggiegpt/server/internal/service"
)

// Router wires handlers and middleware into the HTTP mux.
type Router struct {
	authService    *service.Auth
	chatService    *service.Chat
	tokenService   *service.TokenService
	google         handler.GoogleOAuth
	contextManager model.ContextManager
	frontendURL    string
	logger         *logger.Logger
}

// New creates a new Router instance.
func New(
	authService *service.Auth,
	chatService *service.Chat,
	tokenService *service.TokenService,
	google handler.GoogleOAuth,
	contextManager model.ContextManager,
	frontendURL string,
	logger *logger.Logger,
) *Router {
	return &Router{
		authService:    authService,
		chatService:    chatService,
		tokenService:   tokenService,
		google:         google,
		contextManager: contextManager,
		frontendURL:    frontendURL,
		logger:         logger,
	}
}

// Register builds the mux with all routes and middleware applied.
func (r *Router) Register() http.Handler {
	logging := middleware.NewLogging(r.logger)
	authenticate := middleware.NewAuthenticate(r.tokenService, r.contextManager, r.logger)

	authHandler := handler.NewAuth(r.authService, r.tokenService, r.google, r.contextManager, r.frontendURL, r.logger)
	chatHandler := handler.NewChat(r.chatService, r.contextManager, r.logger)

	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/register", authHandler.Register)
	mux.HandleFunc("POST /api/verify-register", authHandler.VerifyRegister)
	mux.HandleFunc("POST /api/login", authHandler.Login)
	mux.HandleFunc("POST /api/verify-2fa", authHandler.VerifyTwoFactor)
	mux.HandleFunc("POST /api/token/refresh", authHandler.Refresh)
	mux.HandleFunc("POST /api/password-reset/request", authHandler.RequestPasswordReset)
	mux.HandleFunc("POST /api/password-reset/confirm", authHandler.ConfirmPasswordReset)
	mux.HandleFunc("GET /api/auth/google", authHandler.GoogleRedirect)
	mux.HandleFunc("GET /api/auth/google/callback", authHandler.GoogleCallback)

	mux.Handle("GET /api/profile", authenticate.RequireAuth(http.HandlerFunc(authHandler.Profile)))

	// Chat accepts guests: a missing or invalid token downgrades the
	// caller instead of rejecting the request.
	mux.Handle("POST /api/chat", authenticate.ResolveAuth(http.HandlerFunc(chatHandler.SendMessage)))

	mux.Handle("POST /api/new-chat", authenticate.RequireAuth(http.HandlerFunc(chatHandler.StartNewChat)))
	mux.Handle("GET /api/chat/history", authenticate.RequireAuth(http.HandlerFunc(chatHandler.History)))
	mux.Handle("DELETE /api/chat/session/{id}", authenticate.RequireAuth(http.HandlerFunc(chatHandler.DeleteSession)))
	mux.Handle("DELETE /api/chat/all", authenticate.RequireAuth(http.HandlerFunc(chatHandler.ClearAll)))

	return logging.Handle(mux)
}
