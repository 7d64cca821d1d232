package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	httpctx "github.com/maggiegpt/server/internal/api/http/context"
	"github.com/maggiegpt/server/internal/api/http/router"
	"github.com/maggiegpt/server/internal/config"
	"github.com/maggiegpt/server/internal/logger"
	"github.com/maggiegpt/server/internal/mail"
	"github.com/maggiegpt/server/internal/model"
	"github.com/maggiegpt/server/internal/oauth"
	"github.com/maggiegpt/server/internal/password"
	"github.com/maggiegpt/server/internal/provider"
	"github.com/maggiegpt/server/internal/quota"
	"github.com/maggiegpt/server/internal/repository/postgres"
	"github.com/maggiegpt/server/internal/server"
	"github.com/maggiegpt/server/internal/service"
	"github.com/maggiegpt/server/internal/token"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)

	db, err := postgres.NewConnection(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("failed to initialize storage", "error", err)
	}
	defer db.Close()

	userRepo := postgres.NewUserRepository(db)
	chatRepo := postgres.NewChatRepository(db)
	tokenManager := token.NewJWT(cfg.JWT.AccessSecret, cfg.JWT.RefreshSecret)

	mailSender, err := mail.NewSMTPSender(mail.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
		FromName: cfg.SMTP.FromName,
	})
	if err != nil {
		logger.Fatal("failed to initialize mail sender", "error", err)
	}

	generator := provider.NewClient(provider.Config{
		TextURL:     cfg.Provider.TextURL,
		TextAPIKey:  cfg.Provider.TextAPIKey,
		ImageURL:    cfg.Provider.ImageURL,
		ImageAPIKey: cfg.Provider.ImageAPIKey,
	})

	var quotaTracker model.QuotaTracker
	if cfg.Guest.RedisAddr != "" {
		quotaTracker = quota.NewRedis(redis.NewClient(&redis.Options{Addr: cfg.Guest.RedisAddr}), cfg.Guest.Limit)
	} else {
		quotaTracker = quota.NewMemory(cfg.Guest.Limit)
	}

	google, err := oauth.NewGoogle(ctx, oauth.Config{
		ClientID:     cfg.Google.ClientID,
		ClientSecret: cfg.Google.ClientSecret,
		RedirectURL:  cfg.Google.RedirectURL,
	})
	if err != nil {
		logger.Fatal("failed to initialize google oauth", "error", err)
	}

	tokenService := service.NewTokenService(tokenManager, userRepo, logger)
	authService := service.NewAuth(userRepo, mailSender, password.NewHasher(), tokenService, cfg.FrontendURL, logger)
	chatService := service.NewChat(chatRepo, generator, quotaTracker, logger)
	ctxMgr := httpctx.NewManager()

	r := router.New(authService, chatService, tokenService, google, ctxMgr, cfg.FrontendURL, logger)
	httpServer := server.NewHTTPServer(r.Register(), fmt.Sprintf(":%s", cfg.HTTP.Port))

	var sl model.SecurityLayer
	if cfg.HTTP.EnableHTTPS {
		sl = server.NewTLSListener(cfg.HTTP.CertFileName, cfg.HTTP.PrivateKeyFileName)
	} else {
		sl = server.NewPlainListener()
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func(s model.Server) {
		defer wg.Done()
		logger.Info("Starting server on", "address", s.Address())
		err := s.Start(sl)
		if err != nil {
			logger.Error("failed to start server", "error", err)
		}
	}(httpServer)

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", "error", err, "address", httpServer.Address())
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}
