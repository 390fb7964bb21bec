package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/zhouzirui/petal-journal/backend/internal/config"
	"github.com/zhouzirui/petal-journal/backend/internal/handler"
	"github.com/zhouzirui/petal-journal/backend/internal/service/ai"
	"github.com/zhouzirui/petal-journal/backend/internal/service/companion"
	"github.com/zhouzirui/petal-journal/backend/internal/service/conversation"
	journalService "github.com/zhouzirui/petal-journal/backend/internal/service/journal"
	"github.com/zhouzirui/petal-journal/backend/internal/service/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("failed to load configuration: %v", err)
	}

	logger := config.NewLogger(cfg.Log)
	if envErr != nil {
		logger.WithError(envErr).Warn("failed to load .env file, continuing with system environment variables only")
	}

	sessions := session.NewStore(session.Config{
		CookieName: cfg.Session.CookieName,
		TTL:        cfg.Session.TTL,
		Secure:     cfg.Session.Secure,
	})
	journal := journalService.NewService(journalService.Mode(cfg.Journal.Mode))
	conversations := conversation.NewMemoryStore()

	var companionSvc *companion.Service
	if cfg.AI.Enabled() {
		aiService, err := ai.NewService(ctx, cfg.AI, logger)
		if err != nil {
			logger.WithError(err).Warn("failed to initialize AI service, continuing without the journal companion")
		} else {
			companionSvc = companion.NewService(conversations, aiService, logger)
			logger.WithField("model", cfg.AI.Model).Info("AI service initialized successfully")
		}
	} else {
		logger.Info("Ark credentials not configured, journal companion disabled")
	}

	router := handler.NewRouter(handler.Dependencies{
		Sessions:      sessions,
		Journal:       journal,
		Conversations: conversations,
		Companion:     companionSvc,
		Logger:        logger,
	})

	startServer(ctx, logger, cfg.Server, router)
}

func startServer(ctx context.Context, logger *logrus.Logger, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.WithField("addr", addr).Info("petal journal listening")
	if err := runServer(ctx, srv); err != nil {
		logger.WithError(err).Fatal("server error")
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
