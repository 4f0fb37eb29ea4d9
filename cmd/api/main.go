package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/zhouzirui/ai-astrologer/backend/internal/config"
	"github.com/zhouzirui/ai-astrologer/backend/internal/handler"
	"github.com/zhouzirui/ai-astrologer/backend/internal/logging"
	"github.com/zhouzirui/ai-astrologer/backend/internal/service/oracle"
	"github.com/zhouzirui/ai-astrologer/backend/internal/service/prompt"
	"github.com/zhouzirui/ai-astrologer/backend/internal/service/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	envErr := godotenv.Load()

	bootLogger, _ := zap.NewProduction()

	cfg, err := config.Load()
	if err != nil {
		bootLogger.Fatal("failed to load configuration", zap.Error(err))
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		bootLogger.Fatal("failed to build logger", zap.Error(err))
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	if envErr != nil {
		logger.Info("no .env file loaded, continuing with system environment variables only", zap.Error(envErr))
	}

	composer, err := prompt.NewComposer(prompt.NewCatalog())
	if err != nil {
		logger.Fatal("failed to compile prompt templates", zap.Error(err))
	}

	var chatModel model.BaseChatModel
	if cfg.AI.Enabled() {
		chatModel, err = cfg.AI.NewChatModel(ctx)
		if err != nil {
			logger.Warn("failed to initialize chat model, continuing without it", zap.Error(err))
			chatModel = nil
		} else {
			logger.Info("chat model initialized",
				zap.String("provider", string(cfg.AI.Provider)),
				zap.String("model", cfg.AI.Model))
		}
	} else {
		logger.Warn("model credential missing, model calls will fail",
			zap.String("env", cfg.AI.CredentialEnv()))
	}

	svc, err := oracle.NewService(ctx, chatModel, composer, session.NewStore(), oracle.Options{
		Advisory:  cfg.AI.Advisory(),
		Streaming: cfg.AI.StreamResponse,
	}, logger)
	if err != nil {
		logger.Fatal("failed to initialize oracle service", zap.Error(err))
	}

	router := handler.NewRouter(svc, logger)

	startServer(ctx, logger, cfg.Server, router)
}

func startServer(ctx context.Context, logger *zap.Logger, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info("AI Astrologer backend listening", zap.String("addr", addr))
	if err := runServer(ctx, srv); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
	logger.Info("server stopped")
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
