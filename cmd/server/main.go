package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/paperchat/paperchat/internal/api"
	"github.com/paperchat/paperchat/internal/chatlog"
	"github.com/paperchat/paperchat/internal/config"
	"github.com/paperchat/paperchat/internal/core"
	"github.com/paperchat/paperchat/internal/papers"
	"github.com/paperchat/paperchat/internal/store"
)

func main() {
	// Load configuration
	config.LoadConfig()

	logger := newLogger(config.AppConfig.LogLevel)
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize session store
	dbStore, err := store.NewSQLiteStore(config.AppConfig.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer dbStore.Close()

	papersStore := papers.NewStore(config.AppConfig.PapersDir)
	chatLog := chatlog.NewLogger(config.AppConfig.LogsDir, logger)

	// The LLM stack is only wired when a credential is present; without one
	// the chat endpoint answers 500 per request while logs stay available.
	configured := config.AppConfig.GeminiAPIKey != ""
	var answerer core.Answerer
	if configured {
		llmService, err := core.NewLLMService(ctx, config.AppConfig.GeminiAPIKey, logger)
		if err != nil {
			logger.Fatal("failed to initialize LLM service", zap.Error(err))
		}
		defer llmService.Close()

		ragService := core.NewRAGService(papersStore, llmService, llmService, logger)
		answerer = core.NewAgent(llmService, ragService, logger)

		startWatcher(ctx, papersStore, ragService, logger)
	}

	chatService := core.NewChatService(dbStore, answerer, chatLog, configured, logger)

	apiHandler := api.NewAPIHandler(chatService, logger)
	router := api.NewRouter(apiHandler, logger)

	serverAddr := fmt.Sprintf(":%s", config.AppConfig.HTTPPort)
	srv := &http.Server{
		Addr:        serverAddr,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// No write timeout: answering can involve indexing every PDF plus
		// several model round trips.
		IdleTimeout: 120 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("addr", serverAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}
	logger.Info("server exited gracefully")
}

// startWatcher begins watching the papers directory so cached answers are
// dropped when files change. The directory may not exist yet; that is fine,
// queries report it and the watcher is simply skipped.
func startWatcher(ctx context.Context, papersStore *papers.Store, ragService *core.RAGService, logger *zap.Logger) {
	watcher, err := papers.NewWatcher(logger)
	if err != nil {
		logger.Warn("failed to create papers watcher", zap.Error(err))
		return
	}
	if err := watcher.Watch(ctx, papersStore.Dir(), ragService.MarkDirty); err != nil {
		logger.Warn("papers directory not watchable", zap.String("dir", papersStore.Dir()), zap.Error(err))
		watcher.Stop()
	}
}

func newLogger(level string) *zap.Logger {
	cfg := zap.NewProductionConfig()
	if strings.EqualFold(level, "DEBUG") {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return logger
}
