package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/prevhub/processync/internal/andamento"
	"github.com/prevhub/processync/internal/auth"
	"github.com/prevhub/processync/internal/config"
	"github.com/prevhub/processync/internal/db"
	"github.com/prevhub/processync/internal/despacho"
	"github.com/prevhub/processync/internal/middleware"
	"github.com/prevhub/processync/internal/repository"
	syncsvc "github.com/prevhub/processync/internal/sync"
	"github.com/prevhub/processync/internal/tasks"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(".")
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	conn, err := db.NewConnection(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer conn.Close()

	if err := db.RunMigrations(cfg.Database); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	// Repositories
	historyRepo := repository.NewHistoryRepository()
	processRepo := repository.NewProcessRepository(conn.Pool, historyRepo, cfg.Sync.LockTimeout)
	despachoRepo := repository.NewDespachoRepository(conn.Pool)
	andamentoRepo := repository.NewAndamentoRepository(conn.Pool)

	resolver := auth.NewTenantResolver(conn.Pool, cfg.Sync.CredentialTimeout)

	var notifier tasks.Notifier = tasks.NoopNotifier{}
	if cfg.Tasks.WebhookURL != "" {
		notifier = tasks.NewWebhookNotifier(cfg.Tasks.WebhookURL, cfg.Tasks.Timeout, logger)
	}

	// Services
	syncService := syncsvc.NewService(resolver, processRepo, notifier, logger, cfg.Sync.Workers)
	despachoService := despacho.NewService(despachoRepo, logger)
	andamentoService := andamento.NewService(andamentoRepo, logger)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
	})

	router := chi.NewRouter()
	router.Use(middleware.Logging(logger))
	router.Use(corsHandler.Handler)

	router.Method(http.MethodPost, "/api/sync", syncsvc.NewHTTPHandler(syncService))
	router.Method(http.MethodPost, "/api/despachos", despacho.NewHTTPHandler(despachoService, resolver))

	andamentoHandler := andamento.NewHTTPHandler(andamentoService)
	router.Route("/api/andamentos", func(r chi.Router) {
		r.Use(middleware.RequireTenant(resolver))
		r.Mount("/", andamentoHandler.Routes())
	})

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("addr", cfg.Server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited")
}
