package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"counseling-records/auth"
	"counseling-records/config"
	"counseling-records/database"
	"counseling-records/handlers"
	"counseling-records/textai"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// serve runs the web server until SIGINT or SIGTERM. Invalid configuration
// does not stop the server; every route then shows the configuration error.
func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	handler, cleanup, err := buildHandler(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("✅ Server successfully started", zap.String("addr", srv.Addr))
		logger.Info(fmt.Sprintf("🌐 Available at: http://localhost%s", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("🛑 Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// buildHandler wires the application, or the configuration error page when
// the database settings are missing.
func buildHandler(cfg *config.Config, logger *zap.Logger) (http.Handler, func(), error) {
	noop := func() {}

	if err := cfg.Validate(); err != nil {
		logger.Error("❌ Configuration error", zap.Error(err))
		h, err := handlers.NewConfigErrorRouter(err, logger)
		return h, noop, err
	}

	db, err := database.InitDB(cfg, logger)
	if err != nil {
		return nil, noop, fmt.Errorf("error initializing database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, noop, fmt.Errorf("error getting sql.DB: %w", err)
	}
	cleanup := func() { sqlDB.Close() }

	if cfg.AutoMigrate {
		if err := database.Migrate(db, logger); err != nil {
			cleanup()
			return nil, noop, err
		}
	}

	secret := cfg.SessionSecret
	if secret == "" {
		if secret, err = auth.RandomSecret(); err != nil {
			cleanup()
			return nil, noop, err
		}
		logger.Warn("⚠️ SESSION_SECRET is not set; using a random secret for this process")
	}

	h, err := handlers.NewRouter(handlers.Deps{
		Store:    database.NewRecordRepository(db),
		Improver: textai.New(cfg.LanguageModel, logger),
		DB:       sqlDB,
		Gate:     auth.NewGate(cfg.Secrets, logger),
		Sessions: auth.NewSessionStore(cfg.SessionTTL),
		Tokens:   auth.NewSessionTokens(secret, cfg.SessionTTL),
		Logger:   logger,
	})
	if err != nil {
		cleanup()
		return nil, noop, err
	}
	logger.Info("🔐 Session lifetime", zap.Duration("ttl", cfg.SessionTTL))
	return h, cleanup, nil
}
