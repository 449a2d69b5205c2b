// Package main is the entry point for the erpcore API server.
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

	"erpcore/internal/app"
	"erpcore/internal/config"
	v1 "erpcore/internal/infrastructure/http/v1"
	"erpcore/internal/infrastructure/storage/memory"
	"erpcore/internal/infrastructure/storage/postgres"
	"erpcore/pkg/logger"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.IsDevelopment(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx := logger.WithLogger(context.Background(), log)
	log.Infow("starting erpcore server", "version", version, "storage", cfg.Storage)

	st, pool, err := openStorage(ctx, cfg)
	if err != nil {
		log.Fatalw("failed to open storage", "error", err)
	}
	if pool != nil {
		defer pool.Close()
	}

	services := app.Build(st, cfg.LedgerConfig)
	if err := services.Bootstrap(ctx); err != nil {
		log.Fatalw("failed to bootstrap ledger", "error", err)
	}
	log.Info("chart of accounts and voucher types ready")

	router := v1.NewRouter(v1.RouterConfig{
		Services:    services,
		Ready:       st.Ready,
		Pool:        pool,
		Logger:      log.WithComponent("http"),
		Version:     version,
		ReleaseMode: !cfg.IsDevelopment(),
	})

	server := &http.Server{
		Addr:         ":" + cfg.AppPort,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", cfg.AppPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}
	if pool != nil {
		pool.LogStats(ctx)
	}

	log.Info("server stopped")
}

// openStorage returns the configured backend. pool is nil for memory storage.
func openStorage(ctx context.Context, cfg *config.Config) (app.Storage, *postgres.Pool, error) {
	if cfg.Storage == config.StorageMemory {
		logger.Warn(ctx, "using in-memory storage, data is lost on restart")
		return app.MemoryStorage(memory.New()), nil, nil
	}

	poolCfg := postgres.DefaultPoolConfig(cfg.DatabaseURL)
	poolCfg.MaxConns = cfg.DBMaxConns
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		return app.Storage{}, nil, err
	}
	if err := postgres.ApplySchema(ctx, pool); err != nil {
		pool.Close()
		return app.Storage{}, nil, err
	}

	txm := postgres.NewTxManager(pool, cfg.TxStatementTimeout)
	return app.PostgresStorage(txm), pool, nil
}
