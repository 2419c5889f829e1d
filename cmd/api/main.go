package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"bazarly.org/internal/auth"
	"bazarly.org/internal/catalog"
	"bazarly.org/internal/config"
	"bazarly.org/internal/httpapi"
	"bazarly.org/internal/migrate"
	"bazarly.org/internal/obs"
	"bazarly.org/internal/store/inmem"
	"bazarly.org/internal/store/pg"
	"bazarly.org/internal/stream"
	"bazarly.org/migrations"
)

var version = "1.0.0"

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	obs.SetLogger(logger)
	defer obs.Sync()

	obs.Init()
	obs.InitBuildInfo(version, os.Getenv("BAZARLY_COMMIT"))

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	// The in-memory store backs local runs without Postgres.
	var (
		users    auth.UserStore
		products catalog.ProductStore
		db       *sql.DB
	)
	if cfg.PGDSN != "" {
		store, err := pg.Open(cfg.PGDSN)
		if err != nil {
			logger.Fatal("open postgres", zap.Error(err))
		}
		db = store.DB()
		if err := applyMigrations(db); err != nil {
			logger.Fatal("apply migrations", zap.Error(err))
		}
		users, products = store, store
	} else {
		logger.Warn("BAZARLY_PG_DSN not set, using in-memory store")
		store := inmem.New()
		users, products = store, store
	}

	signer, err := auth.NewTokenSigner(cfg.AuthSecret,
		auth.WithIssuer(cfg.Issuer),
		auth.WithTTL(cfg.TokenTTL),
	)
	if err != nil {
		logger.Fatal("token signer", zap.Error(err))
	}
	authSvc, err := auth.NewService(users, signer)
	if err != nil {
		logger.Fatal("auth service", zap.Error(err))
	}
	catalogSvc := catalog.NewService(products)
	events := stream.New()

	api := httpapi.New(httpapi.ReadyProbe{DB: db}, version, authSvc, catalogSvc, events,
		httpapi.WithRateLimit(cfg.RateBurst, cfg.RatePerSec),
		httpapi.WithMaxBodyBytes(cfg.MaxBodyBytes),
	)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}

	logger.Info("starting bazarly-api", zap.String("version", version), zap.String("addr", srv.Addr))

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	if db != nil {
		_ = db.Close()
	}
	logger.Info("stopped")
}

func applyMigrations(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return migrate.NewManager(db, migrations.FS, migrations.Dir).Up(ctx)
}
