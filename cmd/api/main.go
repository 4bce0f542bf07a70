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

	"bokfor/internal/auth"
	"bokfor/internal/config"
	"bokfor/internal/database"
	"bokfor/internal/email"
	"bokfor/internal/httpserver"
	"bokfor/internal/logger"
	"bokfor/internal/services/bokforing"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		lg := logger.New("info")
		lg.Fatalw("invalid configuration", "error", err)
	}
	lg := logger.New(cfg.LogLevel)
	defer lg.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.DatabaseURL, lg)
	if err != nil {
		lg.Fatalw("db connect failed", "error", err)
	}
	if err := database.Migrate(ctx, db); err != nil {
		lg.Fatalw("automigrate failed", "error", err)
	}
	if err := bokforing.Seed(ctx, db); err != nil {
		lg.Fatalw("seed kontoplan failed", "error", err)
	}

	mail := email.NewClient(cfg.EmailAPIURL, cfg.EmailAPIKey, cfg.EmailFrom, lg)
	if cfg.EmailAPIKey == "" {
		lg.Warnw("EMAIL_API_KEY is empty, outgoing email is disabled")
	}

	router := httpserver.NewRouter(httpserver.Deps{
		Config: cfg,
		DB:     db,
		Log:    lg,
		Issuer: auth.NewIssuer(cfg.JWTSecret, cfg.JWTExpiresIn),
		Mail:   mail,
	})
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		lg.Infow("listening", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatalw("http server failed", "error", err)
		}
	}()

	<-ctx.Done()
	lg.Infow("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Errorw("graceful shutdown failed", "error", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
