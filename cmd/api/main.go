package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/joho/godotenv"
	"github.com/shinyyama/marketplace-inbox/internal/config"
	"github.com/shinyyama/marketplace-inbox/internal/db"
	appmw "github.com/shinyyama/marketplace-inbox/internal/middleware"
	"github.com/shinyyama/marketplace-inbox/internal/obs"
	"github.com/shinyyama/marketplace-inbox/internal/server"
)

// Set with -ldflags at build time.
var (
	gitSHA    = "dev"
	buildTime = ""
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load error", "error", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var authClient *auth.Client
	if cfg.AuthEnabled() {
		authClient, err = appmw.NewFirebaseAuth(ctx, cfg.FirebaseProjectID, cfg.FirebaseCredentialsFile)
		if err != nil {
			logger.Error("failed to init firebase auth", "error", err)
			os.Exit(1)
		}
	}

	srv := server.New(server.Options{
		Config:    cfg,
		Logger:    logger,
		Auth:      authClient,
		SHA:       gitSHA,
		BuildTime: buildTime,
	})

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", addr, "strategy", cfg.Inbox.LatestStrategy)
		errCh <- srv.Start(addr)
	}()

	// The server answers health checks while the database is still coming up.
	go func() {
		if err := connectDB(cfg, srv); err != nil {
			logger.Error("database unavailable", "error", err)
		}
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", "error", err)
		}
	}
}

func connectDB(cfg *config.Config, srv *server.Server) error {
	conn, err := db.Connect(cfg)
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	if err := db.Migrate(conn); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	srv.SetDB(conn)
	return nil
}
