package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/99zwgp/AccountBook/internal/config"
	"github.com/99zwgp/AccountBook/internal/log"
	"github.com/99zwgp/AccountBook/internal/repository"
	"github.com/99zwgp/AccountBook/internal/session"
	"github.com/99zwgp/AccountBook/internal/storage"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	level, _ := cfg.SlogLevel()
	logger := log.New(log.Config{
		Level:     level,
		Component: log.ComponentApp,
		Handler:   slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}),
	})
	log.SetDefault(logger)

	store, err := storage.Open(cfg.DBPath)
	if err != nil {
		logger.Error("Failed to open database", log.FieldError, err, "db_path", cfg.DBPath)
		os.Exit(1)
	}

	records := repository.NewRecordRepository(store, logger)
	users := repository.NewAuthRepository(store, logger)
	sess := session.New(records, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	// Keep the session's active user in lockstep with the authentication
	// state: login/register activates the user's record stream, logout
	// clears it.
	g.Go(func() error {
		userCh, cancel := users.CurrentUser().Subscribe()
		defer cancel()
		for {
			select {
			case <-gctx.Done():
				return nil
			case u := <-userCh:
				if u == nil {
					sess.ClearUser()
				} else {
					sess.SetUser(u.ID)
				}
			}
		}
	})

	logger.Info("Account book started", "db_path", cfg.DBPath)

	<-gctx.Done()
	logger.Info("Shutdown signal received", log.FieldOperation, log.OpShutdown)

	if err := g.Wait(); err != nil {
		logger.Error("Worker error during shutdown", log.FieldError, err)
	}
	sess.Close()
	if err := store.Close(); err != nil {
		logger.Error("Failed to close database", log.FieldError, err)
	}
	logger.Info("Stopped gracefully")
}
