package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"wallst/internal/api"
	"wallst/internal/config"
	"wallst/internal/game"
	"wallst/internal/history"
	"wallst/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	config.LoadDotEnv()
	cfg, err := config.LoadAPIFromEnv()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)

	series, err := history.Open(cfg.HistoryFile)
	if err != nil {
		logger.Error("load history failed", "file", cfg.HistoryFile, "err", err)
		os.Exit(1)
	}

	blobs, err := store.Open(ctx, cfg.Store)
	if err != nil {
		logger.Error("store open failed", "backend", cfg.Store.Backend, "err", err)
		os.Exit(1)
	}
	defer blobs.Close()

	scores := store.NewScores(blobs, cfg.ScoreLimit, logger)
	sessions := store.NewSessions(blobs, logger)
	engine := game.NewEngine(cfg.Game, game.Options{
		Source:   series,
		Scores:   scores,
		Sessions: sessions,
		Logger:   logger,
	})

	server := api.New(cfg, logger, engine, scores, sessions)
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := engine.Close(shutdownCtx); err != nil {
			logger.Warn("engine close failed", "err", err)
		}
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("wallst api listening", "addr", cfg.Addr, "store", cfg.Store.Backend, "symbols", len(series.Symbols()))
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", "err", err)
		os.Exit(1)
	}
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
