package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wallst/internal/config"
	"wallst/internal/game"
	"wallst/internal/history"
	"wallst/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	config.LoadDotEnv()
	cfg, err := config.LoadSimFromEnv()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	series, err := history.Open(cfg.HistoryFile)
	if err != nil {
		logger.Error("load history failed", "err", err)
		os.Exit(1)
	}
	blobs, err := store.Open(ctx, cfg.Store)
	if err != nil {
		logger.Error("store open failed", "err", err)
		os.Exit(1)
	}
	defer blobs.Close()

	if cfg.RunOnce {
		// days are stepped by hand below
		cfg.Game.TickInterval = 24 * time.Hour
	}
	sessions := store.NewSessions(blobs, logger)
	engine := game.NewEngine(cfg.Game, game.Options{
		Source:   series,
		Scores:   store.NewScores(blobs, cfg.ScoreLimit, logger),
		Sessions: sessions,
		Logger:   logger,
	})

	if err := startOrResume(ctx, engine, sessions, cfg); err != nil {
		logger.Error("game start failed", "err", err)
		os.Exit(1)
	}

	if cfg.RunOnce {
		if _, err := engine.SetSpeed(cfg.Game.TickInterval); err != nil {
			logger.Error("set speed failed", "err", err)
			os.Exit(1)
		}
		var st game.GameState
		for i := 0; i < cfg.Days && ctx.Err() == nil; i++ {
			st = engine.Tick()
		}
		score, err := engine.End(ctx)
		if err != nil {
			logger.Error("end game failed", "err", err)
			os.Exit(1)
		}
		logger.Info("sim run-once completed",
			"end_date", st.Date.Format(history.DateLayout),
			"net_worth", score.NetWorth,
			"return_pct", score.ReturnPct,
		)
		return
	}

	ticker := time.NewTicker(cfg.ReportEvery)
	defer ticker.Stop()

	logger.Info("sim started", "mode", cfg.Mode, "tick_every", cfg.Game.TickInterval.String())
	for {
		select {
		case <-ctx.Done():
			closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := engine.Close(closeCtx); err != nil {
				logger.Error("session save failed", "err", err)
			}
			cancel()
			logger.Info("sim shutdown")
			return
		case <-ticker.C:
			st := engine.Snapshot()
			logger.Info("sim status",
				"date", st.Date.Format(history.DateLayout),
				"cash", st.Cash,
				"net_worth", st.NetWorth(),
				"dividends", st.TotalDividends,
			)
		}
	}
}

// startOrResume picks up a saved session when one exists.
func startOrResume(ctx context.Context, engine *game.Engine, sessions *store.Sessions, cfg config.SimConfig) error {
	saved, ok, err := sessions.Load(ctx)
	if err != nil {
		return err
	}
	if !ok {
		_, err := engine.Start(cfg.Mode, cfg.StartYear, cfg.Game.InitialCash)
		return err
	}
	if _, err := engine.Resume(saved); err != nil {
		return err
	}
	_, err = engine.TogglePlay()
	return err
}
