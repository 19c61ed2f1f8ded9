package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"wallst/internal/config"
	"wallst/internal/game"
	"wallst/internal/history"
	"wallst/internal/market"
	"wallst/internal/store"
	"wallst/internal/tui"
)

func main() {
	config.LoadDotEnv()
	cfg, err := config.LoadCLIFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	root := &cobra.Command{
		Use:          "wallst",
		Short:        "Wall St. Sim, a single-player market simulation",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&cfg.HistoryFile, "history", cfg.HistoryFile, "price history JSON file (built-in milestones when empty)")

	root.AddCommand(
		newPlayCmd(&cfg),
		newScoresCmd(&cfg),
		newDatagenCmd(),
		newSimulateCmd(&cfg),
		newRemoteCmd(&cfg),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type local struct {
	engine   *game.Engine
	scores   *store.Scores
	sessions *store.Sessions
	blobs    store.Blobs
}

func (l *local) Close() error {
	return l.blobs.Close()
}

func openLocal(ctx context.Context, cfg config.CLIConfig, gameCfg game.Config, logger *slog.Logger) (*local, error) {
	series, err := history.Open(cfg.HistoryFile)
	if err != nil {
		return nil, err
	}
	blobs, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	scores := store.NewScores(blobs, cfg.ScoreLimit, logger)
	sessions := store.NewSessions(blobs, logger)
	engine := game.NewEngine(gameCfg, game.Options{
		Source:   series,
		Scores:   scores,
		Sessions: sessions,
		Logger:   logger,
	})
	return &local{engine: engine, scores: scores, sessions: sessions, blobs: blobs}, nil
}

// fileLogger keeps log output off the terminal while the TUI owns it.
func fileLogger(path string) (*slog.Logger, io.Closer, error) {
	if strings.TrimSpace(path) == "" {
		dir, err := store.DefaultDir()
		if err != nil {
			return nil, nil, err
		}
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, nil, err
		}
		path = filepath.Join(dir, "wallst.log")
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, err
	}
	return slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{Level: slog.LevelInfo})), f, nil
}

func newPlayCmd(cfg *config.CLIConfig) *cobra.Command {
	var (
		modeFlag string
		year     int
		cash     float64
		resume   bool
		fresh    bool
	)
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, logFile, err := fileLogger(cfg.LogFile)
			if err != nil {
				return err
			}
			defer logFile.Close()

			ctx := cmd.Context()
			env, err := openLocal(ctx, *cfg, cfg.Game, logger)
			if err != nil {
				return err
			}
			defer env.Close()

			saved, ok, err := env.sessions.Load(ctx)
			if err != nil {
				return err
			}
			if ok && !fresh && !resume {
				choice, err := promptChoice(fmt.Sprintf("Saved game from %s found. Resume", saved.Date.Format("2006-01-02")), []string{"yes", "no"}, "yes")
				if err != nil {
					return err
				}
				resume = choice == "yes"
			}

			if resume && ok {
				if _, err := env.engine.Resume(saved); err != nil {
					return err
				}
			} else {
				mode, startYear, err := setupFromFlagsOrPrompt(cmd, cfg.Game, modeFlag, year)
				if err != nil {
					return err
				}
				if cash <= 0 {
					cash = cfg.Game.InitialCash
				}
				if _, err := env.engine.Start(mode, startYear, cash); err != nil {
					return err
				}
			}

			p := tea.NewProgram(tui.NewModel(env.engine), tea.WithAltScreen(), tea.WithContext(ctx))
			_, runErr := p.Run()

			closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := env.engine.Close(closeCtx); err != nil {
				printWarn("Could not save the game: " + err.Error())
			}
			if runErr != nil {
				return runErr
			}
			if env.engine.Phase() == game.PhaseEnded {
				renderSummary(env.engine.Summary())
			} else {
				printInfo("Game saved. Run `wallst play` to continue.")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&modeFlag, "mode", "", "HISTORICAL or RANDOM")
	cmd.Flags().IntVar(&year, "year", 0, "start year")
	cmd.Flags().Float64Var(&cash, "cash", 0, "starting cash")
	cmd.Flags().BoolVar(&resume, "resume", false, "resume the saved game without asking")
	cmd.Flags().BoolVar(&fresh, "new", false, "ignore any saved game")
	return cmd
}

func setupFromFlagsOrPrompt(cmd *cobra.Command, gameCfg game.Config, modeFlag string, year int) (market.Mode, int, error) {
	if !cmd.Flags().Changed("mode") {
		choice, err := promptChoice("Mode", []string{"historical", "random"}, "historical")
		if err != nil {
			return "", 0, err
		}
		modeFlag = choice
	}
	mode, ok := market.ParseMode(modeFlag)
	if !ok {
		return "", 0, fmt.Errorf("mode must be HISTORICAL or RANDOM")
	}
	if !cmd.Flags().Changed("year") {
		v, err := promptIntRange("Start year", gameCfg.MinStartYear, gameCfg.MaxStartYear, 2000)
		if err != nil {
			return "", 0, err
		}
		year = v
	}
	return mode, year, nil
}

func newScoresCmd(cfg *config.CLIConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "scores",
		Short: "Show local high scores",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			blobs, err := store.Open(ctx, cfg.Store)
			if err != nil {
				return err
			}
			defer blobs.Close()
			scores, err := store.NewScores(blobs, cfg.ScoreLimit, nil).List(ctx)
			if err != nil {
				return err
			}
			renderScores(scores)
			return nil
		},
	}
}

func newDatagenCmd() *cobra.Command {
	var (
		out  string
		seed int64
	)
	cmd := &cobra.Command{
		Use:   "datagen",
		Short: "Generate a monthly price history dataset",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if seed == 0 {
				seed = time.Now().UnixNano()
			}
			records := history.Synthesize(history.DefaultProfiles(), history.DefaultSynthConfig(), rand.New(rand.NewSource(seed)))
			if err := history.WriteFile(out, records); err != nil {
				return err
			}
			points := 0
			for _, r := range records {
				points += len(r.History)
			}
			printSuccess(fmt.Sprintf("Wrote %d symbols (%d points) to %s", len(records), points, out))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "history.json", "output file")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed (time based when 0)")
	return cmd
}

func newSimulateCmd(cfg *config.CLIConfig) *cobra.Command {
	var (
		modeFlag string
		year     int
		days     int
		cash     float64
		buys     []string
		record   bool
		seed     int64
	)
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a game headless for a number of days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mode, ok := market.ParseMode(modeFlag)
			if !ok {
				return fmt.Errorf("mode must be HISTORICAL or RANDOM")
			}
			if days <= 0 {
				return fmt.Errorf("days must be > 0")
			}
			orders, err := parseBuys(buys)
			if err != nil {
				return err
			}
			if cash <= 0 {
				cash = cfg.Game.InitialCash
			}

			gameCfg := cfg.Game
			// days are stepped by hand
			gameCfg.TickInterval = 24 * time.Hour
			series, err := history.Open(cfg.HistoryFile)
			if err != nil {
				return err
			}
			opts := game.Options{Source: series, Logger: slog.New(slog.NewJSONHandler(io.Discard, nil))}
			if seed != 0 {
				opts.Rand = rand.New(rand.NewSource(seed))
			}
			ctx := cmd.Context()
			if record {
				blobs, err := store.Open(ctx, cfg.Store)
				if err != nil {
					return err
				}
				defer blobs.Close()
				opts.Scores = store.NewScores(blobs, cfg.ScoreLimit, nil)
			}
			engine := game.NewEngine(gameCfg, opts)
			defer engine.Close(context.Background())

			st, err := engine.Start(mode, year, cash)
			if err != nil {
				return err
			}
			for _, o := range orders {
				if st, err = engine.Buy(o.Symbol, o.Quantity); err != nil {
					printWarn(err.Error())
				}
			}
			for i := 0; i < days && ctx.Err() == nil; i++ {
				st = engine.Tick()
			}
			renderState(st)
			if _, err := engine.End(ctx); err != nil {
				printWarn("Score not recorded: " + err.Error())
			}
			renderSummary(engine.Summary())
			return nil
		},
	}
	cmd.Flags().StringVar(&modeFlag, "mode", string(market.ModeHistorical), "HISTORICAL or RANDOM")
	cmd.Flags().IntVar(&year, "year", 2000, "start year")
	cmd.Flags().IntVar(&days, "days", 365, "days to simulate")
	cmd.Flags().Float64Var(&cash, "cash", 0, "starting cash")
	cmd.Flags().StringSliceVar(&buys, "buy", nil, "SYMBOL:QTY to buy on day one (repeatable)")
	cmd.Flags().BoolVar(&record, "record", false, "record the result as a high score")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed (time based when 0)")
	return cmd
}
