package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"wallst/internal/game"
	"wallst/internal/market"
	"wallst/internal/store"
)

type APIConfig struct {
	Addr        string
	HistoryFile string
	Store       store.Config
	Game        game.Config
	ScoreLimit  int
	LogLevel    string
}

type CLIConfig struct {
	APIBaseURL  string
	HistoryFile string
	Store       store.Config
	Game        game.Config
	ScoreLimit  int
	LogFile     string
}

// SimConfig drives the headless wallst-sim runner.
type SimConfig struct {
	HistoryFile string
	Store       store.Config
	Game        game.Config
	ScoreLimit  int
	Mode        market.Mode
	StartYear   int
	Days        int
	ReportEvery time.Duration
	RunOnce     bool
}

// LoadDotEnv reads .env into the process environment when present. Variables
// already set win.
func LoadDotEnv() {
	_ = godotenv.Load()
}

func LoadAPIFromEnv() (APIConfig, error) {
	addr := os.Getenv("PORT")
	if addr != "" {
		if !strings.HasPrefix(addr, ":") {
			addr = ":" + addr
		}
	} else {
		addr = envDefault("WALLST_API_ADDR", ":8080")
	}

	cfg := APIConfig{
		Addr:        addr,
		HistoryFile: strings.TrimSpace(os.Getenv("WALLST_HISTORY_FILE")),
		Store:       storeFromEnv(),
		Game:        gameFromEnv(),
		ScoreLimit:  envIntDefault("WALLST_SCORE_LIMIT", store.DefaultScoreLimit),
		LogLevel:    envDefault("WALLST_LOG_LEVEL", "info"),
	}
	if err := validateStore(cfg.Store); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func LoadCLIFromEnv() (CLIConfig, error) {
	cfg := CLIConfig{
		APIBaseURL:  strings.TrimRight(envDefault("WALLST_API_BASE_URL", "http://localhost:8080"), "/"),
		HistoryFile: strings.TrimSpace(os.Getenv("WALLST_HISTORY_FILE")),
		Store:       storeFromEnv(),
		Game:        gameFromEnv(),
		ScoreLimit:  envIntDefault("WALLST_SCORE_LIMIT", store.DefaultScoreLimit),
		LogFile:     strings.TrimSpace(os.Getenv("WALLST_LOG_FILE")),
	}
	return cfg, validateStore(cfg.Store)
}

func LoadSimFromEnv() (SimConfig, error) {
	cfg := SimConfig{
		HistoryFile: strings.TrimSpace(os.Getenv("WALLST_HISTORY_FILE")),
		Store:       storeFromEnv(),
		Game:        gameFromEnv(),
		ScoreLimit:  envIntDefault("WALLST_SCORE_LIMIT", store.DefaultScoreLimit),
		StartYear:   envIntDefault("WALLST_SIM_START_YEAR", 2000),
		Days:        envIntDefault("WALLST_SIM_DAYS", 365),
		ReportEvery: envDurationDefault("WALLST_SIM_REPORT_EVERY", 30*time.Second),
		RunOnce:     envBoolDefault("WALLST_SIM_RUN_ONCE", false),
	}
	mode, ok := market.ParseMode(envDefault("WALLST_SIM_MODE", string(market.ModeHistorical)))
	if !ok {
		return cfg, fmt.Errorf("WALLST_SIM_MODE must be HISTORICAL or RANDOM")
	}
	cfg.Mode = mode
	if err := cfg.Game.ValidateStart(cfg.Mode, cfg.StartYear, cfg.Game.InitialCash); err != nil {
		return cfg, err
	}
	if cfg.Days <= 0 {
		return cfg, fmt.Errorf("WALLST_SIM_DAYS must be > 0")
	}
	return cfg, validateStore(cfg.Store)
}

func storeFromEnv() store.Config {
	return store.Config{
		Backend:     store.Backend(strings.ToLower(envDefault("WALLST_STORE", string(store.BackendFile)))),
		Dir:         strings.TrimSpace(os.Getenv("WALLST_DATA_DIR")),
		RedisURL:    strings.TrimSpace(os.Getenv("REDIS_URL")),
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		MongoURI:    strings.TrimSpace(os.Getenv("MONGODB_URI")),
		MongoDB:     envDefault("MONGODB_DATABASE", "wallst"),
	}
}

func validateStore(cfg store.Config) error {
	switch cfg.Backend {
	case store.BackendFile:
		return nil
	case store.BackendRedis:
		if cfg.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required for the redis store")
		}
	case store.BackendPostgres:
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
	case store.BackendMongo:
		if cfg.MongoURI == "" {
			return fmt.Errorf("MONGODB_URI is required for the mongo store")
		}
	default:
		return fmt.Errorf("WALLST_STORE must be file, redis, postgres or mongo")
	}
	return nil
}

func gameFromEnv() game.Config {
	cfg := game.DefaultConfig()
	cfg.TickInterval = envDurationDefault("WALLST_TICK_EVERY", cfg.TickInterval)
	cfg.InitialCash = envFloatDefault("WALLST_INITIAL_CASH", cfg.InitialCash)
	cfg.MessageLimit = envIntDefault("WALLST_MESSAGE_LIMIT", cfg.MessageLimit)
	cfg.TipCost = envFloatDefault("WALLST_TIP_COST", cfg.TipCost)
	cfg.DividendLogRate = envFloatDefault("WALLST_DIVIDEND_LOG_RATE", cfg.DividendLogRate)
	if envBoolDefault("WALLST_FREE_LICENSES", false) {
		free := make(map[market.Group]float64, len(cfg.LicenseCosts))
		for g := range cfg.LicenseCosts {
			free[g] = 0
		}
		cfg.LicenseCosts = free
	}
	return cfg
}

func envDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envDurationDefault(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func envFloatDefault(key string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func envIntDefault(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envBoolDefault(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
