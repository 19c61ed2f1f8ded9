package config

import (
	"testing"
	"time"

	"wallst/internal/market"
	"wallst/internal/store"
)

func TestLoadAPIFromEnvDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("WALLST_API_ADDR", "")
	t.Setenv("WALLST_STORE", "")
	cfg, err := LoadAPIFromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Addr != ":8080" || cfg.Store.Backend != store.BackendFile || cfg.ScoreLimit != 10 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.Game.TickInterval != 500*time.Millisecond || cfg.Game.InitialCash != 10_000 {
		t.Fatalf("unexpected game defaults %+v", cfg.Game)
	}
}

func TestLoadAPIFromEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("WALLST_STORE", "Redis")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("WALLST_TICK_EVERY", "50ms")
	t.Setenv("WALLST_DIVIDEND_LOG_RATE", "0.5")
	t.Setenv("WALLST_FREE_LICENSES", "true")
	t.Setenv("WALLST_SCORE_LIMIT", "oops")
	cfg, err := LoadAPIFromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Addr != ":9090" || cfg.Store.Backend != store.BackendRedis {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Game.TickInterval != 50*time.Millisecond || cfg.Game.DividendLogRate != 0.5 {
		t.Fatalf("unexpected game config %+v", cfg.Game)
	}
	if cost, _ := cfg.Game.LicenseCost(market.GroupCrypto); cost != 0 {
		t.Fatalf("expected free licenses, crypto costs %v", cost)
	}
	if cfg.ScoreLimit != 10 {
		t.Fatalf("bad int should fall back, got %d", cfg.ScoreLimit)
	}
}

func TestStoreBackendRequiresDSN(t *testing.T) {
	tests := []struct {
		backend string
		key     string
	}{
		{backend: "redis", key: "REDIS_URL"},
		{backend: "postgres", key: "DATABASE_URL"},
		{backend: "mongo", key: "MONGODB_URI"},
	}
	for _, tc := range tests {
		t.Setenv("WALLST_STORE", tc.backend)
		t.Setenv(tc.key, "")
		if _, err := LoadCLIFromEnv(); err == nil {
			t.Fatalf("%s: expected missing %s to fail", tc.backend, tc.key)
		}
	}
	t.Setenv("WALLST_STORE", "sqlite")
	if _, err := LoadCLIFromEnv(); err == nil {
		t.Fatalf("expected unknown backend to fail")
	}
}

func TestLoadSimFromEnv(t *testing.T) {
	t.Setenv("WALLST_STORE", "")
	t.Setenv("WALLST_SIM_MODE", "random")
	t.Setenv("WALLST_SIM_START_YEAR", "1990")
	t.Setenv("WALLST_SIM_DAYS", "30")
	t.Setenv("WALLST_SIM_RUN_ONCE", "1")
	cfg, err := LoadSimFromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Mode != market.ModeRandom || cfg.StartYear != 1990 || cfg.Days != 30 || !cfg.RunOnce {
		t.Fatalf("unexpected sim config %+v", cfg)
	}

	tests := []struct {
		key, value string
	}{
		{key: "WALLST_SIM_MODE", value: "fantasy"},
		{key: "WALLST_SIM_START_YEAR", value: "1975"},
		{key: "WALLST_SIM_DAYS", value: "0"},
	}
	for _, tc := range tests {
		t.Run(tc.key, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			if _, err := LoadSimFromEnv(); err == nil {
				t.Fatalf("expected %s=%s to fail", tc.key, tc.value)
			}
		})
	}
}
