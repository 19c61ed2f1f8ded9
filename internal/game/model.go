package game

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"wallst/internal/ledger"
	"wallst/internal/market"
)

const (
	DefaultInitialCash = 10_000.0
	DefaultTickEvery   = 500 * time.Millisecond

	SpeedSlow   = 1000 * time.Millisecond
	SpeedNormal = 200 * time.Millisecond
	SpeedFast   = 50 * time.Millisecond

	MinStartYear = 1980
	MaxStartYear = 2020

	WelcomeMessage = "Welcome to Wall St. Sim! Market is OPEN."
)

var (
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrInsufficientHoldings = ledger.ErrInsufficientHoldings
	ErrInstrumentNotFound   = errors.New("instrument not found")
	ErrAlreadyUnlocked      = errors.New("market group already unlocked")
	ErrGroupLocked          = errors.New("market group locked")
	ErrInvalidPhase         = errors.New("action not allowed in current phase")
	ErrInvalidSetup         = errors.New("invalid game setup")
	ErrInvalidSpeed         = errors.New("speed must be > 0")
)

// Config holds the tunables of an engine.
type Config struct {
	// TickInterval is the start speed of a new game.
	TickInterval time.Duration
	InitialCash  float64
	MinStartYear int
	MaxStartYear int
	// MessageLimit caps the message log; older messages are evicted.
	MessageLimit int
	HistoryCap   int

	TipCost        float64
	TipHorizonDays int

	// DividendLogRate is the chance a tick with payouts logs a dividend notice.
	DividendLogRate     float64
	DividendMateriality float64

	BaseGroup    market.Group
	LicenseCosts map[market.Group]float64
	Catalog      []market.Spec
}

func DefaultConfig() Config {
	return Config{
		TickInterval:        DefaultTickEvery,
		InitialCash:         DefaultInitialCash,
		MinStartYear:        MinStartYear,
		MaxStartYear:        MaxStartYear,
		MessageLimit:        50,
		HistoryCap:          market.DefaultHistoryCap,
		TipCost:             1000,
		TipHorizonDays:      30,
		DividendLogRate:     0.05,
		DividendMateriality: ledger.DefaultMateriality,
		BaseGroup:           market.GroupNASDAQ,
		LicenseCosts:        market.DefaultLicenseCosts(),
		Catalog:             market.DefaultCatalog(),
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.TickInterval <= 0 {
		c.TickInterval = d.TickInterval
	}
	if c.InitialCash <= 0 {
		c.InitialCash = d.InitialCash
	}
	if c.MinStartYear == 0 {
		c.MinStartYear = d.MinStartYear
	}
	if c.MaxStartYear == 0 {
		c.MaxStartYear = d.MaxStartYear
	}
	if c.MessageLimit <= 0 {
		c.MessageLimit = d.MessageLimit
	}
	if c.HistoryCap <= 0 {
		c.HistoryCap = d.HistoryCap
	}
	if c.TipHorizonDays <= 0 {
		c.TipHorizonDays = d.TipHorizonDays
	}
	if c.BaseGroup == "" {
		c.BaseGroup = d.BaseGroup
	}
	if c.LicenseCosts == nil {
		c.LicenseCosts = d.LicenseCosts
	}
	if len(c.Catalog) == 0 {
		c.Catalog = d.Catalog
	}
	return c
}

// LicenseCost returns the unlock price of a market group.
func (c Config) LicenseCost(g market.Group) (float64, bool) {
	cost, ok := c.LicenseCosts[g]
	return cost, ok
}

func (c Config) ValidateStart(mode market.Mode, startYear int, initialCash float64) error {
	if mode != market.ModeHistorical && mode != market.ModeRandom {
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidSetup, mode)
	}
	if startYear < c.MinStartYear || startYear > c.MaxStartYear {
		return fmt.Errorf("%w: start year must be between %d and %d", ErrInvalidSetup, c.MinStartYear, c.MaxStartYear)
	}
	if initialCash <= 0 || math.IsNaN(initialCash) || math.IsInf(initialCash, 0) {
		return fmt.Errorf("%w: initial cash must be > 0", ErrInvalidSetup)
	}
	return nil
}

// SpeedTier maps a tier name to its tick interval.
func SpeedTier(name string) (time.Duration, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "slow", "1":
		return SpeedSlow, true
	case "normal", "2":
		return SpeedNormal, true
	case "fast", "3":
		return SpeedFast, true
	default:
		return 0, false
	}
}

// comma formats a whole amount with thousands separators.
func comma(v float64) string {
	s := strconv.FormatInt(int64(math.Round(v)), 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
