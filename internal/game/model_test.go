package game

import (
	"errors"
	"math"
	"testing"
	"time"

	"wallst/internal/market"
)

func TestValidateStart(t *testing.T) {
	cfg := DefaultConfig()
	valid := []struct {
		mode market.Mode
		year int
		cash float64
	}{
		{market.ModeHistorical, 1980, 10_000},
		{market.ModeRandom, 2020, 1},
	}
	for _, tc := range valid {
		if err := cfg.ValidateStart(tc.mode, tc.year, tc.cash); err != nil {
			t.Fatalf("expected %v/%d/%v to be valid: %v", tc.mode, tc.year, tc.cash, err)
		}
	}

	invalid := []struct {
		mode market.Mode
		year int
		cash float64
	}{
		{market.ModeHistorical, 1979, 10_000},
		{market.ModeHistorical, 2021, 10_000},
		{market.ModeRandom, 1990, 0},
		{market.ModeRandom, 1990, math.NaN()},
		{"LIVE", 1990, 10_000},
	}
	for _, tc := range invalid {
		if err := cfg.ValidateStart(tc.mode, tc.year, tc.cash); !errors.Is(err, ErrInvalidSetup) {
			t.Fatalf("expected %v/%d/%v to fail, got %v", tc.mode, tc.year, tc.cash, err)
		}
	}
}

func TestSpeedTier(t *testing.T) {
	tests := []struct {
		name string
		want time.Duration
	}{
		{name: "slow", want: SpeedSlow},
		{name: "2", want: SpeedNormal},
		{name: " FAST ", want: SpeedFast},
	}
	for _, tc := range tests {
		got, ok := SpeedTier(tc.name)
		if !ok || got != tc.want {
			t.Fatalf("tier %q got=%v ok=%v want=%v", tc.name, got, ok, tc.want)
		}
	}
	if _, ok := SpeedTier("ludicrous"); ok {
		t.Fatalf("expected unknown tier to fail")
	}
}

func TestComma(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{in: 0, want: "0"},
		{in: 999, want: "999"},
		{in: 5000, want: "5,000"},
		{in: 1234567.4, want: "1,234,567"},
		{in: -15000, want: "-15,000"},
	}
	for _, tc := range tests {
		if got := comma(tc.in); got != tc.want {
			t.Fatalf("comma(%v) got=%q want=%q", tc.in, got, tc.want)
		}
	}
}

func TestWithDefaultsFillsZeroes(t *testing.T) {
	cfg := Config{}.withDefaults()
	if cfg.MessageLimit != 50 || cfg.HistoryCap != market.DefaultHistoryCap || cfg.BaseGroup != market.GroupNASDAQ {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cost, ok := cfg.LicenseCost(market.GroupCrypto); !ok || cost != 50000 {
		t.Fatalf("crypto license got=%v ok=%v", cost, ok)
	}
}
