package game

import (
	"fmt"
	"math"
	"strings"
	"time"

	"wallst/internal/ledger"
	"wallst/internal/market"
	"wallst/internal/news"
)

// NewGameState seeds a fresh session at January 1st of startYear.
func NewGameState(cfg Config, source market.PriceSource, mode market.Mode, startYear int, initialCash float64) GameState {
	start := time.Date(startYear, time.January, 1, 0, 0, 0, 0, time.UTC)
	return GameState{
		Date:        start,
		Cash:        initialCash,
		InitialCash: initialCash,
		Instruments: market.Seed(cfg.Catalog, source, start),
		Holdings:    []ledger.Lot{},
		Playing:     true,
		Speed:       cfg.TickInterval,
		Mode:        mode,
		StartDate:   start,
		Messages:    []string{WelcomeMessage},
		Unlocked:    []market.Group{cfg.BaseGroup},
	}
}

// withMessage prepends msg and evicts the oldest messages past limit.
func (s GameState) withMessage(msg string, limit int) GameState {
	n := len(s.Messages) + 1
	if n > limit {
		n = limit
	}
	out := make([]string, 0, n)
	out = append(out, msg)
	for _, m := range s.Messages {
		if len(out) == n {
			break
		}
		out = append(out, m)
	}
	s.Messages = out
	return s
}

// stepper bundles what a transition needs besides the state itself.
type stepper struct {
	cfg   Config
	model *market.Model
	feed  *news.Feed
	rnd   Rand
}

func (st stepper) advance(s GameState) GameState {
	next := s
	next.Instruments = st.model.NextDay(s.Instruments, s.Date, s.Mode)
	next.Date = s.Date.AddDate(0, 0, 1)

	if headline, ok := st.feed.Check(s.Date); ok {
		next = next.withMessage("NEWS: "+headline, st.cfg.MessageLimit)
	}

	acc := ledger.AccrueDividends(s.Holdings, s.Instruments, st.cfg.DividendMateriality)
	if len(acc.Details) > 0 && st.rnd.Float64() < st.cfg.DividendLogRate {
		next = next.withMessage(fmt.Sprintf("DIVIDENDS: Earned $%.2f from holdings.", acc.Total), st.cfg.MessageLimit)
	}
	next.Cash += acc.Total
	next.TotalDividends += acc.Total
	return next
}

func (st stepper) buy(s GameState, symbol string, qty int64) (GameState, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	in, ok := market.Find(s.Instruments, symbol)
	if !ok {
		return s, fmt.Errorf("%w: %s", ErrInstrumentNotFound, symbol)
	}
	if qty <= 0 {
		return s.withMessage("ERROR: Quantity must be at least 1", st.cfg.MessageLimit), ledger.ErrInvalidQuantity
	}
	if !s.IsUnlocked(in.Group) {
		msg := fmt.Sprintf("ERROR: %s is locked. Buy a license to trade %s", in.Group, symbol)
		return s.withMessage(msg, st.cfg.MessageLimit), fmt.Errorf("%w: %s", ErrGroupLocked, in.Group)
	}
	cost := in.Price * float64(qty)
	if s.Cash < cost {
		msg := fmt.Sprintf("ERROR: Not enough cash to buy %d %s", qty, symbol)
		return s.withMessage(msg, st.cfg.MessageLimit), fmt.Errorf("%w: need %.2f have %.2f", ErrInsufficientFunds, cost, s.Cash)
	}

	lots, cost, err := ledger.Buy(s.Holdings, symbol, in.Price, qty)
	if err != nil {
		return s, err
	}
	next := s
	next.Holdings = lots
	next.Cash = s.Cash - cost
	return next.withMessage(fmt.Sprintf("BOUGHT: %d %s @ $%.2f", qty, symbol, in.Price), st.cfg.MessageLimit), nil
}

func (st stepper) sell(s GameState, symbol string, qty int64) (GameState, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	in, ok := market.Find(s.Instruments, symbol)
	if !ok {
		return s, fmt.Errorf("%w: %s", ErrInstrumentNotFound, symbol)
	}
	if qty <= 0 {
		return s.withMessage("ERROR: Quantity must be at least 1", st.cfg.MessageLimit), ledger.ErrInvalidQuantity
	}
	lots, sale, err := ledger.Sell(s.Holdings, symbol, in.Price, qty)
	if err != nil {
		msg := fmt.Sprintf("ERROR: Not enough %s to sell %d", symbol, qty)
		return s.withMessage(msg, st.cfg.MessageLimit), err
	}
	next := s
	next.Holdings = lots
	next.Cash = s.Cash + sale.Proceeds
	msg := fmt.Sprintf("SOLD: %d %s (Profit: %s)", qty, symbol, signedDollars(sale.RealizedProfit))
	return next.withMessage(msg, st.cfg.MessageLimit), nil
}

func (st stepper) license(s GameState, group market.Group, cost float64) (GameState, error) {
	if s.IsUnlocked(group) {
		return s, fmt.Errorf("%w: %s", ErrAlreadyUnlocked, group)
	}
	if s.Cash < cost {
		msg := fmt.Sprintf("ERROR: Not enough cash for %s license ($%s)", group, comma(cost))
		return s.withMessage(msg, st.cfg.MessageLimit), fmt.Errorf("%w: license %s costs %.2f", ErrInsufficientFunds, group, cost)
	}
	next := s
	next.Cash = s.Cash - cost
	next.Unlocked = append(append(make([]market.Group, 0, len(s.Unlocked)+1), s.Unlocked...), group)
	return next.withMessage(fmt.Sprintf("UNLOCKED: You can now trade on %s!", group), st.cfg.MessageLimit), nil
}

func (st stepper) tip(s GameState) (GameState, error) {
	if s.Cash < st.cfg.TipCost {
		return s.withMessage("ERROR: Insufficient funds for insider tip!", st.cfg.MessageLimit),
			fmt.Errorf("%w: tip costs %.2f", ErrInsufficientFunds, st.cfg.TipCost)
	}
	var avail []market.Instrument
	for _, in := range s.Instruments {
		if s.IsUnlocked(in.Group) {
			avail = append(avail, in)
		}
	}
	if len(avail) == 0 {
		return s, nil
	}
	pick := avail[st.rnd.Intn(len(avail))]
	future := st.model.Forecast(pick, s.Date, st.cfg.TipHorizonDays, s.Mode)
	diff := (future - pick.Price) / pick.Price * 100
	direction := "FALL"
	if diff > 0 {
		direction = "RISE"
	}

	next := s
	next.Cash = s.Cash - st.cfg.TipCost
	msg := fmt.Sprintf("INSIDER: %s expected to %s by ~%.1f%% in %d days.", pick.Symbol, direction, math.Abs(diff), st.cfg.TipHorizonDays)
	return next.withMessage(msg, st.cfg.MessageLimit), nil
}

func signedDollars(v float64) string {
	if v < 0 {
		return fmt.Sprintf("-$%.2f", -v)
	}
	return fmt.Sprintf("+$%.2f", v)
}
