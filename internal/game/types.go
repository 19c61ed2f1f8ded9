package game

import (
	"time"

	"wallst/internal/ledger"
	"wallst/internal/market"
)

type Phase string

const (
	PhaseSetup   Phase = "SETUP"
	PhaseRunning Phase = "RUNNING"
	PhaseEnded   Phase = "ENDED"
)

// GameState is the whole session at one simulated day. Transitions build a
// new value; slices reachable from a committed state are never written again.
type GameState struct {
	Date           time.Time           `json:"current_date"`
	Cash           float64             `json:"cash"`
	InitialCash    float64             `json:"initial_cash"`
	Instruments    []market.Instrument `json:"stocks"`
	Holdings       []ledger.Lot        `json:"portfolio"`
	Playing        bool                `json:"is_playing"`
	Speed          time.Duration       `json:"speed"`
	Mode           market.Mode         `json:"game_mode"`
	StartDate      time.Time           `json:"start_date"`
	Messages       []string            `json:"messages"`
	Unlocked       []market.Group      `json:"unlocked_exchanges"`
	TotalDividends float64             `json:"total_dividends"`
}

// Clone returns a deep copy safe to hand to callers outside the engine.
func (s GameState) Clone() GameState {
	out := s
	out.Instruments = make([]market.Instrument, len(s.Instruments))
	for i, in := range s.Instruments {
		in.History = append([]market.PricePoint(nil), in.History...)
		out.Instruments[i] = in
	}
	out.Holdings = append([]ledger.Lot(nil), s.Holdings...)
	out.Messages = append([]string(nil), s.Messages...)
	out.Unlocked = append([]market.Group(nil), s.Unlocked...)
	return out
}

func (s GameState) IsUnlocked(g market.Group) bool {
	for _, u := range s.Unlocked {
		if u == g {
			return true
		}
	}
	return false
}

func (s GameState) NetWorth() float64 {
	return ledger.NetWorth(s.Cash, s.Holdings, s.Instruments)
}

type HighScore struct {
	ID          string      `json:"id"`
	RecordedAt  time.Time   `json:"date"`
	NetWorth    float64     `json:"net_worth"`
	InitialCash float64     `json:"initial_cash"`
	Mode        market.Mode `json:"mode"`
	StartYear   int         `json:"start_year"`
	YearsPlayed float64     `json:"years_played"`
	ReturnPct   float64     `json:"return_pct"`
}

// Summary holds the end-of-game numbers.
type Summary struct {
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
	NetWorth       float64   `json:"net_worth"`
	Profit         float64   `json:"profit"`
	ReturnPct      float64   `json:"return_pct"`
	CAGR           float64   `json:"cagr"`
	YearsPlayed    float64   `json:"years_played"`
	TotalDividends float64   `json:"total_dividends"`
}

type OrderInput struct {
	Symbol   string `json:"symbol"`
	Side     string `json:"side"`
	Quantity int64  `json:"quantity"`
}
