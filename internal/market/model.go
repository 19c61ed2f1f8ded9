package market

import (
	"strings"
	"time"
)

type Mode string

const (
	ModeHistorical Mode = "HISTORICAL"
	ModeRandom     Mode = "RANDOM"
)

func ParseMode(s string) (Mode, bool) {
	switch Mode(strings.ToUpper(strings.TrimSpace(s))) {
	case ModeHistorical:
		return ModeHistorical, true
	case ModeRandom:
		return ModeRandom, true
	default:
		return "", false
	}
}

// Group is a market group (exchange) whose instruments need a license.
type Group string

const (
	GroupNASDAQ Group = "NASDAQ"
	GroupNYSE   Group = "NYSE"
	GroupLSE    Group = "LSE"
	GroupCrypto Group = "CRYPTO"
)

const (
	MinTick           = 0.01
	DefaultHistoryCap = 366
)

type PricePoint struct {
	Date  time.Time `json:"date"`
	Price float64   `json:"price"`
}

type Instrument struct {
	Symbol        string       `json:"symbol"`
	Name          string       `json:"name"`
	Sector        string       `json:"sector"`
	Group         Group        `json:"exchange"`
	Price         float64      `json:"price"`
	History       []PricePoint `json:"history"`
	Volatility    float64      `json:"volatility"`
	DividendYield float64      `json:"dividend_rate,omitempty"`
	Description   string       `json:"description,omitempty"`
	CEO           string       `json:"ceo,omitempty"`
	Founded       int          `json:"founded,omitempty"`
}

// Change returns the percent change of the current price against the
// history point days back, clamped to the oldest point.
func (in Instrument) Change(days int) float64 {
	if len(in.History) == 0 || days < 0 {
		return 0
	}
	idx := len(in.History) - 1 - days
	if idx < 0 {
		idx = 0
	}
	base := in.History[idx].Price
	if base <= 0 {
		return 0
	}
	return (in.Price - base) / base * 100
}

func Find(instruments []Instrument, symbol string) (Instrument, bool) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	for _, in := range instruments {
		if in.Symbol == symbol {
			return in, true
		}
	}
	return Instrument{}, false
}

// Rand is the random source of the market model.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// PriceSource answers historical price lookups. *history.Series satisfies it.
type PriceSource interface {
	PriceAt(symbol string, date time.Time) (float64, bool)
}

// Model advances instrument prices one simulated day at a time.
type Model struct {
	Source     PriceSource
	Rand       Rand
	HistoryCap int
	// Jitter is the relative width of the daily noise added to historical prices.
	Jitter float64
	// Drift and Swing define the RANDOM mode move: drift + (2u-1)*swing.
	Drift float64
	Swing float64
}

func NewModel(source PriceSource, rnd Rand) *Model {
	return &Model{
		Source:     source,
		Rand:       rnd,
		HistoryCap: DefaultHistoryCap,
		Jitter:     0.005,
		Drift:      0.0002,
		Swing:      0.03,
	}
}

// NextDay returns the instruments priced for the day after current. The
// input slice and its histories are not modified.
func (m *Model) NextDay(instruments []Instrument, current time.Time, mode Mode) []Instrument {
	next := dayOf(current).AddDate(0, 0, 1)
	out := make([]Instrument, len(instruments))
	for i, in := range instruments {
		price := m.nextPrice(in, next, mode)
		if price < MinTick {
			price = MinTick
		}
		in.Price = price
		in.History = appendCapped(in.History, PricePoint{Date: next, Price: price}, m.cap())
		out[i] = in
	}
	return out
}

func (m *Model) nextPrice(in Instrument, next time.Time, mode Mode) float64 {
	if mode == ModeRandom {
		move := (m.Rand.Float64() - 0.5) * 2
		return in.Price + in.Price*(m.Drift+move*m.Swing)
	}
	price := in.Price
	if m.Source != nil {
		if p, ok := m.Source.PriceAt(in.Symbol, next); ok && p > 0 {
			price = p
		}
	}
	return price + (m.Rand.Float64()-0.5)*price*m.Jitter
}

// Forecast returns the expected price of in horizon days after current. In
// HISTORICAL mode the table is consulted, falling back to the current price.
// RANDOM mode has no future to consult and returns a +/-10% guess.
func (m *Model) Forecast(in Instrument, current time.Time, horizon int, mode Mode) float64 {
	if mode == ModeRandom {
		return in.Price * (0.9 + m.Rand.Float64()*0.2)
	}
	if m.Source != nil {
		if p, ok := m.Source.PriceAt(in.Symbol, dayOf(current).AddDate(0, 0, horizon)); ok && p > 0 {
			return p
		}
	}
	return in.Price
}

func (m *Model) cap() int {
	if m.HistoryCap <= 0 {
		return DefaultHistoryCap
	}
	return m.HistoryCap
}

func appendCapped(history []PricePoint, p PricePoint, limit int) []PricePoint {
	start := 0
	if len(history) >= limit {
		start = len(history) - limit + 1
	}
	out := make([]PricePoint, 0, len(history)-start+1)
	out = append(out, history[start:]...)
	return append(out, p)
}

func dayOf(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
}
