package market

import (
	"math"
	"testing"
	"time"
)

type fakeRand struct {
	f float64
	n int
}

func (r fakeRand) Float64() float64 { return r.f }
func (r fakeRand) Intn(int) int     { return r.n }

type tableSource map[string]float64

func (t tableSource) PriceAt(symbol string, _ time.Time) (float64, bool) {
	p, ok := t[symbol]
	return p, ok
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNextDayPriceFloor(t *testing.T) {
	instruments := []Instrument{
		{Symbol: "AAA", Price: 0.01},
		{Symbol: "BBB", Price: 0.0101},
		{Symbol: "CCC", Price: 5},
	}
	tests := []struct {
		name string
		mode Mode
		src  PriceSource
	}{
		{name: "random", mode: ModeRandom},
		{name: "historical no data", mode: ModeHistorical, src: tableSource{}},
		{name: "historical zero price", mode: ModeHistorical, src: tableSource{"CCC": 0, "AAA": 0.001}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := NewModel(tc.src, fakeRand{f: 0})
			cur := instruments
			for i := 0; i < 50; i++ {
				cur = m.NextDay(cur, date(1990, 1, 1).AddDate(0, 0, i), tc.mode)
				for _, in := range cur {
					if in.Price < MinTick {
						t.Fatalf("day %d %s price %v below floor", i, in.Symbol, in.Price)
					}
				}
			}
		})
	}
}

func TestNextDayHistoricalAdoptsTable(t *testing.T) {
	m := NewModel(tableSource{"MSFT": 42}, fakeRand{f: 0.5})
	out := m.NextDay([]Instrument{{Symbol: "MSFT", Price: 10}}, date(1995, 6, 1), ModeHistorical)
	if out[0].Price != 42 {
		t.Fatalf("got=%v want=42", out[0].Price)
	}
	last := out[0].History[len(out[0].History)-1]
	if !last.Date.Equal(date(1995, 6, 2)) {
		t.Fatalf("history point dated %s, want next day", last.Date)
	}
}

func TestNextDayHistoricalHoldsWithoutData(t *testing.T) {
	m := NewModel(tableSource{}, fakeRand{f: 1})
	out := m.NextDay([]Instrument{{Symbol: "NVDA", Price: 10}}, date(1980, 1, 1), ModeHistorical)
	want := 10 + 0.5*10*0.005
	if math.Abs(out[0].Price-want) > 1e-12 {
		t.Fatalf("got=%v want=%v", out[0].Price, want)
	}
}

func TestNextDayRandomMove(t *testing.T) {
	m := NewModel(nil, fakeRand{f: 1})
	out := m.NextDay([]Instrument{{Symbol: "BTC", Price: 100}}, date(2010, 1, 1), ModeRandom)
	want := 100 + 100*(0.0002+0.03)
	if math.Abs(out[0].Price-want) > 1e-9 {
		t.Fatalf("got=%v want=%v", out[0].Price, want)
	}
}

func TestNextDayHistoryCapAndImmutability(t *testing.T) {
	m := NewModel(nil, fakeRand{f: 0.5})
	m.HistoryCap = 3
	in := []Instrument{{Symbol: "KO", Price: 10, History: []PricePoint{
		{Date: date(2000, 1, 1), Price: 1},
		{Date: date(2000, 1, 2), Price: 2},
		{Date: date(2000, 1, 3), Price: 3},
	}}}
	out := m.NextDay(in, date(2000, 1, 3), ModeRandom)
	if len(out[0].History) != 3 {
		t.Fatalf("history len=%d want 3", len(out[0].History))
	}
	if out[0].History[0].Price != 2 {
		t.Fatalf("expected oldest point evicted, got %+v", out[0].History)
	}
	if in[0].Price != 10 || len(in[0].History) != 3 || in[0].History[0].Price != 1 {
		t.Fatalf("input mutated: %+v", in[0])
	}
}

func TestChange(t *testing.T) {
	in := Instrument{Price: 150, History: []PricePoint{{Price: 100}, {Price: 120}, {Price: 150}}}
	if got := in.Change(1); math.Abs(got-25) > 1e-9 {
		t.Fatalf("1-day change got=%v want=25", got)
	}
	if got := in.Change(365); math.Abs(got-50) > 1e-9 {
		t.Fatalf("clamped change got=%v want=50", got)
	}
	if got := (Instrument{Price: 1}).Change(30); got != 0 {
		t.Fatalf("empty history change got=%v", got)
	}
}

func TestForecast(t *testing.T) {
	m := NewModel(tableSource{"IBM": 130}, fakeRand{f: 1})
	in := Instrument{Symbol: "IBM", Price: 100}
	if got := m.Forecast(in, date(2000, 1, 1), 30, ModeHistorical); got != 130 {
		t.Fatalf("historical forecast got=%v", got)
	}
	if got := m.Forecast(Instrument{Symbol: "BTC", Price: 100}, date(2000, 1, 1), 30, ModeHistorical); got != 100 {
		t.Fatalf("fallback forecast got=%v", got)
	}
	if got := m.Forecast(in, date(2000, 1, 1), 30, ModeRandom); math.Abs(got-110) > 1e-9 {
		t.Fatalf("random forecast got=%v", got)
	}
}

func TestSeed(t *testing.T) {
	src := tableSource{"MSFT": 12.5, "AAPL": 0}
	out := Seed(DefaultCatalog(), src, date(1990, 1, 1))
	if len(out) != len(DefaultCatalog()) {
		t.Fatalf("seeded %d instruments", len(out))
	}
	msft, _ := Find(out, "msft")
	if msft.Price != 12.5 || len(msft.History) != 1 {
		t.Fatalf("unexpected MSFT seed %+v", msft)
	}
	aapl, _ := Find(out, "AAPL")
	if aapl.Price != 0.2 {
		t.Fatalf("expected base price fallback, got %v", aapl.Price)
	}
	btc, _ := Find(out, "BTC")
	if btc.Sector != "Crypto" || btc.Group != GroupCrypto {
		t.Fatalf("unexpected BTC seed %+v", btc)
	}
	if _, ok := Find(out, "NOPE"); ok {
		t.Fatalf("expected unknown symbol miss")
	}
}

func TestParseMode(t *testing.T) {
	if m, ok := ParseMode(" random "); !ok || m != ModeRandom {
		t.Fatalf("got %q %v", m, ok)
	}
	if _, ok := ParseMode("live"); ok {
		t.Fatalf("expected rejection")
	}
}
