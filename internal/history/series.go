package history

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// DateLayout is the on-disk date format of the dataset.
const DateLayout = "2006-01-02"

// Checkpoint is one (date, price) anchor of a symbol's series.
type Checkpoint struct {
	Date  time.Time
	Price float64
}

type checkpointJSON struct {
	Date  string  `json:"date"`
	Price float64 `json:"price"`
}

func (c Checkpoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(checkpointJSON{Date: c.Date.Format(DateLayout), Price: c.Price})
}

func (c *Checkpoint) UnmarshalJSON(raw []byte) error {
	var in checkpointJSON
	if err := json.Unmarshal(raw, &in); err != nil {
		return err
	}
	d, err := ParseDate(in.Date)
	if err != nil {
		return err
	}
	c.Date = d
	c.Price = in.Price
	return nil
}

// Record is one symbol entry of the static dataset.
type Record struct {
	Symbol     string       `json:"symbol"`
	Name       string       `json:"name"`
	Sector     string       `json:"sector"`
	History    []Checkpoint `json:"history"`
	Price      float64      `json:"price"`
	Volatility float64      `json:"volatility"`
}

// Day truncates t to its UTC calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a UTC day.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

// Series is a read-only lookup table of checkpoints per symbol.
// It is safe for concurrent use once built.
type Series struct {
	bySymbol map[string][]Checkpoint
}

// NewSeries builds a Series from dataset records. Checkpoints are sorted by
// date; on duplicate dates the first occurrence wins.
func NewSeries(records []Record) *Series {
	s := &Series{bySymbol: make(map[string][]Checkpoint, len(records))}
	for _, rec := range records {
		symbol := strings.ToUpper(strings.TrimSpace(rec.Symbol))
		if symbol == "" {
			continue
		}
		points := make([]Checkpoint, 0, len(rec.History)+len(s.bySymbol[symbol]))
		points = append(points, s.bySymbol[symbol]...)
		for _, cp := range rec.History {
			points = append(points, Checkpoint{Date: Day(cp.Date), Price: cp.Price})
		}
		sort.SliceStable(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })

		dedup := points[:0]
		for _, cp := range points {
			if n := len(dedup); n > 0 && dedup[n-1].Date.Equal(cp.Date) {
				continue
			}
			dedup = append(dedup, cp)
		}
		s.bySymbol[symbol] = dedup
	}
	return s
}

// PriceAt returns the price of symbol on date. Dates before the first
// checkpoint get the first price, dates after the last checkpoint get the
// last price, and dates in between are linearly interpolated. The second
// return value is false when the symbol has no checkpoints.
func (s *Series) PriceAt(symbol string, date time.Time) (float64, bool) {
	if s == nil {
		return 0, false
	}
	points := s.bySymbol[strings.ToUpper(symbol)]
	if len(points) == 0 {
		return 0, false
	}
	day := Day(date)

	// index of the first checkpoint strictly after day
	next := sort.Search(len(points), func(i int) bool { return points[i].Date.After(day) })
	switch {
	case next == 0:
		return points[0].Price, true
	case next == len(points):
		return points[len(points)-1].Price, true
	}

	prev := points[next-1]
	if prev.Date.Equal(day) {
		return prev.Price, true
	}
	after := points[next]
	total := after.Date.Sub(prev.Date).Hours()
	elapsed := day.Sub(prev.Date).Hours()
	ratio := elapsed / total
	return prev.Price + (after.Price-prev.Price)*ratio, true
}

// Symbols returns the symbols with at least one checkpoint, sorted.
func (s *Series) Symbols() []string {
	out := make([]string, 0, len(s.bySymbol))
	for sym, points := range s.bySymbol {
		if len(points) > 0 {
			out = append(out, sym)
		}
	}
	sort.Strings(out)
	return out
}

// Checkpoints returns a copy of the checkpoints for symbol.
func (s *Series) Checkpoints(symbol string) []Checkpoint {
	points := s.bySymbol[strings.ToUpper(symbol)]
	out := make([]Checkpoint, len(points))
	copy(out, points)
	return out
}
