package history

import (
	"math"
	"time"
)

// Rand is the random source used by Synthesize.
type Rand interface {
	Float64() float64
}

// Profile is the hand-authored milestone table of one symbol.
type Profile struct {
	Symbol     string
	Name       string
	Sector     string
	Milestones []Checkpoint
}

// SynthConfig controls monthly series synthesis.
type SynthConfig struct {
	Start time.Time
	End   time.Time
	// NoiseScale is the uniform noise width as a fraction of the trend.
	NoiseScale float64
	// CycleScale is the sinusoidal cycle amplitude as a fraction of the trend.
	CycleScale float64
	// TailNoise is the additive noise width after the last milestone.
	TailNoise float64
	MinPrice  float64
}

func DefaultSynthConfig() SynthConfig {
	return SynthConfig{
		Start:      time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC),
		End:        time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		NoiseScale: 0.10,
		CycleScale: 0.15,
		TailNoise:  5,
		MinPrice:   0.01,
	}
}

const daysPerYear = 365.0

// Synthesize expands milestone profiles into monthly series records.
// Points before a symbol's first milestone are omitted.
func Synthesize(profiles []Profile, cfg SynthConfig, rnd Rand) []Record {
	out := make([]Record, 0, len(profiles))
	for _, p := range profiles {
		rec := Record{Symbol: p.Symbol, Name: p.Name, Sector: p.Sector}
		if len(p.Milestones) == 0 {
			out = append(out, rec)
			continue
		}
		first := Day(p.Milestones[0].Date)
		for month := Day(cfg.Start); !month.After(cfg.End); month = month.AddDate(0, 1, 0) {
			if month.Before(first) {
				continue
			}
			price := synthPoint(p.Milestones, month, cfg, rnd)
			if price < cfg.MinPrice {
				price = cfg.MinPrice
			}
			price = math.Round(price*100) / 100
			if price <= 0 {
				continue
			}
			rec.History = append(rec.History, Checkpoint{Date: month, Price: price})
		}
		out = append(out, rec)
	}
	return out
}

func synthPoint(milestones []Checkpoint, date time.Time, cfg SynthConfig, rnd Rand) float64 {
	for i := 0; i < len(milestones)-1; i++ {
		start, end := milestones[i], milestones[i+1]
		if date.Before(start.Date) || date.After(end.Date) {
			continue
		}
		total := end.Date.Sub(start.Date).Hours()
		elapsed := date.Sub(start.Date).Hours()
		ratio := 0.0
		if total > 0 {
			ratio = elapsed / total
		}
		trend := start.Price + (end.Price-start.Price)*ratio
		noise := (rnd.Float64() - 0.5) * trend * cfg.NoiseScale
		years := elapsed / 24 / daysPerYear
		cycle := math.Sin(years*2) * trend * cfg.CycleScale
		return trend + noise + cycle
	}
	last := milestones[len(milestones)-1]
	return last.Price + (rnd.Float64()-0.5)*cfg.TailNoise
}

// MilestoneRecords turns profiles into records whose history is the raw
// milestone table. Used when no synthesized dataset is available.
func MilestoneRecords(profiles []Profile) []Record {
	out := make([]Record, 0, len(profiles))
	for _, p := range profiles {
		hist := make([]Checkpoint, len(p.Milestones))
		copy(hist, p.Milestones)
		out = append(out, Record{Symbol: p.Symbol, Name: p.Name, Sector: p.Sector, History: hist})
	}
	return out
}

func m(date string, price float64) Checkpoint {
	d, err := ParseDate(date)
	if err != nil {
		panic(err)
	}
	return Checkpoint{Date: d, Price: price}
}

// DefaultProfiles returns the approximate adjusted-close milestones the game
// ships with.
func DefaultProfiles() []Profile {
	return []Profile{
		{Symbol: "MSFT", Name: "Microsoft", Sector: "Tech", Milestones: []Checkpoint{
			m("1990-01-01", 0.60),
			m("1999-12-01", 58.00),
			m("2000-12-01", 22.00),
			m("2008-01-01", 35.00),
			m("2009-03-01", 15.00),
			m("2015-01-01", 45.00),
			m("2020-01-01", 160.00),
			m("2023-01-01", 240.00),
		}},
		{Symbol: "AAPL", Name: "Apple", Sector: "Tech", Milestones: []Checkpoint{
			m("1990-01-01", 0.30),
			m("1997-01-01", 0.15),
			m("2000-01-01", 1.00),
			m("2003-01-01", 0.25),
			m("2008-01-01", 6.00),
			m("2012-09-01", 23.00),
			m("2018-10-01", 55.00),
			m("2020-01-01", 75.00),
			m("2023-01-01", 130.00),
		}},
		{Symbol: "AMZN", Name: "Amazon", Sector: "Consumer", Milestones: []Checkpoint{
			m("1997-05-01", 0.10),
			m("1999-12-01", 5.00),
			m("2001-09-01", 0.30),
			m("2010-01-01", 6.00),
			m("2015-01-01", 15.00),
			m("2018-09-01", 100.00),
			m("2020-01-01", 90.00),
			m("2021-07-01", 180.00),
		}},
		{Symbol: "GOOGL", Name: "Google", Sector: "Tech", Milestones: []Checkpoint{
			m("2004-08-01", 2.50),
			m("2007-11-01", 17.00),
			m("2008-11-01", 7.00),
			m("2013-01-01", 18.00),
			m("2017-01-01", 40.00),
			m("2020-01-01", 70.00),
			m("2021-11-01", 148.00),
		}},
		{Symbol: "TSLA", Name: "Tesla", Sector: "Consumer", Milestones: []Checkpoint{
			m("2010-06-01", 1.50),
			m("2013-01-01", 2.50),
			m("2019-06-01", 15.00),
			m("2020-01-01", 30.00),
			m("2021-11-01", 400.00),
			m("2023-01-01", 120.00),
		}},
		{Symbol: "JPM", Name: "JPMorgan", Sector: "Finance", Milestones: []Checkpoint{
			m("1990-01-01", 5.00),
			m("2000-01-01", 30.00),
			m("2002-01-01", 15.00),
			m("2008-01-01", 30.00),
			m("2009-03-01", 15.00),
			m("2018-01-01", 110.00),
			m("2023-01-01", 140.00),
		}},
		{Symbol: "KO", Name: "Coca-Cola", Sector: "Consumer", Milestones: []Checkpoint{
			m("1990-01-01", 5.00),
			m("1998-01-01", 25.00),
			m("2009-01-01", 20.00),
			m("2015-01-01", 40.00),
			m("2020-01-01", 55.00),
			m("2023-01-01", 60.00),
		}},
		{Symbol: "IBM", Name: "IBM", Sector: "Tech", Milestones: []Checkpoint{
			m("1990-01-01", 25.00),
			m("1999-01-01", 120.00),
			m("2002-01-01", 60.00),
			m("2013-01-01", 130.00),
			m("2020-01-01", 115.00),
			m("2023-01-01", 140.00),
		}},
	}
}
