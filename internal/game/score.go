package game

import (
	"math"
	"sort"
	"time"
)

// YearsPlayed counts whole years plus months/12 between the start and the
// current date.
func YearsPlayed(s GameState) float64 {
	years := s.Date.Year() - s.StartDate.Year()
	months := int(s.Date.Month()) - int(s.StartDate.Month())
	return float64(years) + float64(months)/12
}

func Summarize(s GameState) Summary {
	nw := s.NetWorth()
	years := YearsPlayed(s)
	out := Summary{
		StartDate:      s.StartDate,
		EndDate:        s.Date,
		NetWorth:       nw,
		Profit:         nw - s.InitialCash,
		YearsPlayed:    years,
		TotalDividends: s.TotalDividends,
	}
	if s.InitialCash > 0 {
		out.ReturnPct = out.Profit / s.InitialCash * 100
		span := years
		if span == 0 {
			span = 1
		}
		out.CAGR = (math.Pow(nw/s.InitialCash, 1/span) - 1) * 100
	}
	return out
}

func NewHighScore(s GameState, id string, at time.Time) HighScore {
	sum := Summarize(s)
	return HighScore{
		ID:          id,
		RecordedAt:  at.UTC(),
		NetWorth:    sum.NetWorth,
		InitialCash: s.InitialCash,
		Mode:        s.Mode,
		StartYear:   s.StartDate.Year(),
		YearsPlayed: sum.YearsPlayed,
		ReturnPct:   sum.ReturnPct,
	}
}

// RankScores orders scores by net worth, best first, and keeps the top limit.
func RankScores(scores []HighScore, limit int) []HighScore {
	out := append([]HighScore(nil), scores...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].NetWorth > out[j].NetWorth })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
