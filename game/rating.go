package game

import (
	"math"
	"sort"
	"time"
)

// RoundResult summarizes one finished round from a player's seat.
type RoundResult struct {
	Score      int
	Won        bool
	Drawn      bool
	FinishedAt time.Time
}

// ComputeRating derives a skill rating from recent finished rounds. Each round
// contributes its score plus a victory or draw bonus, aged linearly by the
// days elapsed since the finish (a round today carries full weight, older
// rounds fade to zero). Only the most recent RatingWindow rounds count.
func (c Config) ComputeRating(results []RoundResult, now time.Time) int {
	sorted := append([]RoundResult(nil), results...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].FinishedAt.After(sorted[j].FinishedAt)
	})
	if len(sorted) > c.RatingWindow {
		sorted = sorted[:c.RatingWindow]
	}
	rating := 0.0
	for _, result := range sorted {
		raw := result.Score
		if result.Won {
			raw += c.VictoryBonus
		} else if result.Drawn {
			raw += c.DrawBonus
		}
		aging := math.Max(0, 1-float64(daysBetween(result.FinishedAt, now))*c.AgingCoefficient)
		rating += float64(raw) * aging
	}
	return int(math.Round(rating))
}

// ComputeDuelRating is the duel-ledger counterpart: the same window and
// bonuses without any time decay.
func (c Config) ComputeDuelRating(results []RoundResult) int {
	sorted := append([]RoundResult(nil), results...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].FinishedAt.After(sorted[j].FinishedAt)
	})
	if len(sorted) > c.RatingWindow {
		sorted = sorted[:c.RatingWindow]
	}
	rating := 0
	for _, result := range sorted {
		rating += result.Score
		if result.Won {
			rating += c.VictoryBonus
		} else if result.Drawn {
			rating += c.DrawBonus
		}
	}
	return rating
}

// daysBetween counts whole calendar days from one instant to another.
func daysBetween(from, to time.Time) int {
	y, m, d := from.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	y, m, d = to.Date()
	end := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return int(end.Sub(start).Hours() / 24)
}
