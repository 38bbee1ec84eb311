package game

import (
	"math"
	"sort"
)

// RankedEntity is the ranking input for one topic entity.
type RankedEntity struct {
	ID           string
	AnswersCount int
}

// AssignPositions orders a topic's entities by observed answer count
// descending and returns the dense 1-based position of every entity id. Equal
// counts are broken by entity id ascending so the ranking is reproducible.
func AssignPositions(entries []RankedEntity) map[string]int {
	sorted := append([]RankedEntity(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].AnswersCount != sorted[j].AnswersCount {
			return sorted[i].AnswersCount > sorted[j].AnswersCount
		}
		return sorted[i].ID < sorted[j].ID
	})
	positions := make(map[string]int, len(sorted))
	for i, entry := range sorted {
		positions[entry.ID] = i + 1
	}
	return positions
}

// PointsFor returns the point value of a position. Positions outside the
// table, including the unranked position 0, score nothing.
func (c Config) PointsFor(position int) int {
	if position < 1 || position > len(c.Points) {
		return 0
	}
	return c.Points[position-1]
}

// Share is the descriptive popularity metric of an entity: its answer count
// against the topic's smoothed round total, rounded to two decimals.
func (c Config) Share(answersCount, roundsPlayed int) float64 {
	return math.Round(float64(answersCount)/float64(roundsPlayed+c.InitialRounds)*100) / 100
}
