package game

// Config carries the tunable game constants. A single value is built in main
// and threaded through every constructor; nothing in this package mutates it.
type Config struct {
	// TopicsCount is how many unplayed topics a player is offered at once.
	TopicsCount int
	// AttemptsCount is the per-side attempt budget in points mode.
	AttemptsCount int
	// HitsTarget ends a hits-mode round as soon as a side reaches it.
	HitsTarget int
	// Points maps position-1 to the point value of that position. Positions
	// beyond the table score zero.
	Points []int
	// InitialRounds is the smoothing constant of the share metric.
	InitialRounds int
	// OpponentChoiceSize is how many of the top remaining opponent answers
	// the system opponent picks among.
	OpponentChoiceSize int
	// RatingWindow is how many recent finished rounds feed the rating.
	RatingWindow int
	// AgingCoefficient is the per-day linear decay of a round's rating
	// contribution.
	AgingCoefficient float64
	// VictoryBonus and DrawBonus are added to a round's score before aging.
	VictoryBonus int
	DrawBonus    int
}

// DefaultConfig mirrors the production constants.
func DefaultConfig() Config {
	return Config{
		TopicsCount:        3,
		AttemptsCount:      5,
		HitsTarget:         3,
		Points:             []int{10, 9, 8, 7, 6, 5, 4, 3, 2, 1},
		InitialRounds:      11,
		OpponentChoiceSize: 3,
		RatingWindow:       10,
		AgingCoefficient:   0.03,
		VictoryBonus:       40,
		DrawBonus:          20,
	}
}
