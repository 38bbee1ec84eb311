package game

import "math/rand"

// SkipMarker is the sentinel a player submits to pass a turn.
const SkipMarker = "-"

// Side identifies a seat in a round: 1 is the round owner, 2 the opponent
// (human in a duel, the system otherwise).
type Side int

const (
	Side1 Side = 1
	Side2 Side = 2
)

// Other returns the opposite seat.
func (s Side) Other() Side {
	if s == Side1 {
		return Side2
	}
	return Side1
}

// Outcome is a finished round's result seen from side 1.
type Outcome string

const (
	OutcomeSide1 Outcome = "1"
	OutcomeSide2 Outcome = "2"
	OutcomeDraw  Outcome = "="
)

// Hit is one scoring answer in the live log, kept for presentation.
type Hit struct {
	Side     Side   `json:"side"`
	Position int    `json:"position"`
	Title    string `json:"title"`
	Points   int    `json:"points"`
}

// OpponentAnswer is one remaining candidate of the system opponent.
type OpponentAnswer struct {
	TopicEntityID string `json:"topic_entity_id"`
	Text          string `json:"text"`
}

// GameState is the live, shared state of one in-progress round. It lives in
// the GameStateStore between submissions and is mutated only through the
// read-modify-write cycle the store enforces.
type GameState struct {
	RoundID     string           `json:"round_id"`
	HitsMode    bool             `json:"hits_mode"`
	Duel        bool             `json:"duel"`
	CurrentTurn Side             `json:"current_turn"`
	Attempt     int              `json:"attempt"`
	Score1      int              `json:"score1"`
	Score2      int              `json:"score2"`
	Hits1       int              `json:"hits1"`
	Hits2       int              `json:"hits2"`
	Hits        []Hit            `json:"hits"`
	Pool        []OpponentAnswer `json:"pool,omitempty"`
}

// NewGameState seeds the live state of a fresh round. The pool is the
// system opponent's candidate answers, best-ranked first; duels carry none.
func NewGameState(roundID string, hitsMode, duel bool, pool []OpponentAnswer) *GameState {
	return &GameState{
		RoundID:     roundID,
		HitsMode:    hitsMode,
		Duel:        duel,
		CurrentTurn: Side1,
		Attempt:     1,
		Pool:        pool,
	}
}

// ApplyScore credits an accepted answer to a side. Answers outside the point
// table are dropped: they neither enter the log nor move the counters.
func (st *GameState) ApplyScore(side Side, position, points int, title string) {
	if points <= 0 {
		return
	}
	st.Hits = append(st.Hits, Hit{Side: side, Position: position, Title: title, Points: points})
	if side == Side1 {
		st.Score1 += points
		st.Hits1++
	} else {
		st.Score2 += points
		st.Hits2++
	}
}

// NextExchange closes one exchange: the attempt counter advances and the turn
// returns to side 1.
func (st *GameState) NextExchange() {
	st.Attempt++
	st.CurrentTurn = Side1
}

// SwitchTurn hands the turn to the other seat.
func (st *GameState) SwitchTurn() {
	st.CurrentTurn = st.CurrentTurn.Other()
}

// RemoveFromPool drops a bound entity from the opponent's candidates so the
// opponent never repeats an answer the player already gave.
func (st *GameState) RemoveFromPool(topicEntityID string) {
	for i, candidate := range st.Pool {
		if candidate.TopicEntityID == topicEntityID {
			st.Pool = append(st.Pool[:i], st.Pool[i+1:]...)
			return
		}
	}
}

// PickOpponentAnswer selects the system opponent's next answer among its
// top remaining candidates. The second value is false when the pool is empty.
func (c Config) PickOpponentAnswer(st *GameState, rng *rand.Rand) (OpponentAnswer, bool) {
	if len(st.Pool) == 0 {
		return OpponentAnswer{}, false
	}
	slice := st.Pool
	if len(slice) > c.OpponentChoiceSize {
		slice = slice[:c.OpponentChoiceSize]
	}
	return slice[rng.Intn(len(slice))], true
}

// IsOver reports whether the round reached its terminal condition: the
// attempt budget in points mode, or either side reaching the hits target.
func (c Config) IsOver(st *GameState) bool {
	if st.HitsMode {
		return st.Hits1 >= c.HitsTarget || st.Hits2 >= c.HitsTarget
	}
	return st.Attempt > c.AttemptsCount
}

// RoundOutcome resolves a finished round. Hits mode compares hit counters
// first and breaks a tie by cumulative points; points mode compares points.
func RoundOutcome(hitsMode bool, score1, score2, hits1, hits2 int) Outcome {
	if hitsMode && hits1 != hits2 {
		if hits1 > hits2 {
			return OutcomeSide1
		}
		return OutcomeSide2
	}
	switch {
	case score1 > score2:
		return OutcomeSide1
	case score1 < score2:
		return OutcomeSide2
	default:
		return OutcomeDraw
	}
}
