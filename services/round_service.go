package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"guesstop/game"
	"guesstop/models"
	"guesstop/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RoundService orchestrates one play session: round creation, answer
// submission with duplicate guards and disambiguation, the system opponent's
// moves, and the idempotent finish that fans out statistics recomputes.
//
// Live state lives in the GameStateStore and is mutated through explicit
// read-modify-write cycles; a concurrent writer surfaces as
// game.ErrStateConflict and the caller retries the submission.
type RoundService struct {
	Rounds    storage.RoundRepository
	Topics    storage.TopicRepository
	States    storage.GameStateStore
	TopicSvc  *TopicService
	PlayerSvc *PlayerService
	Config    game.Config
	Log       *zap.SugaredLogger
	Rand      *rand.Rand
}

func NewRoundService(rounds storage.RoundRepository, topics storage.TopicRepository,
	states storage.GameStateStore, topicSvc *TopicService, playerSvc *PlayerService,
	cfg game.Config, log *zap.SugaredLogger, rng *rand.Rand) *RoundService {
	return &RoundService{
		Rounds: rounds, Topics: topics, States: states,
		TopicSvc: topicSvc, PlayerSvc: playerSvc,
		Config: cfg, Log: log, Rand: rng,
	}
}

// AttemptResult is what one submission returns for presentation: the current
// attempt, the entity the answer bound to — or several candidates when the
// text was ambiguous and the caller must re-submit with a chosen entity —
// and the live score snapshot.
type AttemptResult struct {
	Attempt  int                  `json:"attempt"`
	Skipped  bool                 `json:"skipped,omitempty"`
	Entities []models.TopicEntity `json:"entities,omitempty"`
	State    *game.GameState      `json:"state"`
	Over     bool                 `json:"over"`
}

// Ambiguous reports whether the caller must disambiguate.
func (r *AttemptResult) Ambiguous() bool {
	return len(r.Entities) > 1
}

// OpponentResult is the system opponent's revealed move.
type OpponentResult struct {
	Text    string              `json:"text"`
	Entity  *models.TopicEntity `json:"entity,omitempty"`
	Attempt int                 `json:"attempt"`
	State   *game.GameState     `json:"state"`
	Over    bool                `json:"over"`
}

// CreateRound starts a round of player1 against player2 (empty for the
// system opponent) on a topic. A pair plays a topic at most once:
// game.ErrAlreadyPlayed reports a repeat. Single-opponent rounds seed the
// opponent's candidate pool from the topic's precomputed answers.
func (s *RoundService) CreateRound(ctx context.Context, player1ID, player2ID, topicID string, hitsMode bool) (*models.Round, error) {
	topic, err := s.Topics.GetTopic(topicID)
	if err != nil {
		return nil, err
	}
	if _, err := s.Rounds.FindRound(player1ID, player2ID, topicID); err == nil {
		return nil, fmt.Errorf("topic %q: %w", topic.Title, game.ErrAlreadyPlayed)
	} else if !errors.Is(err, game.ErrNotFound) {
		return nil, err
	}

	duel := player2ID != ""
	round := &models.Round{
		ID:        uuid.NewString(),
		Player1ID: player1ID,
		Player2ID: player2ID,
		TopicID:   topicID,
		Duel:      duel,
		HitsMode:  hitsMode,
	}
	if err := s.Rounds.CreateRound(round); err != nil {
		return nil, err
	}

	var pool []game.OpponentAnswer
	if !duel {
		if pool, err = topic.DecodeOpponentAnswers(); err != nil {
			return nil, err
		}
	}
	st := game.NewGameState(round.ID, hitsMode, duel, pool)
	if err := s.States.SaveState(ctx, round.ID, st, 0); err != nil {
		return nil, err
	}

	if err := s.TopicSvc.ClearAssignedTopics(player1ID); err != nil {
		return nil, err
	}
	s.Log.Infow("round started",
		"round", round.ID, "topic", topic.Title, "duel", duel, "hits_mode", hitsMode)
	return round, nil
}

// SubmitAnswer processes one free-text submission from a side. The sentinel
// skip marker passes the turn without creating an Answer but still consumes
// the attempt. chosenEntityID short-circuits recognition after an ambiguity.
// A repeated entity or repeated raw text within the round is rejected with
// game.ErrDuplicateAnswer and logged on the round with the colliding label.
func (s *RoundService) SubmitAnswer(ctx context.Context, roundID string, side game.Side, text, chosenEntityID string) (*AttemptResult, error) {
	round, st, version, err := s.loadLiveRound(ctx, roundID)
	if err != nil {
		return nil, err
	}
	if st.Duel && st.CurrentTurn != side {
		return nil, fmt.Errorf("round %s side %d: %w", roundID, side, game.ErrNotYourTurn)
	}

	if text == game.SkipMarker && chosenEntityID == "" {
		s.advanceTurn(st, side)
		if err := s.States.SaveState(ctx, roundID, st, version); err != nil {
			return nil, err
		}
		return &AttemptResult{Attempt: st.Attempt, Skipped: true, State: st, Over: s.Config.IsOver(st)}, nil
	}

	var te *models.TopicEntity
	if chosenEntityID != "" {
		if te, err = s.Topics.GetTopicEntity(chosenEntityID); err != nil {
			return nil, err
		}
		if te.TopicID != round.TopicID {
			return nil, fmt.Errorf("topic entity %s is not on the round's topic: %w",
				chosenEntityID, game.ErrNotFound)
		}
	} else {
		candidates, err := s.recognize(round, text)
		if err != nil {
			return nil, err
		}
		switch len(candidates) {
		case 0:
			return s.acceptUnbound(ctx, round, st, version, side, text)
		case 1:
			te = &candidates[0]
		default:
			// Ambiguity: no state change until the caller picks one.
			return &AttemptResult{Attempt: st.Attempt, Entities: candidates, State: st}, nil
		}
	}

	if err := s.guardDuplicate(round, st, te, side, text, chosenEntityID != ""); err != nil {
		return nil, err
	}

	answer := &models.Answer{
		ID:            uuid.NewString(),
		RoundID:       round.ID,
		TopicEntityID: te.ID,
		Side:          int(side),
		Text:          text,
		Position:      te.Position,
	}
	if err := s.Rounds.CreateAnswer(answer); err != nil {
		return nil, err
	}
	// Human answers feed popularity; the recorded position stays as captured
	// at acceptance time.
	if side == game.Side1 || st.Duel {
		if err := s.TopicSvc.IncrementAnswer(te); err != nil {
			return nil, err
		}
	}

	st.ApplyScore(side, answer.Position, s.Config.PointsFor(answer.Position), te.Entity.Title)
	st.RemoveFromPool(te.ID)
	s.advanceTurn(st, side)
	if err := s.States.SaveState(ctx, roundID, st, version); err != nil {
		return nil, err
	}

	s.Log.Infow("answer accepted",
		"round", roundID, "side", side, "text", text, "entity", te.Entity.Title, "position", answer.Position)
	return &AttemptResult{
		Attempt:  st.Attempt,
		Entities: []models.TopicEntity{*te},
		State:    st,
		Over:     s.Config.IsOver(st),
	}, nil
}

// OpponentTurn plays the system opponent's move in a single-opponent round:
// one of the top remaining candidates is revealed, bound as a side-2 answer
// and removed from the pool, closing the exchange.
func (s *RoundService) OpponentTurn(ctx context.Context, roundID string) (*OpponentResult, error) {
	round, st, version, err := s.loadLiveRound(ctx, roundID)
	if err != nil {
		return nil, err
	}
	if st.Duel {
		return nil, fmt.Errorf("round %s is a duel: %w", roundID, game.ErrNotYourTurn)
	}

	pick, ok := s.Config.PickOpponentAnswer(st, s.Rand)
	if !ok {
		// Candidate pool exhausted; the exchange still closes.
		st.NextExchange()
		if err := s.States.SaveState(ctx, roundID, st, version); err != nil {
			return nil, err
		}
		return &OpponentResult{Attempt: st.Attempt, State: st, Over: s.Config.IsOver(st)}, nil
	}
	te, err := s.Topics.GetTopicEntity(pick.TopicEntityID)
	if err != nil {
		return nil, err
	}

	answer := &models.Answer{
		ID:            uuid.NewString(),
		RoundID:       round.ID,
		TopicEntityID: te.ID,
		Side:          int(game.Side2),
		Text:          pick.Text,
		Position:      te.Position,
	}
	if err := s.Rounds.CreateAnswer(answer); err != nil {
		return nil, err
	}

	st.ApplyScore(game.Side2, te.Position, s.Config.PointsFor(te.Position), te.Entity.Title)
	st.RemoveFromPool(te.ID)
	st.NextExchange()
	if err := s.States.SaveState(ctx, roundID, st, version); err != nil {
		return nil, err
	}

	return &OpponentResult{
		Text:    pick.Text,
		Entity:  te,
		Attempt: st.Attempt,
		State:   st,
		Over:    s.Config.IsOver(st),
	}, nil
}

// AddFeedback stores a side's free-text feedback on the round.
func (s *RoundService) AddFeedback(roundID string, side game.Side, feedback string) error {
	round, err := s.Rounds.GetRound(roundID)
	if err != nil {
		return err
	}
	if side == game.Side2 {
		round.Player2Feedback = feedback
	} else {
		round.Player1Feedback = feedback
	}
	return s.Rounds.SaveRound(round)
}

// Finish closes a round with the final scores. Finishing twice is a no-op.
// An abort zeroes the aborting side's contribution and skips the statistics
// fan-out; a regular finish recomputes topic statistics and every human
// participant's ledgers exactly once.
func (s *RoundService) Finish(ctx context.Context, roundID string, score1, score2, hits1, hits2 int, abortSide game.Side) error {
	round, err := s.Rounds.GetRound(roundID)
	if err != nil {
		return err
	}
	if round.Finished() {
		return nil
	}

	switch abortSide {
	case game.Side1:
		score1, hits1 = 0, 0
	case game.Side2:
		score2, hits2 = 0, 0
	}
	round.Score1, round.Score2 = score1, score2
	round.Hits1, round.Hits2 = hits1, hits2
	now := time.Now()
	round.FinishedAt = &now
	if err := s.Rounds.SaveRound(round); err != nil {
		return err
	}
	if err := s.States.DeleteState(ctx, roundID); err != nil {
		s.Log.Warnw("dropping game state failed", "round", roundID, "error", err)
	}

	if abortSide != 0 {
		s.Log.Infow("round aborted", "round", roundID, "side", abortSide)
		return nil
	}

	if err := s.TopicSvc.UpdateStatistics(round.TopicID); err != nil {
		return err
	}
	if err := s.PlayerSvc.UpdateStatistics(round.Player1ID); err != nil {
		return err
	}
	if round.Duel && round.Player2ID != "" {
		if err := s.PlayerSvc.UpdateStatistics(round.Player2ID); err != nil {
			return err
		}
	}
	s.Log.Infow("round finished",
		"round", roundID,
		"outcome", game.RoundOutcome(round.HitsMode, score1, score2, hits1, hits2))
	return nil
}

// UnboundAnswers lists submissions still waiting for moderation, newest
// first, optionally only those sent after the cutoff.
func (s *RoundService) UnboundAnswers(since *time.Time) ([]models.Answer, error) {
	return s.Rounds.UnboundAnswers(since)
}

// DiscardAnswers soft-discards answers a moderator rejected.
func (s *RoundService) DiscardAnswers(ids []string) error {
	return s.Rounds.DiscardAnswers(ids)
}

// UncheckedRounds lists finished rounds awaiting moderation review, oldest
// finish first.
func (s *RoundService) UncheckedRounds() ([]models.Round, error) {
	return s.Rounds.UncheckedRounds()
}

// MarkChecked flags the given rounds as reviewed.
func (s *RoundService) MarkChecked(ids []string) error {
	return s.Rounds.SetRoundsChecked(ids)
}

// loadLiveRound fetches the round record and its live state, rejecting play
// on a finished round.
func (s *RoundService) loadLiveRound(ctx context.Context, roundID string) (*models.Round, *game.GameState, int64, error) {
	round, err := s.Rounds.GetRound(roundID)
	if err != nil {
		return nil, nil, 0, err
	}
	if round.Finished() {
		return nil, nil, 0, fmt.Errorf("round %s: %w", roundID, game.ErrRoundFinished)
	}
	st, version, err := s.States.GetState(ctx, roundID)
	if err != nil {
		return nil, nil, 0, err
	}
	return round, st, version, nil
}

// recognize resolves free text against the round topic's match index and
// maps the recognized entity ids to the topic's ranking records.
func (s *RoundService) recognize(round *models.Round, text string) ([]models.TopicEntity, error) {
	topic, err := s.Topics.GetTopic(round.TopicID)
	if err != nil {
		return nil, err
	}
	index, err := topic.DecodeMatches()
	if err != nil {
		return nil, err
	}
	ids := index.Resolve(text)
	if len(ids) == 0 {
		return nil, nil
	}
	matched := make(map[string]bool, len(ids))
	for _, id := range ids {
		matched[id] = true
	}
	tes, err := s.Topics.TopicEntities(round.TopicID)
	if err != nil {
		return nil, err
	}
	var candidates []models.TopicEntity
	for i := range tes {
		if matched[tes[i].EntityID] {
			candidates = append(candidates, tes[i])
		}
	}
	return candidates, nil
}

// guardDuplicate rejects an entity already bound in this round. In a duel
// the other seat may bind the same entity independently; the same seat may
// not. The rejection is logged on the round with the colliding label.
func (s *RoundService) guardDuplicate(round *models.Round, st *game.GameState, te *models.TopicEntity, side game.Side, text string, chosen bool) error {
	answers, err := s.Rounds.Answers(round.ID)
	if err != nil {
		return err
	}
	for i := range answers {
		if answers[i].TopicEntityID != te.ID {
			continue
		}
		if st.Duel && answers[i].Side != int(side) {
			continue
		}
		label := te.Entity.Title
		if chosen {
			label = "CHOICE REPEAT"
		}
		return s.decline(round, text, label, side)
	}
	return nil
}

// acceptUnbound records a submission no entity recognized; it waits for
// moderation. Identical text twice in one round is declined.
func (s *RoundService) acceptUnbound(ctx context.Context, round *models.Round, st *game.GameState, version int64, side game.Side, text string) (*AttemptResult, error) {
	answers, err := s.Rounds.Answers(round.ID)
	if err != nil {
		return nil, err
	}
	for i := range answers {
		if !answers[i].Bound() && answers[i].Text == text {
			return nil, s.decline(round, text, "NEW REPEAT", side)
		}
	}
	answer := &models.Answer{
		ID:      uuid.NewString(),
		RoundID: round.ID,
		Side:    int(side),
		Text:    text,
	}
	if err := s.Rounds.CreateAnswer(answer); err != nil {
		return nil, err
	}
	s.advanceTurn(st, side)
	if err := s.States.SaveState(ctx, round.ID, st, version); err != nil {
		return nil, err
	}
	return &AttemptResult{Attempt: st.Attempt, State: st, Over: s.Config.IsOver(st)}, nil
}

// decline logs a rejected duplicate on the round and returns the guard error.
func (s *RoundService) decline(round *models.Round, text, label string, side game.Side) error {
	if err := round.AddDeclined(text, label, int(side)); err != nil {
		return err
	}
	if err := s.Rounds.SaveRound(round); err != nil {
		return err
	}
	s.Log.Warnw("duplicate answer declined",
		"round", round.ID, "side", side, "text", text, "collides_with", label)
	return fmt.Errorf("%q collides with %s: %w", text, label, game.ErrDuplicateAnswer)
}

// advanceTurn moves the turn after one side's completed move. A duel closes
// the exchange when seat 2 has moved; a single-opponent round hands the turn
// to the system, which closes the exchange in OpponentTurn.
func (s *RoundService) advanceTurn(st *game.GameState, side game.Side) {
	if st.Duel && side == game.Side2 {
		st.NextExchange()
		return
	}
	st.SwitchTurn()
}
