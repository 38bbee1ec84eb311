package services

import (
	"errors"
	"fmt"
	"math"
	"time"

	"guesstop/game"
	"guesstop/models"
	"guesstop/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PlayerService manages player identity and the aggregated statistics both
// ledgers (single-opponent and duel) derive from finished rounds.
type PlayerService struct {
	Players storage.PlayerRepository
	Rounds  storage.RoundRepository
	Config  game.Config
	Log     *zap.SugaredLogger
}

func NewPlayerService(players storage.PlayerRepository, rounds storage.RoundRepository,
	cfg game.Config, log *zap.SugaredLogger) *PlayerService {
	return &PlayerService{Players: players, Rounds: rounds, Config: cfg, Log: log}
}

// FindOrCreate looks a player up by telegram id, creating the record on first
// contact and refreshing the username and display name on every later one.
func (s *PlayerService) FindOrCreate(telegramID int64, username, name string) (*models.Player, error) {
	player, err := s.Players.GetPlayerByTelegramID(telegramID)
	if errors.Is(err, game.ErrNotFound) {
		player = &models.Player{
			ID:               uuid.NewString(),
			TelegramID:       telegramID,
			TelegramUsername: username,
			Name:             name,
		}
		if err := s.Players.CreatePlayer(player); err != nil {
			return nil, err
		}
		s.Log.Infow("player joined", "player", player.DisplayedName())
		return player, nil
	}
	if err != nil {
		return nil, err
	}
	if player.TelegramUsername != username || player.Name != name {
		player.TelegramUsername = username
		player.Name = name
		if err := s.Players.SavePlayer(player); err != nil {
			return nil, err
		}
	}
	return player, nil
}

// SetReferrer binds a referrer once; later calls are no-ops.
func (s *PlayerService) SetReferrer(playerID, referrerID string) error {
	player, err := s.Players.GetPlayer(playerID)
	if err != nil {
		return err
	}
	if player.ReferrerID != nil {
		return nil
	}
	referrer, err := s.Players.GetPlayer(referrerID)
	if err != nil {
		return err
	}
	player.ReferrerID = &referrer.ID
	return s.Players.SavePlayer(player)
}

// RatingPosition is the player's 1-based place on the rating ladder.
func (s *PlayerService) RatingPosition(player *models.Player) (int, error) {
	return s.Players.RatingPosition(player.Rating)
}

// GetPlayer fetches a player by id.
func (s *PlayerService) GetPlayer(id string) (*models.Player, error) {
	return s.Players.GetPlayer(id)
}

// ListPlayers returns a slice of the player base for broadcasts.
func (s *PlayerService) ListPlayers(group storage.PlayerGroup) ([]models.Player, error) {
	return s.Players.ListPlayers(group)
}

// TopPlayers returns the rating leaderboard head.
func (s *PlayerService) TopPlayers(count int) ([]models.Player, error) {
	return s.Players.TopPlayers(count)
}

// UpdateStatistics recomputes both ledgers of one player from their finished
// rounds: win/loss/draw counters, rolling average score, the time-decayed
// rating with best-ever tracking, and the independent duel ledger.
func (s *PlayerService) UpdateStatistics(playerID string) error {
	player, err := s.Players.GetPlayer(playerID)
	if err != nil {
		return err
	}

	single, err := s.Rounds.FinishedRounds(playerID, false)
	if err != nil {
		return err
	}
	player.Victories, player.Defeats, player.Draws, player.AverageScore = tally(single, func(r *models.Round) (int, game.Outcome) {
		return r.Score1, game.RoundOutcome(r.HitsMode, r.Score1, r.Score2, r.Hits1, r.Hits2)
	}, game.OutcomeSide1)

	results := make([]game.RoundResult, 0, len(single))
	for i := range single {
		r := &single[i]
		outcome := game.RoundOutcome(r.HitsMode, r.Score1, r.Score2, r.Hits1, r.Hits2)
		results = append(results, game.RoundResult{
			Score:      r.Score1,
			Won:        outcome == game.OutcomeSide1,
			Drawn:      outcome == game.OutcomeDraw,
			FinishedAt: *r.FinishedAt,
		})
	}
	now := time.Now()
	player.Rating = s.Config.ComputeRating(results, now)
	if player.Rating > player.BestRating {
		player.BestRating = player.Rating
		player.BestRatingAt = &now
	}

	if err := s.updateDuelLedger(player); err != nil {
		return err
	}

	if err := s.Players.SavePlayer(player); err != nil {
		return fmt.Errorf("saving player statistics: %w", err)
	}
	s.Log.Infow("player statistics updated",
		"player", player.DisplayedName(), "rating", player.Rating)
	return nil
}

// updateDuelLedger recomputes the duel counters from rounds the player sat in
// on either seat. Duel contributions carry no time decay.
func (s *PlayerService) updateDuelLedger(player *models.Player) error {
	duels, err := s.Rounds.FinishedByParticipant(player.ID)
	if err != nil {
		return err
	}
	results := make([]game.RoundResult, 0, len(duels))
	scoreSum := 0
	for i := range duels {
		r := &duels[i]
		score, hits, oppScore, oppHits := r.Score1, r.Hits1, r.Score2, r.Hits2
		if r.Player2ID == player.ID {
			score, hits, oppScore, oppHits = r.Score2, r.Hits2, r.Score1, r.Hits1
		}
		outcome := game.RoundOutcome(r.HitsMode, score, oppScore, hits, oppHits)
		scoreSum += score
		results = append(results, game.RoundResult{
			Score:      score,
			Won:        outcome == game.OutcomeSide1,
			Drawn:      outcome == game.OutcomeDraw,
			FinishedAt: *r.FinishedAt,
		})
	}
	player.DuelVictories, player.DuelDefeats, player.DuelDraws = 0, 0, 0
	for _, result := range results {
		switch {
		case result.Won:
			player.DuelVictories++
		case result.Drawn:
			player.DuelDraws++
		default:
			player.DuelDefeats++
		}
	}
	player.DuelAverageScore = 0
	if len(results) > 0 {
		player.DuelAverageScore = int(math.Round(float64(scoreSum) / float64(len(results))))
	}
	player.DuelRating = s.Config.ComputeDuelRating(results)
	return nil
}

// tally counts outcomes and the rounded average score over a seat-1 view.
func tally(rounds []models.Round, view func(*models.Round) (int, game.Outcome), winning game.Outcome) (wins, losses, draws, avg int) {
	scoreSum := 0
	for i := range rounds {
		score, outcome := view(&rounds[i])
		scoreSum += score
		switch outcome {
		case winning:
			wins++
		case game.OutcomeDraw:
			draws++
		default:
			losses++
		}
	}
	if len(rounds) > 0 {
		avg = int(math.Round(float64(scoreSum) / float64(len(rounds))))
	}
	return wins, losses, draws, avg
}
