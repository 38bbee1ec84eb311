package storage

import (
	"time"

	"guesstop/models"
)

// PlayerGroup selects a slice of the player base for listing.
type PlayerGroup string

const (
	PlayersAll PlayerGroup = "ALL"
	// PlayersInactive lists players without a round started in the last week.
	PlayersInactive PlayerGroup = "INACTIVE"
)

// TopicRepository persists topics, their entities and the per-topic ranking
// records.
type TopicRepository interface {
	GetTopic(id string) (*models.Topic, error)
	GetTopicBySlug(slug string) (*models.Topic, error)
	SaveTopic(topic *models.Topic) error
	// UnplayedTopics lists topics the player has not started a round on.
	UnplayedTopics(playerID string) ([]models.Topic, error)

	// TopicEntities returns the topic's ranking records with entities
	// preloaded, ordered by position.
	TopicEntities(topicID string) ([]models.TopicEntity, error)
	GetTopicEntity(id string) (*models.TopicEntity, error)
	CreateTopicEntity(te *models.TopicEntity) error
	SaveTopicEntity(te *models.TopicEntity) error
	SaveTopicEntities(tes []models.TopicEntity) error

	GetEntity(id string) (*models.Entity, error)
	GetEntityByTitle(title string) (*models.Entity, error)
	SearchEntities(term string) ([]models.Entity, error)
	CreateEntity(entity *models.Entity) error
	SaveEntity(entity *models.Entity) error
}

// RoundRepository persists rounds and their answers. Uniqueness of the
// (player1, player2, topic) tuple and of answers within a round is backed by
// database constraints.
type RoundRepository interface {
	CreateRound(round *models.Round) error
	GetRound(id string) (*models.Round, error)
	// FindRound fetches the round of an exact (player1, player2, topic)
	// tuple; player2 is empty for single-opponent play.
	FindRound(player1ID, player2ID, topicID string) (*models.Round, error)
	SaveRound(round *models.Round) error

	// FinishedRounds returns the finished rounds of a player's seat 1, duel
	// or single-opponent, most recently finished first.
	FinishedRounds(player1ID string, duel bool) ([]models.Round, error)
	// FinishedByParticipant returns finished duel rounds the player sat in on
	// either seat.
	FinishedByParticipant(playerID string) ([]models.Round, error)
	// TopicAverageScore aggregates score1 over a topic's finished rounds in
	// one mode.
	TopicAverageScore(topicID string, hitsMode bool) (float64, error)
	CountRounds(topicID string) (int, error)
	// UncheckedRounds lists finished rounds not yet reviewed by moderation,
	// oldest finish first.
	UncheckedRounds() ([]models.Round, error)
	// SetRoundsChecked flags the given rounds as reviewed.
	SetRoundsChecked(ids []string) error

	Answers(roundID string) ([]models.Answer, error)
	GetAnswer(id string) (*models.Answer, error)
	CreateAnswer(answer *models.Answer) error
	SaveAnswer(answer *models.Answer) error
	DiscardAnswers(ids []string) error
	// UnboundAnswers lists answers pending moderation, newest first,
	// optionally only those sent after the cutoff.
	UnboundAnswers(since *time.Time) ([]models.Answer, error)
}

// PlayerRepository persists players and their aggregated statistics.
type PlayerRepository interface {
	GetPlayer(id string) (*models.Player, error)
	GetPlayerByTelegramID(telegramID int64) (*models.Player, error)
	CreatePlayer(player *models.Player) error
	SavePlayer(player *models.Player) error
	ListPlayers(group PlayerGroup) ([]models.Player, error)
	TopPlayers(count int) ([]models.Player, error)
	// RatingPosition is 1 plus the number of players rated strictly higher.
	RatingPosition(rating int) (int, error)
}
