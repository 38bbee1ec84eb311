package storage

import (
	"errors"
	"fmt"
	"time"

	"guesstop/game"
	"guesstop/models"

	"gorm.io/gorm"
)

// GormStore implements the repository interfaces on a GORM connection.
type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

// AutoMigrate creates or updates the schema for every model.
func (s *GormStore) AutoMigrate() error {
	return s.DB.AutoMigrate(
		&models.Topic{},
		&models.Entity{},
		&models.TopicEntity{},
		&models.Round{},
		&models.Answer{},
		&models.Player{},
	)
}

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, game.ErrNotFound)
	}
	return err
}

// --- topics ---

func (s *GormStore) GetTopic(id string) (*models.Topic, error) {
	var topic models.Topic
	if err := s.DB.First(&topic, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "topic")
	}
	return &topic, nil
}

func (s *GormStore) GetTopicBySlug(slug string) (*models.Topic, error) {
	var topic models.Topic
	if err := s.DB.First(&topic, "slug = ?", slug).Error; err != nil {
		return nil, notFound(err, "topic")
	}
	return &topic, nil
}

func (s *GormStore) SaveTopic(topic *models.Topic) error {
	return s.DB.Save(topic).Error
}

func (s *GormStore) UnplayedTopics(playerID string) ([]models.Topic, error) {
	var topics []models.Topic
	err := s.DB.
		Where("id NOT IN (?)", s.DB.Model(&models.Round{}).Select("topic_id").Where("player1_id = ?", playerID)).
		Order("title").
		Find(&topics).Error
	return topics, err
}

func (s *GormStore) TopicEntities(topicID string) ([]models.TopicEntity, error) {
	var tes []models.TopicEntity
	err := s.DB.Preload("Entity").Where("topic_id = ?", topicID).Order("position").Find(&tes).Error
	return tes, err
}

func (s *GormStore) GetTopicEntity(id string) (*models.TopicEntity, error) {
	var te models.TopicEntity
	if err := s.DB.Preload("Entity").First(&te, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "topic entity")
	}
	return &te, nil
}

func (s *GormStore) CreateTopicEntity(te *models.TopicEntity) error {
	return s.DB.Create(te).Error
}

func (s *GormStore) SaveTopicEntity(te *models.TopicEntity) error {
	return s.DB.Omit("Entity").Save(te).Error
}

func (s *GormStore) SaveTopicEntities(tes []models.TopicEntity) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		for i := range tes {
			if err := tx.Omit("Entity").Save(&tes[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// --- entities ---

func (s *GormStore) GetEntity(id string) (*models.Entity, error) {
	var entity models.Entity
	if err := s.DB.First(&entity, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "entity")
	}
	return &entity, nil
}

func (s *GormStore) GetEntityByTitle(title string) (*models.Entity, error) {
	var entity models.Entity
	if err := s.DB.First(&entity, "title = ?", title).Error; err != nil {
		return nil, notFound(err, "entity")
	}
	return &entity, nil
}

func (s *GormStore) SearchEntities(term string) ([]models.Entity, error) {
	var entities []models.Entity
	err := s.DB.Where("title ILIKE ?", "%"+term+"%").Order("title").Find(&entities).Error
	return entities, err
}

func (s *GormStore) CreateEntity(entity *models.Entity) error {
	return s.DB.Create(entity).Error
}

func (s *GormStore) SaveEntity(entity *models.Entity) error {
	return s.DB.Save(entity).Error
}

// --- rounds ---

func (s *GormStore) CreateRound(round *models.Round) error {
	return s.DB.Create(round).Error
}

func (s *GormStore) GetRound(id string) (*models.Round, error) {
	var round models.Round
	if err := s.DB.First(&round, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "round")
	}
	return &round, nil
}

func (s *GormStore) FindRound(player1ID, player2ID, topicID string) (*models.Round, error) {
	var round models.Round
	err := s.DB.First(&round, "player1_id = ? AND player2_id = ? AND topic_id = ?",
		player1ID, player2ID, topicID).Error
	if err != nil {
		return nil, notFound(err, "round")
	}
	return &round, nil
}

func (s *GormStore) SaveRound(round *models.Round) error {
	return s.DB.Save(round).Error
}

func (s *GormStore) FinishedRounds(player1ID string, duel bool) ([]models.Round, error) {
	var rounds []models.Round
	err := s.DB.
		Where("player1_id = ? AND duel = ? AND finished_at IS NOT NULL", player1ID, duel).
		Order("finished_at DESC").
		Find(&rounds).Error
	return rounds, err
}

func (s *GormStore) FinishedByParticipant(playerID string) ([]models.Round, error) {
	var rounds []models.Round
	err := s.DB.
		Where("duel = ? AND finished_at IS NOT NULL AND (player1_id = ? OR player2_id = ?)",
			true, playerID, playerID).
		Order("finished_at DESC").
		Find(&rounds).Error
	return rounds, err
}

func (s *GormStore) TopicAverageScore(topicID string, hitsMode bool) (float64, error) {
	var avg *float64
	err := s.DB.Model(&models.Round{}).
		Where("topic_id = ? AND hits_mode = ? AND finished_at IS NOT NULL", topicID, hitsMode).
		Select("AVG(score1)").
		Scan(&avg).Error
	if err != nil || avg == nil {
		return 0, err
	}
	return *avg, nil
}

func (s *GormStore) CountRounds(topicID string) (int, error) {
	var count int64
	err := s.DB.Model(&models.Round{}).Where("topic_id = ?", topicID).Count(&count).Error
	return int(count), err
}

func (s *GormStore) UncheckedRounds() ([]models.Round, error) {
	var rounds []models.Round
	err := s.DB.
		Where("checked = false AND finished_at IS NOT NULL").
		Order("finished_at").
		Find(&rounds).Error
	return rounds, err
}

func (s *GormStore) SetRoundsChecked(ids []string) error {
	return s.DB.Model(&models.Round{}).Where("id IN ?", ids).Update("checked", true).Error
}

// --- answers ---

func (s *GormStore) Answers(roundID string) ([]models.Answer, error) {
	var answers []models.Answer
	err := s.DB.Where("round_id = ?", roundID).Order("sent_at").Find(&answers).Error
	return answers, err
}

func (s *GormStore) GetAnswer(id string) (*models.Answer, error) {
	var answer models.Answer
	if err := s.DB.First(&answer, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "answer")
	}
	return &answer, nil
}

func (s *GormStore) CreateAnswer(answer *models.Answer) error {
	return s.DB.Create(answer).Error
}

func (s *GormStore) SaveAnswer(answer *models.Answer) error {
	return s.DB.Save(answer).Error
}

func (s *GormStore) DiscardAnswers(ids []string) error {
	return s.DB.Model(&models.Answer{}).Where("id IN ?", ids).Update("discarded", true).Error
}

func (s *GormStore) UnboundAnswers(since *time.Time) ([]models.Answer, error) {
	var answers []models.Answer
	query := s.DB.Where("topic_entity_id = '' AND discarded = false")
	if since != nil {
		query = query.Where("sent_at >= ?", *since)
	}
	err := query.Order("sent_at DESC").Find(&answers).Error
	return answers, err
}

// --- players ---

func (s *GormStore) GetPlayer(id string) (*models.Player, error) {
	var player models.Player
	if err := s.DB.First(&player, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "player")
	}
	return &player, nil
}

func (s *GormStore) GetPlayerByTelegramID(telegramID int64) (*models.Player, error) {
	var player models.Player
	if err := s.DB.First(&player, "telegram_id = ?", telegramID).Error; err != nil {
		return nil, notFound(err, "player")
	}
	return &player, nil
}

func (s *GormStore) CreatePlayer(player *models.Player) error {
	return s.DB.Create(player).Error
}

func (s *GormStore) SavePlayer(player *models.Player) error {
	return s.DB.Save(player).Error
}

func (s *GormStore) ListPlayers(group PlayerGroup) ([]models.Player, error) {
	var players []models.Player
	query := s.DB.Order("created_at")
	if group == PlayersInactive {
		oneWeekAgo := time.Now().AddDate(0, 0, -7)
		query = query.Where("id NOT IN (?)",
			s.DB.Model(&models.Round{}).Select("player1_id").Where("started_at >= ?", oneWeekAgo))
	}
	err := query.Find(&players).Error
	return players, err
}

func (s *GormStore) TopPlayers(count int) ([]models.Player, error) {
	var players []models.Player
	err := s.DB.Order("rating DESC").Limit(count).Find(&players).Error
	return players, err
}

func (s *GormStore) RatingPosition(rating int) (int, error) {
	var count int64
	err := s.DB.Model(&models.Player{}).Where("rating > ?", rating).Count(&count).Error
	return int(count) + 1, err
}
