package services

import (
	"errors"
	"fmt"
	"math/rand"

	"guesstop/game"
	"guesstop/models"
	"guesstop/storage"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
)

// TopicService owns the topic dictionary lifecycle: compiling entity
// patterns, rebuilding per-topic match indexes, popularity ranking, the
// opponent-answer pool, topic statistics and the random unplayed-topic offer.
type TopicService struct {
	Topics  storage.TopicRepository
	Rounds  storage.RoundRepository
	Players storage.PlayerRepository
	Config  game.Config
	Log     *zap.SugaredLogger
	Rand    *rand.Rand
}

func NewTopicService(topics storage.TopicRepository, rounds storage.RoundRepository,
	players storage.PlayerRepository, cfg game.Config, log *zap.SugaredLogger, rng *rand.Rand) *TopicService {
	return &TopicService{Topics: topics, Rounds: rounds, Players: players, Config: cfg, Log: log, Rand: rng}
}

// GetTopic fetches a topic by id, falling back to the slug used in challenge
// deeplinks.
func (s *TopicService) GetTopic(idOrSlug string) (*models.Topic, error) {
	topic, err := s.Topics.GetTopic(idOrSlug)
	if errors.Is(err, game.ErrNotFound) {
		return s.Topics.GetTopicBySlug(idOrSlug)
	}
	return topic, err
}

// RandomTopics offers unplayed topics to a player. The draw is memoized on
// the player until a round starts, so asking again returns the same offer.
// game.ErrExhausted reports that the player has played everything.
func (s *TopicService) RandomTopics(playerID string) ([]models.Topic, error) {
	player, err := s.Players.GetPlayer(playerID)
	if err != nil {
		return nil, err
	}
	if assigned := player.AssignedTopicIDs(); len(assigned) > 0 {
		topics := make([]models.Topic, 0, len(assigned))
		for _, id := range assigned {
			topic, err := s.Topics.GetTopic(id)
			if err != nil {
				return nil, err
			}
			topics = append(topics, *topic)
		}
		return topics, nil
	}

	unplayed, err := s.Topics.UnplayedTopics(playerID)
	if err != nil {
		return nil, err
	}
	if len(unplayed) == 0 {
		return nil, fmt.Errorf("player %s: %w", player.DisplayedName(), game.ErrExhausted)
	}
	s.Rand.Shuffle(len(unplayed), func(i, j int) {
		unplayed[i], unplayed[j] = unplayed[j], unplayed[i]
	})
	if len(unplayed) > s.Config.TopicsCount {
		unplayed = unplayed[:s.Config.TopicsCount]
	}
	ids := make([]string, len(unplayed))
	for i := range unplayed {
		ids[i] = unplayed[i].ID
	}
	player.AssignTopics(ids)
	if err := s.Players.SavePlayer(player); err != nil {
		return nil, err
	}
	return unplayed, nil
}

// ClearAssignedTopics drops a player's memoized offer, called when a round
// starts.
func (s *TopicService) ClearAssignedTopics(playerID string) error {
	player, err := s.Players.GetPlayer(playerID)
	if err != nil {
		return err
	}
	if player.AssignedTopics == "" {
		return nil
	}
	player.AssignedTopics = ""
	return s.Players.SavePlayer(player)
}

// CompileEntity recompiles an entity's pattern and stores the canonical match
// set. Compilation failure leaves the previously published set untouched.
func (s *TopicService) CompileEntity(entity *models.Entity, pattern string) error {
	matches, err := game.CompilePattern(pattern)
	if err != nil {
		return fmt.Errorf("entity %q: %w", entity.Title, err)
	}
	entity.Pattern = pattern
	entity.SetMatchList(matches)
	return s.Topics.SaveEntity(entity)
}

// UpdateEntity applies a moderation edit: the title is renamed freely, a
// changed pattern is recompiled before anything is stored.
func (s *TopicService) UpdateEntity(entity *models.Entity, title, pattern string) error {
	if title != "" && entity.Title != title {
		entity.Title = title
		if err := s.Topics.SaveEntity(entity); err != nil {
			return err
		}
	}
	if pattern != "" && entity.Pattern != pattern {
		return s.CompileEntity(entity, pattern)
	}
	return nil
}

// RebuildMatches regenerates a topic's dictionary from its entities' compiled
// matches and the current exclusion list. Must run before the next lookup
// whenever either changes.
func (s *TopicService) RebuildMatches(topic *models.Topic) error {
	tes, err := s.Topics.TopicEntities(topic.ID)
	if err != nil {
		return err
	}
	matchesByEntity := make(map[string][]string, len(tes))
	for i := range tes {
		matchesByEntity[tes[i].EntityID] = tes[i].Entity.MatchList()
	}
	index := game.BuildIndex(matchesByEntity, topic.ExclusionWords(), topic.AllowedSymbols)
	if err := topic.EncodeMatches(index); err != nil {
		return err
	}
	s.ensureSlug(topic)
	if err := s.Topics.SaveTopic(topic); err != nil {
		return err
	}
	s.Log.Infow("match index rebuilt", "topic", topic.Title, "keys", len(index.Keys))
	return nil
}

// RecomputePositions re-ranks a topic's entities by answer count and
// refreshes the opponent-answer pool in ranking order.
func (s *TopicService) RecomputePositions(topicID string) error {
	topic, err := s.Topics.GetTopic(topicID)
	if err != nil {
		return err
	}
	tes, err := s.Topics.TopicEntities(topicID)
	if err != nil {
		return err
	}
	entries := make([]game.RankedEntity, len(tes))
	for i := range tes {
		entries[i] = game.RankedEntity{ID: tes[i].EntityID, AnswersCount: tes[i].AnswersCount}
	}
	positions := game.AssignPositions(entries)
	for i := range tes {
		tes[i].Position = positions[tes[i].EntityID]
	}
	if err := s.Topics.SaveTopicEntities(tes); err != nil {
		return err
	}

	pool := make([]game.OpponentAnswer, len(tes))
	for i := range tes {
		pool[positions[tes[i].EntityID]-1] = game.OpponentAnswer{
			TopicEntityID: tes[i].ID,
			Text:          tes[i].Entity.Title,
		}
	}
	if err := topic.EncodeOpponentAnswers(pool); err != nil {
		return err
	}
	s.ensureSlug(topic)
	return s.Topics.SaveTopic(topic)
}

// IncrementAnswer bumps one ranking record and re-ranks the topic.
func (s *TopicService) IncrementAnswer(te *models.TopicEntity) error {
	te.AnswersCount++
	if err := s.Topics.SaveTopicEntity(te); err != nil {
		return err
	}
	return s.RecomputePositions(te.TopicID)
}

// UpdateStatistics refreshes a topic's per-mode average score from its
// finished rounds and re-ranks its entities.
func (s *TopicService) UpdateStatistics(topicID string) error {
	topic, err := s.Topics.GetTopic(topicID)
	if err != nil {
		return err
	}
	if topic.AverageScore, err = s.Rounds.TopicAverageScore(topicID, false); err != nil {
		return err
	}
	if topic.AverageScoreHitsMode, err = s.Rounds.TopicAverageScore(topicID, true); err != nil {
		return err
	}
	s.ensureSlug(topic)
	if err := s.Topics.SaveTopic(topic); err != nil {
		return err
	}
	return s.RecomputePositions(topicID)
}

// SearchEntities is the moderation aid behind the entity picker.
func (s *TopicService) SearchEntities(term string) ([]models.Entity, error) {
	return s.Topics.SearchEntities(term)
}

// ModerationRequest binds a previously unrecognized answer to an entity:
// an existing ranking record, an existing entity (joined to the topic on the
// fly), or a brand-new entity authored inline.
type ModerationRequest struct {
	AnswerID      string `json:"answer_id"`
	TopicEntityID string `json:"topic_entity_id,omitempty"`
	EntityID      string `json:"entity_id,omitempty"`
	EntityTitle   string `json:"entity_title,omitempty"`
	EntityPattern string `json:"entity_pattern,omitempty"`
}

// ModerateAnswer applies a moderation binding, then rebuilds the affected
// topic's dictionary so the next lookup recognizes the new spelling.
func (s *TopicService) ModerateAnswer(req ModerationRequest) error {
	answer, err := s.Rounds.GetAnswer(req.AnswerID)
	if err != nil {
		return err
	}
	round, err := s.Rounds.GetRound(answer.RoundID)
	if err != nil {
		return err
	}

	var te *models.TopicEntity
	switch {
	case req.TopicEntityID != "":
		if te, err = s.Topics.GetTopicEntity(req.TopicEntityID); err != nil {
			return err
		}
		if err = s.UpdateEntity(&te.Entity, req.EntityTitle, req.EntityPattern); err != nil {
			return err
		}
	case req.EntityID != "":
		entity, err := s.Topics.GetEntity(req.EntityID)
		if err != nil {
			return err
		}
		if err = s.UpdateEntity(entity, req.EntityTitle, req.EntityPattern); err != nil {
			return err
		}
		if te, err = s.joinEntity(round.TopicID, entity); err != nil {
			return err
		}
	case req.EntityTitle != "" && req.EntityPattern != "":
		entity, err := s.Topics.GetEntityByTitle(req.EntityTitle)
		if errors.Is(err, game.ErrNotFound) {
			entity = &models.Entity{ID: uuid.NewString(), Title: req.EntityTitle}
			if err := s.CompileEntity(entity, req.EntityPattern); err != nil {
				return err
			}
			if err := s.Topics.CreateEntity(entity); err != nil {
				return err
			}
		} else if err != nil {
			return err
		} else if err = s.UpdateEntity(entity, "", req.EntityPattern); err != nil {
			return err
		}
		if te, err = s.joinEntity(round.TopicID, entity); err != nil {
			return err
		}
	default:
		return fmt.Errorf("moderation request for answer %s names no entity: %w",
			req.AnswerID, game.ErrNotFound)
	}

	answer.TopicEntityID = te.ID
	answer.Position = te.Position
	if err := s.Rounds.SaveAnswer(answer); err != nil {
		return err
	}
	if err := s.IncrementAnswer(te); err != nil {
		return err
	}

	topic, err := s.Topics.GetTopic(round.TopicID)
	if err != nil {
		return err
	}
	return s.RebuildMatches(topic)
}

// joinEntity creates the ranking record joining an entity to a topic.
func (s *TopicService) joinEntity(topicID string, entity *models.Entity) (*models.TopicEntity, error) {
	te := &models.TopicEntity{
		ID:       uuid.NewString(),
		TopicID:  topicID,
		EntityID: entity.ID,
		Entity:   *entity,
	}
	if err := s.Topics.CreateTopicEntity(te); err != nil {
		return nil, err
	}
	return te, nil
}

func (s *TopicService) ensureSlug(topic *models.Topic) {
	if topic.Slug == "" {
		topic.Slug = slug.Make(topic.Title)
	}
}
