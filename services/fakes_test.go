package services

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"guesstop/game"
	"guesstop/models"
	"guesstop/storage"
)

// fakeStore is an in-memory stand-in for the GORM-backed repositories. It
// mirrors the database ordering the real queries rely on: topic entities by
// position, answers by submission order, finished rounds newest first.
type fakeStore struct {
	topics        map[string]*models.Topic
	entities      map[string]*models.Entity
	topicEntities map[string]*models.TopicEntity
	teOrder       []string
	rounds        map[string]*models.Round
	answers       map[string]*models.Answer
	answerOrder   []string
	players       map[string]*models.Player
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		topics:        make(map[string]*models.Topic),
		entities:      make(map[string]*models.Entity),
		topicEntities: make(map[string]*models.TopicEntity),
		rounds:        make(map[string]*models.Round),
		answers:       make(map[string]*models.Answer),
		players:       make(map[string]*models.Player),
	}
}

func missing(what string) error {
	return fmt.Errorf("%s: %w", what, game.ErrNotFound)
}

// --- topics ---

func (f *fakeStore) GetTopic(id string) (*models.Topic, error) {
	topic, ok := f.topics[id]
	if !ok {
		return nil, missing("topic")
	}
	cp := *topic
	return &cp, nil
}

func (f *fakeStore) GetTopicBySlug(slug string) (*models.Topic, error) {
	for _, topic := range f.topics {
		if topic.Slug == slug {
			cp := *topic
			return &cp, nil
		}
	}
	return nil, missing("topic")
}

func (f *fakeStore) SaveTopic(topic *models.Topic) error {
	cp := *topic
	f.topics[topic.ID] = &cp
	return nil
}

func (f *fakeStore) UnplayedTopics(playerID string) ([]models.Topic, error) {
	played := make(map[string]bool)
	for _, round := range f.rounds {
		if round.Player1ID == playerID {
			played[round.TopicID] = true
		}
	}
	var topics []models.Topic
	for _, topic := range f.topics {
		if !played[topic.ID] {
			topics = append(topics, *topic)
		}
	}
	sort.Slice(topics, func(i, j int) bool { return topics[i].Title < topics[j].Title })
	return topics, nil
}

func (f *fakeStore) TopicEntities(topicID string) ([]models.TopicEntity, error) {
	var tes []models.TopicEntity
	for _, id := range f.teOrder {
		te := f.topicEntities[id]
		if te.TopicID != topicID {
			continue
		}
		cp := *te
		cp.Entity = *f.entities[te.EntityID]
		tes = append(tes, cp)
	}
	sort.SliceStable(tes, func(i, j int) bool { return tes[i].Position < tes[j].Position })
	return tes, nil
}

func (f *fakeStore) GetTopicEntity(id string) (*models.TopicEntity, error) {
	te, ok := f.topicEntities[id]
	if !ok {
		return nil, missing("topic entity")
	}
	cp := *te
	cp.Entity = *f.entities[te.EntityID]
	return &cp, nil
}

func (f *fakeStore) CreateTopicEntity(te *models.TopicEntity) error {
	cp := *te
	cp.Entity = models.Entity{}
	f.topicEntities[te.ID] = &cp
	f.teOrder = append(f.teOrder, te.ID)
	return nil
}

func (f *fakeStore) SaveTopicEntity(te *models.TopicEntity) error {
	cp := *te
	cp.Entity = models.Entity{}
	f.topicEntities[te.ID] = &cp
	return nil
}

func (f *fakeStore) SaveTopicEntities(tes []models.TopicEntity) error {
	for i := range tes {
		if err := f.SaveTopicEntity(&tes[i]); err != nil {
			return err
		}
	}
	return nil
}

// --- entities ---

func (f *fakeStore) GetEntity(id string) (*models.Entity, error) {
	entity, ok := f.entities[id]
	if !ok {
		return nil, missing("entity")
	}
	cp := *entity
	return &cp, nil
}

func (f *fakeStore) GetEntityByTitle(title string) (*models.Entity, error) {
	for _, entity := range f.entities {
		if entity.Title == title {
			cp := *entity
			return &cp, nil
		}
	}
	return nil, missing("entity")
}

func (f *fakeStore) SearchEntities(term string) ([]models.Entity, error) {
	term = strings.ToLower(term)
	var entities []models.Entity
	for _, entity := range f.entities {
		if strings.Contains(strings.ToLower(entity.Title), term) {
			entities = append(entities, *entity)
		}
	}
	sort.Slice(entities, func(i, j int) bool { return entities[i].Title < entities[j].Title })
	return entities, nil
}

func (f *fakeStore) CreateEntity(entity *models.Entity) error {
	cp := *entity
	f.entities[entity.ID] = &cp
	return nil
}

func (f *fakeStore) SaveEntity(entity *models.Entity) error {
	return f.CreateEntity(entity)
}

// --- rounds ---

func (f *fakeStore) CreateRound(round *models.Round) error {
	if round.StartedAt.IsZero() {
		round.StartedAt = time.Now()
	}
	cp := *round
	f.rounds[round.ID] = &cp
	return nil
}

func (f *fakeStore) GetRound(id string) (*models.Round, error) {
	round, ok := f.rounds[id]
	if !ok {
		return nil, missing("round")
	}
	cp := *round
	return &cp, nil
}

func (f *fakeStore) FindRound(player1ID, player2ID, topicID string) (*models.Round, error) {
	for _, round := range f.rounds {
		if round.Player1ID == player1ID && round.Player2ID == player2ID && round.TopicID == topicID {
			cp := *round
			return &cp, nil
		}
	}
	return nil, missing("round")
}

func (f *fakeStore) SaveRound(round *models.Round) error {
	cp := *round
	f.rounds[round.ID] = &cp
	return nil
}

func (f *fakeStore) FinishedRounds(player1ID string, duel bool) ([]models.Round, error) {
	var rounds []models.Round
	for _, round := range f.rounds {
		if round.Player1ID == player1ID && round.Duel == duel && round.Finished() {
			rounds = append(rounds, *round)
		}
	}
	sort.Slice(rounds, func(i, j int) bool { return rounds[i].FinishedAt.After(*rounds[j].FinishedAt) })
	return rounds, nil
}

func (f *fakeStore) FinishedByParticipant(playerID string) ([]models.Round, error) {
	var rounds []models.Round
	for _, round := range f.rounds {
		if round.Duel && round.Finished() &&
			(round.Player1ID == playerID || round.Player2ID == playerID) {
			rounds = append(rounds, *round)
		}
	}
	sort.Slice(rounds, func(i, j int) bool { return rounds[i].FinishedAt.After(*rounds[j].FinishedAt) })
	return rounds, nil
}

func (f *fakeStore) TopicAverageScore(topicID string, hitsMode bool) (float64, error) {
	sum, count := 0, 0
	for _, round := range f.rounds {
		if round.TopicID == topicID && round.HitsMode == hitsMode && round.Finished() {
			sum += round.Score1
			count++
		}
	}
	if count == 0 {
		return 0, nil
	}
	return float64(sum) / float64(count), nil
}

func (f *fakeStore) UncheckedRounds() ([]models.Round, error) {
	var rounds []models.Round
	for _, round := range f.rounds {
		if round.Finished() && !round.Checked {
			rounds = append(rounds, *round)
		}
	}
	sort.Slice(rounds, func(i, j int) bool { return rounds[i].FinishedAt.Before(*rounds[j].FinishedAt) })
	return rounds, nil
}

func (f *fakeStore) SetRoundsChecked(ids []string) error {
	for _, id := range ids {
		if round, ok := f.rounds[id]; ok {
			round.Checked = true
		}
	}
	return nil
}

func (f *fakeStore) CountRounds(topicID string) (int, error) {
	count := 0
	for _, round := range f.rounds {
		if round.TopicID == topicID {
			count++
		}
	}
	return count, nil
}

// --- answers ---

func (f *fakeStore) Answers(roundID string) ([]models.Answer, error) {
	var answers []models.Answer
	for _, id := range f.answerOrder {
		if f.answers[id].RoundID == roundID {
			answers = append(answers, *f.answers[id])
		}
	}
	return answers, nil
}

func (f *fakeStore) GetAnswer(id string) (*models.Answer, error) {
	answer, ok := f.answers[id]
	if !ok {
		return nil, missing("answer")
	}
	cp := *answer
	return &cp, nil
}

func (f *fakeStore) CreateAnswer(answer *models.Answer) error {
	if answer.SentAt.IsZero() {
		answer.SentAt = time.Now()
	}
	cp := *answer
	f.answers[answer.ID] = &cp
	f.answerOrder = append(f.answerOrder, answer.ID)
	return nil
}

func (f *fakeStore) SaveAnswer(answer *models.Answer) error {
	cp := *answer
	f.answers[answer.ID] = &cp
	return nil
}

func (f *fakeStore) DiscardAnswers(ids []string) error {
	for _, id := range ids {
		if answer, ok := f.answers[id]; ok {
			answer.Discarded = true
		}
	}
	return nil
}

func (f *fakeStore) UnboundAnswers(since *time.Time) ([]models.Answer, error) {
	var answers []models.Answer
	for _, id := range f.answerOrder {
		answer := f.answers[id]
		if answer.Bound() || answer.Discarded {
			continue
		}
		if since != nil && answer.SentAt.Before(*since) {
			continue
		}
		answers = append(answers, *answer)
	}
	sort.SliceStable(answers, func(i, j int) bool { return answers[i].SentAt.After(answers[j].SentAt) })
	return answers, nil
}

// --- players ---

func (f *fakeStore) GetPlayer(id string) (*models.Player, error) {
	player, ok := f.players[id]
	if !ok {
		return nil, missing("player")
	}
	cp := *player
	return &cp, nil
}

func (f *fakeStore) GetPlayerByTelegramID(telegramID int64) (*models.Player, error) {
	for _, player := range f.players {
		if player.TelegramID == telegramID {
			cp := *player
			return &cp, nil
		}
	}
	return nil, missing("player")
}

func (f *fakeStore) CreatePlayer(player *models.Player) error {
	cp := *player
	f.players[player.ID] = &cp
	return nil
}

func (f *fakeStore) SavePlayer(player *models.Player) error {
	return f.CreatePlayer(player)
}

func (f *fakeStore) ListPlayers(group storage.PlayerGroup) ([]models.Player, error) {
	active := make(map[string]bool)
	if group == storage.PlayersInactive {
		cutoff := time.Now().AddDate(0, 0, -7)
		for _, round := range f.rounds {
			if round.StartedAt.After(cutoff) {
				active[round.Player1ID] = true
			}
		}
	}
	var players []models.Player
	for _, player := range f.players {
		if !active[player.ID] {
			players = append(players, *player)
		}
	}
	sort.Slice(players, func(i, j int) bool { return players[i].ID < players[j].ID })
	return players, nil
}

func (f *fakeStore) TopPlayers(count int) ([]models.Player, error) {
	var players []models.Player
	for _, player := range f.players {
		players = append(players, *player)
	}
	sort.Slice(players, func(i, j int) bool { return players[i].Rating > players[j].Rating })
	if len(players) > count {
		players = players[:count]
	}
	return players, nil
}

func (f *fakeStore) RatingPosition(rating int) (int, error) {
	position := 1
	for _, player := range f.players {
		if player.Rating > rating {
			position++
		}
	}
	return position, nil
}
