package models

import (
	"encoding/json"
	"strings"

	"guesstop/game"
)

// Topic is a named subject players guess associations for. The compiled match
// dictionary and the opponent-answer pool are denormalized JSON columns,
// regenerated by the topic service whenever a member entity or the exclusion
// list changes.
type Topic struct {
	ID    string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Title string `gorm:"uniqueIndex;not null" json:"title"`
	Slug  string `gorm:"uniqueIndex;not null" json:"slug"`
	Hint  string `json:"hint,omitempty"`

	// Exclusions holds space-separated substrings stripped from both the
	// dictionary keys and submitted text. AllowedSymbols lists non-alphanumeric
	// runes the normalizer keeps for this topic (e.g. "+#" for programming
	// languages).
	Exclusions     string `json:"exclusions,omitempty"`
	AllowedSymbols string `json:"allowed_symbols,omitempty"`

	// Matches is the compiled dictionary: JSON canonical string -> entity ids.
	Matches string `gorm:"type:text;default:'{}'" json:"-"`
	// OpponentAnswers is the precomputed system-opponent pool: a JSON array of
	// candidates, best-ranked first.
	OpponentAnswers string `gorm:"type:text;default:'[]'" json:"-"`

	AverageScore         float64 `gorm:"default:0" json:"average_score"`
	AverageScoreHitsMode float64 `gorm:"default:0" json:"average_score_hits_mode"`

	Timestamps
}

// ExclusionWords splits the configured exclusion list.
func (t *Topic) ExclusionWords() []string {
	return strings.Fields(t.Exclusions)
}

// DecodeMatches deserializes the compiled dictionary into a MatchIndex.
func (t *Topic) DecodeMatches() (*game.MatchIndex, error) {
	keys := make(map[string][]string)
	if t.Matches != "" {
		if err := json.Unmarshal([]byte(t.Matches), &keys); err != nil {
			return nil, err
		}
	}
	return &game.MatchIndex{
		Keys:         keys,
		Exclusions:   t.ExclusionWords(),
		ExtraSymbols: t.AllowedSymbols,
	}, nil
}

// EncodeMatches serializes a rebuilt dictionary back into the column.
func (t *Topic) EncodeMatches(index *game.MatchIndex) error {
	raw, err := json.Marshal(index.Keys)
	if err != nil {
		return err
	}
	t.Matches = string(raw)
	return nil
}

// DecodeOpponentAnswers deserializes the opponent pool.
func (t *Topic) DecodeOpponentAnswers() ([]game.OpponentAnswer, error) {
	var pool []game.OpponentAnswer
	if t.OpponentAnswers == "" {
		return nil, nil
	}
	if err := json.Unmarshal([]byte(t.OpponentAnswers), &pool); err != nil {
		return nil, err
	}
	return pool, nil
}

// EncodeOpponentAnswers serializes the opponent pool.
func (t *Topic) EncodeOpponentAnswers(pool []game.OpponentAnswer) error {
	raw, err := json.Marshal(pool)
	if err != nil {
		return err
	}
	t.OpponentAnswers = string(raw)
	return nil
}

// TopicEntity joins a topic with one of its entities and carries the per-topic
// ranking state: how often the entity was answered and the popularity position
// derived from it.
type TopicEntity struct {
	ID       string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	TopicID  string `gorm:"index:idx_topic_entity,unique;not null" json:"topic_id"`
	EntityID string `gorm:"index:idx_topic_entity,unique;not null" json:"entity_id"`
	Entity   Entity `json:"entity"`

	// Position is the dense 1-based popularity rank within the topic; 0 means
	// not ranked yet. AnswersCount includes InitialCount, the seed count set
	// at authoring time.
	Position     int `gorm:"index;default:0" json:"position"`
	AnswersCount int `gorm:"default:0" json:"answers_count"`
	InitialCount int `gorm:"default:0" json:"initial_count"`

	Timestamps
}
