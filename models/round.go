package models

import (
	"encoding/json"
	"time"
)

// Round records one play session between player1 and an opponent (player2,
// or the system when Player2ID is empty) on one topic. A (player1, player2,
// topic) tuple is played at most once; the round finishes at most once.
type Round struct {
	ID string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`

	// Player2ID is the empty string for single-opponent rounds so the unique
	// index covers them too.
	Player1ID string `gorm:"index:idx_round_pair,unique;not null" json:"player1_id"`
	Player2ID string `gorm:"index:idx_round_pair,unique;default:''" json:"player2_id,omitempty"`
	TopicID   string `gorm:"index:idx_round_pair,unique;not null" json:"topic_id"`

	Duel     bool `gorm:"index;default:false" json:"duel"`
	HitsMode bool `gorm:"index;default:false" json:"hits_mode"`

	Score1 int `gorm:"default:0" json:"score1"`
	Score2 int `gorm:"default:0" json:"score2"`
	Hits1  int `gorm:"default:0" json:"hits1"`
	Hits2  int `gorm:"default:0" json:"hits2"`

	StartedAt  time.Time  `gorm:"autoCreateTime" json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	Player1Feedback string `json:"player1_feedback,omitempty"`
	Player2Feedback string `json:"player2_feedback,omitempty"`

	// Checked marks a finished round as reviewed by moderation.
	Checked bool `gorm:"index;default:false" json:"checked"`

	// Declined logs rejected duplicate submissions as a JSON array, kept for
	// moderation review.
	Declined string `gorm:"type:text;default:'[]'" json:"-"`
}

// Finished reports whether the round reached its terminal state.
func (r *Round) Finished() bool {
	return r.FinishedAt != nil
}

// DeclinedAnswer is one rejected duplicate: the offending text and a label
// identifying what it collided with.
type DeclinedAnswer struct {
	Text  string `json:"text"`
	Label string `json:"label"`
	Side  int    `json:"side"`
}

// DeclinedAnswers deserializes the rejection log.
func (r *Round) DeclinedAnswers() ([]DeclinedAnswer, error) {
	var declined []DeclinedAnswer
	if r.Declined == "" {
		return nil, nil
	}
	if err := json.Unmarshal([]byte(r.Declined), &declined); err != nil {
		return nil, err
	}
	return declined, nil
}

// AddDeclined appends a rejection to the round's log.
func (r *Round) AddDeclined(text, label string, side int) error {
	var declined []DeclinedAnswer
	if r.Declined != "" {
		if err := json.Unmarshal([]byte(r.Declined), &declined); err != nil {
			return err
		}
	}
	declined = append(declined, DeclinedAnswer{Text: text, Label: label, Side: side})
	raw, err := json.Marshal(declined)
	if err != nil {
		return err
	}
	r.Declined = string(raw)
	return nil
}

// Answer is one accepted submission. An unbound answer (empty TopicEntityID)
// was recognized by no entity and waits for moderation; bound answers carry
// the popularity position captured at acceptance time. Answers are only ever
// soft-discarded, never deleted.
type Answer struct {
	ID      string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	RoundID string `gorm:"index;index:idx_answer_bind,unique;not null" json:"round_id"`

	// TopicEntityID is empty while unbound. The partial unique index holds a
	// bound entity to once per (round, side) while leaving unbound rows out:
	// a side may queue any number of distinct unrecognized texts, and their
	// per-round uniqueness is enforced on the raw text before insertion.
	TopicEntityID string `gorm:"index:idx_answer_bind,unique,where:topic_entity_id <> '';default:''" json:"topic_entity_id,omitempty"`
	Side          int    `gorm:"index:idx_answer_bind,unique;default:1" json:"side"`

	Text      string    `gorm:"not null" json:"text"`
	Position  int       `gorm:"default:0" json:"position"`
	SentAt    time.Time `gorm:"autoCreateTime" json:"sent_at"`
	Discarded bool      `gorm:"index;default:false" json:"discarded"`
}

// Bound reports whether the answer was recognized by an entity.
func (a *Answer) Bound() bool {
	return a.TopicEntityID != ""
}
