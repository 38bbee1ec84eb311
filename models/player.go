package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Player accumulates long-run statistics across rounds. Single-opponent play
// and duel play are tracked on independent ledgers.
type Player struct {
	ID               string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	TelegramID       int64  `gorm:"uniqueIndex;not null" json:"telegram_id"`
	TelegramUsername string `json:"telegram_username,omitempty"`
	Name             string `json:"name"`

	Victories    int `gorm:"default:0" json:"victories"`
	Defeats      int `gorm:"default:0" json:"defeats"`
	Draws        int `gorm:"default:0" json:"draws"`
	AverageScore int `gorm:"default:0" json:"average_score"`
	Rating       int `gorm:"index;default:0" json:"rating"`

	BestRating   int        `gorm:"default:0" json:"best_rating"`
	BestRatingAt *time.Time `json:"best_rating_at,omitempty"`

	DuelVictories    int `gorm:"default:0" json:"duel_victories"`
	DuelDefeats      int `gorm:"default:0" json:"duel_defeats"`
	DuelDraws        int `gorm:"default:0" json:"duel_draws"`
	DuelAverageScore int `gorm:"default:0" json:"duel_average_score"`
	DuelRating       int `gorm:"default:0" json:"duel_rating"`

	// AssignedTopics memoizes the last random-topic draw (space-separated
	// topic ids) until a round starts, so repeated requests return the same
	// offer.
	AssignedTopics string `json:"-"`

	ReferrerID *string `gorm:"index" json:"referrer_id,omitempty"`

	Timestamps
}

// DisplayedName is the player's name with the telegram handle appended when
// one is known.
func (p *Player) DisplayedName() string {
	if p.TelegramUsername == "" {
		return p.Name
	}
	return p.Name + " @" + p.TelegramUsername
}

// AssignedTopicIDs splits the memoized topic offer.
func (p *Player) AssignedTopicIDs() []string {
	return strings.Fields(p.AssignedTopics)
}

// AssignTopics memoizes a topic offer.
func (p *Player) AssignTopics(ids []string) {
	p.AssignedTopics = strings.Join(ids, " ")
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
