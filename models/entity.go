package models

import "strings"

// Entity is one guessable answer concept. Its authored pattern is compiled
// into the exhaustive set of canonical strings stored in Matches
// (space-joined, sorted); the set must be regenerated whenever the pattern
// changes and is never consumed stale.
type Entity struct {
	ID      string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Title   string `gorm:"uniqueIndex;not null" json:"title"`
	Pattern string `gorm:"not null" json:"pattern"`
	Matches string `gorm:"type:text" json:"-"`

	Timestamps
}

// MatchList splits the compiled canonical strings.
func (e *Entity) MatchList() []string {
	return strings.Fields(e.Matches)
}

// SetMatchList stores a freshly compiled set.
func (e *Entity) SetMatchList(matches []string) {
	e.Matches = strings.Join(matches, " ")
}
