package game

import "errors"

var (
	// ErrNotFound reports a missing topic, round, entity or player.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyPlayed reports a second round for the same player pair and
	// topic.
	ErrAlreadyPlayed = errors.New("topic already played")
	// ErrDuplicateAnswer reports a repeated answer within one round.
	ErrDuplicateAnswer = errors.New("answer already accepted")
	// ErrExhausted reports that no unplayed topics remain for a player.
	ErrExhausted = errors.New("no topics left")
	// ErrMalformedPattern reports an authoring-time grammar error; nothing is
	// published for the entity when compilation fails.
	ErrMalformedPattern = errors.New("malformed pattern")
	// ErrStateConflict reports a lost update on the shared game state: the
	// state changed between read and write.
	ErrStateConflict = errors.New("game state version conflict")
	// ErrNotYourTurn reports a submission from the side not holding the turn.
	ErrNotYourTurn = errors.New("not your turn")
	// ErrRoundFinished reports play on a finished round.
	ErrRoundFinished = errors.New("round already finished")
)
