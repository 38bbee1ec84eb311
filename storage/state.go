package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"guesstop/game"

	"github.com/redis/go-redis/v9"
)

// GameStateStore holds the live state of in-progress rounds, shared between
// the two actors of a round through the presentation layer. It is a store,
// not a lock: every save carries the version the caller read, and a save
// against a newer version fails with game.ErrStateConflict so lost updates
// are rejected instead of silently overwritten.
type GameStateStore interface {
	// GetState returns the state and the version to pass back on save.
	// A missing key reports game.ErrNotFound.
	GetState(ctx context.Context, roundID string) (*game.GameState, int64, error)
	// SaveState writes the state if the stored version still equals expected;
	// expected 0 means the key must not exist yet.
	SaveState(ctx context.Context, roundID string, st *game.GameState, expected int64) error
	DeleteState(ctx context.Context, roundID string) error
}

type stateEnvelope struct {
	Version int64           `json:"version"`
	State   *game.GameState `json:"state"`
}

// RedisStateStore keeps game state in Redis under a per-round key with a TTL,
// version-checked inside a WATCH transaction.
type RedisStateStore struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisStateStore(client *redis.Client, ttl time.Duration) *RedisStateStore {
	return &RedisStateStore{Client: client, TTL: ttl}
}

func (s *RedisStateStore) key(roundID string) string {
	return "guesstop:round:" + roundID
}

func (s *RedisStateStore) GetState(ctx context.Context, roundID string) (*game.GameState, int64, error) {
	raw, err := s.Client.Get(ctx, s.key(roundID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, 0, fmt.Errorf("game state %s: %w", roundID, game.ErrNotFound)
	}
	if err != nil {
		return nil, 0, err
	}
	var env stateEnvelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return nil, 0, err
	}
	return env.State, env.Version, nil
}

func (s *RedisStateStore) SaveState(ctx context.Context, roundID string, st *game.GameState, expected int64) error {
	key := s.key(roundID)
	txf := func(tx *redis.Tx) error {
		current := int64(0)
		raw, err := tx.Get(ctx, key).Result()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			var env stateEnvelope
			if err := json.Unmarshal([]byte(raw), &env); err != nil {
				return err
			}
			current = env.Version
		}
		if current != expected {
			return fmt.Errorf("game state %s: have v%d, caller read v%d: %w",
				roundID, current, expected, game.ErrStateConflict)
		}
		payload, err := json.Marshal(stateEnvelope{Version: expected + 1, State: st})
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, s.TTL)
			return nil
		})
		return err
	}
	err := s.Client.Watch(ctx, txf, key)
	if errors.Is(err, redis.TxFailedErr) {
		// Another writer touched the key mid-transaction.
		return fmt.Errorf("game state %s: %w", roundID, game.ErrStateConflict)
	}
	return err
}

func (s *RedisStateStore) DeleteState(ctx context.Context, roundID string) error {
	return s.Client.Del(ctx, s.key(roundID)).Err()
}
