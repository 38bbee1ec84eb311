package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"guesstop/game"
)

// MemoryStateStore is an in-process GameStateStore with the same version
// semantics as the Redis one. Used in tests and single-node development.
type MemoryStateStore struct {
	mu     sync.Mutex
	states map[string]stateEnvelope
}

func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{states: make(map[string]stateEnvelope)}
}

func (s *MemoryStateStore) GetState(_ context.Context, roundID string) (*game.GameState, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	env, ok := s.states[roundID]
	if !ok {
		return nil, 0, fmt.Errorf("game state %s: %w", roundID, game.ErrNotFound)
	}
	// Deep copy through JSON so callers cannot mutate the stored state.
	raw, err := json.Marshal(env.State)
	if err != nil {
		return nil, 0, err
	}
	var st game.GameState
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, 0, err
	}
	return &st, env.Version, nil
}

func (s *MemoryStateStore) SaveState(_ context.Context, roundID string, st *game.GameState, expected int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current := int64(0)
	if env, ok := s.states[roundID]; ok {
		current = env.Version
	}
	if current != expected {
		return fmt.Errorf("game state %s: have v%d, caller read v%d: %w",
			roundID, current, expected, game.ErrStateConflict)
	}
	raw, err := json.Marshal(st)
	if err != nil {
		return err
	}
	var copied game.GameState
	if err := json.Unmarshal(raw, &copied); err != nil {
		return err
	}
	s.states[roundID] = stateEnvelope{Version: expected + 1, State: &copied}
	return nil
}

func (s *MemoryStateStore) DeleteState(_ context.Context, roundID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, roundID)
	return nil
}
