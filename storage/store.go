package storage

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/clipbridge/clipbridge/model"
)

// Store owns the single latest-clip slot above a persistence Backend.
// Exactly one store server process owns a Store; the mutex only serializes
// concurrent HTTP writers, which resolve by arrival order (last writer wins).
type Store struct {
	sync.Mutex
	backend Backend
	// State
	clip   *model.Clip
	writes int
}

// Latest returns the current slot (false when empty).
func (s *Store) Latest() (model.Clip, bool) {
	s.Lock()
	defer s.Unlock()

	if s.clip == nil {
		return model.Clip{}, false
	}

	return *s.clip, true
}

// Put replaces the slot wholesale. The in-memory slot advances only after the
// backend write succeeds, so on persistence failure reads keep serving the last
// durable clip.
func (s *Store) Put(ctx context.Context, clip model.Clip) error {
	s.Lock()
	defer s.Unlock()

	if err := s.backend.Save(ctx, &clip); err != nil {
		return fmt.Errorf("backend save: %w", err)
	}

	s.clip = &clip
	s.writes++

	return nil
}

// Writes returns the number of successful slot replacements. Only used for tests.
func (s *Store) Writes() int {
	s.Lock()
	defer s.Unlock()

	return s.writes
}

// NewStore creates a new Store object, loading the last persisted slot.
// A failed load degrades to an empty slot: the store must come up even when the
// persisted state is unreadable.
func NewStore(ctx context.Context, backend Backend, logger *zap.Logger) (*Store, error) {
	if backend == nil {
		return nil, fmt.Errorf("%s: must be non-nil", "backend")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	clip, err := backend.Load(ctx)
	if err != nil {
		logger.Warn("loading persisted slot, starting empty", zap.Error(err))
		clip = nil
	}
	if clip != nil {
		logger.Info("restored persisted slot",
			zap.String("type", string(clip.Type)),
			zap.Int64("created_at", clip.CreatedAt),
		)
	}

	return &Store{
		backend: backend,
		clip:    clip,
	}, nil
}
