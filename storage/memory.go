package storage

import (
	"context"
	"sync"

	"github.com/clipbridge/clipbridge/model"
)

// MemoryBackend keeps the slot in process memory.
// Used by tests and by the standalone mode, where durability across restarts
// is not required.
type MemoryBackend struct {
	sync.Mutex
	clip    *model.Clip
	saveErr error
}

// Load implements Backend interface.
func (b *MemoryBackend) Load(ctx context.Context) (*model.Clip, error) {
	b.Lock()
	defer b.Unlock()

	if b.clip == nil {
		return nil, nil
	}
	clip := *b.clip

	return &clip, nil
}

// Save implements Backend interface.
func (b *MemoryBackend) Save(ctx context.Context, clip *model.Clip) error {
	b.Lock()
	defer b.Unlock()

	if b.saveErr != nil {
		return b.saveErr
	}
	c := *clip
	b.clip = &c

	return nil
}

// SetSaveErr arms (or clears) an emulated persistence failure. Only used for tests.
func (b *MemoryBackend) SetSaveErr(err error) {
	b.Lock()
	defer b.Unlock()

	b.saveErr = err
}

// NewMemoryBackend creates a new MemoryBackend object.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}
