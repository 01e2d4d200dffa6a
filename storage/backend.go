package storage

import (
	"context"

	"github.com/clipbridge/clipbridge/model"
)

// Backend persists the store slot as a single document.
type Backend interface {
	// Load reads the persisted slot.
	// A missing or corrupt document degrades to an empty slot (nil, nil), never an error.
	Load(ctx context.Context) (*model.Clip, error)
	// Save replaces the persisted slot wholesale.
	Save(ctx context.Context, clip *model.Clip) error
}
