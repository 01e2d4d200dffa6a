package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/google/uuid"

	"github.com/clipbridge/clipbridge/model"
)

// FileBackend stores the slot as a single JSON document on disk.
// Writes go through a uniquely named temp file and a rename, so a reader never
// observes a partially written slot.
type FileBackend struct {
	path string
}

// Load implements Backend interface.
func (b *FileBackend) Load(ctx context.Context) (*model.Clip, error) {
	data, err := os.ReadFile(b.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}

		return nil, fmt.Errorf("reading file (%s): %w", b.path, err)
	}

	clip := model.Clip{}
	if err := json.Unmarshal(data, &clip); err != nil {
		// Corrupt state degrades to an empty slot
		return nil, nil
	}
	if _, err := model.ParseKind(string(clip.Type)); err != nil {
		return nil, nil
	}

	return &clip, nil
}

// Save implements Backend interface.
func (b *FileBackend) Save(ctx context.Context, clip *model.Clip) error {
	data, err := json.MarshalIndent(clip, "", "  ")
	if err != nil {
		return fmt.Errorf("JSON marshal: %w", err)
	}

	tmpPath := fmt.Sprintf("%s.%s.tmp", b.path, uuid.New().String())
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("write to file (%s): %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, b.path); err != nil {
		os.Remove(tmpPath)

		return fmt.Errorf("replace file (%s): %w", b.path, err)
	}

	return nil
}

// NewFileBackend creates a new FileBackend object.
func NewFileBackend(path string) (*FileBackend, error) {
	if path == "" {
		return nil, fmt.Errorf("%s: must be non-empty", "path")
	}

	return &FileBackend{path: path}, nil
}
