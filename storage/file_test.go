package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/clipbridge/clipbridge/model"
)

func testClip(data string) model.Clip {
	raw, _ := json.Marshal(data)

	return model.Clip{
		Type:      model.TextKind,
		Data:      raw,
		Mime:      "text/plain",
		Source:    model.DesktopOrigin,
		CreatedAt: 1700000000,
	}
}

func Test_FileBackend_SaveLoad(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "clipboard_store.json")

	backend, err := NewFileBackend(path)
	require.NoError(t, err)

	// missing file is an empty slot, not an error
	{
		clip, err := backend.Load(ctx)
		require.NoError(t, err)
		require.Nil(t, clip)
	}

	// roundtrip
	{
		clip := testClip("hello")
		require.NoError(t, backend.Save(ctx, &clip))

		loaded, err := backend.Load(ctx)
		require.NoError(t, err)
		require.NotNil(t, loaded)
		require.Equal(t, clip, *loaded)
	}

	// a save replaces the slot wholesale
	{
		clip := testClip("replacement")
		require.NoError(t, backend.Save(ctx, &clip))

		loaded, err := backend.Load(ctx)
		require.NoError(t, err)
		require.Equal(t, clip, *loaded)
	}

	// no temp files are left behind
	{
		entries, err := os.ReadDir(filepath.Dir(path))
		require.NoError(t, err)
		require.Len(t, entries, 1)
	}
}

func Test_FileBackend_CorruptState(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "clipboard_store.json")

	backend, err := NewFileBackend(path)
	require.NoError(t, err)

	// broken JSON degrades to an empty slot
	{
		require.NoError(t, os.WriteFile(path, []byte("{ not json"), 0644))

		clip, err := backend.Load(ctx)
		require.NoError(t, err)
		require.Nil(t, clip)
	}

	// a document with an unknown kind is treated as corrupt
	{
		require.NoError(t, os.WriteFile(path, []byte(`{"type":"file","data":"x"}`), 0644))

		clip, err := backend.Load(ctx)
		require.NoError(t, err)
		require.Nil(t, clip)
	}

	// a corrupt slot is recoverable by the next save
	{
		clip := testClip("fresh")
		require.NoError(t, backend.Save(ctx, &clip))

		loaded, err := backend.Load(ctx)
		require.NoError(t, err)
		require.Equal(t, clip, *loaded)
	}
}

func Test_FileBackend_Validation(t *testing.T) {
	_, err := NewFileBackend("")
	require.Error(t, err)
}
