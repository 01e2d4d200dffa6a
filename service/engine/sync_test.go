package engine

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/clipbridge/clipbridge/clipboard"
	"github.com/clipbridge/clipbridge/model"
	"github.com/clipbridge/clipbridge/service/client"
	"github.com/clipbridge/clipbridge/service/server"
	"github.com/clipbridge/clipbridge/storage"
)

// Full exchange between two endpoints through a real store server:
// desktop copy reaches the phone, the phone's reply reaches the desktop,
// and neither side ever echoes a pulled clip back.
func Test_Sync_TwoEndpoints(t *testing.T) {
	ctx := context.Background()

	store, err := storage.NewStore(ctx, storage.NewMemoryBackend(), nil)
	require.NoError(t, err)
	svc, err := server.NewService(store, nil)
	require.NoError(t, err)

	srv := httptest.NewServer(svc.Router())
	defer srv.Close()

	newEndpoint := func(origin model.Origin) (*Engine, *clipboard.Memory) {
		remote, err := client.NewClient(srv.URL, origin, 2*time.Second)
		require.NoError(t, err)

		provider := clipboard.NewMemory()
		eng, err := NewEngine(origin, remote, provider, 10*time.Millisecond, nil)
		require.NoError(t, err)

		return eng, provider
	}

	desktopEng, desktopClip := newEndpoint(model.DesktopOrigin)
	phoneEng, phoneClip := newEndpoint(model.PhoneOrigin)

	// desktop copies; the clip lands in the store tagged desktop
	{
		desktopClip.Set(model.TextKind, []byte("hello from desktop"))

		report := desktopEng.Tick(ctx)
		require.True(t, report.Pushed)

		latest, ok := store.Latest()
		require.True(t, ok)
		require.Equal(t, model.DesktopOrigin, latest.Source)
		require.Equal(t, []byte("hello from desktop"), latest.PayloadBytes())
	}

	// the desktop does not re-pull its own clip
	{
		report := desktopEng.Tick(ctx)
		require.False(t, report.Pushed)
		require.False(t, report.Pulled)
	}

	// the phone pulls the desktop clip
	{
		report := phoneEng.Tick(ctx)
		require.True(t, report.Pulled)

		kind, payload, err := phoneClip.Read(ctx)
		require.NoError(t, err)
		require.Equal(t, model.TextKind, kind)
		require.Equal(t, []byte("hello from desktop"), payload)
	}

	// the phone does not echo the pulled clip back
	{
		report := phoneEng.Tick(ctx)
		require.False(t, report.Pushed)
		require.False(t, report.Pulled)

		latest, _ := store.Latest()
		require.Equal(t, model.DesktopOrigin, latest.Source)
	}

	// the phone replies; the desktop converges on it
	{
		phoneClip.Set(model.TextKind, []byte("reply from phone"))

		report := phoneEng.Tick(ctx)
		require.True(t, report.Pushed)

		report = desktopEng.Tick(ctx)
		require.True(t, report.Pulled)

		_, payload, err := desktopClip.Read(ctx)
		require.NoError(t, err)
		require.Equal(t, []byte("reply from phone"), payload)
	}

	// both sides are now quiet
	{
		require.False(t, desktopEng.Tick(ctx).Pushed)
		require.False(t, phoneEng.Tick(ctx).Pushed)
		require.False(t, desktopEng.Tick(ctx).Pulled)
		require.False(t, phoneEng.Tick(ctx).Pulled)
	}
}

// Pushing identical content twice updates nothing but the timestamp and never
// re-triggers a pull on the side that pushed it.
func Test_Sync_Idempotence(t *testing.T) {
	ctx := context.Background()

	store, err := storage.NewStore(ctx, storage.NewMemoryBackend(), nil)
	require.NoError(t, err)
	svc, err := server.NewService(store, nil)
	require.NoError(t, err)

	srv := httptest.NewServer(svc.Router())
	defer srv.Close()

	remote, err := client.NewClient(srv.URL, model.DesktopOrigin, 2*time.Second)
	require.NoError(t, err)

	require.NoError(t, remote.Push(ctx, model.TextKind, "same", "text/plain"))
	first, ok := store.Latest()
	require.True(t, ok)

	require.NoError(t, remote.Push(ctx, model.TextKind, "same", "text/plain"))
	second, ok := store.Latest()
	require.True(t, ok)

	require.Equal(t, first.Type, second.Type)
	require.Equal(t, first.Data, second.Data)
	require.Equal(t, first.Mime, second.Mime)
	require.Equal(t, first.Fingerprint(), second.Fingerprint())

	// the pushing endpoint still does not pull it back
	provider := clipboard.NewMemory()
	eng, err := NewEngine(model.DesktopOrigin, remote, provider, 10*time.Millisecond, nil)
	require.NoError(t, err)

	provider.Set(model.TextKind, []byte("same"))
	report := eng.Tick(ctx)
	require.True(t, report.Pushed)

	report = eng.Tick(ctx)
	require.False(t, report.Pulled)
	require.False(t, report.Pushed)
}
