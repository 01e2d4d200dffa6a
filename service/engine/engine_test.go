package engine

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/clipbridge/clipbridge/clipboard"
	"github.com/clipbridge/clipbridge/model"
)

type pushRec struct {
	kind model.Kind
	data string
	mime string
}

// fakeRemote is an in-memory Remote with arming points for failures.
// Like the real store, a successful push replaces the slot wholesale.
type fakeRemote struct {
	origin     model.Origin
	clip       *model.Clip
	pushes     []pushRec
	pushErr    error
	pullErr    error
	pullPanics bool
}

func (r *fakeRemote) Push(ctx context.Context, kind model.Kind, data string, mime string) error {
	if r.pushErr != nil {
		return r.pushErr
	}
	r.pushes = append(r.pushes, pushRec{kind: kind, data: data, mime: mime})

	raw, _ := json.Marshal(data)
	r.clip = &model.Clip{
		Type:      kind,
		Data:      raw,
		Mime:      mime,
		Source:    r.origin,
		CreatedAt: time.Now().Unix(),
	}

	return nil
}

func (r *fakeRemote) Pull(ctx context.Context) (*model.Clip, error) {
	if r.pullPanics {
		panic("remote exploded")
	}
	if r.pullErr != nil {
		return nil, r.pullErr
	}
	if r.clip == nil {
		return nil, nil
	}
	clip := *r.clip

	return &clip, nil
}

// setClip arms the remote slot the way the store server would fill it.
func (r *fakeRemote) setClip(kind model.Kind, data string, source model.Origin) {
	raw, _ := json.Marshal(data)
	r.clip = &model.Clip{
		Type:      kind,
		Data:      raw,
		Mime:      model.DefaultMime(kind),
		Source:    source,
		CreatedAt: time.Now().Unix(),
	}
}

func newTestEngine(t *testing.T, origin model.Origin) (*Engine, *fakeRemote, *clipboard.Memory) {
	t.Helper()

	remote := &fakeRemote{origin: origin}
	provider := clipboard.NewMemory()

	eng, err := NewEngine(origin, remote, provider, 10*time.Millisecond, nil)
	require.NoError(t, err)

	return eng, remote, provider
}

func Test_Engine_PushLocalChange(t *testing.T) {
	ctx := context.Background()
	eng, remote, provider := newTestEngine(t, model.DesktopOrigin)

	provider.Set(model.TextKind, []byte("copied"))

	// first tick pushes the local change
	{
		report := eng.Tick(ctx)
		require.True(t, report.Pushed)
		require.False(t, report.Failed())

		require.Len(t, remote.pushes, 1)
		require.Equal(t, pushRec{kind: model.TextKind, data: "copied", mime: "text/plain"}, remote.pushes[0])

		fp := model.Fingerprint([]byte("copied"))
		require.Equal(t, fp, eng.State().LastLocalFingerprint)
		require.Equal(t, fp, eng.State().LastRemoteFingerprint)
		require.Equal(t, LocalAction, eng.State().LastAction)
	}

	// identical repeated content is a no-op
	{
		report := eng.Tick(ctx)
		require.False(t, report.Pushed)
		require.Len(t, remote.pushes, 1)
	}

	// a genuine edit triggers the next push
	{
		provider.Set(model.TextKind, []byte("edited"))

		report := eng.Tick(ctx)
		require.True(t, report.Pushed)
		require.Len(t, remote.pushes, 2)
		require.Equal(t, "edited", remote.pushes[1].data)
	}
}

func Test_Engine_PushImage(t *testing.T) {
	ctx := context.Background()
	eng, remote, provider := newTestEngine(t, model.DesktopOrigin)

	raw := []byte{0x89, 0x50, 0x4e, 0x47}
	provider.Set(model.ImageKind, raw)

	report := eng.Tick(ctx)
	require.True(t, report.Pushed)
	require.Len(t, remote.pushes, 1)
	// images travel base64-encoded
	require.Equal(t, model.EncodePayload(model.ImageKind, raw), remote.pushes[0].data)
	require.Equal(t, "image/png", remote.pushes[0].mime)
}

func Test_Engine_PushFailure(t *testing.T) {
	ctx := context.Background()
	eng, remote, provider := newTestEngine(t, model.DesktopOrigin)

	provider.Set(model.TextKind, []byte("copied"))
	remote.pushErr = errors.New("server unreachable")

	// the failure is contained in the report and the local fingerprint advances
	{
		report := eng.Tick(ctx)
		require.False(t, report.Pushed)
		require.Error(t, report.PushErr)
		require.True(t, report.Failed())

		require.Equal(t, model.Fingerprint([]byte("copied")), eng.State().LastLocalFingerprint)
		require.Empty(t, eng.State().LastRemoteFingerprint)
	}

	// unchanged content is not retried on the next tick
	{
		remote.pushErr = nil

		report := eng.Tick(ctx)
		require.False(t, report.Pushed)
		require.Empty(t, remote.pushes)
	}

	// the retry happens once the content changes again
	{
		provider.Set(model.TextKind, []byte("copied again"))

		report := eng.Tick(ctx)
		require.True(t, report.Pushed)
		require.Len(t, remote.pushes, 1)
	}
}

func Test_Engine_EmptyClipboard(t *testing.T) {
	ctx := context.Background()
	eng, remote, _ := newTestEngine(t, model.DesktopOrigin)

	report := eng.Tick(ctx)
	require.True(t, report.LocalSkipped)
	require.False(t, report.Failed())
	require.Empty(t, remote.pushes)
}

func Test_Engine_ClipboardReadFailure(t *testing.T) {
	ctx := context.Background()
	eng, remote, provider := newTestEngine(t, model.DesktopOrigin)

	provider.FailReads(errors.New("clipboard busy"))

	report := eng.Tick(ctx)
	require.True(t, report.LocalSkipped)
	require.Error(t, report.ClipboardErr)
	require.Empty(t, remote.pushes)
}

func Test_Engine_PullRemoteChange(t *testing.T) {
	ctx := context.Background()
	eng, remote, provider := newTestEngine(t, model.DesktopOrigin)

	remote.setClip(model.TextKind, "from the phone", model.PhoneOrigin)

	// the remote update lands on the local clipboard
	{
		report := eng.Tick(ctx)
		require.True(t, report.Pulled)

		kind, payload, err := provider.Read(ctx)
		require.NoError(t, err)
		require.Equal(t, model.TextKind, kind)
		require.Equal(t, []byte("from the phone"), payload)

		fp := model.Fingerprint([]byte("from the phone"))
		require.Equal(t, fp, eng.State().LastRemoteFingerprint)
		require.Equal(t, fp, eng.State().LastLocalFingerprint)
		require.Equal(t, RemoteAction, eng.State().LastAction)
	}

	// no echo: the next tick's local read of that same content is not a new
	// local change
	{
		report := eng.Tick(ctx)
		require.False(t, report.Pushed)
		require.False(t, report.Pulled)
		require.Empty(t, remote.pushes)
	}

	// a genuine local edit after the pull is pushed again
	{
		provider.Set(model.TextKind, []byte("typed afterwards"))

		report := eng.Tick(ctx)
		require.True(t, report.Pushed)
		require.Len(t, remote.pushes, 1)
	}
}

// The OS may normalize what the engine writes (line endings and the like), so
// the first differing local read right after a pull is absorbed, not pushed back.
func Test_Engine_PullEchoNormalized(t *testing.T) {
	ctx := context.Background()
	eng, remote, provider := newTestEngine(t, model.DesktopOrigin)

	remote.setClip(model.TextKind, "line one\nline two", model.PhoneOrigin)
	require.True(t, eng.Tick(ctx).Pulled)

	// the platform mangles the applied content
	provider.Set(model.TextKind, []byte("line one\r\nline two"))

	// absorbed: no push back to the store
	{
		report := eng.Tick(ctx)
		require.False(t, report.Pushed)
		require.Empty(t, remote.pushes)
		require.Equal(t, NoneAction, eng.State().LastAction)
	}

	// the suppression is spent: the next genuine edit is pushed
	{
		provider.Set(model.TextKind, []byte("a real edit"))

		report := eng.Tick(ctx)
		require.True(t, report.Pushed)
		require.Len(t, remote.pushes, 1)
	}
}

func Test_Engine_OriginFiltering(t *testing.T) {
	ctx := context.Background()
	eng, remote, provider := newTestEngine(t, model.DesktopOrigin)

	// a clip tagged with this endpoint's own origin is never pulled
	{
		remote.setClip(model.TextKind, "our own clip", model.DesktopOrigin)

		report := eng.Tick(ctx)
		require.False(t, report.Pulled)

		_, _, err := provider.Read(ctx)
		require.ErrorIs(t, err, clipboard.ErrEmpty)
	}

	// the same content tagged with the other origin is pulled
	{
		remote.setClip(model.TextKind, "our own clip", model.PhoneOrigin)

		report := eng.Tick(ctx)
		require.True(t, report.Pulled)
	}
}

// After a successful push the engine already believes the store holds its
// content, so its own clip coming back is not re-applied.
func Test_Engine_NoSelfRepull(t *testing.T) {
	ctx := context.Background()
	eng, remote, provider := newTestEngine(t, model.DesktopOrigin)

	provider.Set(model.TextKind, []byte("pushed by us"))
	require.True(t, eng.Tick(ctx).Pushed)

	// the store now serves our clip back
	remote.setClip(model.TextKind, "pushed by us", model.DesktopOrigin)

	report := eng.Tick(ctx)
	require.False(t, report.Pulled)
	require.False(t, report.Pushed)
}

func Test_Engine_PullFailure(t *testing.T) {
	ctx := context.Background()
	eng, remote, provider := newTestEngine(t, model.DesktopOrigin)

	remote.pullErr = errors.New("connection refused")

	// the remote step is skipped wholesale; nothing else breaks
	{
		report := eng.Tick(ctx)
		require.True(t, report.RemoteSkipped)
		require.Error(t, report.PullErr)
		require.Equal(t, State{}, eng.State())
	}

	// recovery on the next tick
	{
		remote.pullErr = nil
		remote.setClip(model.TextKind, "finally", model.PhoneOrigin)

		report := eng.Tick(ctx)
		require.True(t, report.Pulled)

		_, payload, err := provider.Read(ctx)
		require.NoError(t, err)
		require.Equal(t, []byte("finally"), payload)
	}
}

func Test_Engine_EmptyStore(t *testing.T) {
	ctx := context.Background()
	eng, _, _ := newTestEngine(t, model.DesktopOrigin)

	report := eng.Tick(ctx)
	require.True(t, report.RemoteSkipped)
	require.NoError(t, report.PullErr)
	require.False(t, report.Failed())
}

func Test_Engine_ApplyFailureRetries(t *testing.T) {
	ctx := context.Background()
	eng, remote, provider := newTestEngine(t, model.DesktopOrigin)

	remote.setClip(model.TextKind, "hard to apply", model.PhoneOrigin)
	provider.FailWrites(errors.New("clipboard locked"))

	// the failed apply leaves the fingerprints untouched
	{
		report := eng.Tick(ctx)
		require.False(t, report.Pulled)
		require.Error(t, report.ApplyErr)
		require.Equal(t, State{}, eng.State())
	}

	// the content comparison re-triggers the apply next tick
	{
		provider.FailWrites(nil)

		report := eng.Tick(ctx)
		require.True(t, report.Pulled)

		_, payload, err := provider.Read(ctx)
		require.NoError(t, err)
		require.Equal(t, []byte("hard to apply"), payload)
	}
}

func Test_Engine_TickPanicContained(t *testing.T) {
	ctx := context.Background()
	eng, remote, _ := newTestEngine(t, model.DesktopOrigin)

	remote.pullPanics = true

	report := eng.safeTick(ctx)
	require.True(t, report.Panicked)
	require.True(t, report.Failed())
}

func Test_Engine_Stats(t *testing.T) {
	ctx := context.Background()
	eng, remote, provider := newTestEngine(t, model.DesktopOrigin)

	provider.Set(model.TextKind, []byte("one"))
	eng.Tick(ctx)

	remote.setClip(model.TextKind, "two", model.PhoneOrigin)
	eng.Tick(ctx)

	remote.pullErr = errors.New("down")
	eng.Tick(ctx)

	stats := eng.Stats()
	require.Equal(t, 3, stats.Ticks)
	require.Equal(t, 1, stats.Pushes)
	require.Equal(t, 1, stats.Pulls)
	require.Equal(t, 1, stats.Failures)
}

func Test_Engine_RunStopsOnCancel(t *testing.T) {
	eng, _, _ := newTestEngine(t, model.DesktopOrigin)

	ctx, cancel := context.WithCancel(context.Background())

	doneCh := make(chan error, 1)
	go func() {
		doneCh <- eng.Run(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-doneCh:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("engine did not stop on context cancel")
	}
}

func Test_Engine_Validation(t *testing.T) {
	remote := &fakeRemote{}
	provider := clipboard.NewMemory()

	_, err := NewEngine(model.UnknownOrigin, remote, provider, time.Second, nil)
	require.Error(t, err)

	_, err = NewEngine(model.DesktopOrigin, nil, provider, time.Second, nil)
	require.Error(t, err)

	_, err = NewEngine(model.DesktopOrigin, remote, nil, time.Second, nil)
	require.Error(t, err)

	_, err = NewEngine(model.DesktopOrigin, remote, provider, 0, nil)
	require.Error(t, err)
}
