// Package engine implements the reconciliation loop that keeps one endpoint's
// clipboard converging with the shared store.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clipbridge/clipbridge/clipboard"
	"github.com/clipbridge/clipbridge/model"
)

// Backoff multiplier applied to the poll interval after a tick panic.
const backoffFactor = 4

// ActionOrigin identifies which side produced the most recent state transition.
type ActionOrigin int

const (
	NoneAction ActionOrigin = iota
	LocalAction
	RemoteAction
)

// String implements the stringer interface.
func (a ActionOrigin) String() string {
	switch a {
	case LocalAction:
		return "local"
	case RemoteAction:
		return "remote"
	}

	return "none"
}

type (
	// State tracks the reconciliation progress of one endpoint (in-memory only).
	State struct {
		// Fingerprint of the last clipboard content observed locally
		LastLocalFingerprint string
		// Fingerprint of the last clip this endpoint believes is in the store
		LastRemoteFingerprint string
		// Which side produced the most recent transition (echo suppression)
		LastAction ActionOrigin
	}

	// TickReport is the tagged outcome of a single reconciliation tick.
	// Every step failure is contained here; nothing propagates to the loop.
	TickReport struct {
		// A local change was pushed to the store
		Pushed bool
		// A remote change was applied to the local clipboard
		Pulled bool
		// The local step was skipped (clipboard empty or unreadable)
		LocalSkipped bool
		// The remote step was skipped (store empty or unreachable)
		RemoteSkipped bool
		// The tick body panicked; the loop backs off before the next tick
		Panicked bool

		ClipboardErr error
		PushErr      error
		PullErr      error
		ApplyErr     error

		Duration time.Duration
	}
)

// Failed reports whether any step of the tick hit a transient failure.
func (r TickReport) Failed() bool {
	return r.ClipboardErr != nil || r.PushErr != nil || r.PullErr != nil || r.ApplyErr != nil || r.Panicked
}

// Remote is the store server surface the engine needs.
// *client.Client implements it.
type Remote interface {
	// Push sends a clip payload tagged with this endpoint's origin.
	Push(ctx context.Context, kind model.Kind, data string, mime string) error
	// Pull fetches the latest stored clip ((nil, nil) when the store is empty).
	Pull(ctx context.Context) (*model.Clip, error)
}

// Engine runs the per-tick reconciliation state machine for one endpoint.
// Ticks are strictly sequential: the loop never overlaps two ticks.
type Engine struct {
	// Config
	origin       model.Origin
	pollInterval time.Duration
	backoff      time.Duration
	// Collaborators
	remote   Remote
	provider clipboard.Provider
	logger   *zap.Logger
	monitor  *Monitor
	// State
	state State
}

// State returns a copy of the current reconciliation state.
func (e *Engine) State() State {
	return e.state
}

// Stats returns a snapshot of the engine counters.
func (e *Engine) Stats() Stats {
	return e.monitor.Stats()
}

// Run executes the poll loop until ctx is canceled. Tick failures never stop
// the loop; a panicking tick is followed by a longer backoff sleep.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info("engine start",
		zap.String("origin", string(e.origin)),
		zap.Duration("poll_interval", e.pollInterval),
	)

	e.monitor.Start()
	defer e.monitor.Stop()

	for {
		report := e.safeTick(ctx)

		delay := e.pollInterval
		if report.Panicked {
			delay = e.backoff
		}

		select {
		case <-ctx.Done():
			e.logger.Info("engine stop")
			return nil
		case <-time.After(delay):
		}
	}
}

// Tick runs one pass of the state machine: local-change check, then
// remote-change check. Exposed so tests can drive the engine tick by tick.
func (e *Engine) Tick(ctx context.Context) TickReport {
	start := time.Now()
	report := TickReport{}

	e.localStep(ctx, &report)
	e.remoteStep(ctx, &report)

	report.Duration = time.Since(start)
	e.monitor.TickDone(report)

	return report
}

// safeTick contains a panicking tick body at the loop boundary.
func (e *Engine) safeTick(ctx context.Context) (report TickReport) {
	defer func() {
		if rec := recover(); rec != nil {
			report.Panicked = true
			e.monitor.TickDone(report)
			e.logger.Error("tick panic", zap.Any("panic", rec))
		}
	}()

	return e.Tick(ctx)
}

// localStep pushes a genuine local clipboard change to the store.
func (e *Engine) localStep(ctx context.Context, report *TickReport) {
	kind, payload, err := e.provider.Read(ctx)
	if err != nil {
		report.LocalSkipped = true
		if !errors.Is(err, clipboard.ErrEmpty) {
			report.ClipboardErr = err
			e.logger.Warn("clipboard read failed", zap.Error(err))
		}
		return
	}
	if len(payload) == 0 {
		report.LocalSkipped = true
		return
	}

	data := model.EncodePayload(kind, payload)
	fp := model.Fingerprint([]byte(data))

	if fp == e.state.LastLocalFingerprint {
		if e.state.LastAction == RemoteAction {
			// The pulled content has been observed locally; suppression is spent.
			e.state.LastAction = NoneAction
		}
		return
	}

	if e.state.LastAction == RemoteAction {
		// First differing observation right after a pull: the OS clipboard may
		// normalize what was written (line endings), so this is the echo of the
		// pull, not a user edit. Absorb it once instead of pushing it back.
		e.state.LastLocalFingerprint = fp
		e.state.LastAction = NoneAction
		return
	}

	if err := e.remote.Push(ctx, kind, data, model.DefaultMime(kind)); err != nil {
		report.PushErr = err
		e.logger.Warn("push failed", zap.Error(err))
	} else {
		report.Pushed = true
		e.state.LastRemoteFingerprint = fp
		e.logger.Info("pushed local change", zap.String("type", string(kind)))
	}

	// A failed push is not retried mid-tick; the fingerprint comparison
	// re-triggers naturally if the store still differs.
	e.state.LastLocalFingerprint = fp
	e.state.LastAction = LocalAction
}

// remoteStep applies a genuine remote update to the local clipboard.
func (e *Engine) remoteStep(ctx context.Context, report *TickReport) {
	clip, err := e.remote.Pull(ctx)
	if err != nil {
		report.RemoteSkipped = true
		report.PullErr = err
		e.logger.Warn("pull failed", zap.Error(err))
		return
	}
	if clip == nil {
		report.RemoteSkipped = true
		return
	}

	fp := clip.Fingerprint()
	if fp == e.state.LastRemoteFingerprint || clip.Source != e.origin.Other() {
		return
	}

	payload, err := model.DecodePayload(clip.Type, string(clip.PayloadBytes()))
	if err != nil {
		report.ApplyErr = fmt.Errorf("decoding remote payload: %w", err)
		e.logger.Warn("remote clip unusable", zap.Error(err))
		return
	}

	if err := e.provider.Write(ctx, clip.Type, payload); err != nil {
		// Fingerprints stay put so the write is retried next tick.
		report.ApplyErr = err
		e.logger.Warn("clipboard write failed", zap.Error(err))
		return
	}

	report.Pulled = true
	e.state.LastRemoteFingerprint = fp
	// The next local read must not see this as a fresh local edit.
	e.state.LastLocalFingerprint = fp
	e.state.LastAction = RemoteAction

	e.logger.Info("applied remote change",
		zap.String("type", string(clip.Type)),
		zap.String("source", string(clip.Source)),
	)
}

// NewEngine creates a new Engine object.
func NewEngine(origin model.Origin, remote Remote, provider clipboard.Provider, pollInterval time.Duration, logger *zap.Logger) (*Engine, error) {
	if _, err := model.ParseOrigin(string(origin)); err != nil {
		return nil, err
	}
	if remote == nil {
		return nil, fmt.Errorf("%s: must be non-nil", "remote")
	}
	if provider == nil {
		return nil, fmt.Errorf("%s: must be non-nil", "provider")
	}
	if pollInterval <= 0 {
		return nil, fmt.Errorf("%s: must be GT 0", "pollInterval")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("instance", uuid.New().String()[:8]))

	return &Engine{
		origin:       origin,
		pollInterval: pollInterval,
		backoff:      backoffFactor * pollInterval,
		remote:       remote,
		provider:     provider,
		logger:       logger,
		monitor:      newMonitor(logger),
	}, nil
}
