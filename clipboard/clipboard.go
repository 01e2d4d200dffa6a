// Package clipboard is the OS clipboard capability boundary used by the sync
// engine and the one-shot commands. The engine must tolerate a Provider being
// slow, erroring, or empty on every call.
package clipboard

import (
	"context"
	"errors"

	"github.com/clipbridge/clipbridge/model"
)

var (
	// ErrEmpty indicates the clipboard holds nothing usable.
	ErrEmpty = errors.New("clipboard is empty")

	// ErrUnsupportedKind indicates the provider cannot carry the clip kind.
	ErrUnsupportedKind = errors.New("clip kind not supported by provider")

	// ErrUnavailable indicates no clipboard is reachable on this platform.
	ErrUnavailable = errors.New("clipboard unavailable")
)

// Provider reads and writes the local clipboard.
type Provider interface {
	// Read returns the current clipboard content (ErrEmpty when there is none).
	Read(ctx context.Context) (model.Kind, []byte, error)
	// Write replaces the clipboard content.
	Write(ctx context.Context, kind model.Kind, payload []byte) error
}
