package clipboard

import (
	"context"
	"fmt"

	"github.com/atotto/clipboard"

	"github.com/clipbridge/clipbridge/model"
)

// System is a Provider backed by the OS clipboard.
// The underlying capability is text-only; image clips still travel through the
// store and the memory provider, but cannot be applied here.
type System struct{}

// Read implements Provider interface.
func (System) Read(ctx context.Context) (model.Kind, []byte, error) {
	if clipboard.Unsupported {
		return "", nil, ErrUnavailable
	}

	text, err := clipboard.ReadAll()
	if err != nil {
		return "", nil, fmt.Errorf("clipboard read: %w", err)
	}
	if text == "" {
		return "", nil, ErrEmpty
	}

	return model.TextKind, []byte(text), nil
}

// Write implements Provider interface.
func (System) Write(ctx context.Context, kind model.Kind, payload []byte) error {
	if clipboard.Unsupported {
		return ErrUnavailable
	}
	if kind != model.TextKind {
		return ErrUnsupportedKind
	}

	if err := clipboard.WriteAll(string(payload)); err != nil {
		return fmt.Errorf("clipboard write: %w", err)
	}

	return nil
}

// NewSystem creates a new System provider object.
func NewSystem() System {
	return System{}
}
