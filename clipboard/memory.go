package clipboard

import (
	"context"
	"sync"

	"github.com/clipbridge/clipbridge/model"
)

// Memory is an in-process Provider supporting both clip kinds.
// Used by tests to stand in for the OS clipboard.
type Memory struct {
	sync.Mutex
	kind     model.Kind
	payload  []byte
	readErr  error
	writeErr error
}

// Read implements Provider interface.
func (m *Memory) Read(ctx context.Context) (model.Kind, []byte, error) {
	m.Lock()
	defer m.Unlock()

	if m.readErr != nil {
		return "", nil, m.readErr
	}
	if m.payload == nil {
		return "", nil, ErrEmpty
	}

	payload := make([]byte, len(m.payload))
	copy(payload, m.payload)

	return m.kind, payload, nil
}

// Write implements Provider interface.
func (m *Memory) Write(ctx context.Context, kind model.Kind, payload []byte) error {
	m.Lock()
	defer m.Unlock()

	if m.writeErr != nil {
		return m.writeErr
	}

	m.kind = kind
	m.payload = make([]byte, len(payload))
	copy(m.payload, payload)

	return nil
}

// Set emulates a user copy.
func (m *Memory) Set(kind model.Kind, payload []byte) {
	m.Lock()
	defer m.Unlock()

	m.kind = kind
	m.payload = make([]byte, len(payload))
	copy(m.payload, payload)
}

// FailReads arms (or clears) a read error.
func (m *Memory) FailReads(err error) {
	m.Lock()
	defer m.Unlock()

	m.readErr = err
}

// FailWrites arms (or clears) a write error.
func (m *Memory) FailWrites(err error) {
	m.Lock()
	defer m.Unlock()

	m.writeErr = err
}

// NewMemory creates a new Memory provider object.
func NewMemory() *Memory {
	return &Memory{}
}
