package mqtt

import (
	"context"
	"sync"

	"github.com/kilianp07/wcs/core/shuttle"
)

// MockLink is an in-memory shuttle.Link for tests and dry runs. Published
// directives are recorded; state reports are injected through Report.
type MockLink struct {
	mu         sync.Mutex
	connected  bool
	directives []shuttle.Directive

	// OnState mirrors PahoLink's callback.
	OnState func(shuttle.State)

	// ConnectErr, when set, makes Connect fail.
	ConnectErr error
	// PublishErr, when set, makes Publish fail.
	PublishErr error
}

// NewMockLink creates a disconnected MockLink.
func NewMockLink() *MockLink { return &MockLink{} }

func (m *MockLink) Connect(context.Context) error {
	if m.ConnectErr != nil {
		return m.ConnectErr
	}
	m.mu.Lock()
	m.connected = true
	m.mu.Unlock()
	return nil
}

func (m *MockLink) Publish(_ context.Context, d shuttle.Directive) error {
	if m.PublishErr != nil {
		return m.PublishErr
	}
	m.mu.Lock()
	m.directives = append(m.directives, d)
	m.mu.Unlock()
	return nil
}

func (m *MockLink) Disconnect() {
	m.mu.Lock()
	m.connected = false
	m.mu.Unlock()
}

// Connected reports the link state.
func (m *MockLink) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

// Directives returns a copy of everything published so far.
func (m *MockLink) Directives() []shuttle.Directive {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]shuttle.Directive, len(m.directives))
	copy(out, m.directives)
	return out
}

// Report injects a state report as if it arrived from the vehicle.
func (m *MockLink) Report(st shuttle.State) {
	if m.OnState != nil {
		m.OnState(st)
	}
}
