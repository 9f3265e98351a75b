package transport

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MockTransport is a scriptable in-memory Transport for unit tests.
//
// A Handler maps each written command frame to zero or one response lines. A
// nil return simulates a device that never replies; a subsequent ReadResponse
// then blocks until the caller's context expires, exercising the timeout
// paths of the command client.
type MockTransport struct {
	// Handler produces the response line for a written frame. Nil responses
	// leave the response queue untouched.
	Handler func(frame []byte) []byte

	mu        sync.Mutex
	connected bool
	writes    [][]byte
	pending   [][]byte
}

var _ Transport = (*MockTransport)(nil)

// NewMockTransport creates a mock transport with the given handler.
func NewMockTransport(handler func(frame []byte) []byte) *MockTransport {
	return &MockTransport{Handler: handler}
}

func (m *MockTransport) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = true

	return nil
}

func (m *MockTransport) Write(ctx context.Context, p []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return ErrNotConnected
	}

	frame := append([]byte(nil), p...)
	m.writes = append(m.writes, frame)

	if m.Handler != nil {
		if resp := m.Handler(frame); resp != nil {
			m.pending = append(m.pending, resp)
		}
	}

	return nil
}

func (m *MockTransport) ReadResponse(ctx context.Context) ([]byte, error) {
	m.mu.Lock()
	if !m.connected {
		m.mu.Unlock()
		return nil, ErrNotConnected
	}
	if len(m.pending) > 0 {
		resp := m.pending[0]
		m.pending = m.pending[1:]
		m.mu.Unlock()

		return resp, nil
	}
	m.mu.Unlock()

	<-ctx.Done()

	return nil, fmt.Errorf("mock transport: read response: %w", ctx.Err())
}

func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = false

	return nil
}

// Commands returns every written frame with the trailing CR stripped, in
// write order.
func (m *MockTransport) Commands() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	cmds := make([]string, len(m.writes))
	for i, w := range m.writes {
		cmds[i] = strings.TrimSuffix(string(w), "\r")
	}

	return cmds
}
