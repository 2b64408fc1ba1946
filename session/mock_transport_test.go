package session

import (
	"context"
	"sync"

	"github.com/metoro-io/mcp-session/transport"
)

// mockTransport implements transport.Transport for session's tests: a
// sent-messages log plus simulateMessage/simulateError helpers to
// drive the engine from the test goroutine directly (Close runs the
// installed close handler).
type mockTransport struct {
	mu sync.RWMutex

	sessionID string

	closeHandler   func()
	errorHandler   func(error)
	messageHandler func([]byte, *transport.Extras)

	sent    [][]byte
	closed  bool
	started bool
}

func newMockTransport() *mockTransport {
	return &mockTransport{sessionID: "mock-session"}
}

func (t *mockTransport) SessionID() string { return t.sessionID }

func (t *mockTransport) Start(ctx context.Context) error {
	t.mu.Lock()
	t.started = true
	t.mu.Unlock()
	return nil
}

func (t *mockTransport) Send(raw []byte, _ *transport.SendOptions) error {
	t.mu.Lock()
	t.sent = append(t.sent, raw)
	t.mu.Unlock()
	return nil
}

func (t *mockTransport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	cb := t.closeHandler
	t.mu.Unlock()
	if cb != nil {
		cb()
	}
	return nil
}

func (t *mockTransport) SetCloseHandler(h func()) {
	t.mu.Lock()
	t.closeHandler = h
	t.mu.Unlock()
}

func (t *mockTransport) SetErrorHandler(h func(error)) {
	t.mu.Lock()
	t.errorHandler = h
	t.mu.Unlock()
}

func (t *mockTransport) SetMessageHandler(h func([]byte, *transport.Extras)) {
	t.mu.Lock()
	t.messageHandler = h
	t.mu.Unlock()
}

func (t *mockTransport) CloseHandler() func() {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.closeHandler
}

func (t *mockTransport) ErrorHandler() func(error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.errorHandler
}

func (t *mockTransport) MessageHandler() func([]byte, *transport.Extras) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.messageHandler
}

func (t *mockTransport) simulateMessage(raw []byte) {
	t.mu.RLock()
	h := t.messageHandler
	t.mu.RUnlock()
	if h != nil {
		h(raw, nil)
	}
}

func (t *mockTransport) simulateError(err error) {
	t.mu.RLock()
	h := t.errorHandler
	t.mu.RUnlock()
	if h != nil {
		h(err)
	}
}

func (t *mockTransport) getSent() [][]byte {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([][]byte, len(t.sent))
	copy(out, t.sent)
	return out
}

func (t *mockTransport) isClosed() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.closed
}

func (t *mockTransport) isStarted() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.started
}
