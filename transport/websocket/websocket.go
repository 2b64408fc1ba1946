// Package websocket implements transport.Transport over a
// gorilla/websocket connection: a genuinely duplex socket, unlike the
// SSE+POST split transport/sse uses for plain HTTP servers.
package websocket

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/metoro-io/mcp-session/transport"
)

// Transport adapts a *websocket.Conn to transport.Transport. One frame
// per JSON-RPC message, matching the newline-delimited framing of
// transport/stdio one level up (a websocket message boundary already
// delimits the frame, so no inner newline is added).
type Transport struct {
	conn      *websocket.Conn
	sessionID string

	writeMu sync.Mutex

	mu             sync.RWMutex
	closed         bool
	closeHandler   func()
	errorHandler   func(error)
	messageHandler func([]byte, *transport.Extras)

	wg sync.WaitGroup
}

// New wraps an already-established websocket connection.
func New(conn *websocket.Conn) *Transport {
	return &Transport{conn: conn, sessionID: uuid.NewString()}
}

func (t *Transport) SessionID() string { return t.sessionID }

func (t *Transport) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return fmt.Errorf("websocket transport: already closed")
	}
	t.mu.Unlock()

	t.wg.Add(1)
	go t.readLoop(ctx)
	return nil
}

func (t *Transport) Send(raw []byte, _ *transport.SendOptions) error {
	t.mu.RLock()
	if t.closed {
		t.mu.RUnlock()
		return fmt.Errorf("websocket transport: closed")
	}
	t.mu.RUnlock()

	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	return t.conn.WriteMessage(websocket.TextMessage, raw)
}

func (t *Transport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	cb := t.closeHandler
	t.mu.Unlock()

	closeErr := t.conn.Close()
	if cb != nil {
		cb()
	}
	t.wg.Wait()
	return closeErr
}

func (t *Transport) SetCloseHandler(h func()) {
	t.mu.Lock()
	t.closeHandler = h
	t.mu.Unlock()
}

func (t *Transport) SetErrorHandler(h func(error)) {
	t.mu.Lock()
	t.errorHandler = h
	t.mu.Unlock()
}

func (t *Transport) SetMessageHandler(h func([]byte, *transport.Extras)) {
	t.mu.Lock()
	t.messageHandler = h
	t.mu.Unlock()
}

func (t *Transport) CloseHandler() func() {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.closeHandler
}

func (t *Transport) ErrorHandler() func(error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.errorHandler
}

func (t *Transport) MessageHandler() func([]byte, *transport.Extras) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.messageHandler
}

func (t *Transport) readLoop(ctx context.Context) {
	defer t.wg.Done()
	defer t.signalClose()

	for {
		t.mu.RLock()
		closed := t.closed
		t.mu.RUnlock()
		if closed || ctx.Err() != nil {
			return
		}

		_, raw, err := t.conn.ReadMessage()
		if err != nil {
			t.mu.RLock()
			wasClosed := t.closed
			eh := t.errorHandler
			t.mu.RUnlock()
			if !wasClosed && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				if eh != nil {
					eh(fmt.Errorf("websocket transport: read: %w", err))
				}
			}
			return
		}

		t.mu.RLock()
		h := t.messageHandler
		t.mu.RUnlock()
		if h != nil {
			h(raw, nil)
		}
	}
}

// signalClose runs the close cascade when the peer drops the socket
// without Close ever being called locally.
func (t *Transport) signalClose() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	cb := t.closeHandler
	t.mu.Unlock()

	if cb != nil {
		cb()
	}
}
