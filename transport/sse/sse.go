// Package sse implements transport.Transport as the split SSE+POST
// channel classic MCP HTTP servers use: server-to-client messages
// stream over a long-lived Server-Sent Events response, client-to-
// server messages arrive as separate HTTP POSTs the caller routes to
// HandlePost.
package sse

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"

	"github.com/metoro-io/mcp-session/transport"
)

const maxMessageSize = 4 * 1024 * 1024

// Transport is one peer's SSE connection. Construct it inside the
// handler for the SSE GET route, then have that handler call Wait
// after Start so the HTTP response stays open for the connection's
// lifetime. A bare Start does not block, matching every other
// transport.Transport, but an SSE stream only exists while its
// originating handler is still running.
type Transport struct {
	endpoint  string
	sessionID string
	writer    http.ResponseWriter
	flusher   http.Flusher

	mu             sync.Mutex
	connected      bool
	closeHandler   func()
	errorHandler   func(error)
	messageHandler func([]byte, *transport.Extras)

	done chan struct{}
}

// New adapts w as the SSE stream for one peer. w must support
// http.Flusher, which every net/http ResponseWriter backed by a real
// connection does.
func New(endpoint string, w http.ResponseWriter) (*Transport, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("sse transport: streaming not supported by response writer")
	}
	return &Transport{
		endpoint:  endpoint,
		sessionID: uuid.NewString(),
		writer:    w,
		flusher:   flusher,
		done:      make(chan struct{}),
	}, nil
}

func (t *Transport) SessionID() string { return t.sessionID }

// Start writes SSE headers and the initial "endpoint" event the client
// uses to learn where to POST outbound messages.
func (t *Transport) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.connected {
		return fmt.Errorf("sse transport: already started")
	}

	h := t.writer.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")

	endpointURL := fmt.Sprintf("%s?sessionId=%s", t.endpoint, t.sessionID)
	if err := t.writeEventLocked("endpoint", endpointURL); err != nil {
		return err
	}
	t.connected = true

	go func() {
		<-ctx.Done()
		t.Close()
	}()

	return nil
}

// Wait blocks until Close runs, keeping the originating HTTP handler
// (and therefore the SSE response body) open.
func (t *Transport) Wait() {
	<-t.done
}

func (t *Transport) Send(raw []byte, _ *transport.SendOptions) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.connected {
		return fmt.Errorf("sse transport: not connected")
	}
	return t.writeEventLocked("message", string(raw))
}

// HandlePost feeds one client-to-server POST body into the message
// handler. The caller's mux routes POSTs for this session's endpoint
// here; HandlePost itself does no session-id matching.
func (t *Transport) HandlePost(body []byte) error {
	if len(body) > maxMessageSize {
		return fmt.Errorf("sse transport: message exceeds %d bytes", maxMessageSize)
	}
	if !json.Valid(body) {
		return fmt.Errorf("sse transport: invalid JSON body")
	}

	t.mu.Lock()
	h := t.messageHandler
	t.mu.Unlock()
	if h != nil {
		h(body, nil)
	}
	return nil
}

func (t *Transport) Close() error {
	t.mu.Lock()
	if !t.connected {
		t.mu.Unlock()
		return nil
	}
	t.connected = false
	cb := t.closeHandler
	t.mu.Unlock()

	if cb != nil {
		cb()
	}
	close(t.done)
	return nil
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
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closeHandler
}

func (t *Transport) ErrorHandler() func(error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.errorHandler
}

func (t *Transport) MessageHandler() func([]byte, *transport.Extras) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.messageHandler
}

// writeEventLocked writes one SSE event frame. Callers must hold t.mu.
func (t *Transport) writeEventLocked(event, data string) error {
	if _, err := fmt.Fprintf(t.writer, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	t.flusher.Flush()
	return nil
}
