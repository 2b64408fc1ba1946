// Package stdio implements transport.Transport over newline-delimited
// JSON on stdin/stdout, the framing MCP servers spawned as a child
// process speak.
package stdio

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/metoro-io/mcp-session/transport"
)

// readBuffer accumulates stdin bytes into discrete newline-delimited
// frames.
type readBuffer struct {
	mu     sync.Mutex
	buffer []byte
}

func (rb *readBuffer) append(chunk []byte) {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	rb.buffer = append(rb.buffer, chunk...)
}

func (rb *readBuffer) readFrame() []byte {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	for i, b := range rb.buffer {
		if b == '\n' {
			line := rb.buffer[:i]
			rb.buffer = rb.buffer[i+1:]
			return line
		}
	}
	return nil
}

// Transport implements transport.Transport over the io.Reader/io.Writer
// pair given to New; it has no default streams of its own.
type Transport struct {
	reader *bufio.Reader
	writer io.Writer
	buf    readBuffer

	sessionID string

	mu             sync.RWMutex
	closed         bool
	closeHandler   func()
	errorHandler   func(error)
	messageHandler func([]byte, *transport.Extras)

	wg sync.WaitGroup
}

// New wraps r/w as a Transport. Passing os.Stdin/os.Stdout gives the
// conventional child-process transport.
func New(r io.Reader, w io.Writer) *Transport {
	return &Transport{
		reader:    bufio.NewReader(r),
		writer:    w,
		sessionID: uuid.NewString(),
	}
}

func (t *Transport) SessionID() string { return t.sessionID }

func (t *Transport) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return fmt.Errorf("stdio transport: already closed")
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
		return fmt.Errorf("stdio transport: closed")
	}
	t.mu.RUnlock()

	framed := append(append([]byte{}, raw...), '\n')
	_, err := t.writer.Write(framed)
	return err
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

	if cb != nil {
		cb()
	}
	t.wg.Wait()
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

	chunk := make([]byte, 4096)
	for {
		t.mu.RLock()
		closed := t.closed
		t.mu.RUnlock()
		if closed || ctx.Err() != nil {
			return
		}

		n, err := t.reader.Read(chunk)
		if n > 0 {
			t.buf.append(chunk[:n])
			for {
				line := t.buf.readFrame()
				if line == nil {
					break
				}
				if len(line) == 0 {
					continue
				}
				t.mu.RLock()
				h := t.messageHandler
				t.mu.RUnlock()
				if h != nil {
					h(line, nil)
				}
			}
		}
		if err != nil {
			if err != io.EOF {
				t.mu.RLock()
				eh := t.errorHandler
				t.mu.RUnlock()
				if eh != nil {
					eh(fmt.Errorf("stdio transport: read: %w", err))
				}
			}
			return
		}
	}
}
