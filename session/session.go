// Package session implements the MCP session-layer engine: the single
// object that correlates outbound requests with inbound responses,
// multiplexes request/notification/progress handling over one message
// stream, and manages per-request timeout/cancellation. It is
// transport-, schema- and method-agnostic; see transport.Transport and
// validate.Validator for the collaborators it is parameterized over.
package session

import (
	"context"
	"sync"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/metoro-io/mcp-session/transport"
)

const DefaultRequestTimeoutMsec = 60000

// CapabilityAsserter is implemented by the specializing layer (a client
// or server type) to gate which methods may be called or handled. All
// three hooks fail synchronously by returning an error; the core calls
// them at the relevant points and propagates any failure without
// modification.
type CapabilityAsserter interface {
	AssertCapabilityForMethod(method string) error
	AssertNotificationCapability(method string) error
	AssertRequestHandlerCapability(method string) error
}

// Options configures a Session for its whole lifetime.
type Options struct {
	// Capabilities gates outbound calls/handler registration when
	// EnforceStrictCapabilities is true. May be nil if strict mode is off.
	Capabilities CapabilityAsserter

	// EnforceStrictCapabilities restricts emitted requests/notifications
	// and installed handlers to what Capabilities allows.
	EnforceStrictCapabilities bool

	// DebouncedNotificationMethods lists notification methods eligible
	// for coalescing into a single send per tick.
	DebouncedNotificationMethods []string
}

type requestHandlerEntry struct {
	validator Validator
	callback  RequestHandler
}

type notificationHandlerEntry struct {
	callback NotificationHandler
}

// Session correlates outbound requests with inbound responses, routes
// inbound requests and notifications to registered handlers, and owns
// the timeout/cancellation/debounce state for one connection. The zero
// value is not usable; construct with New.
type Session struct {
	mu        sync.RWMutex
	transport transport.Transport
	opts      Options

	nextID int64

	requestHandlers      map[string]requestHandlerEntry
	notificationHandlers map[string]notificationHandlerEntry

	// outbound request registries, keyed by locally-allocated message ID.
	responseHandlers map[int64]chan responseEnvelope
	progressHandlers map[int64]ProgressCallback
	timeouts         map[int64]*timeoutRecord

	// inbound request registry, keyed by the peer-supplied request ID
	// (interface{}: integer or string).
	inboundCancellers *orderedmap.OrderedMap[interface{}, context.CancelFunc]

	// debounce pending set, keyed by notification method name.
	debouncePending *orderedmap.OrderedMap[string, struct{}]
	debounceMethods map[string]bool

	// OnClose fires once, when the transport signals close, before any
	// pending outbound request is failed with ConnectionClosed.
	OnClose func()
	// OnError receives errors that have no single owning caller
	// (send failures for responses/notifications/cancels, unknown
	// message shapes, unknown response ids, unknown progress tokens,
	// notification handler panics/errors).
	OnError func(error)
	// FallbackRequestHandler is invoked for inbound requests whose
	// method has no registered handler.
	FallbackRequestHandler func(req *InboundRequest, extra RequestHandlerExtra) (interface{}, error)
	// FallbackNotificationHandler is invoked for inbound notifications
	// whose method has no registered handler.
	FallbackNotificationHandler func(n *Notification) error
}

type responseEnvelope struct {
	result interface{}
	err    error
}

// New constructs a Session and installs its built-in handlers:
// notifications/cancelled, notifications/progress, and the automatic
// ping responder.
func New(opts Options) *Session {
	s := &Session{
		opts:                  opts,
		requestHandlers:       make(map[string]requestHandlerEntry),
		notificationHandlers:  make(map[string]notificationHandlerEntry),
		responseHandlers:      make(map[int64]chan responseEnvelope),
		progressHandlers:      make(map[int64]ProgressCallback),
		timeouts:              make(map[int64]*timeoutRecord),
		inboundCancellers:     orderedmap.New[interface{}, context.CancelFunc](),
		debouncePending:       orderedmap.New[string, struct{}](),
		debounceMethods:       make(map[string]bool),
	}
	for _, m := range opts.DebouncedNotificationMethods {
		s.debounceMethods[m] = true
	}

	s.setNotificationHandlerLocked("notifications/cancelled", s.handleCancelledNotification)
	s.setNotificationHandlerLocked("notifications/progress", s.handleProgressNotification)
	s.setRequestHandlerLocked("ping", nil, func(req *InboundRequest, extra RequestHandlerExtra) (interface{}, error) {
		return struct{}{}, nil
	})

	return s
}

// Connect attaches the transport, wrapping any callbacks it already has
// installed instead of discarding them, then starts it.
func (s *Session) Connect(ctx context.Context, tr transport.Transport) error {
	s.mu.Lock()
	s.transport = tr
	s.mu.Unlock()

	prevClose := tr.CloseHandler()
	tr.SetCloseHandler(func() {
		if prevClose != nil {
			prevClose()
		}
		s.handleClose()
	})

	prevError := tr.ErrorHandler()
	tr.SetErrorHandler(func(err error) {
		if prevError != nil {
			prevError(err)
		}
		s.handleError(err)
	})

	prevMessage := tr.MessageHandler()
	tr.SetMessageHandler(func(raw []byte, extras *transport.Extras) {
		if prevMessage != nil {
			prevMessage(raw, extras)
		}
		s.handleMessage(raw, extras)
	})

	return tr.Start(ctx)
}

// handleClose runs the close cascade: cancel every in-flight inbound
// request, tear down timeout/debounce state, fire OnClose, then fail
// every pending outbound request with ConnectionClosed.
func (s *Session) handleClose() {
	s.mu.Lock()
	snapshot := s.responseHandlers
	s.responseHandlers = make(map[int64]chan responseEnvelope)

	s.progressHandlers = make(map[int64]ProgressCallback)
	s.debouncePending = orderedmap.New[string, struct{}]()

	for pair := s.inboundCancellers.Oldest(); pair != nil; pair = pair.Next() {
		pair.Value()
	}
	s.inboundCancellers = orderedmap.New[interface{}, context.CancelFunc]()

	for _, tr := range s.timeouts {
		tr.cleanup()
	}
	s.timeouts = make(map[int64]*timeoutRecord)

	s.transport = nil
	onClose := s.OnClose
	s.mu.Unlock()

	if onClose != nil {
		onClose()
	}

	for _, ch := range snapshot {
		ch <- responseEnvelope{err: ErrConnectionClosed()}
	}
}

func (s *Session) handleError(err error) {
	s.mu.RLock()
	cb := s.OnError
	s.mu.RUnlock()
	if cb != nil {
		cb(err)
	}
}

// Close requests transport close. The close cascade itself runs from
// the transport's close callback, not from here, so Close is safe to
// call even if the transport is already gone.
func (s *Session) Close() error {
	s.mu.RLock()
	tr := s.transport
	s.mu.RUnlock()
	if tr == nil {
		return nil
	}
	return tr.Close()
}

func (s *Session) currentTransport() transport.Transport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.transport
}

func (s *Session) allocateID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	return id
}
