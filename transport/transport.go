// Package transport defines the duplex message channel the session
// engine sits on top of. The engine assumes exclusive ownership of a
// Transport once Connect installs its callbacks; it never constructs
// one itself.
package transport

import "context"

// Extras accompany an inbound message when the transport's surrounding
// layer (HTTP/auth) has something to attach.
type Extras struct {
	AuthInfo    interface{}
	RequestInfo interface{}
}

// SendOptions are forwarding hints threaded through from session.Request
// / session.Notification to the transport.
type SendOptions struct {
	RelatedRequestID  interface{}
	ResumptionToken   string
	OnResumptionToken func(token string)
}

// Transport is the external contract the session engine drives. A
// concrete transport (stdio, websocket, SSE, ...) implements this and
// is handed to session.Session.Connect.
type Transport interface {
	// Start begins reading from the underlying channel. Connect calls
	// this once, after installing callbacks.
	Start(ctx context.Context) error

	// Close closes the channel. Must be safe to call more than once.
	Close() error

	// Send writes one framed message. opts may be nil.
	Send(raw []byte, opts *SendOptions) error

	// SetMessageHandler/SetCloseHandler/SetErrorHandler install the
	// transport's observers. The session engine WRAPS any handler
	// already installed rather than replacing it outright: it reads
	// the current handler via MessageHandler/CloseHandler/ErrorHandler,
	// then installs a new one that calls the prior handler first.
	SetMessageHandler(func(raw []byte, extras *Extras))
	SetCloseHandler(func())
	SetErrorHandler(func(error))

	// MessageHandler/CloseHandler/ErrorHandler return whatever handler
	// is currently installed (nil if none), so a new owner can chain
	// behind it instead of discarding it.
	MessageHandler() func(raw []byte, extras *Extras)
	CloseHandler() func()
	ErrorHandler() func(error)

	// SessionID optionally identifies the peer connection (e.g. an SSE
	// or websocket connection id). Returns "" if the transport has none.
	SessionID() string
}
