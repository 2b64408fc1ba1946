package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/metoro-io/mcp-session/transport"
	"github.com/metoro-io/mcp-session/validate"
)

// Validator is the schema-validation collaborator; this package never
// constructs one, only calls it.
type Validator = validate.Validator

// Progress is a progress update delivered via notifications/progress.
type Progress struct {
	Progress int64
	Total    int64
}

// ProgressCallback receives progress updates for one outbound request.
type ProgressCallback func(Progress)

// InboundRequest is the request envelope handed to a RequestHandler,
// with Params still raw so the handler's own validator/unmarshal target
// controls the concrete type.
type InboundRequest struct {
	ID     interface{}
	Method string
	Params json.RawMessage
}

// Notification is the envelope handed to a NotificationHandler.
type Notification struct {
	Method string
	Params json.RawMessage
}

// RequestHandlerExtra carries everything a handler needs beyond the
// request body itself.
type RequestHandlerExtra struct {
	// Context is cancelled if the peer sends notifications/cancelled
	// for this request's ID before the handler returns.
	Context context.Context
	// SessionID is transport.Transport.SessionID() at request arrival.
	SessionID string
	// Meta is request.params._meta, if any.
	Meta map[string]interface{}
	// AuthInfo/RequestInfo come from the transport's message extras.
	AuthInfo    interface{}
	RequestInfo interface{}

	// SendNotification/SendRequest let the handler talk back to the
	// peer, tagging RelatedRequestID to this inbound request's ID.
	SendNotification func(method string, params interface{}) error
	SendRequest      func(ctx context.Context, method string, params interface{}, opts *RequestOptions) (interface{}, error)
}

// RequestHandler serves one inbound request. A non-nil error becomes a
// JSON-RPC error response; returning *HandlerError controls the error
// code sent to the peer.
type RequestHandler func(req *InboundRequest, extra RequestHandlerExtra) (interface{}, error)

// NotificationHandler serves one inbound notification. Notifications
// never produce a response, so a returned error only ever reaches
// OnError.
type NotificationHandler func(n *Notification) error

// SetRequestHandler registers handler for method, asserting
// AssertRequestHandlerCapability before installing. If validator is
// non-nil and its MethodName is non-empty and doesn't match method,
// registration fails rather than silently validating against the
// wrong schema; an empty MethodName is not checked.
func (s *Session) SetRequestHandler(method string, validator Validator, handler RequestHandler) error {
	if s.opts.EnforceStrictCapabilities && s.opts.Capabilities != nil {
		if err := s.opts.Capabilities.AssertRequestHandlerCapability(method); err != nil {
			return err
		}
	}
	if validator != nil && validator.MethodName() != "" && validator.MethodName() != method {
		return fmt.Errorf("mcp session: validator method %q does not match handler method %q", validator.MethodName(), method)
	}
	s.setRequestHandlerLocked(method, validator, handler)
	return nil
}

func (s *Session) setRequestHandlerLocked(method string, validator Validator, handler RequestHandler) {
	wrapped := handler
	if validator != nil {
		wrapped = func(req *InboundRequest, extra RequestHandlerExtra) (interface{}, error) {
			if err := validator.Validate(req.Params); err != nil {
				return nil, NewHandlerError(CodeInvalidParams, err.Error(), nil)
			}
			return handler(req, extra)
		}
	}
	s.mu.Lock()
	s.requestHandlers[method] = requestHandlerEntry{validator: validator, callback: wrapped}
	s.mu.Unlock()
}

// RemoveRequestHandler deletes the handler for method, restoring
// MethodNotFound behavior for subsequent requests.
func (s *Session) RemoveRequestHandler(method string) {
	s.mu.Lock()
	delete(s.requestHandlers, method)
	s.mu.Unlock()
}

// AssertCanSetRequestHandler fails if method already has a handler
// installed; used by specializing layers that auto-install canonical
// handlers and want to avoid silently clobbering a user registration.
func (s *Session) AssertCanSetRequestHandler(method string) error {
	s.mu.RLock()
	_, exists := s.requestHandlers[method]
	s.mu.RUnlock()
	if exists {
		return fmt.Errorf("mcp session: a request handler for %q is already registered", method)
	}
	return nil
}

// SetNotificationHandler registers handler for method. Unlike
// SetRequestHandler, no capability assertion is made.
func (s *Session) SetNotificationHandler(method string, handler NotificationHandler) {
	s.setNotificationHandlerLocked(method, handler)
}

func (s *Session) setNotificationHandlerLocked(method string, handler NotificationHandler) {
	s.mu.Lock()
	s.notificationHandlers[method] = notificationHandlerEntry{callback: handler}
	s.mu.Unlock()
}

// RemoveNotificationHandler deletes the handler for method.
func (s *Session) RemoveNotificationHandler(method string) {
	s.mu.Lock()
	delete(s.notificationHandlers, method)
	s.mu.Unlock()
}

func (s *Session) lookupRequestHandler(method string) (requestHandlerEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.requestHandlers[method]
	return e, ok
}

func (s *Session) lookupNotificationHandler(method string) (notificationHandlerEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.notificationHandlers[method]
	return e, ok
}

// newRequestHandlerExtra builds the extras record for one inbound
// request.
func (s *Session) newRequestHandlerExtra(ctx context.Context, tr transport.Transport, inboundID interface{}, meta map[string]interface{}, extras *transport.Extras) RequestHandlerExtra {
	var authInfo, requestInfo interface{}
	if extras != nil {
		authInfo, requestInfo = extras.AuthInfo, extras.RequestInfo
	}
	return RequestHandlerExtra{
		Context:     ctx,
		SessionID:   tr.SessionID(),
		Meta:        meta,
		AuthInfo:    authInfo,
		RequestInfo: requestInfo,
		SendNotification: func(method string, params interface{}) error {
			return s.notificationRelated(method, params, inboundID)
		},
		SendRequest: func(ctx context.Context, method string, params interface{}, opts *RequestOptions) (interface{}, error) {
			if opts == nil {
				opts = &RequestOptions{}
			}
			opts.RelatedRequestID = inboundID
			return s.Request(ctx, method, params, opts)
		},
	}
}
