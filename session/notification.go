package session

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/metoro-io/mcp-session/jsonrpc"
	"github.com/metoro-io/mcp-session/transport"
)

// debounceFlushDelay stands in for a microtask-queue tick: Go has no
// equivalent, so a short timer gives the same observable behavior
// (everything queued in the current synchronous burst coalesces)
// without a bare goroutine racing the caller's next call.
const debounceFlushDelay = time.Millisecond

// Notification emits a one-way message with no relatedRequestId.
func (s *Session) Notification(method string, params interface{}) error {
	return s.notification(method, params, nil)
}

func (s *Session) notification(method string, params interface{}, relatedRequestID interface{}) error {
	if s.opts.EnforceStrictCapabilities && s.opts.Capabilities != nil {
		if err := s.opts.Capabilities.AssertNotificationCapability(method); err != nil {
			return err
		}
	}

	eligible := s.debounceMethods[method] && params == nil && relatedRequestID == nil

	if !eligible {
		return s.sendNotificationNow(method, params, relatedRequestID)
	}

	s.mu.Lock()
	_, pending := s.debouncePending.Get(method)
	if !pending {
		s.debouncePending.Set(method, struct{}{})
	}
	s.mu.Unlock()

	if pending {
		return nil
	}

	time.AfterFunc(debounceFlushDelay, func() {
		s.mu.Lock()
		s.debouncePending.Delete(method)
		tr := s.transport
		s.mu.Unlock()

		if tr == nil {
			// transport is gone by the time the flush fires: drop silently,
			// no error surfaced.
			return
		}

		if err := s.sendNotificationNow(method, nil, nil); err != nil {
			s.handleError(errors.Wrap(err, "mcp session: debounced notification send"))
		}
	})

	return nil
}

func (s *Session) sendNotificationNow(method string, params interface{}, relatedRequestID interface{}) error {
	tr := s.currentTransport()
	if tr == nil {
		return ErrNotConnected()
	}

	rawParams, err := marshalParams(params)
	if err != nil {
		return errors.Wrap(err, "mcp session: marshal notification params")
	}

	n := jsonrpc.NewNotification(method, rawParams)
	body, err := json.Marshal(n)
	if err != nil {
		return errors.Wrap(err, "mcp session: marshal notification envelope")
	}

	var sendOpts *transport.SendOptions
	if relatedRequestID != nil {
		sendOpts = &transport.SendOptions{RelatedRequestID: relatedRequestID}
	}
	return tr.Send(body, sendOpts)
}

// handleNotification looks up a handler by method, falls back, or
// silently ignores the notification; it runs the handler in its own
// goroutine and surfaces panics/errors via OnError.
func (s *Session) handleNotification(n *jsonrpc.Notification) {
	entry, ok := s.lookupNotificationHandler(n.Method)

	var handler NotificationHandler
	switch {
	case ok:
		handler = entry.callback
	case s.FallbackNotificationHandler != nil:
		handler = s.FallbackNotificationHandler
	default:
		return
	}

	note := &Notification{Method: n.Method, Params: n.Params}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.handleError(fmt.Errorf("mcp session: uncaught error in notification handler for %q: %v", n.Method, r))
			}
		}()
		if err := handler(note); err != nil {
			s.handleError(fmt.Errorf("mcp session: uncaught error in notification handler for %q: %w", n.Method, err))
		}
	}()
}
