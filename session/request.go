package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/metoro-io/mcp-session/jsonrpc"
	"github.com/metoro-io/mcp-session/transport"
)

// RequestOptions configures one outbound Request call.
type RequestOptions struct {
	// OnProgress is invoked for each notifications/progress event that
	// echoes this request's progress token.
	OnProgress ProgressCallback

	// Timeout is the per-call timeout; zero means DefaultRequestTimeoutMsec.
	Timeout time.Duration

	// MaxTotalTimeout is the absolute ceiling from request start that
	// ResetTimeoutOnProgress extensions may not cross. Zero means
	// unbounded.
	MaxTotalTimeout time.Duration

	// ResetTimeoutOnProgress extends the per-call timeout by Timeout
	// every time progress is observed, bounded by MaxTotalTimeout.
	ResetTimeoutOnProgress bool

	// ResultValidator, if set, checks response.result before the
	// caller's type is decoded from it.
	ResultValidator Validator

	// RelatedRequestID/ResumptionToken/OnResumptionToken are forwarded
	// to the transport as send hints; the core never interprets them
	// itself.
	RelatedRequestID  interface{}
	ResumptionToken   string
	OnResumptionToken func(token string)
}

// Request sends method with params and suspends until a response,
// cancellation, timeout, or connection close resolves it.
func (s *Session) Request(ctx context.Context, method string, params interface{}, opts *RequestOptions) (json.RawMessage, error) {
	tr := s.currentTransport()
	if tr == nil {
		return nil, ErrNotConnected()
	}

	if s.opts.EnforceStrictCapabilities && s.opts.Capabilities != nil {
		if err := s.opts.Capabilities.AssertCapabilityForMethod(method); err != nil {
			return nil, err
		}
	}

	if opts == nil {
		opts = &RequestOptions{}
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = time.Duration(DefaultRequestTimeoutMsec) * time.Millisecond
	}

	id := s.allocateID()
	ch := make(chan responseEnvelope, 1)

	s.mu.Lock()
	s.responseHandlers[id] = ch
	if opts.OnProgress != nil {
		s.progressHandlers[id] = opts.OnProgress
	}
	s.mu.Unlock()

	cleanup := func() {
		s.mu.Lock()
		delete(s.responseHandlers, id)
		delete(s.progressHandlers, id)
		if tr, ok := s.timeouts[id]; ok {
			tr.cleanup()
			delete(s.timeouts, id)
		}
		s.mu.Unlock()
	}

	cancelPath := func(reason error) {
		s.mu.Lock()
		rch, ok := s.responseHandlers[id]
		delete(s.responseHandlers, id)
		delete(s.progressHandlers, id)
		if tr, ok2 := s.timeouts[id]; ok2 {
			tr.cleanup()
			delete(s.timeouts, id)
		}
		s.mu.Unlock()

		if !ok {
			return
		}

		s.sendCancelNotification(id, reason)
		rch <- responseEnvelope{err: reason}
	}

	timeoutRec := newTimeoutRecord(timeout, opts.MaxTotalTimeout, opts.ResetTimeoutOnProgress, func(err *Error) {
		cancelPath(err)
	})
	s.mu.Lock()
	s.timeouts[id] = timeoutRec
	s.mu.Unlock()

	rawParams, err := marshalParams(params)
	if err != nil {
		cleanup()
		return nil, errors.Wrap(err, "mcp session: marshal request params")
	}
	if opts.OnProgress != nil {
		rawParams, err = jsonrpc.WithProgressToken(rawParams, id)
		if err != nil {
			cleanup()
			return nil, errors.Wrap(err, "mcp session: attach progress token")
		}
	}

	req := jsonrpc.NewRequest(id, method, rawParams)
	body, err := json.Marshal(req)
	if err != nil {
		cleanup()
		return nil, errors.Wrap(err, "mcp session: marshal request envelope")
	}

	sendOpts := sendOptionsFromRequest(opts)
	if err := tr.Send(body, sendOpts); err != nil {
		cleanup()
		return nil, errors.Wrap(err, "mcp session: send request")
	}

	done := ctx.Done()
	select {
	case envelope := <-ch:
		if envelope.err != nil {
			return nil, envelope.err
		}
		raw, _ := envelope.result.(json.RawMessage)
		if opts.ResultValidator != nil {
			if verr := opts.ResultValidator.Validate(raw); verr != nil {
				return nil, verr
			}
		}
		return raw, nil
	case <-done:
		cancelPath(ctx.Err())
		return nil, ctx.Err()
	}
}

// notificationRelated sends a notification tagged with a
// relatedRequestId, used by RequestHandlerExtra.SendNotification.
func (s *Session) notificationRelated(method string, params interface{}, relatedRequestID interface{}) error {
	return s.notification(method, params, relatedRequestID)
}

func (s *Session) sendCancelNotification(requestID int64, reason error) {
	tr := s.currentTransport()
	if tr == nil {
		return
	}
	params, _ := json.Marshal(map[string]interface{}{
		"requestId": requestID,
		"reason":    reason.Error(),
	})
	n := jsonrpc.NewNotification("notifications/cancelled", params)
	body, err := json.Marshal(n)
	if err != nil {
		s.handleError(errors.Wrap(err, "mcp session: marshal cancel notification"))
		return
	}
	if err := tr.Send(body, nil); err != nil {
		s.handleError(errors.Wrap(err, "mcp session: send cancel notification"))
	}
}

func sendOptionsFromRequest(opts *RequestOptions) *transport.SendOptions {
	if opts.RelatedRequestID == nil && opts.ResumptionToken == "" && opts.OnResumptionToken == nil {
		return nil
	}
	return &transport.SendOptions{
		RelatedRequestID:  opts.RelatedRequestID,
		ResumptionToken:   opts.ResumptionToken,
		OnResumptionToken: opts.OnResumptionToken,
	}
}

func marshalParams(params interface{}) (json.RawMessage, error) {
	if params == nil {
		return nil, nil
	}
	if raw, ok := params.(json.RawMessage); ok {
		return raw, nil
	}
	return json.Marshal(params)
}
