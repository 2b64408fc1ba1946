package session

import (
	"encoding/json"
	"fmt"

	"github.com/metoro-io/mcp-session/jsonrpc"
	"github.com/metoro-io/mcp-session/transport"
)

// handleMessage classifies an inbound frame and routes it to the
// matching registry or handler table.
func (s *Session) handleMessage(raw []byte, extras *transport.Extras) {
	kind, err := jsonrpc.Classify(raw)
	if err != nil {
		s.handleError(fmt.Errorf("mcp session: %w", err))
		return
	}

	switch kind {
	case jsonrpc.KindRequest:
		req, err := jsonrpc.DecodeRequest(raw)
		if err != nil {
			s.handleError(err)
			return
		}
		s.handleRequest(req, extras)

	case jsonrpc.KindNotification:
		n, err := jsonrpc.DecodeNotification(raw)
		if err != nil {
			s.handleError(err)
			return
		}
		s.handleNotification(n)

	case jsonrpc.KindResponse:
		resp, err := jsonrpc.DecodeResponse(raw)
		if err != nil {
			s.handleError(err)
			return
		}
		s.handleResponse(resp.ID, resp.Result, nil)

	case jsonrpc.KindErrorResponse:
		errResp, err := jsonrpc.DecodeErrorResponse(raw)
		if err != nil {
			s.handleError(err)
			return
		}
		s.handleResponse(errResp.ID, nil, &errResp.Error)

	default:
		s.handleError(fmt.Errorf("mcp session: unrecognized message shape"))
	}
}

// handleResponse coerces the id, looks up the completer, removes the
// response/progress/timeout records atomically, then invokes the
// completer.
func (s *Session) handleResponse(id jsonrpc.ID, result json.RawMessage, errObj *jsonrpc.ErrorObject) {
	n, ok := id.Int64()
	if !ok {
		s.handleError(fmt.Errorf("mcp session: response id %v does not coerce to an integer", id.Value()))
		return
	}

	s.mu.Lock()
	ch, ok := s.responseHandlers[n]
	delete(s.responseHandlers, n)
	delete(s.progressHandlers, n)
	if tr, ok2 := s.timeouts[n]; ok2 {
		tr.cleanup()
		delete(s.timeouts, n)
	}
	s.mu.Unlock()

	if !ok {
		s.handleError(fmt.Errorf("mcp session: response for unknown request id %d", n))
		return
	}

	if errObj != nil {
		ch <- responseEnvelope{err: &Error{Code: errObj.Code, Message: errObj.Message, Data: errObj.Data}}
		return
	}
	ch <- responseEnvelope{result: result}
}

// handleProgressNotification resets the matching request's timeout
// when eligible and forwards the event to its progress callback.
func (s *Session) handleProgressNotification(n *Notification) error {
	var params struct {
		Progress      int64       `json:"progress"`
		Total         int64       `json:"total"`
		ProgressToken interface{} `json:"progressToken"`
	}
	if err := json.Unmarshal(n.Params, &params); err != nil {
		return fmt.Errorf("mcp session: unmarshal progress params: %w", err)
	}

	token, ok := coerceToken(params.ProgressToken)
	if !ok {
		s.handleError(fmt.Errorf("mcp session: progress notification with non-numeric progressToken %v", params.ProgressToken))
		return nil
	}

	s.mu.RLock()
	handler, hasHandler := s.progressHandlers[token]
	timeoutRec, hasTimeout := s.timeouts[token]
	_, hasResponse := s.responseHandlers[token]
	s.mu.RUnlock()

	if !hasHandler {
		s.handleError(fmt.Errorf("mcp session: progress notification for unknown token %d", token))
		return nil
	}

	if hasResponse && hasTimeout && timeoutRec.resetOnProgress {
		if breachErr := timeoutRec.reset(); breachErr != nil {
			s.mu.Lock()
			ch, ok := s.responseHandlers[token]
			delete(s.responseHandlers, token)
			delete(s.progressHandlers, token)
			if tr, ok2 := s.timeouts[token]; ok2 {
				tr.cleanup()
				delete(s.timeouts, token)
			}
			s.mu.Unlock()
			if ok {
				ch <- responseEnvelope{err: breachErr}
			}
			return nil
		}
	}

	handler(Progress{Progress: params.Progress, Total: params.Total})
	return nil
}

// handleCancelledNotification trips the cancellation handle for a
// peer-cancelled inbound request.
func (s *Session) handleCancelledNotification(n *Notification) error {
	var params struct {
		RequestID interface{} `json:"requestId"`
		Reason    string      `json:"reason"`
	}
	if err := json.Unmarshal(n.Params, &params); err != nil {
		return fmt.Errorf("mcp session: unmarshal cancelled params: %w", err)
	}

	key := normalizeInboundID(params.RequestID)

	s.mu.RLock()
	cancel, ok := s.inboundCancellers.Get(key)
	s.mu.RUnlock()
	if ok {
		cancel()
	}
	return nil
}

// coerceToken attempts numeric coercion of a progress token and never
// panics on an unexpected shape.
func coerceToken(v interface{}) (int64, bool) {
	switch t := v.(type) {
	case int64:
		return t, true
	case int:
		return int64(t), true
	case float64:
		return int64(t), true
	case json.Number:
		n, err := t.Int64()
		return n, err == nil
	default:
		return 0, false
	}
}
