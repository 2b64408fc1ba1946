package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"

	"github.com/metoro-io/mcp-session/jsonrpc"
	"github.com/metoro-io/mcp-session/transport"
)

// normalizeInboundID canonicalizes a peer-supplied request ID so the
// same logical ID compares equal whether it arrived via jsonrpc.ID
// (decoded with UseNumber, so json.Number) or via a plain
// json.Unmarshal into interface{} (float64).
func normalizeInboundID(v interface{}) interface{} {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n
		}
		return t.String()
	case float64:
		return int64(t)
	case int64, int, string:
		return t
	default:
		return fmt.Sprintf("%v", t)
	}
}

// handleRequest looks up a handler, falls back, or replies
// MethodNotFound; otherwise it registers a cancellation handle, runs
// the handler, and sends its result or error.
func (s *Session) handleRequest(req *jsonrpc.Request, extras *transport.Extras) {
	tr := s.currentTransport()
	if tr == nil {
		return
	}

	entry, ok := s.lookupRequestHandler(req.Method)

	if !ok && s.FallbackRequestHandler == nil {
		s.sendErrorResponse(tr, req.ID, ErrMethodNotFound(req.Method))
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	key := normalizeInboundID(req.ID.Value())
	s.mu.Lock()
	s.inboundCancellers.Set(key, cancel)
	s.mu.Unlock()

	var meta map[string]interface{}
	var metaProbe struct {
		Meta map[string]interface{} `json:"_meta"`
	}
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &metaProbe); err == nil {
			meta = metaProbe.Meta
		}
	}

	extra := s.newRequestHandlerExtra(ctx, tr, key, meta, extras)
	inbound := &InboundRequest{ID: req.ID.Value(), Method: req.Method, Params: req.Params}

	go func() {
		defer func() {
			s.mu.Lock()
			s.inboundCancellers.Delete(key)
			s.mu.Unlock()
			cancel()
		}()

		var result interface{}
		var err error
		if ok {
			result, err = entry.callback(inbound, extra)
		} else {
			result, err = s.FallbackRequestHandler(inbound, extra)
		}

		if ctx.Err() != nil {
			// peer cancelled before the handler returned: suppress the
			// response entirely.
			return
		}

		if err != nil {
			s.sendErrorResponse(tr, req.ID, handlerErrToSessionError(err))
			return
		}
		s.sendResultResponse(tr, req.ID, result)
	}()
}

func handlerErrToSessionError(err error) *Error {
	if he, ok := err.(*HandlerError); ok {
		if isSafeErrorCode(he.Code) {
			return newError(he.Code, he.Message, he.Data)
		}
		return ErrInternal(he.Message)
	}
	return ErrInternal(err.Error())
}

func (s *Session) sendResultResponse(tr transport.Transport, id jsonrpc.ID, result interface{}) {
	raw, err := json.Marshal(result)
	if err != nil {
		s.handleError(errors.Wrap(err, "mcp session: marshal handler result"))
		return
	}
	resp := jsonrpc.NewResponse(id, raw)
	body, err := json.Marshal(resp)
	if err != nil {
		s.handleError(errors.Wrap(err, "mcp session: marshal response envelope"))
		return
	}
	if err := tr.Send(body, nil); err != nil {
		s.handleError(errors.Wrap(err, "mcp session: send response"))
	}
}

func (s *Session) sendErrorResponse(tr transport.Transport, id jsonrpc.ID, sessErr *Error) {
	resp := jsonrpc.NewErrorResponse(id, sessErr.Code, sessErr.Message, sessErr.Data)
	body, err := json.Marshal(resp)
	if err != nil {
		s.handleError(errors.Wrap(err, "mcp session: marshal error response"))
		return
	}
	if err := tr.Send(body, nil); err != nil {
		s.handleError(errors.Wrap(err, "mcp session: send error response"))
	}
}
