// Package jsonrpc defines the JSON-RPC 2.0 wire envelope used by the
// session engine: requests, notifications, responses, and errors. It
// owns only framing, not method-specific payload shapes.
package jsonrpc

import (
	"bytes"
	"encoding/json"
)

const Version = "2.0"

// ID is a JSON-RPC request identifier. The engine always sends integers
// (assigned monotonically), but a peer's requests may carry a string or
// integer ID, so ID preserves whatever came over the wire.
type ID struct {
	raw interface{}
}

func NewID(v interface{}) ID { return ID{raw: v} }

func (i ID) Value() interface{} { return i.raw }

// Int64 attempts to coerce the ID to an int64, as required when the ID
// was assigned by this engine (it only ever allocates integers).
func (i ID) Int64() (int64, bool) {
	switch v := i.raw.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	default:
		return 0, false
	}
}

func (i ID) MarshalJSON() ([]byte, error) {
	return json.Marshal(i.raw)
}

func (i *ID) UnmarshalJSON(b []byte) error {
	var v interface{}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return err
	}
	i.raw = v
	return nil
}

// Request is an outbound or inbound JSON-RPC request envelope.
type Request struct {
	Jsonrpc string          `json:"jsonrpc"`
	ID      ID              `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Notification is a JSON-RPC message with no ID and therefore no response.
type Notification struct {
	Jsonrpc string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is a successful JSON-RPC response.
type Response struct {
	Jsonrpc string          `json:"jsonrpc"`
	ID      ID              `json:"id"`
	Result  json.RawMessage `json:"result"`
}

// ErrorObject is the `error` member of a JSON-RPC error response.
type ErrorObject struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorResponse is a JSON-RPC error response.
type ErrorResponse struct {
	Jsonrpc string      `json:"jsonrpc"`
	ID      ID          `json:"id"`
	Error   ErrorObject `json:"error"`
}

func NewRequest(id int64, method string, params json.RawMessage) *Request {
	return &Request{Jsonrpc: Version, ID: NewID(id), Method: method, Params: params}
}

func NewNotification(method string, params json.RawMessage) *Notification {
	return &Notification{Jsonrpc: Version, Method: method, Params: params}
}

func NewResponse(id ID, result json.RawMessage) *Response {
	return &Response{Jsonrpc: Version, ID: id, Result: result}
}

func NewErrorResponse(id ID, code int, message string, data interface{}) *ErrorResponse {
	return &ErrorResponse{Jsonrpc: Version, ID: id, Error: ErrorObject{Code: code, Message: message, Data: data}}
}

