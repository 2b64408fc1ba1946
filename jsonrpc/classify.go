package jsonrpc

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// Kind classifies a raw JSON-RPC frame as response/error, request,
// notification, or unknown.
type Kind int

const (
	KindUnknown Kind = iota
	KindRequest
	KindNotification
	KindResponse
	KindErrorResponse
)

// Classify sniffs the shape of a raw frame without a full unmarshal,
// using gjson for the presence checks instead of decoding into a
// map[string]interface{} probe.
func Classify(raw []byte) (Kind, error) {
	if !gjson.ValidBytes(raw) {
		return KindUnknown, fmt.Errorf("jsonrpc: invalid JSON frame")
	}

	hasID := gjson.GetBytes(raw, "id").Exists()
	hasMethod := gjson.GetBytes(raw, "method").Exists()
	hasResult := gjson.GetBytes(raw, "result").Exists()
	hasError := gjson.GetBytes(raw, "error").Exists()

	switch {
	case hasID && hasMethod:
		return KindRequest, nil
	case hasMethod && !hasID:
		return KindNotification, nil
	case hasID && hasError:
		return KindErrorResponse, nil
	case hasID && hasResult:
		return KindResponse, nil
	case hasID:
		// an id with neither result nor error is still a response shape;
		// treat a bare id as a response so callers surface "unknown id"
		// rather than silently dropping it.
		return KindResponse, nil
	default:
		return KindUnknown, fmt.Errorf("jsonrpc: message has neither id nor method")
	}
}

// DecodeRequest, DecodeNotification, DecodeResponse, DecodeErrorResponse
// perform the full unmarshal once Classify has committed to a shape.

func DecodeRequest(raw []byte) (*Request, error) {
	var r Request
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("jsonrpc: decode request: %w", err)
	}
	return &r, nil
}

func DecodeNotification(raw []byte) (*Notification, error) {
	var n Notification
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, fmt.Errorf("jsonrpc: decode notification: %w", err)
	}
	return &n, nil
}

func DecodeResponse(raw []byte) (*Response, error) {
	var r Response
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("jsonrpc: decode response: %w", err)
	}
	return &r, nil
}

func DecodeErrorResponse(raw []byte) (*ErrorResponse, error) {
	var r ErrorResponse
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("jsonrpc: decode error response: %w", err)
	}
	return &r, nil
}
