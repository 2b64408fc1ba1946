package jsonrpc

import (
	"encoding/json"

	"github.com/tidwall/sjson"
)

// WithProgressToken patches params._meta.progressToken into a raw params
// blob, preserving any existing _meta entries. It uses sjson.SetBytes to
// inject a field into already-marshaled JSON rather than decoding into
// a map, mutating, and re-encoding.
func WithProgressToken(params json.RawMessage, token int64) (json.RawMessage, error) {
	base := params
	if len(base) == 0 {
		base = json.RawMessage("{}")
	}
	patched, err := sjson.SetBytes(base, "_meta.progressToken", token)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(patched), nil
}
