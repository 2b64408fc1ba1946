package jsonrpc

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithProgressTokenInjectsIntoMeta(t *testing.T) {
	params := json.RawMessage(`{"name":"echo"}`)
	patched, err := WithProgressToken(params, 7)
	require.NoError(t, err)

	var decoded struct {
		Name string `json:"name"`
		Meta struct {
			ProgressToken int64 `json:"progressToken"`
		} `json:"_meta"`
	}
	require.NoError(t, json.Unmarshal(patched, &decoded))
	assert.Equal(t, "echo", decoded.Name)
	assert.Equal(t, int64(7), decoded.Meta.ProgressToken)
}

func TestWithProgressTokenOnNilParams(t *testing.T) {
	patched, err := WithProgressToken(nil, 3)
	require.NoError(t, err)

	var decoded struct {
		Meta struct {
			ProgressToken int64 `json:"progressToken"`
		} `json:"_meta"`
	}
	require.NoError(t, json.Unmarshal(patched, &decoded))
	assert.Equal(t, int64(3), decoded.Meta.ProgressToken)
}
