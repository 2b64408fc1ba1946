package validate

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type callToolParams struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments,omitempty"`
}

func TestValidateAcceptsWellFormedPayload(t *testing.T) {
	v := NewSchemaValidator[callToolParams]("tools/call")
	err := v.Validate(json.RawMessage(`{"name":"echo","arguments":{"text":"hi"}}`))
	assert.NoError(t, err)
}

func TestValidateRejectsMissingRequiredField(t *testing.T) {
	v := NewSchemaValidator[callToolParams]("tools/call")
	err := v.Validate(json.RawMessage(`{"arguments":{}}`))
	assert.ErrorContains(t, err, "name")
}

func TestValidateRejectsUnknownField(t *testing.T) {
	v := NewSchemaValidator[callToolParams]("tools/call")
	err := v.Validate(json.RawMessage(`{"name":"echo","bogus":true}`))
	assert.Error(t, err)
}

func TestDecodeReturnsTypedValue(t *testing.T) {
	v := NewSchemaValidator[callToolParams]("tools/call")
	out, err := Decode(v, json.RawMessage(`{"name":"echo"}`))
	require.NoError(t, err)
	assert.Equal(t, "echo", out.Name)
}

func TestMethodName(t *testing.T) {
	v := NewSchemaValidator[callToolParams]("tools/call")
	assert.Equal(t, "tools/call", v.MethodName())
}
