package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleRequestUnknownMethodRepliesMethodNotFound(t *testing.T) {
	tr := newMockTransport()
	s := New(Options{})
	require.NoError(t, s.Connect(context.Background(), tr))

	tr.simulateMessage([]byte(`{"jsonrpc":"2.0","id":1,"method":"nonexistent"}`))

	require.Eventually(t, func() bool { return len(tr.getSent()) == 1 }, time.Second, time.Millisecond)
	assert.Contains(t, string(tr.getSent()[0]), `"code":-32601`)
}

func TestHandleRequestDispatchesToRegisteredHandler(t *testing.T) {
	tr := newMockTransport()
	s := New(Options{})
	require.NoError(t, s.Connect(context.Background(), tr))

	require.NoError(t, s.SetRequestHandler("tools/list", nil, func(req *InboundRequest, extra RequestHandlerExtra) (interface{}, error) {
		return map[string]interface{}{"tools": []string{}}, nil
	}))

	tr.simulateMessage([]byte(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))

	require.Eventually(t, func() bool { return len(tr.getSent()) == 1 }, time.Second, time.Millisecond)
	assert.Contains(t, string(tr.getSent()[0]), `"tools":[]`)
}

func TestHandleRequestHandlerErrorBecomesErrorResponse(t *testing.T) {
	tr := newMockTransport()
	s := New(Options{})
	require.NoError(t, s.Connect(context.Background(), tr))

	require.NoError(t, s.SetRequestHandler("tools/call", nil, func(req *InboundRequest, extra RequestHandlerExtra) (interface{}, error) {
		return nil, NewHandlerError(CodeInvalidParams, "missing name", nil)
	}))

	tr.simulateMessage([]byte(`{"jsonrpc":"2.0","id":1,"method":"tools/call"}`))

	require.Eventually(t, func() bool { return len(tr.getSent()) == 1 }, time.Second, time.Millisecond)
	assert.Contains(t, string(tr.getSent()[0]), `"code":-32602`)
	assert.Contains(t, string(tr.getSent()[0]), "missing name")
}

func TestCancelledNotificationSuppressesInFlightResponse(t *testing.T) {
	tr := newMockTransport()
	s := New(Options{})
	require.NoError(t, s.Connect(context.Background(), tr))

	handlerStarted := make(chan struct{})
	require.NoError(t, s.SetRequestHandler("slow/op", nil, func(req *InboundRequest, extra RequestHandlerExtra) (interface{}, error) {
		close(handlerStarted)
		<-extra.Context.Done()
		return "too late", nil
	}))

	tr.simulateMessage([]byte(`{"jsonrpc":"2.0","id":7,"method":"slow/op"}`))
	<-handlerStarted

	tr.simulateMessage([]byte(`{"jsonrpc":"2.0","method":"notifications/cancelled","params":{"requestId":7,"reason":"client gave up"}}`))

	time.Sleep(30 * time.Millisecond)
	assert.Empty(t, tr.getSent(), "a response for a cancelled request must never be sent")
}
