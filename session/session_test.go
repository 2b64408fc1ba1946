package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metoro-io/mcp-session/transport"
)

func TestConnectChainsExistingCallbacks(t *testing.T) {
	tr := newMockTransport()

	var prevCloseCalled, prevErrorCalled, prevMessageCalled bool
	tr.SetCloseHandler(func() { prevCloseCalled = true })
	tr.SetErrorHandler(func(error) { prevErrorCalled = true })
	tr.SetMessageHandler(func([]byte, *transport.Extras) {})

	s := New(Options{})
	require.NoError(t, s.Connect(context.Background(), tr))
	assert.True(t, tr.isStarted())

	tr.simulateError(assert.AnError)
	assert.True(t, prevErrorCalled)

	require.NoError(t, tr.Close())
	assert.True(t, prevCloseCalled)

	_ = prevMessageCalled
}

func TestHandleCloseFailsPendingOutboundRequests(t *testing.T) {
	tr := newMockTransport()
	s := New(Options{})
	require.NoError(t, s.Connect(context.Background(), tr))

	resultCh := make(chan error, 1)
	go func() {
		_, err := s.Request(context.Background(), "tools/list", nil, nil)
		resultCh <- err
	}()

	// Give Request time to register before the transport closes.
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, tr.Close())

	select {
	case err := <-resultCh:
		var sessErr *Error
		require.ErrorAs(t, err, &sessErr)
		assert.Equal(t, CodeConnectionClosed, sessErr.Code)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for connection-closed error")
	}
}

func TestOnCloseFiresBeforePendingRequestsFail(t *testing.T) {
	tr := newMockTransport()
	s := New(Options{})
	require.NoError(t, s.Connect(context.Background(), tr))

	var onCloseFired bool
	s.OnClose = func() { onCloseFired = true }

	resultCh := make(chan struct{}, 1)
	go func() {
		_, _ = s.Request(context.Background(), "tools/list", nil, nil)
		assert.True(t, onCloseFired, "OnClose must fire before pending requests are failed")
		resultCh <- struct{}{}
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, tr.Close())

	select {
	case <-resultCh:
	case <-time.After(time.Second):
		t.Fatal("timed out")
	}
}

func TestCloseIsSafeWithNoTransport(t *testing.T) {
	s := New(Options{})
	assert.NoError(t, s.Close())
}

func TestRequestWithoutTransportFailsFast(t *testing.T) {
	s := New(Options{})
	_, err := s.Request(context.Background(), "tools/list", nil, nil)
	assert.Equal(t, ErrNotConnected(), err)
}
