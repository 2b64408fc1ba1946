package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebouncedNotificationsCoalesceWithinOneTick(t *testing.T) {
	tr := newMockTransport()
	s := New(Options{DebouncedNotificationMethods: []string{"notifications/tools/list_changed"}})
	require.NoError(t, s.Connect(context.Background(), tr))

	require.NoError(t, s.Notification("notifications/tools/list_changed", nil))
	require.NoError(t, s.Notification("notifications/tools/list_changed", nil))
	require.NoError(t, s.Notification("notifications/tools/list_changed", nil))

	require.Eventually(t, func() bool { return len(tr.getSent()) == 1 }, time.Second, time.Millisecond)

	// A second burst in a later tick produces a second send.
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, s.Notification("notifications/tools/list_changed", nil))
	require.Eventually(t, func() bool { return len(tr.getSent()) == 2 }, time.Second, time.Millisecond)
}

func TestNonDebouncedNotificationsSendImmediately(t *testing.T) {
	tr := newMockTransport()
	s := New(Options{})
	require.NoError(t, s.Connect(context.Background(), tr))

	require.NoError(t, s.Notification("notifications/message", map[string]string{"level": "info"}))
	require.NoError(t, s.Notification("notifications/message", map[string]string{"level": "info"}))

	assert.Len(t, tr.getSent(), 2)
}

func TestHandleNotificationRoutesToRegisteredHandler(t *testing.T) {
	tr := newMockTransport()
	s := New(Options{})
	require.NoError(t, s.Connect(context.Background(), tr))

	received := make(chan string, 1)
	s.SetNotificationHandler("notifications/message", func(n *Notification) error {
		received <- n.Method
		return nil
	})

	tr.simulateMessage([]byte(`{"jsonrpc":"2.0","method":"notifications/message","params":{}}`))

	select {
	case method := <-received:
		assert.Equal(t, "notifications/message", method)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for notification handler")
	}
}

func TestHandleNotificationHandlerErrorSurfacesViaOnError(t *testing.T) {
	tr := newMockTransport()
	s := New(Options{})
	require.NoError(t, s.Connect(context.Background(), tr))

	errCh := make(chan error, 1)
	s.OnError = func(err error) { errCh <- err }
	s.SetNotificationHandler("notifications/message", func(n *Notification) error {
		return assert.AnError
	})

	tr.simulateMessage([]byte(`{"jsonrpc":"2.0","method":"notifications/message","params":{}}`))

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, assert.AnError)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for OnError")
	}
}
