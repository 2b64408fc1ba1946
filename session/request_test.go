package session

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestResolvesOnMatchingResponse(t *testing.T) {
	tr := newMockTransport()
	s := New(Options{})
	require.NoError(t, s.Connect(context.Background(), tr))

	resultCh := make(chan json.RawMessage, 1)
	errCh := make(chan error, 1)
	go func() {
		raw, err := s.Request(context.Background(), "tools/list", nil, nil)
		if err != nil {
			errCh <- err
			return
		}
		resultCh <- raw
	}()

	require.Eventually(t, func() bool { return len(tr.getSent()) == 1 }, time.Second, time.Millisecond)
	tr.simulateMessage([]byte(`{"jsonrpc":"2.0","id":0,"result":{"tools":[]}}`))

	select {
	case raw := <-resultCh:
		assert.JSONEq(t, `{"tools":[]}`, string(raw))
	case err := <-errCh:
		t.Fatalf("unexpected error: %v", err)
	case <-time.After(time.Second):
		t.Fatal("timed out")
	}
}

func TestRequestResolvesWithErrorResponse(t *testing.T) {
	tr := newMockTransport()
	s := New(Options{})
	require.NoError(t, s.Connect(context.Background(), tr))

	errCh := make(chan error, 1)
	go func() {
		_, err := s.Request(context.Background(), "tools/call", nil, nil)
		errCh <- err
	}()

	require.Eventually(t, func() bool { return len(tr.getSent()) == 1 }, time.Second, time.Millisecond)
	tr.simulateMessage([]byte(`{"jsonrpc":"2.0","id":0,"error":{"code":-32602,"message":"bad params"}}`))

	select {
	case err := <-errCh:
		var sessErr *Error
		require.ErrorAs(t, err, &sessErr)
		assert.Equal(t, CodeInvalidParams, sessErr.Code)
		assert.Equal(t, "bad params", sessErr.Message)
	case <-time.After(time.Second):
		t.Fatal("timed out")
	}
}

func TestRequestContextCancelSendsCancelNotification(t *testing.T) {
	tr := newMockTransport()
	s := New(Options{})
	require.NoError(t, s.Connect(context.Background(), tr))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := s.Request(ctx, "tools/list", nil, nil)
		errCh <- err
	}()

	require.Eventually(t, func() bool { return len(tr.getSent()) == 1 }, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("timed out")
	}

	require.Eventually(t, func() bool { return len(tr.getSent()) == 2 }, time.Second, time.Millisecond)
	assert.Contains(t, string(tr.getSent()[1]), "notifications/cancelled")
}

func TestRequestPerCallTimeoutFires(t *testing.T) {
	tr := newMockTransport()
	s := New(Options{})
	require.NoError(t, s.Connect(context.Background(), tr))

	errCh := make(chan error, 1)
	go func() {
		_, err := s.Request(context.Background(), "tools/list", nil, &RequestOptions{Timeout: 20 * time.Millisecond})
		errCh <- err
	}()

	select {
	case err := <-errCh:
		var sessErr *Error
		require.ErrorAs(t, err, &sessErr)
		assert.Equal(t, CodeRequestTimeout, sessErr.Code)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for request timeout")
	}
}

func TestRequestProgressResetsTimeoutUntilMaxTotal(t *testing.T) {
	tr := newMockTransport()
	s := New(Options{})
	require.NoError(t, s.Connect(context.Background(), tr))

	progressCh := make(chan Progress, 8)
	errCh := make(chan error, 1)
	go func() {
		_, err := s.Request(context.Background(), "tools/call", nil, &RequestOptions{
			Timeout:                30 * time.Millisecond,
			MaxTotalTimeout:        60 * time.Millisecond,
			ResetTimeoutOnProgress: true,
			OnProgress:             func(p Progress) { progressCh <- p },
		})
		errCh <- err
	}()

	require.Eventually(t, func() bool { return len(tr.getSent()) == 1 }, time.Second, time.Millisecond)

	// Emit progress faster than the per-call timeout so it keeps extending,
	// but the cumulative time will cross MaxTotalTimeout.
	for i := 0; i < 4; i++ {
		time.Sleep(20 * time.Millisecond)
		tr.simulateMessage([]byte(fmt.Sprintf(`{"jsonrpc":"2.0","method":"notifications/progress","params":{"progress":%d,"total":4,"progressToken":0}}`, i)))
	}

	select {
	case err := <-errCh:
		var sessErr *Error
		require.ErrorAs(t, err, &sessErr)
		assert.Equal(t, CodeRequestTimeout, sessErr.Code)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for max-total-timeout breach")
	}
}
