package session

import (
	"time"
)

// timeoutRecord implements the timeout state machine for one outbound
// request: install on send, optionally reset on progress (bounded by an
// absolute max-total ceiling measured from start_time, never from the
// reset), cleanup on terminal event, fire runs onTimeout.
type timeoutRecord struct {
	startTime       time.Time
	perCallTimeout  time.Duration
	maxTotalTimeout time.Duration // zero means unbounded
	resetOnProgress bool
	onTimeout       func(err *Error)

	timer *time.Timer
}

func newTimeoutRecord(perCall, maxTotal time.Duration, resetOnProgress bool, onTimeout func(err *Error)) *timeoutRecord {
	t := &timeoutRecord{
		startTime:       time.Now(),
		perCallTimeout:  perCall,
		maxTotalTimeout: maxTotal,
		resetOnProgress: resetOnProgress,
		onTimeout:       onTimeout,
	}
	t.arm(perCall)
	return t
}

func (t *timeoutRecord) arm(d time.Duration) {
	t.timer = time.AfterFunc(d, func() {
		t.onTimeout(ErrRequestTimeout(map[string]interface{}{
			"timeout": t.perCallTimeout.Milliseconds(),
		}))
	})
}

// reset implements the "Reset" transition. Returns a non-nil error if
// the max-total ceiling has been breached, in which case the caller
// must deliver that error through the response completer and must NOT
// invoke the progress handler for the triggering event.
func (t *timeoutRecord) reset() *Error {
	if !t.resetOnProgress {
		return nil
	}
	elapsed := time.Since(t.startTime)
	if t.maxTotalTimeout > 0 && elapsed >= t.maxTotalTimeout {
		return ErrRequestTimeout(map[string]interface{}{
			"max_total_timeout": t.maxTotalTimeout.Milliseconds(),
			"elapsed":           elapsed.Milliseconds(),
		})
	}
	t.timer.Stop()
	t.arm(t.perCallTimeout)
	return nil
}

// cleanup implements the "Cleanup" transition: stop the timer so it can
// never fire after the owning outbound-request record is gone.
func (t *timeoutRecord) cleanup() {
	if t.timer != nil {
		t.timer.Stop()
	}
}
