// Package wait replaces fixed sleeps with condition polling.
package wait

import (
	"context"
	"errors"
	"time"
)

// ErrTimeout is returned by Until when the condition never held.
var ErrTimeout = errors.New("wait: condition not met before timeout")

// Condition reports whether the awaited state has been reached. A non-nil
// error stops polling immediately.
type Condition func(ctx context.Context) (bool, error)

// Until evaluates cond right away and then every interval until one of:
//   - cond reports true: Until returns nil
//   - cond returns an error: that error is returned
//   - timeout elapses: ErrTimeout is returned
//   - ctx is cancelled: ctx.Err() is returned
//
// A non-positive interval defaults to 100ms. A non-positive timeout means
// only ctx bounds the wait. The ctx passed to cond carries the timeout.
func Until(ctx context.Context, interval, timeout time.Duration, cond Condition) error {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}

	pollCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		pollCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		ok, err := cond(pollCtx)
		if err != nil {
			if pollCtx.Err() != nil && ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
				return ErrTimeout
			}
			return err
		}
		if ok {
			return nil
		}

		select {
		case <-pollCtx.Done():
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return ErrTimeout
		case <-ticker.C:
		}
	}
}

// Sleep pauses for d or until ctx is cancelled.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
