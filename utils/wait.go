package utils

import (
	"context"
	"time"
)

// WaitFor polls check every interval until it reports true or timeout
// elapses. Expiry resolves to (false, nil) rather than an error. A failing
// check counts as "not yet", since the page may be mid re-render.
//
// Only cancellation of ctx produces an error.
func WaitFor(ctx context.Context, timeout, interval time.Duration, check func(context.Context) (bool, error)) (bool, error) {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		ok, err := check(ctx)
		if err == nil && ok {
			return true, nil
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return false, ctxErr
			}
			Debug("poll check failed: %v", err)
		}
		if !time.Now().Before(deadline) {
			return false, nil
		}

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Repeat runs fn immediately and then every interval until duration has
// passed. Errors from fn are logged and do not stop the loop.
func Repeat(ctx context.Context, interval, duration time.Duration, fn func(context.Context) error) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	stop := time.NewTimer(duration)
	defer stop.Stop()

	for {
		if err := fn(ctx); err != nil {
			Debug("repeated action failed: %v", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop.C:
			return nil
		case <-ticker.C:
		}
	}
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
