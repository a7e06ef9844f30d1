package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/errors"
)

// TimeoutValue runs fn under a deadline and returns its value. Exceeding
// the deadline yields apperrors.ErrTimeout without waiting for fn, so fn
// must stop when its context is done. A non-positive timeout runs fn
// inline with no deadline.
func TimeoutValue[T any](ctx context.Context, timeout time.Duration, name string, fn func(ctx context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		return fn(ctx)
	}
	deadlineCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		value T
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		v, err := fn(deadlineCtx)
		done <- outcome{v, err}
	}()

	var zero T
	select {
	case out := <-done:
		if out.err != nil && errors.Is(out.err, context.DeadlineExceeded) && ctx.Err() == nil {
			return zero, timeoutError(name, timeout)
		}
		return out.value, out.err
	case <-deadlineCtx.Done():
		if err := ctx.Err(); err != nil {
			return zero, fmt.Errorf("%s: cancelled: %w", name, err)
		}
		return zero, timeoutError(name, timeout)
	}
}

// WithTimeout is TimeoutValue for functions that only return an error.
func WithTimeout(ctx context.Context, timeout time.Duration, name string, fn func(ctx context.Context) error) error {
	_, err := TimeoutValue(ctx, timeout, name, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

func timeoutError(name string, timeout time.Duration) error {
	return fmt.Errorf("%s: %w after %v", name, apperrors.ErrTimeout, timeout)
}
