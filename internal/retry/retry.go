// Package retry provides the bounded retry executor every fund-movement step
// runs its gateway calls through.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	earnerr "github.com/mrz1836/sigil-earn/pkg/errors"
)

// Attempt bounds used by the transfer steps. Submission can transiently fail
// without the transaction having been accepted; status polling covers roughly
// four minutes at the default interval.
const (
	SubmitAttempts = 7
	StatusAttempts = 8
)

// Policy configures a single Do call. Policies are values built per call
// site and never shared.
type Policy[T any] struct {
	MaxAttempts int // Maximum number of attempts including the first; < 1 means 1
	Backoff     Backoff

	// IsSuccess reports a result the caller is done with. Nil accepts any
	// result returned without an error.
	IsSuccess func(T) bool

	// IsStopping reports a terminal result retrying cannot fix. Do aborts
	// with a *StoppedError as soon as it holds.
	IsStopping func(T) bool

	// Retryable reports whether an error returned by the operation should
	// be retried. Nil retries everything not marked Permanent.
	Retryable func(error) bool
}

// ExhaustedError is returned when every attempt completed without success.
type ExhaustedError struct {
	Attempts   int
	LastResult any
	LastErr    error
}

func (e *ExhaustedError) Error() string {
	if e.LastErr != nil {
		return fmt.Sprintf("%s after %d attempts: %v", earnerr.ErrRetryExhausted.Message, e.Attempts, e.LastErr)
	}
	return fmt.Sprintf("%s after %d attempts (last result: %v)", earnerr.ErrRetryExhausted.Message, e.Attempts, e.LastResult)
}

func (e *ExhaustedError) Unwrap() error {
	return e.LastErr
}

// Is matches earnerr.ErrRetryExhausted.
func (e *ExhaustedError) Is(target error) bool {
	return hasCode(target, earnerr.ErrRetryExhausted.Code)
}

// StoppedError is returned when IsStopping held for a result.
type StoppedError struct {
	Attempt int
	Result  any
}

func (e *StoppedError) Error() string {
	return fmt.Sprintf("%s on attempt %d (result: %v)", earnerr.ErrRetryStopped.Message, e.Attempt+1, e.Result)
}

// Is matches earnerr.ErrRetryStopped.
func (e *StoppedError) Is(target error) bool {
	return hasCode(target, earnerr.ErrRetryStopped.Code)
}

func hasCode(target error, code string) bool {
	var t *earnerr.EarnError
	return errors.As(target, &t) && t.Code == code
}

// permanentError marks an error that must not be retried.
type permanentError struct {
	err error
}

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent wraps err so Do returns it immediately.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// Do runs op until it succeeds, stops, or MaxAttempts is reached.
// op receives the zero-based attempt index. Do is the only place in the
// fund-movement core that waits; waits honor ctx cancellation.
func Do[T any](ctx context.Context, p Policy[T], op func(ctx context.Context, attempt int) (T, error)) (T, error) {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var result T
	var err error

	for attempt := 0; attempt < attempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, ctxErr
		}

		result, err = op(ctx, attempt)
		if err != nil {
			if !p.retryable(err) {
				return result, err
			}
		} else {
			if p.IsStopping != nil && p.IsStopping(result) {
				return result, &StoppedError{Attempt: attempt, Result: result}
			}
			if p.IsSuccess == nil || p.IsSuccess(result) {
				return result, nil
			}
		}

		// Don't delay after the last attempt
		if attempt < attempts-1 {
			if waitErr := sleep(ctx, p.delay(attempt)); waitErr != nil {
				return result, waitErr
			}
		}
	}

	return result, &ExhaustedError{Attempts: attempts, LastResult: result, LastErr: err}
}

func (p Policy[T]) retryable(err error) bool {
	if IsPermanent(err) || errors.Is(err, context.Canceled) {
		return false
	}
	if p.Retryable != nil {
		return p.Retryable(err)
	}
	return true
}

func (p Policy[T]) delay(attempt int) time.Duration {
	if p.Backoff == nil {
		return 0
	}
	return p.Backoff(attempt)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// IsExhausted reports whether err came from a Do call running out of attempts.
func IsExhausted(err error) bool {
	return errors.Is(err, earnerr.ErrRetryExhausted)
}

// IsStopped reports whether err came from a Do call hitting a stopping result.
func IsStopped(err error) bool {
	return errors.Is(err, earnerr.ErrRetryStopped)
}
