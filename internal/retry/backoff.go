package retry

import (
	"math/rand/v2"
	"time"
)

// Backoff returns how long to wait after the given zero-based attempt.
type Backoff func(attempt int) time.Duration

// Constant waits the same delay between every attempt. Status polling uses
// it: the ledger's block cadence, not growth, decides when to look again.
func Constant(d time.Duration) Backoff {
	return func(int) time.Duration {
		return d
	}
}

// ConstantSeconds is Constant expressed in whole seconds.
func ConstantSeconds(seconds int) Backoff {
	return Constant(time.Duration(seconds) * time.Second)
}

// Exponential doubles the delay every attempt up to maxDelay, with jitter.
// Jitter prevents thundering herd when multiple goroutines retry simultaneously.
func Exponential(baseDelay, maxDelay time.Duration) Backoff {
	return func(attempt int) time.Duration {
		return calculateDelay(attempt, baseDelay, maxDelay)
	}
}

// calculateDelay returns a random duration in [delay/2, delay) where delay is
// 2^attempt * baseDelay capped at maxDelay.
func calculateDelay(attempt int, baseDelay, maxDelay time.Duration) time.Duration {
	if attempt > 30 {
		attempt = 30
	}
	delay := baseDelay * (1 << attempt)
	if delay > maxDelay || delay <= 0 {
		delay = maxDelay
	}
	half := delay / 2
	if half <= 0 {
		return delay
	}
	return half + rand.N(half) //nolint:gosec // G404: Jitter does not require cryptographic randomness
}
