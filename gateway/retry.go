package gateway

import "time"

// RetryPolicy configures the transport's attempt loop. Timeout-triggered
// retries escalate the per-attempt budget instead of reusing it: a slow
// response usually needs more time, not less.
type RetryPolicy struct {
	MaxRetries       int           // retries after the first attempt
	BaseTimeout      time.Duration // attempt 0 budget for simple queries
	ComplexTimeout   time.Duration // attempt 0 budget for complex queries
	TimeoutIncrement time.Duration // added to the budget on every retry
	RateLimitWait    time.Duration // cooldown before retrying a 429
	ConnectBackoff   time.Duration // backoff before retrying connection errors

	// OnRetry, when set, observes every retry decision.
	OnRetry func(err error, attempt int, timeout time.Duration)
}

// DefaultRetryPolicy mirrors the production defaults: two retries, 30s/60s
// base timeouts, +30s per retry, 5s rate-limit cooldown.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:       2,
		BaseTimeout:      30 * time.Second,
		ComplexTimeout:   60 * time.Second,
		TimeoutIncrement: 30 * time.Second,
		RateLimitWait:    5 * time.Second,
		ConnectBackoff:   3 * time.Second,
	}
}

// TimeoutFor returns the per-attempt timeout budget. attempt is 0-indexed;
// the budget is strictly non-decreasing across attempts.
func (p RetryPolicy) TimeoutFor(attempt int, complex bool) time.Duration {
	base := p.BaseTimeout
	if complex {
		base = p.ComplexTimeout
	}
	if base <= 0 {
		base = 30 * time.Second
	}
	return base + time.Duration(attempt)*p.TimeoutIncrement
}

// Attempts returns the total number of attempts the policy allows.
func (p RetryPolicy) Attempts() int {
	if p.MaxRetries < 0 {
		return 1
	}
	return p.MaxRetries + 1
}
