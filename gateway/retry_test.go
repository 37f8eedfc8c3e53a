package gateway

import (
	"testing"
	"time"
)

func TestTimeoutForEscalates(t *testing.T) {
	policy := DefaultRetryPolicy()

	expected := []time.Duration{30 * time.Second, 60 * time.Second, 90 * time.Second}
	for attempt, want := range expected {
		got := policy.TimeoutFor(attempt, false)
		if got != want {
			t.Errorf("attempt %d: expected %v, got %v", attempt, want, got)
		}
	}
}

func TestTimeoutForComplexBase(t *testing.T) {
	policy := DefaultRetryPolicy()

	if got := policy.TimeoutFor(0, true); got != 60*time.Second {
		t.Errorf("expected 60s complex base, got %v", got)
	}
	if got := policy.TimeoutFor(2, true); got != 120*time.Second {
		t.Errorf("expected 120s on second retry, got %v", got)
	}
}

func TestTimeoutForMonotonic(t *testing.T) {
	policy := DefaultRetryPolicy()
	for _, complex := range []bool{false, true} {
		prev := time.Duration(0)
		for attempt := 0; attempt < 5; attempt++ {
			got := policy.TimeoutFor(attempt, complex)
			if got < prev {
				t.Errorf("complex=%v attempt %d: budget decreased from %v to %v", complex, attempt, prev, got)
			}
			prev = got
		}
	}
}

func TestTimeoutForZeroBase(t *testing.T) {
	var policy RetryPolicy
	if got := policy.TimeoutFor(0, false); got != 30*time.Second {
		t.Errorf("expected 30s default for zero base, got %v", got)
	}
}

func TestAttempts(t *testing.T) {
	if got := DefaultRetryPolicy().Attempts(); got != 3 {
		t.Errorf("expected 3 attempts by default, got %d", got)
	}
	if got := (RetryPolicy{MaxRetries: 0}).Attempts(); got != 1 {
		t.Errorf("expected 1 attempt with zero retries, got %d", got)
	}
	if got := (RetryPolicy{MaxRetries: -1}).Attempts(); got != 1 {
		t.Errorf("expected negative retries clamped to 1 attempt, got %d", got)
	}
}

func TestRetryWaitPerFailureClass(t *testing.T) {
	policy := DefaultRetryPolicy()

	if got := retryWait(policy, &RateLimitError{}); got != 5*time.Second {
		t.Errorf("rate limit: expected 5s, got %v", got)
	}
	if got := retryWait(policy, &TimeoutError{}); got != 0 {
		t.Errorf("timeout: expected no wait, got %v", got)
	}
	if got := retryWait(policy, &TransportError{}); got != 3*time.Second {
		t.Errorf("transport: expected 3s, got %v", got)
	}
}
