package gateway

import "fmt"

// gatewayError is the shared base for all gateway error types.
type gatewayError struct {
	Message string
	Cause   error
}

func (e *gatewayError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *gatewayError) Unwrap() error { return e.Cause }

// ConfigurationError is fatal and synchronous: a missing credential or
// endpoint URL. Raised immediately, never retried, never swallowed.
type ConfigurationError struct{ gatewayError }

// RateLimitError is HTTP 429. Retried after a cooldown, up to budget.
type RateLimitError struct {
	gatewayError
	StatusCode int
}

// TimeoutError is a per-attempt request timeout. Retried with an escalating
// timeout budget.
type TimeoutError struct {
	gatewayError
	Budget float64 // seconds waited on the final attempt
}

// TransportError is a connection-level failure. Retried with a fixed short
// backoff.
type TransportError struct{ gatewayError }

// ProtocolError is a non-2xx status other than 429, or an unexpected
// response shape. Not retried.
type ProtocolError struct {
	gatewayError
	StatusCode int
	Body       string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s (status=%d)", e.Message, e.StatusCode)
}

// errorFromStatus maps a non-2xx HTTP status to the matching error type.
func errorFromStatus(status int, body string) error {
	if status == 429 {
		return &RateLimitError{
			gatewayError: gatewayError{Message: "rate limited by provider"},
			StatusCode:   status,
		}
	}
	return &ProtocolError{
		gatewayError: gatewayError{Message: "provider returned an error"},
		StatusCode:   status,
		Body:         body,
	}
}

// isRetryable reports whether an attempt-loop error is safe to retry.
func isRetryable(err error) bool {
	switch err.(type) {
	case *ConfigurationError, *ProtocolError:
		return false
	case *RateLimitError, *TimeoutError, *TransportError:
		return true
	default:
		// Unknown errors during the attempt loop default to retryable.
		return true
	}
}

// degradeError converts an exhausted (or non-retryable) transport failure
// into the degenerate ChatResponse shown to callers.
func degradeError(err error) ChatResponse {
	switch e := err.(type) {
	case *RateLimitError:
		return ErrorResponse("The model provider is rate limiting requests. Please wait a moment and retry.")
	case *TimeoutError:
		return ErrorResponse(fmt.Sprintf("The request timed out after %.0f seconds. Please retry or simplify the query.", e.Budget))
	case *TransportError:
		return ErrorResponse("Could not connect to the model provider. Please check the network and retry.")
	case *ProtocolError:
		return ErrorResponse(fmt.Sprintf("The model provider rejected the request: %d %s", e.StatusCode, e.Body))
	default:
		return ErrorResponse(fmt.Sprintf("The request failed: %v", err))
	}
}
