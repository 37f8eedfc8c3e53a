package gateway

import (
	"errors"
	"strings"
	"testing"
)

func TestErrorFromStatus(t *testing.T) {
	err := errorFromStatus(429, "slow down")
	if _, ok := err.(*RateLimitError); !ok {
		t.Errorf("429: expected *RateLimitError, got %T", err)
	}

	err = errorFromStatus(500, "oops")
	perr, ok := err.(*ProtocolError)
	if !ok {
		t.Fatalf("500: expected *ProtocolError, got %T", err)
	}
	if perr.StatusCode != 500 || perr.Body != "oops" {
		t.Errorf("protocol error fields wrong: %+v", perr)
	}
}

func TestIsRetryable(t *testing.T) {
	retryable := []error{&RateLimitError{}, &TimeoutError{}, &TransportError{}, errors.New("mystery")}
	for _, err := range retryable {
		if !isRetryable(err) {
			t.Errorf("expected retryable: %T", err)
		}
	}

	fatal := []error{&ConfigurationError{}, &ProtocolError{}}
	for _, err := range fatal {
		if isRetryable(err) {
			t.Errorf("expected non-retryable: %T", err)
		}
	}
}

func TestDegradeError(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{&RateLimitError{}, "rate limiting"},
		{&TimeoutError{Budget: 90}, "timed out after 90 seconds"},
		{&TransportError{}, "Could not connect"},
		{&ProtocolError{StatusCode: 401, Body: "unauthorized"}, "401 unauthorized"},
		{errors.New("odd"), "odd"},
	}
	for _, tc := range cases {
		resp := degradeError(tc.err)
		if !resp.IsError() {
			t.Errorf("%T: expected degenerate response", tc.err)
		}
		if !strings.Contains(resp.Content, tc.want) {
			t.Errorf("%T: expected content containing %q, got %q", tc.err, tc.want, resp.Content)
		}
	}
}

func TestGatewayErrorUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &TransportError{gatewayError{Message: "connection failed", Cause: cause}}
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause")
	}
	if !strings.Contains(err.Error(), "root cause") {
		t.Errorf("expected cause in message, got %q", err.Error())
	}
}
