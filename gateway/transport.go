package gateway

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RawChunk is one streaming record's payload, with the "data: " framing
// already stripped.
type RawChunk []byte

// streamDataPrefix and streamDone frame newline-delimited streaming bodies.
const (
	streamDataPrefix = "data: "
	streamDone       = "[DONE]"
)

// Transport issues the HTTP call for one endpoint and applies the retry,
// backoff, and timeout-scaling policy. It is stateless per call and safe
// for concurrent use.
type Transport struct {
	client *http.Client
	policy RetryPolicy
	logger *slog.Logger
}

// TransportOption configures a Transport.
type TransportOption func(*Transport)

// WithHTTPClient overrides the underlying HTTP client. The client should
// not carry its own Timeout; the transport manages per-attempt deadlines.
func WithHTTPClient(c *http.Client) TransportOption {
	return func(t *Transport) { t.client = c }
}

// WithRetryPolicy overrides the default retry policy.
func WithRetryPolicy(p RetryPolicy) TransportOption {
	return func(t *Transport) { t.policy = p }
}

// WithTransportLogger sets the transport's logger.
func WithTransportLogger(l *slog.Logger) TransportOption {
	return func(t *Transport) { t.logger = l }
}

// NewTransport creates a Transport with the default policy.
func NewTransport(opts ...TransportOption) *Transport {
	t := &Transport{
		client: &http.Client{},
		policy: DefaultRetryPolicy(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Policy returns the transport's retry policy.
func (t *Transport) Policy() RetryPolicy { return t.policy }

// Execute posts payload to the endpoint and returns the raw response body.
// It issues at most MaxRetries+1 attempts. Failures come back as the typed
// errors in errors.go; the gateway converts them to degenerate responses.
func (t *Transport) Execute(ctx context.Context, ep EndpointDescriptor, payload []byte, hdr http.Header, complex bool) ([]byte, error) {
	policy := t.effectivePolicy(ep)
	attempts := policy.Attempts()

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		timeout := policy.TimeoutFor(attempt, complex)

		body, err := t.doOnce(ctx, ep, payload, hdr, timeout)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if !isRetryable(err) || attempt == attempts-1 {
			break
		}

		wait := retryWait(policy, err)
		t.logger.Warn("model request failed, retrying",
			"endpoint", ep.describe(), "attempt", attempt+1, "wait", wait, "err", err)
		if policy.OnRetry != nil {
			policy.OnRetry(err, attempt+1, policy.TimeoutFor(attempt+1, complex))
		}
		if wait > 0 {
			select {
			case <-ctx.Done():
				return nil, &TransportError{gatewayError{Message: "request cancelled during retry", Cause: ctx.Err()}}
			case <-time.After(wait):
			}
		}
	}
	return nil, lastErr
}

// retryWait picks the backoff for one failure class. Timeout errors wait
// nothing: the escalated budget on the next attempt is the remedy.
func retryWait(policy RetryPolicy, err error) time.Duration {
	switch err.(type) {
	case *RateLimitError:
		return policy.RateLimitWait
	case *TimeoutError:
		return 0
	case *TransportError:
		return policy.ConnectBackoff
	default:
		return 2 * time.Second
	}
}

func (t *Transport) effectivePolicy(ep EndpointDescriptor) RetryPolicy {
	policy := t.policy
	if ep.MaxRetries >= 0 {
		policy.MaxRetries = ep.MaxRetries
	}
	if ep.Timeout > 0 {
		policy.BaseTimeout = ep.Timeout
		if policy.ComplexTimeout < ep.Timeout {
			policy.ComplexTimeout = 2 * ep.Timeout
		}
	}
	return policy
}

func (t *Transport) doOnce(ctx context.Context, ep EndpointDescriptor, payload []byte, hdr http.Header, timeout time.Duration) ([]byte, error) {
	actx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(actx, http.MethodPost, ep.BaseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, &TransportError{gatewayError{Message: "build request", Cause: err}}
	}
	t.setHeaders(req, ep, hdr)

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, classifyNetErr(err, timeout)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{gatewayError{Message: "read response body", Cause: err}}
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, nil
	}
	return nil, errorFromStatus(resp.StatusCode, truncate(string(body), 512))
}

// Stream posts payload and returns a lazy sequence of raw chunks. The
// sequence is not restartable; a fresh call re-issues the network request.
// Malformed records are skipped, and the terminal sentinel ends the stream.
func (t *Transport) Stream(ctx context.Context, ep EndpointDescriptor, payload []byte, hdr http.Header) (<-chan RawChunk, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.BaseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, &TransportError{gatewayError{Message: "build stream request", Cause: err}}
	}
	t.setHeaders(req, ep, hdr)
	req.Header.Set("Accept", "text/event-stream")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, classifyNetErr(err, 0)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return nil, errorFromStatus(resp.StatusCode, truncate(string(body), 512))
	}

	ch := make(chan RawChunk)
	go func() {
		defer close(ch)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if !strings.HasPrefix(line, streamDataPrefix) {
				continue
			}
			data := strings.TrimPrefix(line, streamDataPrefix)
			if strings.TrimSpace(data) == streamDone {
				return
			}
			select {
			case ch <- RawChunk(data):
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}

func (t *Transport) setHeaders(req *http.Request, ep EndpointDescriptor, hdr http.Header) {
	req.Header.Set("Content-Type", "application/json")
	for k, vs := range hdr {
		for _, v := range vs {
			req.Header.Set(k, v)
		}
	}
	for k, v := range ep.Headers {
		req.Header.Set(k, v)
	}
	if req.Header.Get("X-Request-Id") == "" {
		req.Header.Set("X-Request-Id", uuid.New().String())
	}
}

// classifyNetErr separates timeouts from connection-level failures.
func classifyNetErr(err error, budget time.Duration) error {
	var nerr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &nerr) && nerr.Timeout()) {
		return &TimeoutError{
			gatewayError: gatewayError{Message: fmt.Sprintf("request timed out after %s", budget), Cause: err},
			Budget:       budget.Seconds(),
		}
	}
	return &TransportError{gatewayError{Message: "connection failed", Cause: err}}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
