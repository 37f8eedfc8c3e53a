package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestGateway(opts ...Option) *Gateway {
	base := []Option{WithTransport(NewTransport(WithRetryPolicy(fastPolicy())))}
	return New(append(base, opts...)...)
}

func TestSendConfigurationError(t *testing.T) {
	gw := newTestGateway()
	_, err := gw.Send(context.Background(), ChatRequest{}, EndpointDescriptor{Vendor: "openai"})
	if err == nil {
		t.Fatal("expected configuration error")
	}
	if _, ok := err.(*ConfigurationError); !ok {
		t.Errorf("expected *ConfigurationError, got %T", err)
	}
}

func TestSendSuccess(t *testing.T) {
	var seen oaWirePayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&seen)
		w.Write([]byte(`{"choices":[{"message":{"content":"hi there"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	gw := newTestGateway()
	resp, err := gw.Send(context.Background(), ChatRequest{
		Messages: []Message{{Role: "developer", Content: "be brief"}, User("你好")},
	}, testEndpoint(srv.URL))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "hi there" || resp.IsError() {
		t.Errorf("unexpected response: %+v", resp)
	}

	// Roles normalized before the wire.
	if seen.Messages[0].Role != "system" {
		t.Errorf("expected developer remapped to system on the wire, got %q", seen.Messages[0].Role)
	}
	// Simple query picks the small token budget.
	if seen.MaxTokens != 2000 {
		t.Errorf("expected max_tokens 2000 for simple query, got %d", seen.MaxTokens)
	}
}

func TestSendComplexQueryBudget(t *testing.T) {
	var seen oaWirePayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&seen)
		w.Write([]byte(`{"choices":[{"message":{"content":"ok"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	gw := newTestGateway()
	_, err := gw.Send(context.Background(), ChatRequest{
		Messages: []Message{User("分析一下这只股票的投资风险")},
	}, testEndpoint(srv.URL))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen.MaxTokens != 4000 {
		t.Errorf("expected max_tokens 4000 for complex query, got %d", seen.MaxTokens)
	}
}

func TestSendCallerMaxTokensPreserved(t *testing.T) {
	var seen oaWirePayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&seen)
		w.Write([]byte(`{"choices":[{"message":{"content":"ok"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	gw := newTestGateway()
	gw.Send(context.Background(), ChatRequest{
		Messages:  []Message{User("hi")},
		MaxTokens: 123,
	}, testEndpoint(srv.URL))
	if seen.MaxTokens != 123 {
		t.Errorf("expected caller's max_tokens preserved, got %d", seen.MaxTokens)
	}
}

func TestSendDegradesOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream exploded"))
	}))
	defer srv.Close()

	gw := newTestGateway()
	resp, err := gw.Send(context.Background(), ChatRequest{Messages: []Message{User("hi")}}, testEndpoint(srv.URL))
	if err != nil {
		t.Fatalf("transport failures must not surface as errors, got %v", err)
	}
	if !resp.IsError() {
		t.Fatal("expected degenerate response")
	}
	if !strings.Contains(resp.Content, "502") {
		t.Errorf("expected status in message, got %q", resp.Content)
	}
}

func TestSendRecoversAfterRateLimit(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"choices":[{"message":{"content":"recovered"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	gw := newTestGateway()
	resp, err := gw.Send(context.Background(), ChatRequest{Messages: []Message{User("hi")}}, testEndpoint(srv.URL))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.IsError() || resp.Content != "recovered" {
		t.Errorf("expected recovery, got %+v", resp)
	}
}

func TestSendMalformedBodySurfacedVerbatim(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>proxy error page</html>"))
	}))
	defer srv.Close()

	gw := newTestGateway()
	resp, err := gw.Send(context.Background(), ChatRequest{Messages: []Message{User("hi")}}, testEndpoint(srv.URL))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "<html>proxy error page</html>" {
		t.Errorf("expected raw body, got %q", resp.Content)
	}
}

func TestStreamFragments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload oaWirePayload
		json.NewDecoder(r.Body).Decode(&payload)
		if !payload.Stream {
			t.Error("expected stream flag set on the wire")
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"hel\"}}]}\n"))
		w.Write([]byte("data: {bad json\n"))
		w.Write([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"lo\"}}]}\n"))
		w.Write([]byte("data: [DONE]\n"))
	}))
	defer srv.Close()

	gw := newTestGateway()
	ch, err := gw.Stream(context.Background(), ChatRequest{Messages: []Message{User("hi")}}, testEndpoint(srv.URL))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parts []string
	for frag := range ch {
		parts = append(parts, frag.Content)
	}
	if strings.Join(parts, "") != "hello" {
		t.Errorf("expected assembled hello, got %v", parts)
	}
}

func TestStreamDegradesOnTransportFailure(t *testing.T) {
	gw := newTestGateway()
	ep := testEndpoint("http://127.0.0.1:1")
	ep.MaxRetries = 0

	ch, err := gw.Stream(context.Background(), ChatRequest{Messages: []Message{User("hi")}}, ep)
	if err != nil {
		t.Fatalf("transport failures must not surface as errors, got %v", err)
	}

	var frags []ChatResponse
	deadline := time.After(5 * time.Second)
	for {
		select {
		case frag, ok := <-ch:
			if !ok {
				if len(frags) != 1 || !frags[0].IsError() {
					t.Errorf("expected single degenerate fragment, got %+v", frags)
				}
				return
			}
			frags = append(frags, frag)
		case <-deadline:
			t.Fatal("stream did not close")
		}
	}
}
