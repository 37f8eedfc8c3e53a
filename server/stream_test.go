package server

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"polyglot-agent/gateway"
)

// streamingFake layers Stream on top of the scripted client.
type streamingFake struct {
	scriptedClient
	fragments []gateway.ChatResponse
}

func (f *streamingFake) Stream(ctx context.Context, req gateway.ChatRequest, ep gateway.EndpointDescriptor) (<-chan gateway.ChatResponse, error) {
	ch := make(chan gateway.ChatResponse)
	go func() {
		defer close(ch)
		for _, frag := range f.fragments {
			ch <- frag
		}
	}()
	return ch, nil
}

func TestChatStreamHandler(t *testing.T) {
	client := &streamingFake{fragments: []gateway.ChatResponse{
		{Content: "hel"},
		{Content: "lo"},
		{FinishReason: gateway.FinishStop},
	}}
	srv, err := New(testRegistry(), client, 0)
	if err != nil {
		t.Fatal(err)
	}

	rec := doRequest(srv, http.MethodPost, "/v1/chat/stream", `{"message":"hi"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	if got := rec.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Errorf("expected SSE content type, got %q", got)
	}

	body := rec.Body.String()
	if !strings.Contains(body, `"content":"hel"`) || !strings.Contains(body, `"content":"lo"`) {
		t.Errorf("expected fragments in stream, got %s", body)
	}
	if !strings.HasSuffix(strings.TrimSpace(body), "data: [DONE]") {
		t.Errorf("expected terminal sentinel, got %s", body)
	}
}

func TestChatStreamNotSupported(t *testing.T) {
	srv, err := New(testRegistry(), &scriptedClient{}, 0)
	if err != nil {
		t.Fatal(err)
	}
	rec := doRequest(srv, http.MethodPost, "/v1/chat/stream", `{"message":"hi"}`)
	if rec.Code != http.StatusNotImplemented {
		t.Errorf("expected 501 for non-streaming client, got %d", rec.Code)
	}
}
