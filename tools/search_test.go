package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestTavilySearchRequiresKey(t *testing.T) {
	s := TavilySearch{}
	_, err := s.Invoke(context.Background(), map[string]any{"query": "golang"})
	if err == nil {
		t.Fatal("expected error without API key")
	}
	if !strings.Contains(err.Error(), "no API key") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestTavilySearchInvoke(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		json.NewDecoder(r.Body).Decode(&payload)
		if payload["query"] != "golang" {
			t.Errorf("expected query golang, got %v", payload["query"])
		}
		if payload["api_key"] != "tvly-test" {
			t.Errorf("expected api key forwarded, got %v", payload["api_key"])
		}
		w.Write([]byte(`{"results":[
			{"title":"Go","content":"Go is a language","url":"https://go.dev"},
			{"title":"Tour","content":"A tour of Go","url":"https://go.dev/tour"}
		]}`))
	}))
	defer srv.Close()

	s := TavilySearch{APIKey: "tvly-test", BaseURL: srv.URL}
	got, err := s.Invoke(context.Background(), map[string]any{"query": "golang"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(got, "1. Go") || !strings.Contains(got, "https://go.dev/tour") {
		t.Errorf("unexpected result: %q", got)
	}
}

func TestTavilySearchNoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[]}`))
	}))
	defer srv.Close()

	s := TavilySearch{APIKey: "tvly-test", BaseURL: srv.URL}
	if _, err := s.Invoke(context.Background(), map[string]any{"query": "nothing"}); err == nil {
		t.Error("expected error for empty result set")
	}
}

func TestDuckDuckGoSearchInvoke(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "go language" {
			t.Errorf("expected query forwarded, got %q", got)
		}
		w.Write([]byte(`{
			"AbstractText": "Go is a statically typed language.",
			"RelatedTopics": [
				{"Text": "Golang", "FirstURL": "https://go.dev"},
				{"Text": "", "FirstURL": "https://skip.me"}
			]
		}`))
	}))
	defer srv.Close()

	s := DuckDuckGoSearch{BaseURL: srv.URL}
	got, err := s.Invoke(context.Background(), map[string]any{"query": "go language"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(got, "statically typed") || !strings.Contains(got, "- Golang") {
		t.Errorf("unexpected result: %q", got)
	}
	if strings.Contains(got, "skip.me") {
		t.Error("empty topics must be skipped")
	}
}

func TestDuckDuckGoSearchEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"AbstractText":"","RelatedTopics":[]}`))
	}))
	defer srv.Close()

	s := DuckDuckGoSearch{BaseURL: srv.URL}
	if _, err := s.Invoke(context.Background(), map[string]any{"query": "void"}); err == nil {
		t.Error("expected error when nothing comes back")
	}
}

func TestStockInfoInvoke(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/AAPL") {
			t.Errorf("expected symbol in path, got %q", r.URL.Path)
		}
		w.Write([]byte(`{"chart":{"result":[{"meta":{
			"symbol":"AAPL","currency":"USD",
			"regularMarketPrice":150.0,"chartPreviousClose":100.0
		}}]}}`))
	}))
	defer srv.Close()

	s := StockInfo{BaseURL: srv.URL}
	got, err := s.Invoke(context.Background(), map[string]any{"symbol": "aapl"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(got, "AAPL: 150.00 USD") || !strings.Contains(got, "+50.00%") {
		t.Errorf("unexpected result: %q", got)
	}
}

func TestStockInfoBadSymbol(t *testing.T) {
	s := StockInfo{}
	if _, err := s.Invoke(context.Background(), map[string]any{"symbol": "  "}); err == nil {
		t.Error("expected error for blank symbol")
	}
}
