package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultSearchResults = 3

// TavilySearch is the primary web-search collaborator. It needs an API key;
// without one every invocation errors, which makes the researcher node fall
// back to DuckDuckGo.
type TavilySearch struct {
	APIKey  string
	BaseURL string // defaults to the public API
	Client  *http.Client
}

func (TavilySearch) Name() string { return "web_search" }

func (TavilySearch) Description() string {
	return "Search the web for current information and return the top results."
}

func (TavilySearch) Schema() map[string]any {
	return searchSchema()
}

func (s TavilySearch) Invoke(ctx context.Context, args map[string]any) (string, error) {
	query, _ := args["query"].(string)
	if strings.TrimSpace(query) == "" {
		return "", fmt.Errorf("web_search: empty query")
	}
	if s.APIKey == "" {
		return "", fmt.Errorf("web_search: no API key configured")
	}

	base := s.BaseURL
	if base == "" {
		base = "https://api.tavily.com/search"
	}
	payload, err := json.Marshal(map[string]any{
		"api_key":     s.APIKey,
		"query":       query,
		"max_results": defaultSearchResults,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := doSearch(s.Client, req)
	if err != nil {
		return "", fmt.Errorf("web_search: %w", err)
	}

	var parsed struct {
		Results []struct {
			Title   string `json:"title"`
			Content string `json:"content"`
			URL     string `json:"url"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("web_search: decode response: %w", err)
	}
	if len(parsed.Results) == 0 {
		return "", fmt.Errorf("web_search: no results for %q", query)
	}

	var sb strings.Builder
	for i, r := range parsed.Results {
		fmt.Fprintf(&sb, "%d. %s\n%s\n%s\n", i+1, r.Title, r.Content, r.URL)
	}
	return sb.String(), nil
}

// DuckDuckGoSearch is the keyless fallback search collaborator, backed by
// the instant-answer API.
type DuckDuckGoSearch struct {
	BaseURL string
	Client  *http.Client
}

func (DuckDuckGoSearch) Name() string { return "duckduckgo_search" }

func (DuckDuckGoSearch) Description() string {
	return "Search the web via DuckDuckGo instant answers (no API key required)."
}

func (DuckDuckGoSearch) Schema() map[string]any {
	return searchSchema()
}

func (s DuckDuckGoSearch) Invoke(ctx context.Context, args map[string]any) (string, error) {
	query, _ := args["query"].(string)
	if strings.TrimSpace(query) == "" {
		return "", fmt.Errorf("duckduckgo_search: empty query")
	}

	base := s.BaseURL
	if base == "" {
		base = "https://api.duckduckgo.com/"
	}
	endpoint := fmt.Sprintf("%s?q=%s&format=json&no_html=1", base, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}

	body, err := doSearch(s.Client, req)
	if err != nil {
		return "", fmt.Errorf("duckduckgo_search: %w", err)
	}

	var parsed struct {
		AbstractText  string `json:"AbstractText"`
		RelatedTopics []struct {
			Text     string `json:"Text"`
			FirstURL string `json:"FirstURL"`
		} `json:"RelatedTopics"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("duckduckgo_search: decode response: %w", err)
	}

	var sb strings.Builder
	if parsed.AbstractText != "" {
		sb.WriteString(parsed.AbstractText)
		sb.WriteString("\n")
	}
	count := 0
	for _, topic := range parsed.RelatedTopics {
		if topic.Text == "" {
			continue
		}
		fmt.Fprintf(&sb, "- %s (%s)\n", topic.Text, topic.FirstURL)
		count++
		if count >= defaultSearchResults {
			break
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("duckduckgo_search: no results for %q", query)
	}
	return sb.String(), nil
}

func searchSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "The search query",
			},
		},
		"required": []string{"query"},
	}
}

func doSearch(client *http.Client, req *http.Request) ([]byte, error) {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
