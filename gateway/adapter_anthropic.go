package gateway

import (
	"encoding/json"
	"net/http"
	"strings"
)

const anthropicVersion = "2023-06-01"

// Wire structs for the Anthropic messages dialect. System prompts ride in a
// top-level field instead of the message list, and authentication uses
// x-api-key rather than a bearer token.

type anWirePayload struct {
	Model       string          `json:"model"`
	System      string          `json:"system,omitempty"`
	Messages    []oaWireMessage `json:"messages"`
	Temperature float64         `json:"temperature"`
	MaxTokens   int             `json:"max_tokens"`
	Stream      bool            `json:"stream,omitempty"`
	Tools       []anWireTool    `json:"tools,omitempty"`
}

type anWireTool struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"input_schema"`
}

type anWireResponse struct {
	Model   string `json:"model"`
	Content []struct {
		Type  string          `json:"type"`
		Text  string          `json:"text"`
		ID    string          `json:"id"`
		Name  string          `json:"name"`
		Input json.RawMessage `json:"input"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      *struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type anWireChunk struct {
	Type  string `json:"type"`
	Delta struct {
		Type       string `json:"type"`
		Text       string `json:"text"`
		StopReason string `json:"stop_reason"`
	} `json:"delta"`
}

// AnthropicAdapter speaks the Anthropic-style messages dialect.
type AnthropicAdapter struct{}

func (a *AnthropicAdapter) Vendor() string { return "anthropic" }

func (a *AnthropicAdapter) ToWire(ep EndpointDescriptor, req ChatRequest) ([]byte, error) {
	payload := anWirePayload{
		Model:       ep.ModelID,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Stream:      req.Stream,
	}
	if payload.MaxTokens == 0 {
		payload.MaxTokens = simpleMaxTokens
	}

	// System messages move to the top-level field; tool results become
	// user messages, which is the closest expressible shape.
	var system []string
	for _, m := range req.Messages {
		switch m.Role {
		case RoleSystem:
			system = append(system, m.Content)
		case RoleTool:
			payload.Messages = append(payload.Messages, oaWireMessage{Role: "user", Content: m.Content})
		default:
			payload.Messages = append(payload.Messages, oaWireMessage{Role: string(m.Role), Content: m.Content})
		}
	}
	payload.System = strings.Join(system, "\n\n")

	for _, t := range req.Tools {
		payload.Tools = append(payload.Tools, anWireTool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.Parameters,
		})
	}
	return json.Marshal(payload)
}

func (a *AnthropicAdapter) FromWire(ep EndpointDescriptor, body []byte) ChatResponse {
	var wr anWireResponse
	if err := json.Unmarshal(body, &wr); err != nil || len(wr.Content) == 0 {
		return ChatResponse{Content: string(body), Model: ep.ModelID}
	}

	resp := ChatResponse{Model: wr.Model, FinishReason: mapStopReason(wr.StopReason)}
	if resp.Model == "" {
		resp.Model = ep.ModelID
	}
	var text strings.Builder
	for _, part := range wr.Content {
		switch part.Type {
		case "text":
			text.WriteString(part.Text)
		case "tool_use":
			resp.ToolCalls = append(resp.ToolCalls, ToolCall{
				ID:        part.ID,
				Name:      part.Name,
				Arguments: part.Input,
			})
		}
	}
	resp.Content = text.String()
	if wr.Usage != nil {
		resp.Usage = Usage{
			PromptTokens:     wr.Usage.InputTokens,
			CompletionTokens: wr.Usage.OutputTokens,
			TotalTokens:      wr.Usage.InputTokens + wr.Usage.OutputTokens,
		}
	}
	return resp
}

func mapStopReason(reason string) string {
	switch reason {
	case "end_turn", "stop_sequence":
		return FinishStop
	case "max_tokens":
		return FinishLength
	case "tool_use":
		return FinishToolCalls
	default:
		return reason
	}
}

func (a *AnthropicAdapter) FromChunk(chunk RawChunk) (ChatResponse, bool) {
	var wc anWireChunk
	if err := json.Unmarshal(chunk, &wc); err != nil {
		return ChatResponse{}, false
	}
	switch wc.Type {
	case "content_block_delta":
		if wc.Delta.Text == "" {
			return ChatResponse{}, false
		}
		return ChatResponse{Content: wc.Delta.Text}, true
	case "message_delta":
		if wc.Delta.StopReason == "" {
			return ChatResponse{}, false
		}
		return ChatResponse{FinishReason: mapStopReason(wc.Delta.StopReason)}, true
	default:
		return ChatResponse{}, false
	}
}

func (a *AnthropicAdapter) AuthHeaders(ep EndpointDescriptor) http.Header {
	h := make(http.Header)
	h.Set("x-api-key", ep.APIKey)
	h.Set("anthropic-version", anthropicVersion)
	return h
}
