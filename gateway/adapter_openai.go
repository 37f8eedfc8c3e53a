package gateway

import (
	"encoding/json"
	"net/http"
)

// Wire structs for the OpenAI-compatible chat completions dialect. Several
// vendors (OpenAI, DeepSeek, Groq, most self-hosted gateways) speak it.

type oaWireMessage struct {
	Role       string           `json:"role"`
	Content    string           `json:"content"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
	ToolCalls  []oaWireToolCall `json:"tool_calls,omitempty"`
}

type oaWireToolCall struct {
	ID       string         `json:"id,omitempty"`
	Type     string         `json:"type,omitempty"`
	Function oaWireFunction `json:"function"`
}

type oaWireFunction struct {
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

type oaWireTool struct {
	Type     string `json:"type"`
	Function struct {
		Name        string         `json:"name"`
		Description string         `json:"description,omitempty"`
		Parameters  map[string]any `json:"parameters,omitempty"`
	} `json:"function"`
}

type oaWirePayload struct {
	Model       string          `json:"model"`
	Messages    []oaWireMessage `json:"messages"`
	Temperature float64         `json:"temperature"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Stream      bool            `json:"stream"`
	Tools       []oaWireTool    `json:"tools,omitempty"`
}

type oaWireResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message      oaWireMessage `json:"message"`
		FinishReason string        `json:"finish_reason"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

type oaWireChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// OpenAIAdapter speaks the OpenAI-compatible REST dialect.
type OpenAIAdapter struct{}

func (a *OpenAIAdapter) Vendor() string { return "openai" }

func (a *OpenAIAdapter) ToWire(ep EndpointDescriptor, req ChatRequest) ([]byte, error) {
	payload := oaWirePayload{
		Model:       ep.ModelID,
		Messages:    toOAMessages(req.Messages),
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Stream:      req.Stream,
	}
	for _, t := range req.Tools {
		wt := oaWireTool{Type: "function"}
		wt.Function.Name = t.Name
		wt.Function.Description = t.Description
		wt.Function.Parameters = t.Parameters
		payload.Tools = append(payload.Tools, wt)
	}
	return json.Marshal(payload)
}

func toOAMessages(msgs []Message) []oaWireMessage {
	out := make([]oaWireMessage, len(msgs))
	for i, m := range msgs {
		out[i] = oaWireMessage{Role: string(m.Role), Content: m.Content}
	}
	return out
}

func (a *OpenAIAdapter) FromWire(ep EndpointDescriptor, body []byte) ChatResponse {
	var wr oaWireResponse
	if err := json.Unmarshal(body, &wr); err != nil || len(wr.Choices) == 0 {
		// Unexpected shape: recover locally by surfacing the raw body.
		return ChatResponse{Content: string(body), Model: ep.ModelID}
	}

	choice := wr.Choices[0]
	resp := ChatResponse{
		Content:      choice.Message.Content,
		FinishReason: choice.FinishReason,
		Model:        wr.Model,
	}
	if resp.Model == "" {
		resp.Model = ep.ModelID
	}
	if wr.Usage != nil {
		resp.Usage = Usage{
			PromptTokens:     wr.Usage.PromptTokens,
			CompletionTokens: wr.Usage.CompletionTokens,
			TotalTokens:      wr.Usage.TotalTokens,
		}
	}
	for _, tc := range choice.Message.ToolCalls {
		resp.ToolCalls = append(resp.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: json.RawMessage(tc.Function.Arguments),
		})
	}
	return resp
}

func (a *OpenAIAdapter) FromChunk(chunk RawChunk) (ChatResponse, bool) {
	var wc oaWireChunk
	if err := json.Unmarshal(chunk, &wc); err != nil || len(wc.Choices) == 0 {
		return ChatResponse{}, false
	}
	delta := wc.Choices[0]
	if delta.Delta.Content == "" && delta.FinishReason == "" {
		return ChatResponse{}, false
	}
	return ChatResponse{Content: delta.Delta.Content, FinishReason: delta.FinishReason}, true
}

func (a *OpenAIAdapter) AuthHeaders(ep EndpointDescriptor) http.Header {
	h := make(http.Header)
	h.Set("Authorization", "Bearer "+ep.APIKey)
	return h
}
