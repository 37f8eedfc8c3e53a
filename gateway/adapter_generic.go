package gateway

import (
	"encoding/json"
	"net/http"
)

// GenericAdapter speaks to bare HTTP model endpoints (cloud inference
// gateways, self-hosted deployments) that accept the OpenAI-compatible
// payload but are loose about the response shape. It is also the fallback
// for unknown vendor identifiers.
type GenericAdapter struct{}

func (a *GenericAdapter) Vendor() string { return "generic" }

func (a *GenericAdapter) ToWire(ep EndpointDescriptor, req ChatRequest) ([]byte, error) {
	// Tool schemas are never sent: generic endpoints advertise no
	// tool-calling support and some reject unknown fields outright.
	payload := oaWirePayload{
		Model:       ep.ModelID,
		Messages:    toOAMessages(req.Messages),
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Stream:      req.Stream,
	}
	return json.Marshal(payload)
}

func (a *GenericAdapter) FromWire(ep EndpointDescriptor, body []byte) ChatResponse {
	var wr oaWireResponse
	if err := json.Unmarshal(body, &wr); err == nil && len(wr.Choices) > 0 {
		return (&OpenAIAdapter{}).FromWire(ep, body)
	}

	// No choices field: some vendors wrap content differently.
	var alt struct {
		Content string `json:"content"`
		Model   string `json:"model"`
	}
	if err := json.Unmarshal(body, &alt); err == nil && alt.Content != "" {
		model := alt.Model
		if model == "" {
			model = ep.ModelID
		}
		return ChatResponse{Content: alt.Content, Model: model}
	}

	// Not JSON at all: the raw body is the content.
	return ChatResponse{Content: string(body), Model: ep.ModelID}
}

func (a *GenericAdapter) FromChunk(chunk RawChunk) (ChatResponse, bool) {
	return (&OpenAIAdapter{}).FromChunk(chunk)
}

func (a *GenericAdapter) AuthHeaders(ep EndpointDescriptor) http.Header {
	h := make(http.Header)
	h.Set("Authorization", "Bearer "+ep.APIKey)
	return h
}
