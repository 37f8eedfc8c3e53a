package gateway

import (
	"encoding/json"
	"time"
)

// Role identifies who produced a message in a conversation. The set is
// closed: any externally-observed role outside it is remapped by
// NormalizeRole before reaching the network boundary.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is the fundamental unit of conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// System creates a system Message.
func System(text string) Message { return Message{Role: RoleSystem, Content: text} }

// User creates a user Message.
func User(text string) Message { return Message{Role: RoleUser, Content: text} }

// Assistant creates an assistant Message.
func Assistant(text string) Message { return Message{Role: RoleAssistant, Content: text} }

// ToolMsg creates a tool-result Message.
func ToolMsg(text string) Message { return Message{Role: RoleTool, Content: text} }

// ToolSchema describes a tool the model can call.
type ToolSchema struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"` // JSON Schema
}

// ChatRequest is the normalized request shape shared by all vendors.
type ChatRequest struct {
	Messages    []Message    `json:"messages"`
	Temperature float64      `json:"temperature"`
	MaxTokens   int          `json:"max_tokens,omitempty"`
	Stream      bool         `json:"stream"`
	Tools       []ToolSchema `json:"tools,omitempty"`
}

// ToolCall is a model-initiated tool invocation extracted from a response.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// Usage tracks token consumption as reported by the vendor.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Finish reasons. FinishError marks a degenerate response.
const (
	FinishStop      = "stop"
	FinishLength    = "length"
	FinishToolCalls = "tool_calls"
	FinishError     = "error"
)

// ChatResponse is the normalized response shape. A degenerate ChatResponse
// (Content holding human-readable error text, FinishReason == FinishError)
// is the designed failure representation; transport-level failures are never
// surfaced as Go errors past the gateway boundary.
type ChatResponse struct {
	Content      string     `json:"content"`
	FinishReason string     `json:"finish_reason,omitempty"`
	Usage        Usage      `json:"usage"`
	Model        string     `json:"model,omitempty"`
	ToolCalls    []ToolCall `json:"tool_calls,omitempty"`
}

// IsError reports whether the response is degenerate.
func (r ChatResponse) IsError() bool { return r.FinishReason == FinishError }

// ErrorResponse builds a degenerate ChatResponse carrying msg.
func ErrorResponse(msg string) ChatResponse {
	return ChatResponse{Content: msg, FinishReason: FinishError}
}

// EndpointDescriptor is a configured destination for one model. Immutable
// once constructed; sourced from the endpoint registry.
type EndpointDescriptor struct {
	Vendor  string // adapter key: "openai", "anthropic", "generic"
	Name    string // human-readable model name
	BaseURL string // full URL of the chat completion endpoint
	APIKey  string
	ModelID string

	// RoleMap translates vendor-specific inbound role labels (e.g.
	// "developer") before transmission. Unmapped unknown roles fall back
	// to RoleUser.
	RoleMap map[string]Role

	Headers map[string]string // extra HTTP headers

	Timeout    time.Duration // base per-attempt timeout; 0 means policy default
	MaxRetries int           // retry budget; negative means policy default

	SupportsToolCalling bool
	SupportsStreaming   bool
}

// Validate reports a *ConfigurationError if mandatory fields are missing.
// This is a programmer/config error, not a runtime transient.
func (e EndpointDescriptor) Validate() error {
	if e.BaseURL == "" {
		return &ConfigurationError{gatewayError{Message: "endpoint " + e.describe() + " has no base URL"}}
	}
	if e.APIKey == "" {
		return &ConfigurationError{gatewayError{Message: "endpoint " + e.describe() + " has no credential"}}
	}
	return nil
}

func (e EndpointDescriptor) describe() string {
	if e.Name != "" {
		return e.Name
	}
	if e.ModelID != "" {
		return e.ModelID
	}
	return e.Vendor
}

// DefaultRoleMap is the role table applied when an endpoint carries none.
// "developer" is an OpenAI-dialect system role; "function" is the legacy
// tool role.
func DefaultRoleMap() map[string]Role {
	return map[string]Role{
		"developer": RoleSystem,
		"function":  RoleTool,
	}
}

// NormalizeRole maps an arbitrary role label into the closed Role set.
// The mapping is total and idempotent: members of the closed set pass
// through, table entries apply next, and anything else becomes RoleUser.
func NormalizeRole(label string, table map[string]Role) Role {
	switch Role(label) {
	case RoleSystem, RoleUser, RoleAssistant, RoleTool:
		return Role(label)
	}
	if table != nil {
		if mapped, ok := table[label]; ok {
			return mapped
		}
	}
	if mapped, ok := DefaultRoleMap()[label]; ok {
		return mapped
	}
	return RoleUser
}

// NormalizeMessages returns a copy of msgs with every role normalized
// through the endpoint's role table.
func NormalizeMessages(msgs []Message, table map[string]Role) []Message {
	out := make([]Message, len(msgs))
	for i, m := range msgs {
		out[i] = Message{Role: NormalizeRole(string(m.Role), table), Content: m.Content}
	}
	return out
}
