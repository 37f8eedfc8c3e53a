package taskflow

import (
	"fmt"

	"polyglot-agent/gateway"
)

// TaskType is the classification label assigned to a turn.
type TaskType string

const (
	TaskSimpleChat TaskType = "simple_chat"
	TaskResearch   TaskType = "research"
	TaskAnalysis   TaskType = "analysis"
	TaskPlanning   TaskType = "planning"
)

// knownTaskTypes is the closed label set the classifier may produce.
var knownTaskTypes = []TaskType{TaskSimpleChat, TaskResearch, TaskAnalysis, TaskPlanning}

// PlanStep is one step of the planner's structured plan.
type PlanStep struct {
	Name           string `json:"name"`
	Action         string `json:"action"`
	ExpectedResult string `json:"expected_result"`
}

// SearchResult pairs one search query with the text it returned.
type SearchResult struct {
	Query   string `json:"query"`
	Results string `json:"results"`
}

// SessionState holds one session's ordered message history plus the
// orchestration scratch fields the pipeline nodes read and write. It is
// owned exclusively by the SessionStore; nodes receive it under the
// session's lock.
type SessionState struct {
	SessionID string
	Messages  []gateway.Message

	// Per-turn scratch, overwritten by each turn's pipeline.
	TaskType      TaskType
	CurrentTask   string
	Plan          []PlanStep
	SearchResults []SearchResult
	Analysis      string
	Reasoning     string

	// ReasoningTrace accumulates across turns until the session is cleared.
	ReasoningTrace []string

	pendingCalls []gateway.ToolCall
}

// trace appends a short human-readable line describing what a node did.
func (s *SessionState) trace(format string, args ...any) {
	s.ReasoningTrace = append(s.ReasoningTrace, fmt.Sprintf(format, args...))
}

// beginTurn records the new user message and resets the per-turn scratch.
// Messages are append-only: prior entries are never touched.
func (s *SessionState) beginTurn(message string) {
	s.Messages = append(s.Messages, gateway.User(message))
	s.CurrentTask = message
	s.TaskType = ""
	s.Plan = nil
	s.SearchResults = nil
	s.Analysis = ""
	s.Reasoning = ""
	s.pendingCalls = nil
}

// lastAssistant returns the content of the most recent assistant message.
func (s *SessionState) lastAssistant() string {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == gateway.RoleAssistant {
			return s.Messages[i].Content
		}
	}
	return ""
}
