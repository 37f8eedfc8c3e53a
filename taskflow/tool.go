package taskflow

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"polyglot-agent/gateway"
)

// Tool is a synchronous collaborator the orchestration nodes can invoke.
// Implementations may return errors; nodes catch them and convert them to
// inline error text, so a failing tool never fails a turn.
type Tool interface {
	Name() string
	Description() string
	Schema() map[string]any
	Invoke(ctx context.Context, args map[string]any) (string, error)
}

// ToolSet groups the collaborators a pipeline uses. Searchers are ordered:
// the first is the primary engine, later entries are fallbacks.
type ToolSet struct {
	Calculator Tool
	Searchers  []Tool
	Extras     []Tool
}

// all returns every non-nil tool in the set.
func (ts *ToolSet) all() []Tool {
	var out []Tool
	if ts.Calculator != nil {
		out = append(out, ts.Calculator)
	}
	out = append(out, ts.Searchers...)
	out = append(out, ts.Extras...)
	return out
}

// Schemas returns the tool schemas bound to requests when the endpoint
// supports tool calling.
func (ts *ToolSet) Schemas() []gateway.ToolSchema {
	var out []gateway.ToolSchema
	for _, t := range ts.all() {
		out = append(out, gateway.ToolSchema{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Schema(),
		})
	}
	return out
}

// Lookup finds a tool by name.
func (ts *ToolSet) Lookup(name string) (Tool, bool) {
	for _, t := range ts.all() {
		if t.Name() == name {
			return t, true
		}
	}
	return nil, false
}

// invokeCall executes one model-requested tool call, converting every
// failure into inline error text.
func (ts *ToolSet) invokeCall(ctx context.Context, call gateway.ToolCall) string {
	tool, ok := ts.Lookup(call.Name)
	if !ok {
		return fmt.Sprintf("Unknown tool: %s", call.Name)
	}
	args := make(map[string]any)
	if len(call.Arguments) > 0 {
		if err := json.Unmarshal(call.Arguments, &args); err != nil {
			return fmt.Sprintf("Tool %s: invalid arguments: %v", call.Name, err)
		}
	}
	result, err := tool.Invoke(ctx, args)
	if err != nil {
		return fmt.Sprintf("Tool %s failed: %v", call.Name, err)
	}
	return result
}

// Calculation-indicator keywords that trigger the local post-processing
// path on endpoints without tool-calling support.
var calcKeywords = []string{"计算", "数学", "calculate", "calculation", "compute", "math"}

// Expression extraction grammar: digits, parentheses, + - * /. The three
// patterns favor complete parenthesized expressions, then any infix chain.
var exprPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\([\d\s+\-*/]+\)\s*[+\-*/]\s*[\d\s+\-*/()]+`),
	regexp.MustCompile(`\d+\s*[+\-*/]\s*[\d\s+\-*/()]+`),
	regexp.MustCompile(`\([\d\s+\-*/]+\)`),
}

var exprWide = regexp.MustCompile(`[\d\s+\-*/()]+`)

// extractExpression pulls a numeric sub-expression out of free text,
// preferring the widest span that still matches the fixed grammar.
func extractExpression(text string) string {
	for _, pattern := range exprPatterns {
		match := pattern.FindString(text)
		if match == "" {
			continue
		}
		// Widen to the full surrounding numeric span when it is longer.
		if wide := exprWide.FindString(text); len(strings.TrimSpace(wide)) > len(strings.TrimSpace(match)) {
			match = wide
		}
		return strings.TrimSpace(match)
	}
	return ""
}
