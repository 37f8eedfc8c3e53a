package taskflow

import (
	"context"
	"encoding/json"
	"strings"

	"polyglot-agent/gateway"
)

// classify labels the turn via a gateway call and routes on the result.
// A degenerate response or an unrecognized label defaults to simple_chat.
func (e *Engine) classify(ctx context.Context, st *SessionState) (node, error) {
	resp, err := e.send(ctx, []gateway.Message{gateway.User(classificationPrompt(st.CurrentTask))}, nil)
	if err != nil {
		return nodeEnd, err
	}

	st.TaskType = parseTaskType(resp)
	st.trace("Classified task as %s", st.TaskType)

	if st.TaskType == TaskSimpleChat {
		return nodeSimpleChat, nil
	}
	return nodePlanner, nil
}

// parseTaskType matches the returned label case-insensitively against the
// known set; anything else (including degenerate responses) is simple_chat.
func parseTaskType(resp gateway.ChatResponse) TaskType {
	if resp.IsError() {
		return TaskSimpleChat
	}
	label := strings.ToLower(strings.TrimSpace(resp.Content))
	for _, known := range knownTaskTypes {
		if known == TaskSimpleChat {
			continue // checked last: "simple_chat" must not shadow longer labels
		}
		if strings.Contains(label, string(known)) {
			return known
		}
	}
	return TaskSimpleChat
}

// simpleChat produces a direct completion. Endpoints that support tool
// calling get the tool schemas bound for at most one round-trip; endpoints
// that do not get best-effort local calculator post-processing instead.
func (e *Engine) simpleChat(ctx context.Context, st *SessionState, toolRounds *int) (node, error) {
	msgs := make([]gateway.Message, 0, len(st.Messages)+1)
	msgs = append(msgs, gateway.System(simpleChatSystemPrompt))
	msgs = append(msgs, st.Messages...)

	var schemas []gateway.ToolSchema
	if e.ep.SupportsToolCalling && *toolRounds == 0 {
		schemas = e.tools.Schemas()
	}

	resp, err := e.send(ctx, msgs, schemas)
	if err != nil {
		return nodeEnd, err
	}

	if !resp.IsError() && len(resp.ToolCalls) > 0 && *toolRounds == 0 {
		st.pendingCalls = resp.ToolCalls
		return nodeToolCall, nil
	}

	content := resp.Content
	if !resp.IsError() && !e.ep.SupportsToolCalling {
		content = e.applyCalculatorFallback(ctx, st, content)
	}

	st.Messages = append(st.Messages, gateway.Assistant(content))
	st.trace("Answered directly via simple chat")
	return nodeEnd, nil
}

// toolCall executes the pending tool invocations and feeds the results
// back as tool-role messages before the follow-up completion. Exactly one
// round-trip per simple_chat iteration.
func (e *Engine) toolCall(ctx context.Context, st *SessionState, toolRounds *int) (node, error) {
	calls := st.pendingCalls
	st.pendingCalls = nil
	*toolRounds++

	for _, call := range calls {
		result := e.tools.invokeCall(ctx, call)
		st.Messages = append(st.Messages, gateway.ToolMsg(result))
		st.trace("Invoked tool %s", call.Name)
	}
	return nodeSimpleChat, nil
}

// applyCalculatorFallback scans the reply and the user message for
// calculation indicators, extracts a numeric sub-expression with the fixed
// grammar, evaluates it through the calculator collaborator, and appends
// the exact result to the reply. Best-effort: any miss leaves the reply
// untouched.
func (e *Engine) applyCalculatorFallback(ctx context.Context, st *SessionState, reply string) string {
	if e.tools.Calculator == nil {
		return reply
	}
	if !containsCalcKeyword(reply) && !containsCalcKeyword(st.CurrentTask) && extractExpression(st.CurrentTask) == "" {
		return reply
	}
	expr := extractExpression(st.CurrentTask)
	if expr == "" {
		return reply
	}
	result, err := e.tools.Calculator.Invoke(ctx, map[string]any{"expression": expr})
	if err != nil {
		e.logger.Debug("calculator fallback miss", "expr", expr, "err", err)
		return reply
	}
	st.trace("Evaluated expression locally: %s", result)
	return reply + "\n\n" + result
}

func containsCalcKeyword(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range calcKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// defaultPlan is substituted when the planner's JSON cannot be parsed. The
// downstream nodes do not require a well-formed plan to function, so the
// turn degrades gracefully instead of failing.
func defaultPlan() []PlanStep {
	return []PlanStep{
		{Name: "Information gathering", Action: "Search for relevant information", ExpectedResult: "Background information collected"},
		{Name: "Deep analysis", Action: "Analyze the collected information", ExpectedResult: "Preliminary conclusions formed"},
		{Name: "Reasoning synthesis", Action: "Reason through the findings", ExpectedResult: "Final answer derived"},
	}
}

// plan requests a structured plan as JSON, substituting the fixed default
// on any parse failure.
func (e *Engine) plan(ctx context.Context, st *SessionState) (node, error) {
	resp, err := e.send(ctx, []gateway.Message{gateway.User(planningPrompt(st.TaskType, st.CurrentTask))}, nil)
	if err != nil {
		return nodeEnd, err
	}

	st.Plan = parsePlan(resp)
	st.trace("Created an execution plan with %d steps", len(st.Plan))
	return nodeResearcher, nil
}

func parsePlan(resp gateway.ChatResponse) []PlanStep {
	if resp.IsError() {
		return defaultPlan()
	}
	var parsed struct {
		Steps []PlanStep `json:"steps"`
	}
	if err := json.Unmarshal([]byte(extractJSONObject(resp.Content)), &parsed); err != nil || len(parsed.Steps) == 0 {
		return defaultPlan()
	}
	return parsed.Steps
}

// extractJSONObject strips prose and code fences around the first JSON
// object in text. Models often wrap JSON in markdown.
func extractJSONObject(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return text
	}
	return text[start : end+1]
}

// research derives search queries from the task, runs each against the
// searcher chain (primary first, falling back on error), and accumulates
// query/result pairs. Partial failure is not fatal to the turn.
func (e *Engine) research(ctx context.Context, st *SessionState) (node, error) {
	resp, err := e.send(ctx, []gateway.Message{gateway.User(searchQueryPrompt(st.CurrentTask))}, nil)
	if err != nil {
		return nodeEnd, err
	}

	queries := parseQueries(resp, st.CurrentTask)
	for _, query := range queries {
		if result, ok := e.runSearch(ctx, query); ok {
			st.SearchResults = append(st.SearchResults, SearchResult{Query: query, Results: result})
		}
	}
	st.trace("Collected %d sets of search results", len(st.SearchResults))
	return nodeAnalyzer, nil
}

// parseQueries splits the model's query list, falling back to the raw task
// when the call degraded.
func parseQueries(resp gateway.ChatResponse, task string) []string {
	if resp.IsError() {
		return []string{task}
	}
	var queries []string
	for _, line := range strings.Split(resp.Content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		queries = append(queries, line)
		if len(queries) == 3 {
			break
		}
	}
	if len(queries) == 0 {
		return []string{task}
	}
	return queries
}

// runSearch tries each searcher in order until one succeeds.
func (e *Engine) runSearch(ctx context.Context, query string) (string, bool) {
	for _, searcher := range e.tools.Searchers {
		result, err := searcher.Invoke(ctx, map[string]any{"query": query})
		if err == nil {
			return result, true
		}
		e.logger.Debug("search failed, trying next engine", "tool", searcher.Name(), "query", query, "err", err)
	}
	return "", false
}

// analyze issues one analytical completion over the accumulated search
// results.
func (e *Engine) analyze(ctx context.Context, st *SessionState) (node, error) {
	resp, err := e.send(ctx, []gateway.Message{gateway.User(analysisPrompt(st.CurrentTask, st.SearchResults))}, nil)
	if err != nil {
		return nodeEnd, err
	}

	st.Analysis = resp.Content
	st.trace("Analyzed the collected information")
	return nodeReasoner, nil
}

// reason issues one step-by-step reasoning completion over the analysis.
func (e *Engine) reason(ctx context.Context, st *SessionState) (node, error) {
	resp, err := e.send(ctx, []gateway.Message{gateway.User(reasoningPrompt(st.CurrentTask, st.Analysis))}, nil)
	if err != nil {
		return nodeEnd, err
	}

	st.Reasoning = resp.Content
	st.trace("Completed step-by-step reasoning")
	return nodeSynthesizer, nil
}

// synthesize combines analysis and reasoning into the final reply and
// appends it to the session history, completing the turn.
func (e *Engine) synthesize(ctx context.Context, st *SessionState) (node, error) {
	resp, err := e.send(ctx, []gateway.Message{gateway.User(synthesisPrompt(st.CurrentTask, st.Analysis, st.Reasoning))}, nil)
	if err != nil {
		return nodeEnd, err
	}

	st.Messages = append(st.Messages, gateway.Assistant(resp.Content))
	st.trace("Synthesized the final answer")
	return nodeEnd, nil
}
