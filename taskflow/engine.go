package taskflow

import (
	"context"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"polyglot-agent/gateway"
)

// ModelClient is the slice of the gateway the state machine consumes.
// *gateway.Gateway satisfies it.
type ModelClient interface {
	Send(ctx context.Context, req gateway.ChatRequest, ep gateway.EndpointDescriptor) (gateway.ChatResponse, error)
}

// node identifies one stage of the state machine.
type node string

const (
	nodeClassifier  node = "classifier"
	nodeSimpleChat  node = "simple_chat"
	nodeToolCall    node = "tool_call"
	nodePlanner     node = "planner"
	nodeResearcher  node = "researcher"
	nodeAnalyzer    node = "analyzer"
	nodeReasoner    node = "reasoner"
	nodeSynthesizer node = "synthesizer"
	nodeEnd         node = "end"
)

// maxNodeVisits bounds a turn's node traversal. The longest legal path is
// six visits (classifier through synthesizer); the bound only guards
// against a routing bug ever introducing a cycle.
const maxNodeVisits = 10

// Engine drives conversational turns through the orchestration graph.
// One Engine serves many sessions concurrently; per-session turns are
// serialized by the session store.
type Engine struct {
	client      ModelClient
	ep          gateway.EndpointDescriptor
	store       *SessionStore
	tools       *ToolSet
	logger      *slog.Logger
	temperature float64
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithToolSet attaches tool collaborators.
func WithToolSet(ts *ToolSet) EngineOption {
	return func(e *Engine) { e.tools = ts }
}

// WithSessionStore shares an existing store between engines.
func WithSessionStore(store *SessionStore) EngineOption {
	return func(e *Engine) { e.store = store }
}

// WithEngineLogger sets the engine's logger.
func WithEngineLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// WithTemperature overrides the default sampling temperature.
func WithTemperature(t float64) EngineOption {
	return func(e *Engine) { e.temperature = t }
}

// NewEngine creates an Engine bound to one model endpoint.
func NewEngine(client ModelClient, ep gateway.EndpointDescriptor, opts ...EngineOption) *Engine {
	e := &Engine{
		client:      client,
		ep:          ep,
		store:       NewSessionStore(),
		tools:       &ToolSet{},
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		temperature: 0.1,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Store exposes the session store for trace and history access.
func (e *Engine) Store() *SessionStore { return e.store }

// Chat processes one dialogue turn: it appends the user message, walks the
// node graph to a terminal state, and returns the assistant's reply. It
// never fails for transport or provider reasons; the only possible error
// is a *gateway.ConfigurationError for a misconfigured endpoint.
func (e *Engine) Chat(ctx context.Context, message, sessionID string) (string, error) {
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	s := e.store.acquire(sessionID)
	defer s.release()

	st := &s.state
	st.beginTurn(message)

	toolRounds := 0
	current := nodeClassifier
	for visits := 0; current != nodeEnd; visits++ {
		if visits >= maxNodeVisits {
			e.logger.Error("node budget exhausted", "session", sessionID, "node", current)
			st.Messages = append(st.Messages, gateway.Assistant(
				"Sorry, something went wrong while processing the request. Please try again."))
			break
		}

		next, err := e.runNode(ctx, current, st, &toolRounds)
		if err != nil {
			return "", err
		}
		current = next
	}

	return st.lastAssistant(), nil
}

// GetReasoningTrace returns the session's accumulated trace lines.
func (e *Engine) GetReasoningTrace(sessionID string) []string {
	return e.store.Trace(sessionID)
}

// Clear removes a session's history and trace.
func (e *Engine) Clear(sessionID string) {
	e.store.Clear(sessionID)
}

func (e *Engine) runNode(ctx context.Context, current node, st *SessionState, toolRounds *int) (node, error) {
	e.logger.Debug("entering node", "session", st.SessionID, "node", current)
	switch current {
	case nodeClassifier:
		return e.classify(ctx, st)
	case nodeSimpleChat:
		return e.simpleChat(ctx, st, toolRounds)
	case nodeToolCall:
		return e.toolCall(ctx, st, toolRounds)
	case nodePlanner:
		return e.plan(ctx, st)
	case nodeResearcher:
		return e.research(ctx, st)
	case nodeAnalyzer:
		return e.analyze(ctx, st)
	case nodeReasoner:
		return e.reason(ctx, st)
	case nodeSynthesizer:
		return e.synthesize(ctx, st)
	default:
		return nodeEnd, nil
	}
}

// send issues one gateway call with the engine's endpoint and temperature.
func (e *Engine) send(ctx context.Context, msgs []gateway.Message, tools []gateway.ToolSchema) (gateway.ChatResponse, error) {
	return e.client.Send(ctx, gateway.ChatRequest{
		Messages:    msgs,
		Temperature: e.temperature,
		Tools:       tools,
	}, e.ep)
}
