package gateway

import (
	"context"
	"fmt"
	"io"
	"log/slog"
)

// Gateway is the façade combining adapter selection, role normalization,
// and the resilient transport. It holds no per-call state and is safe for
// concurrent use across sessions.
type Gateway struct {
	transport *Transport
	adapters  *AdapterRegistry
	classify  ComplexityClassifier
	logger    *slog.Logger
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithTransport overrides the default transport.
func WithTransport(t *Transport) Option {
	return func(g *Gateway) { g.transport = t }
}

// WithAdapter registers an additional vendor adapter.
func WithAdapter(a VendorAdapter) Option {
	return func(g *Gateway) { g.adapters.Register(a) }
}

// WithComplexityClassifier swaps the query-complexity heuristic.
func WithComplexityClassifier(fn ComplexityClassifier) Option {
	return func(g *Gateway) { g.classify = fn }
}

// WithLogger sets the gateway's logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Gateway) { g.logger = l }
}

// New creates a Gateway with the built-in adapters and default policy.
func New(opts ...Option) *Gateway {
	g := &Gateway{
		transport: NewTransport(),
		adapters:  NewAdapterRegistry(),
		classify:  IsComplexQuery,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Send issues a blocking chat completion against the endpoint. Transport
// and provider failures come back as degenerate responses, never as errors;
// the only returned error is a *ConfigurationError for an endpoint missing
// mandatory fields.
func (g *Gateway) Send(ctx context.Context, req ChatRequest, ep EndpointDescriptor) (ChatResponse, error) {
	if err := ep.Validate(); err != nil {
		return ChatResponse{}, err
	}
	adapter := g.adapters.Lookup(ep.Vendor)

	req.Stream = false
	req.Messages = NormalizeMessages(req.Messages, ep.RoleMap)
	complex := g.classify(lastUserContent(req.Messages))
	if req.MaxTokens == 0 {
		req.MaxTokens = MaxTokensFor(complex)
	}

	payload, err := adapter.ToWire(ep, req)
	if err != nil {
		return ErrorResponse(fmt.Sprintf("could not encode the request: %v", err)), nil
	}

	body, err := g.transport.Execute(ctx, ep, payload, adapter.AuthHeaders(ep), complex)
	if err != nil {
		g.logger.Warn("model request degraded", "endpoint", ep.describe(), "err", err)
		return degradeError(err), nil
	}
	return adapter.FromWire(ep, body), nil
}

// Stream issues a streaming chat completion and surfaces response fragments
// as they arrive. Failure semantics mirror Send: transport failures arrive
// on the channel as a single degenerate fragment.
func (g *Gateway) Stream(ctx context.Context, req ChatRequest, ep EndpointDescriptor) (<-chan ChatResponse, error) {
	if err := ep.Validate(); err != nil {
		return nil, err
	}
	adapter := g.adapters.Lookup(ep.Vendor)

	req.Stream = true
	req.Messages = NormalizeMessages(req.Messages, ep.RoleMap)
	if req.MaxTokens == 0 {
		req.MaxTokens = MaxTokensFor(g.classify(lastUserContent(req.Messages)))
	}

	out := make(chan ChatResponse)
	payload, err := adapter.ToWire(ep, req)
	if err != nil {
		go func() {
			out <- ErrorResponse(fmt.Sprintf("could not encode the request: %v", err))
			close(out)
		}()
		return out, nil
	}

	raw, err := g.transport.Stream(ctx, ep, payload, adapter.AuthHeaders(ep))
	if err != nil {
		g.logger.Warn("stream request degraded", "endpoint", ep.describe(), "err", err)
		go func() {
			out <- degradeError(err)
			close(out)
		}()
		return out, nil
	}

	go func() {
		defer close(out)
		for chunk := range raw {
			fragment, ok := adapter.FromChunk(chunk)
			if !ok {
				continue
			}
			select {
			case out <- fragment:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func lastUserContent(msgs []Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == RoleUser {
			return msgs[i].Content
		}
	}
	return ""
}
