// Package gateway provides a unified model gateway that routes normalized
// chat requests across heterogeneous LLM vendor APIs behind one interface.
//
// # Architecture
//
// The package is layered bottom-up:
//
//   - Transport: issues the HTTP call with retry, backoff, and
//     timeout-escalation policy, and parses streaming bodies.
//   - VendorAdapter: translates between the normalized chat model and one
//     vendor's wire format (OpenAI-compatible, Anthropic-style, generic HTTP).
//   - Gateway: the façade combining adapter selection, role normalization,
//     and the transport.
//
// # Failure semantics
//
// Network and provider failures never escape Send as Go errors. They are
// converted to degenerate ChatResponse values whose Content is a
// human-readable error message and whose FinishReason is "error", so callers
// can always make forward progress. The only error Send returns is a
// *ConfigurationError for an endpoint missing mandatory fields.
//
// # Quick Start
//
//	gw := gateway.New()
//	resp, err := gw.Send(ctx, gateway.ChatRequest{
//	    Messages: []gateway.Message{gateway.User("Hello")},
//	}, endpoint)
//	if err != nil {
//	    log.Fatal(err) // endpoint misconfigured
//	}
//	fmt.Println(resp.Content)
package gateway
