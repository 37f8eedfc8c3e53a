// Package taskflow implements the task orchestration state machine that
// drives a conversational turn through a directed graph of processing
// stages.
//
// Every turn starts at the classifier node, which labels the request and
// routes it either to a single-completion simple chat (with an optional
// one-round tool sub-loop) or through the multi-stage reasoning pipeline:
//
//	classifier ─┬─> simple_chat ─┬─> tool_call ─> simple_chat ─> end
//	            │                └─> end
//	            └─> planner ─> researcher ─> analyzer ─> reasoner ─> synthesizer ─> end
//
// Each node invokes the model gateway, mutates the session state, and
// appends a short human-readable line to the reasoning trace. Gateway
// failures arrive as degenerate responses, so the graph always reaches a
// terminal state; Chat returns a string and never fails except for
// configuration errors.
package taskflow
