// Package tools provides the tool collaborators consumed by the
// orchestration nodes: a calculator backed by a safe arithmetic evaluator,
// web search with a primary and a fallback engine, and a stock lookup.
//
// Every tool is a synchronous invoke(args) -> text function. Tools may
// return errors; the calling node catches them and converts them into
// inline error text, so a failing tool never fails a turn.
package tools
