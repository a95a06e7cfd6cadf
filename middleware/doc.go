// Package middleware adapts a gatekeeper.Gate to net/http. [Handler] wraps
// a business-logic handler: it evaluates the pipeline, renders terminal
// denials and redirects, answers CORS pre-flight, and on allow injects the
// augmented identity into the request context and trusted headers.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Gate calls. It makes no
// authorization decisions of its own — everything beyond response rendering
// is delegated to Gate.Evaluate.
package middleware
