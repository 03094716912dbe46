// Package middleware provides the HTTP request pipeline: request IDs,
// request-scoped logging, HTTP Basic authentication into an actor context,
// panic recovery and Prometheus instrumentation.
//
// Authentication here only resolves WHO is calling. It never rejects a
// request by itself; whether an anonymous actor may proceed is decided
// per-operation by the authorization engine, so every denial carries the
// right status code.
package middleware
