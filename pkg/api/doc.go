// Package api exposes the REST surface under /api/v1/. Handlers parse the
// request, delegate to the domain services, and translate the error taxonomy
// into status codes; no authorization decision is made here.
package api
