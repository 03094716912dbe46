// Package httputil provides HTTP handler utilities: consistent JSON
// responses, request parsing, and the mapping from the authorization error
// taxonomy to status codes.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/platinummonkey/commander/pkg/rbac"
)

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Detail string   `json:"detail"`
	Fields []string `json:"fields,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// WriteErrorMessage writes a JSON error body with a custom message.
func WriteErrorMessage(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorResponse{Detail: message})
}

// WriteDomainError translates the service error taxonomy into the response
// contract:
//
//	unauthenticated      -> 401
//	forbidden            -> 403
//	not found            -> 404 (also masks soft-deleted records)
//	validation failure   -> 400
//	undefined operation  -> 405
//	anything else        -> 500
func WriteDomainError(w http.ResponseWriter, err error) {
	var ve *rbac.ValidationError
	switch {
	case errors.Is(err, rbac.ErrUnauthenticated):
		w.Header().Set("WWW-Authenticate", `Basic realm="api"`)
		WriteErrorMessage(w, http.StatusUnauthorized, "authentication credentials were not provided")
	case errors.Is(err, rbac.ErrForbidden):
		WriteErrorMessage(w, http.StatusForbidden, "you do not have permission to perform this action")
	case errors.Is(err, rbac.ErrNotFound):
		WriteErrorMessage(w, http.StatusNotFound, "not found")
	case errors.Is(err, rbac.ErrMethodNotSupported):
		WriteErrorMessage(w, http.StatusMethodNotAllowed, "method not allowed")
	case errors.As(err, &ve):
		WriteJSON(w, http.StatusBadRequest, ErrorResponse{Detail: ve.Reason, Fields: ve.Fields})
	default:
		WriteErrorMessage(w, http.StatusInternalServerError, "internal server error")
	}
}

// WriteCreated writes a 201 with the created representation.
func WriteCreated(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusCreated, data)
}

// WriteSuccess writes a 200 with data.
func WriteSuccess(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusOK, data)
}

// WriteNoContent writes a 204.
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// WriteBadRequest writes a 400.
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteErrorMessage(w, http.StatusBadRequest, message)
}

// WriteMethodNotAllowed writes a 405 for operations a route does not define.
func WriteMethodNotAllowed(w http.ResponseWriter) {
	WriteErrorMessage(w, http.StatusMethodNotAllowed, "method not allowed")
}

// WriteInternalError writes a 500 without echoing internal detail.
func WriteInternalError(w http.ResponseWriter, _ error) {
	WriteErrorMessage(w, http.StatusInternalServerError, "internal server error")
}

// WriteServiceUnavailable writes a 503.
func WriteServiceUnavailable(w http.ResponseWriter, message string) {
	WriteErrorMessage(w, http.StatusServiceUnavailable, message)
}

// ListResponse is the envelope of every collection endpoint.
type ListResponse struct {
	Count   int         `json:"count"`
	Results interface{} `json:"results"`
}

// WriteList writes a 200 with the collection envelope.
func WriteList(w http.ResponseWriter, count int, results interface{}) error {
	return WriteJSON(w, http.StatusOK, ListResponse{Count: count, Results: results})
}
