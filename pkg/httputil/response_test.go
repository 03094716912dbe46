package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/commander/pkg/rbac"
)

func TestWriteDomainErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"unauthenticated", rbac.ErrUnauthenticated, http.StatusUnauthorized},
		{"forbidden", rbac.ErrForbidden, http.StatusForbidden},
		{"not found", rbac.ErrNotFound, http.StatusNotFound},
		{"method not supported", rbac.ErrMethodNotSupported, http.StatusMethodNotAllowed},
		{"validation", rbac.NewValidationError("field may not be changed", "url"), http.StatusBadRequest},
		{"unknown", assert.AnError, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteDomainError(rec, tc.err)
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		})
	}
}

func TestWriteDomainErrorChallengesOn401(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteDomainError(rec, rbac.ErrUnauthenticated)
	assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Basic")
}

func TestValidationErrorBodyCarriesFields(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteDomainError(rec, rbac.NewValidationError("field may not be changed", "organization"))

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"organization"}, body.Fields)
}

func TestWriteList(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, WriteList(rec, 2, []string{"a", "b"}))

	var body ListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)
}
