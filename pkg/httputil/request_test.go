package httputil

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBodyKeepsUnknownKeys(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"x","bogus":1}`))
	body, err := ParseBody(r)
	require.NoError(t, err)
	assert.Contains(t, body, "bogus")
}

func TestParsePathInt64(t *testing.T) {
	r := httptest.NewRequest("GET", "/things/42", nil)
	r = mux.SetURLVars(r, map[string]string{"id": "42"})
	id, err := ParsePathInt64(r, "id")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestParsePathInt64OrErrorWrites404(t *testing.T) {
	r := httptest.NewRequest("GET", "/things/abc", nil)
	r = mux.SetURLVars(r, map[string]string{"id": "abc"})
	rec := httptest.NewRecorder()
	_, ok := ParsePathInt64OrError(rec, r, "id")
	assert.False(t, ok)
	assert.Equal(t, 404, rec.Code, "a malformed ID can never name a record")
}

func TestFieldInt64(t *testing.T) {
	body := map[string]interface{}{"user": float64(3), "team": "7", "name": "x"}

	v, ok := FieldInt64(body, "user")
	assert.True(t, ok)
	assert.Equal(t, int64(3), v)

	v, ok = FieldInt64(body, "team")
	assert.True(t, ok)
	assert.Equal(t, int64(7), v)

	_, ok = FieldInt64(body, "name")
	assert.False(t, ok)
	_, ok = FieldInt64(body, "missing")
	assert.False(t, ok)
}

func TestTruthy(t *testing.T) {
	assert.True(t, Truthy(true))
	assert.True(t, Truthy(float64(1)))
	assert.True(t, Truthy("1"))
	assert.True(t, Truthy("true"))
	assert.False(t, Truthy(float64(0)))
	assert.False(t, Truthy(nil))
	assert.False(t, Truthy("no"))
}
