package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/platinummonkey/commander/pkg/identity"
	"github.com/platinummonkey/commander/pkg/rbac"
)

type fakeAuthenticator struct {
	users map[string]*identity.User
}

func (f *fakeAuthenticator) Authenticate(_ context.Context, username, password string) (*identity.User, error) {
	u, ok := f.users[username]
	if !ok || password != "sekrit" {
		return nil, nil
	}
	return u, nil
}

func captureActor(t *testing.T, auth Authenticator, setup func(r *http.Request)) rbac.ActorContext {
	t.Helper()
	var got rbac.ActorContext
	handler := BasicAuth(auth)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = Actor(r.Context())
	}))
	r := httptest.NewRequest("GET", "/api/v1/organizations/", nil)
	if setup != nil {
		setup(r)
	}
	handler.ServeHTTP(httptest.NewRecorder(), r)
	return got
}

func TestBasicAuthResolvesUser(t *testing.T) {
	auth := &fakeAuthenticator{users: map[string]*identity.User{
		"anne": {ID: 2, Username: "anne", IsActive: true},
	}}

	actor := captureActor(t, auth, func(r *http.Request) {
		r.SetBasicAuth("anne", "sekrit")
	})
	assert.True(t, actor.Authenticated())
	assert.Equal(t, int64(2), actor.UserID())
}

func TestBasicAuthNoHeaderIsAnonymous(t *testing.T) {
	actor := captureActor(t, &fakeAuthenticator{}, nil)
	assert.False(t, actor.Authenticated())
}

func TestBasicAuthBadPasswordIsAnonymous(t *testing.T) {
	auth := &fakeAuthenticator{users: map[string]*identity.User{
		"anne": {ID: 2, Username: "anne", IsActive: true},
	}}
	actor := captureActor(t, auth, func(r *http.Request) {
		r.SetBasicAuth("anne", "wrong")
	})
	assert.False(t, actor.Authenticated())
}

func TestActorDefaultsToAnonymous(t *testing.T) {
	assert.Equal(t, rbac.Anonymous, Actor(context.Background()))
}
