package middleware

import (
	"context"
	"net/http"

	"github.com/platinummonkey/commander/pkg/contextkeys"
	"github.com/platinummonkey/commander/pkg/identity"
	"github.com/platinummonkey/commander/pkg/rbac"
)

// Authenticator verifies a username/password pair and returns the matching
// user. A failed match returns (nil, nil); errors are infrastructure
// failures only.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (*identity.User, error)
}

// BasicAuth resolves HTTP Basic credentials into an ActorContext and stores
// it on the request context. Requests without credentials, or with bad ones,
// proceed as the anonymous actor.
func BasicAuth(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := rbac.Anonymous
			if username, password, ok := r.BasicAuth(); ok {
				user, err := auth.Authenticate(r.Context(), username, password)
				if err != nil {
					http.Error(w, "internal server error", http.StatusInternalServerError)
					return
				}
				if user != nil {
					actor = rbac.ActorContext{User: user}
				}
			}
			ctx := context.WithValue(r.Context(), contextkeys.ActorKey, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Actor retrieves the actor context placed by BasicAuth; absent means
// anonymous.
func Actor(ctx context.Context) rbac.ActorContext {
	if actor, ok := ctx.Value(contextkeys.ActorKey).(rbac.ActorContext); ok {
		return actor
	}
	return rbac.Anonymous
}
