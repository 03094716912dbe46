package users

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"github.com/platinummonkey/commander/pkg/identity"
	"github.com/platinummonkey/commander/pkg/rbac"
)

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// BasicAuthenticator verifies Basic credentials against stored bcrypt
// hashes. It satisfies middleware.Authenticator.
type BasicAuthenticator struct {
	store *Store
}

// NewBasicAuthenticator creates an authenticator over the user store.
func NewBasicAuthenticator(store *Store) *BasicAuthenticator {
	return &BasicAuthenticator{store: store}
}

// Authenticate returns the matching active user, or nil when the
// credentials do not resolve. Inactive accounts never authenticate.
func (a *BasicAuthenticator) Authenticate(ctx context.Context, username, password string) (*identity.User, error) {
	u, err := a.store.GetByUsername(ctx, username)
	if err == rbac.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, nil
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, nil
	}
	return u, nil
}
