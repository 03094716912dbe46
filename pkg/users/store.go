package users

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/platinummonkey/commander/pkg/identity"
	"github.com/platinummonkey/commander/pkg/rbac"
)

const userColumns = `id, username, first_name, last_name, email, password_hash, is_superuser, is_active, created_at`

// Store persists user accounts.
type Store struct {
	db *sql.DB
}

// NewStore creates a store over db.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func scanUser(row interface{ Scan(...interface{}) error }) (*identity.User, error) {
	u := &identity.User{}
	err := row.Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName, &u.Email,
		&u.PasswordHash, &u.IsSuperuser, &u.IsActive, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Get fetches a user by ID, inactive accounts included; visibility is the
// caller's concern.
func (s *Store) Get(ctx context.Context, id int64) (*identity.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, rbac.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching user %d: %w", id, err)
	}
	return u, nil
}

// GetByUsername fetches a user by username for authentication.
func (s *Store) GetByUsername(ctx context.Context, username string) (*identity.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, rbac.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching user %q: %w", username, err)
	}
	return u, nil
}

// ListByIDs fetches the users in ids, active accounts only, ordered by ID.
func (s *Store) ListByIDs(ctx context.Context, ids identity.IDSet) ([]*identity.User, error) {
	out := make([]*identity.User, 0, ids.Len())
	for _, id := range ids.Sorted() {
		u, err := s.Get(ctx, id)
		if err == rbac.ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		if u.IsActive {
			out = append(out, u)
		}
	}
	return out, nil
}

// ListAll fetches every active user (superuser listing).
func (s *Store) ListAll(ctx context.Context) ([]*identity.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE is_active ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var out []*identity.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Create inserts the account and fills in ID and CreatedAt.
func (s *Store) Create(ctx context.Context, u *identity.User) error {
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO users (username, first_name, last_name, email, password_hash, is_superuser, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, TRUE)
		 RETURNING id, created_at`,
		u.Username, u.FirstName, u.LastName, u.Email, u.PasswordHash, u.IsSuperuser).
		Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating user %q: %w", u.Username, err)
	}
	u.IsActive = true
	return nil
}

// Update persists the mutable account fields.
func (s *Store) Update(ctx context.Context, u *identity.User) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET username = $1, first_name = $2, last_name = $3, email = $4,
		        password_hash = $5, is_superuser = $6, is_active = $7
		 WHERE id = $8`,
		u.Username, u.FirstName, u.LastName, u.Email, u.PasswordHash,
		u.IsSuperuser, u.IsActive, u.ID)
	if err != nil {
		return fmt.Errorf("updating user %d: %w", u.ID, err)
	}
	return nil
}

// UsernameTaken reports whether another account already holds the username.
func (s *Store) UsernameTaken(ctx context.Context, username string, excludeID int64) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE username = $1 AND id != $2`,
		username, excludeID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking username %q: %w", username, err)
	}
	return count > 0, nil
}
