package credentials

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/platinummonkey/commander/pkg/identity"
	"github.com/platinummonkey/commander/pkg/rbac"
)

const credentialColumns = `id, name, description, user_id, team_id,
	ssh_username, ssh_password, ssh_key_data, ssh_key_unlock,
	sudo_username, sudo_password, active, created_at`

// Store persists credentials.
type Store struct {
	db *sql.DB
}

// NewStore creates a store over db.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func scanCredential(row *sql.Row) (*Credential, error) {
	c := &Credential{}
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.UserID, &c.TeamID,
		&c.SSHUsername, &c.SSHPassword, &c.SSHKeyData, &c.SSHKeyUnlock,
		&c.SudoUsername, &c.SudoPassword, &c.Active, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, rbac.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching credential: %w", err)
	}
	return c, nil
}

// Get fetches a credential by ID regardless of active state.
func (s *Store) Get(ctx context.Context, id int64) (*Credential, error) {
	return scanCredential(s.db.QueryRowContext(ctx,
		`SELECT `+credentialColumns+` FROM credentials WHERE id = $1`, id))
}

// ListByIDs fetches active credentials in ids, ordered by ID.
func (s *Store) ListByIDs(ctx context.Context, ids identity.IDSet) ([]*Credential, error) {
	out := make([]*Credential, 0, ids.Len())
	for _, id := range ids.Sorted() {
		c, err := s.Get(ctx, id)
		if err == rbac.ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		if c.Active {
			out = append(out, c)
		}
	}
	return out, nil
}

// IDsOwnedByUser returns the active credentials owned directly by the user.
func (s *Store) IDsOwnedByUser(ctx context.Context, userID int64) (identity.IDSet, error) {
	return s.queryIDSet(ctx,
		`SELECT id FROM credentials WHERE user_id = $1 AND active`, userID)
}

// IDsOwnedByTeam returns the active credentials owned by the team.
func (s *Store) IDsOwnedByTeam(ctx context.Context, teamID int64) (identity.IDSet, error) {
	return s.queryIDSet(ctx,
		`SELECT id FROM credentials WHERE team_id = $1 AND active`, teamID)
}

// Create inserts the credential.
func (s *Store) Create(ctx context.Context, c *Credential) error {
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO credentials (name, description, user_id, team_id,
			ssh_username, ssh_password, ssh_key_data, ssh_key_unlock,
			sudo_username, sudo_password, active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, TRUE)
		 RETURNING id, created_at`,
		c.Name, c.Description, c.UserID, c.TeamID,
		c.SSHUsername, c.SSHPassword, c.SSHKeyData, c.SSHKeyUnlock,
		c.SudoUsername, c.SudoPassword).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating credential %q: %w", c.Name, err)
	}
	c.Active = true
	return nil
}

// Update persists the mutable fields. Ownership is write-once and never
// updated here.
func (s *Store) Update(ctx context.Context, c *Credential) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE credentials SET name = $1, description = $2,
			ssh_username = $3, ssh_password = $4, ssh_key_data = $5,
			ssh_key_unlock = $6, sudo_username = $7, sudo_password = $8
		 WHERE id = $9`,
		c.Name, c.Description,
		c.SSHUsername, c.SSHPassword, c.SSHKeyData,
		c.SSHKeyUnlock, c.SudoUsername, c.SudoPassword, c.ID)
	if err != nil {
		return fmt.Errorf("updating credential %d: %w", c.ID, err)
	}
	return nil
}

func (s *Store) queryIDSet(ctx context.Context, query string, args ...interface{}) (identity.IDSet, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("credential query failed: %w", err)
	}
	defer rows.Close()

	ids := identity.IDSet{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids.Add(id)
	}
	return ids, rows.Err()
}
