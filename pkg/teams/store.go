package teams

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/platinummonkey/commander/pkg/identity"
	"github.com/platinummonkey/commander/pkg/rbac"
)

// Store persists teams.
type Store struct {
	db *sql.DB
}

// NewStore creates a store over db.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Get fetches a team by ID regardless of active state.
func (s *Store) Get(ctx context.Context, id int64) (*identity.Team, error) {
	t := &identity.Team{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, organization_id, active, created_at FROM teams WHERE id = $1`, id).
		Scan(&t.ID, &t.Name, &t.Description, &t.OrganizationID, &t.Active, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, rbac.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching team %d: %w", id, err)
	}
	return t, nil
}

// ListByIDs fetches active teams in ids, ordered by ID.
func (s *Store) ListByIDs(ctx context.Context, ids identity.IDSet) ([]*identity.Team, error) {
	out := make([]*identity.Team, 0, ids.Len())
	for _, id := range ids.Sorted() {
		t, err := s.Get(ctx, id)
		if err == rbac.ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		if t.Active {
			out = append(out, t)
		}
	}
	return out, nil
}

// ListAll fetches every active team.
func (s *Store) ListAll(ctx context.Context) ([]*identity.Team, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, organization_id, active, created_at
		 FROM teams WHERE active ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing teams: %w", err)
	}
	defer rows.Close()

	var out []*identity.Team
	for rows.Next() {
		t := &identity.Team{}
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.OrganizationID, &t.Active, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Create inserts the team.
func (s *Store) Create(ctx context.Context, t *identity.Team) error {
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO teams (name, description, organization_id, active) VALUES ($1, $2, $3, TRUE)
		 RETURNING id, created_at`,
		t.Name, t.Description, t.OrganizationID).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating team %q: %w", t.Name, err)
	}
	t.Active = true
	return nil
}

// Update persists the mutable fields. The owning organization is write-once
// and never updated here.
func (s *Store) Update(ctx context.Context, t *identity.Team) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE teams SET name = $1, description = $2 WHERE id = $3`,
		t.Name, t.Description, t.ID)
	if err != nil {
		return fmt.Errorf("updating team %d: %w", t.ID, err)
	}
	return nil
}

// NameTakenInOrg reports whether another team in the organization holds the
// name. Team names are unique per organization, not globally.
func (s *Store) NameTakenInOrg(ctx context.Context, orgID int64, name string, excludeID int64) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM teams WHERE organization_id = $1 AND name = $2 AND id != $3`,
		orgID, name, excludeID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking team name %q: %w", name, err)
	}
	return count > 0, nil
}

// CredentialIDsOf returns the active credentials owned by the team.
func (s *Store) CredentialIDsOf(ctx context.Context, teamID int64) (identity.IDSet, error) {
	return s.queryIDSet(ctx,
		`SELECT id FROM credentials WHERE team_id = $1 AND active`, teamID)
}

// PermissionIDsOf returns the active permission grants naming the team.
func (s *Store) PermissionIDsOf(ctx context.Context, teamID int64) (identity.IDSet, error) {
	return s.queryIDSet(ctx,
		`SELECT id FROM permissions WHERE team_id = $1 AND active`, teamID)
}

func (s *Store) queryIDSet(ctx context.Context, query string, args ...interface{}) (identity.IDSet, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("team edge query failed: %w", err)
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
