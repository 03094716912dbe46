package projects

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/platinummonkey/commander/pkg/identity"
	"github.com/platinummonkey/commander/pkg/rbac"
)

// Store persists projects and their organization associations.
type Store struct {
	db *sql.DB
}

// NewStore creates a store over db.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Get fetches a project by ID regardless of active state, with its
// organization associations loaded.
func (s *Store) Get(ctx context.Context, id int64) (*Project, error) {
	p := &Project{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, local_path, active, created_at FROM projects WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.Description, &p.LocalPath, &p.Active, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, rbac.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching project %d: %w", id, err)
	}
	if p.OrgIDs, err = s.orgIDsOf(ctx, id); err != nil {
		return nil, err
	}
	return p, nil
}

// ListByIDs fetches active projects in ids, ordered by ID.
func (s *Store) ListByIDs(ctx context.Context, ids identity.IDSet) ([]*Project, error) {
	out := make([]*Project, 0, ids.Len())
	for _, id := range ids.Sorted() {
		p, err := s.Get(ctx, id)
		if err == rbac.ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		if p.Active {
			out = append(out, p)
		}
	}
	return out, nil
}

// ListAll fetches every active project.
func (s *Store) ListAll(ctx context.Context) ([]*Project, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM projects WHERE active ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
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
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return s.ListByIDs(ctx, ids)
}

// Create inserts the project and its organization associations.
func (s *Store) Create(ctx context.Context, p *Project) error {
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO projects (name, description, local_path, active) VALUES ($1, $2, $3, TRUE)
		 RETURNING id, created_at`,
		p.Name, p.Description, p.LocalPath).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating project %q: %w", p.Name, err)
	}
	p.Active = true
	for _, orgID := range p.OrgIDs {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO organization_projects (organization_id, project_id) VALUES ($1, $2)`,
			orgID, p.ID)
		if err != nil {
			return fmt.Errorf("attaching project %d to organization %d: %w", p.ID, orgID, err)
		}
	}
	return nil
}

// Update persists the mutable scalar fields. Organization associations are
// managed through the lifecycle edge operations, not here.
func (s *Store) Update(ctx context.Context, p *Project) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE projects SET name = $1, description = $2, local_path = $3 WHERE id = $4`,
		p.Name, p.Description, p.LocalPath, p.ID)
	if err != nil {
		return fmt.Errorf("updating project %d: %w", p.ID, err)
	}
	return nil
}

// TeamIDsOf returns the teams a project is associated with.
func (s *Store) TeamIDsOf(ctx context.Context, projectID int64) (identity.IDSet, error) {
	return s.queryIDSet(ctx,
		`SELECT team_id FROM team_projects WHERE project_id = $1`, projectID)
}

func (s *Store) orgIDsOf(ctx context.Context, projectID int64) ([]int64, error) {
	ids, err := s.queryIDSet(ctx,
		`SELECT organization_id FROM organization_projects WHERE project_id = $1`, projectID)
	if err != nil {
		return nil, err
	}
	return ids.Sorted(), nil
}

func (s *Store) queryIDSet(ctx context.Context, query string, args ...interface{}) (identity.IDSet, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("project edge query failed: %w", err)
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
