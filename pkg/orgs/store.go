package orgs

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/platinummonkey/commander/pkg/identity"
	"github.com/platinummonkey/commander/pkg/rbac"
)

// Store persists organizations, tags and audit entries.
type Store struct {
	db *sql.DB
}

// NewStore creates a store over db.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Get fetches an organization by ID regardless of active state.
func (s *Store) Get(ctx context.Context, id int64) (*identity.Organization, error) {
	o := &identity.Organization{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, active, created_at FROM organizations WHERE id = $1`, id).
		Scan(&o.ID, &o.Name, &o.Description, &o.Active, &o.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, rbac.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching organization %d: %w", id, err)
	}
	return o, nil
}

// ListByIDs fetches active organizations in ids, ordered by ID.
func (s *Store) ListByIDs(ctx context.Context, ids identity.IDSet) ([]*identity.Organization, error) {
	out := make([]*identity.Organization, 0, ids.Len())
	for _, id := range ids.Sorted() {
		o, err := s.Get(ctx, id)
		if err == rbac.ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		if o.Active {
			out = append(out, o)
		}
	}
	return out, nil
}

// ListAll fetches every active organization.
func (s *Store) ListAll(ctx context.Context) ([]*identity.Organization, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, active, created_at FROM organizations WHERE active ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing organizations: %w", err)
	}
	defer rows.Close()

	var out []*identity.Organization
	for rows.Next() {
		o := &identity.Organization{}
		if err := rows.Scan(&o.ID, &o.Name, &o.Description, &o.Active, &o.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// Create inserts the organization.
func (s *Store) Create(ctx context.Context, o *identity.Organization) error {
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO organizations (name, description, active) VALUES ($1, $2, TRUE)
		 RETURNING id, created_at`,
		o.Name, o.Description).Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating organization %q: %w", o.Name, err)
	}
	o.Active = true
	return nil
}

// Update persists the mutable fields.
func (s *Store) Update(ctx context.Context, o *identity.Organization) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE organizations SET name = $1, description = $2 WHERE id = $3`,
		o.Name, o.Description, o.ID)
	if err != nil {
		return fmt.Errorf("updating organization %d: %w", o.ID, err)
	}
	return nil
}

// NameTaken reports whether another organization holds the name.
func (s *Store) NameTaken(ctx context.Context, name string, excludeID int64) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM organizations WHERE name = $1 AND id != $2`, name, excludeID).
		Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking organization name %q: %w", name, err)
	}
	return count > 0, nil
}

// AdminIDsOf returns the organization's admin set.
func (s *Store) AdminIDsOf(ctx context.Context, orgID int64) (identity.IDSet, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id FROM organization_admins WHERE organization_id = $1`, orgID)
	if err != nil {
		return nil, fmt.Errorf("listing admins of organization %d: %w", orgID, err)
	}
	defer rows.Close()

	out := identity.IDSet{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out.Add(id)
	}
	return out, rows.Err()
}

// GetTag fetches a tag by ID.
func (s *Store) GetTag(ctx context.Context, id int64) (*Tag, error) {
	t := &Tag{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, active, created_at FROM tags WHERE id = $1`, id).
		Scan(&t.ID, &t.Name, &t.Active, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, rbac.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching tag %d: %w", id, err)
	}
	return t, nil
}

// CreateTag inserts the tag.
func (s *Store) CreateTag(ctx context.Context, t *Tag) error {
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO tags (name, active) VALUES ($1, TRUE) RETURNING id, created_at`,
		t.Name).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating tag %q: %w", t.Name, err)
	}
	t.Active = true
	return nil
}

// TagsOfOrganization lists an organization's active tags.
func (s *Store) TagsOfOrganization(ctx context.Context, orgID int64) ([]*Tag, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT t.id, t.name, t.active, t.created_at
		 FROM tags t JOIN organization_tags ot ON ot.tag_id = t.id
		 WHERE ot.organization_id = $1 AND t.active ORDER BY t.id`, orgID)
	if err != nil {
		return nil, fmt.Errorf("listing tags of organization %d: %w", orgID, err)
	}
	defer rows.Close()

	var out []*Tag
	for rows.Next() {
		t := &Tag{}
		if err := rows.Scan(&t.ID, &t.Name, &t.Active, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// OrganizationIDsOfTag lists the organizations a tag is attached to.
func (s *Store) OrganizationIDsOfTag(ctx context.Context, tagID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT organization_id FROM organization_tags WHERE tag_id = $1`, tagID)
	if err != nil {
		return nil, fmt.Errorf("listing organizations of tag %d: %w", tagID, err)
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// AppendAudit records one audit entry.
func (s *Store) AppendAudit(ctx context.Context, e *AuditEntry) error {
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO audit_trail (organization_id, resource_type, resource_id, action, actor_id, detail)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at`,
		e.OrganizationID, e.ResourceType, e.ResourceID, e.Action, e.ActorID, e.Detail).
		Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("appending audit entry: %w", err)
	}
	return nil
}

// AuditTrailOf lists an organization's audit entries, newest first.
func (s *Store) AuditTrailOf(ctx context.Context, orgID int64) ([]*AuditEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, organization_id, resource_type, resource_id, action, actor_id, detail, created_at
		 FROM audit_trail WHERE organization_id = $1 ORDER BY id DESC`, orgID)
	if err != nil {
		return nil, fmt.Errorf("listing audit trail of organization %d: %w", orgID, err)
	}
	defer rows.Close()

	var out []*AuditEntry
	for rows.Next() {
		e := &AuditEntry{}
		if err := rows.Scan(&e.ID, &e.OrganizationID, &e.ResourceType, &e.ResourceID,
			&e.Action, &e.ActorID, &e.Detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
