package lifecycle

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/platinummonkey/commander/pkg/rbac"
)

// Store persists deactivations and association edges.
type Store interface {
	// Deactivate flips the record inactive. Deactivating an already
	// inactive record is a no-op.
	Deactivate(ctx context.Context, resource rbac.Resource, id int64) error
	// AddEdge inserts the association if absent.
	AddEdge(ctx context.Context, rel Relation, parentID, childID int64) error
	// RemoveEdge deletes the association; removing an absent edge succeeds.
	RemoveEdge(ctx context.Context, rel Relation, parentID, childID int64) error
	// HasEdge reports whether the association exists.
	HasEdge(ctx context.Context, rel Relation, parentID, childID int64) (bool, error)
}

// SQLStore is the database-backed Store. Placeholders use the $n form, which
// both the postgres and sqlite drivers accept.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore creates a store over db.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Deactivate(ctx context.Context, resource rbac.Resource, id int64) error {
	target, ok := deactivateTables[resource]
	if !ok {
		return fmt.Errorf("resource %s does not support deactivation", resource)
	}
	query := fmt.Sprintf("UPDATE %s SET %s = FALSE WHERE id = $1", target.table, target.column)
	if _, err := s.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("deactivating %s %d: %w", resource, id, err)
	}
	return nil
}

func (s *SQLStore) AddEdge(ctx context.Context, rel Relation, parentID, childID int64) error {
	spec, err := rel.spec()
	if err != nil {
		return err
	}
	exists, err := s.HasEdge(ctx, rel, parentID, childID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	query := fmt.Sprintf("INSERT INTO %s (%s, %s) VALUES ($1, $2)",
		spec.table, spec.parentCol, spec.childCol)
	if _, err := s.db.ExecContext(ctx, query, parentID, childID); err != nil {
		return fmt.Errorf("adding %s edge %d->%d: %w", rel, parentID, childID, err)
	}
	return nil
}

func (s *SQLStore) RemoveEdge(ctx context.Context, rel Relation, parentID, childID int64) error {
	spec, err := rel.spec()
	if err != nil {
		return err
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = $1 AND %s = $2",
		spec.table, spec.parentCol, spec.childCol)
	if _, err := s.db.ExecContext(ctx, query, parentID, childID); err != nil {
		return fmt.Errorf("removing %s edge %d->%d: %w", rel, parentID, childID, err)
	}
	return nil
}

func (s *SQLStore) HasEdge(ctx context.Context, rel Relation, parentID, childID int64) (bool, error) {
	spec, err := rel.spec()
	if err != nil {
		return false, err
	}
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s = $1 AND %s = $2",
		spec.table, spec.parentCol, spec.childCol)
	var count int
	if err := s.db.QueryRowContext(ctx, query, parentID, childID).Scan(&count); err != nil {
		return false, fmt.Errorf("probing %s edge %d->%d: %w", rel, parentID, childID, err)
	}
	return count > 0, nil
}
