package identity

import (
	"context"
	"database/sql"
	"fmt"
)

// EdgeCache caches one-hop edge sets. Entries are TTL-bounded; a miss falls
// through to the database. Implementations must be safe for concurrent use.
type EdgeCache interface {
	Get(ctx context.Context, key string) (IDSet, bool)
	Set(ctx context.Context, key string, ids IDSet)
	// Invalidate drops every cached entry scoped to the given prefix.
	Invalidate(ctx context.Context, prefix string)
}

// SQLGraph implements Graph over the relational store. An optional EdgeCache
// absorbs repeated edge-set lookups within a request burst; correctness does
// not depend on it.
type SQLGraph struct {
	db    *sql.DB
	cache EdgeCache
}

// NewSQLGraph creates a Graph over db. cache may be nil.
func NewSQLGraph(db *sql.DB, cache EdgeCache) *SQLGraph {
	return &SQLGraph{db: db, cache: cache}
}

func (g *SQLGraph) queryIDSet(ctx context.Context, cacheKey, query string, args ...interface{}) (IDSet, error) {
	if g.cache != nil && cacheKey != "" {
		if ids, ok := g.cache.Get(ctx, cacheKey); ok {
			return ids, nil
		}
	}

	rows, err := g.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("relationship query failed: %w", err)
	}
	defer rows.Close()

	ids := IDSet{}
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

	if g.cache != nil && cacheKey != "" {
		g.cache.Set(ctx, cacheKey, ids)
	}
	return ids, nil
}

// InvalidateUser drops cached edge sets derived from the given user's
// memberships. Call after mutating any edge touching the user.
func (g *SQLGraph) InvalidateUser(ctx context.Context, userID int64) {
	if g.cache != nil {
		g.cache.Invalidate(ctx, fmt.Sprintf("user:%d:", userID))
	}
}

// InvalidateAll drops every cached edge set. Call after bulk mutations such
// as soft-deleting an organization.
func (g *SQLGraph) InvalidateAll(ctx context.Context) {
	if g.cache != nil {
		g.cache.Invalidate(ctx, "")
	}
}

func (g *SQLGraph) IsSuperuser(ctx context.Context, userID int64) (bool, error) {
	var super bool
	err := g.db.QueryRowContext(ctx,
		`SELECT is_superuser FROM users WHERE id = $1`, userID).Scan(&super)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("superuser lookup failed: %w", err)
	}
	return super, nil
}

func (g *SQLGraph) OrganizationsAdministeredBy(ctx context.Context, userID int64) (IDSet, error) {
	return g.queryIDSet(ctx, fmt.Sprintf("user:%d:admin_of", userID),
		`SELECT organization_id FROM organization_admins WHERE user_id = $1`, userID)
}

func (g *SQLGraph) OrganizationsWithMember(ctx context.Context, userID int64) (IDSet, error) {
	return g.queryIDSet(ctx, fmt.Sprintf("user:%d:member_of", userID),
		`SELECT organization_id FROM organization_members WHERE user_id = $1`, userID)
}

func (g *SQLGraph) TeamsWithMember(ctx context.Context, userID int64) (IDSet, error) {
	return g.queryIDSet(ctx, fmt.Sprintf("user:%d:teams", userID),
		`SELECT team_id FROM team_members WHERE user_id = $1`, userID)
}

func (g *SQLGraph) ReadGrantsForUser(ctx context.Context, userID int64) (IDSet, error) {
	return g.queryIDSet(ctx, fmt.Sprintf("user:%d:grants", userID),
		`SELECT inventory_id FROM permissions WHERE user_id = $1 AND permission_type = $2 AND active`,
		userID, string(PermissionRead))
}

func (g *SQLGraph) ReadGrantsForTeam(ctx context.Context, teamID int64) (IDSet, error) {
	return g.queryIDSet(ctx, fmt.Sprintf("team:%d:grants", teamID),
		`SELECT inventory_id FROM permissions WHERE team_id = $1 AND permission_type = $2 AND active`,
		teamID, string(PermissionRead))
}

func (g *SQLGraph) ProjectsOfOrganization(ctx context.Context, orgID int64) (IDSet, error) {
	return g.queryIDSet(ctx, fmt.Sprintf("org:%d:projects", orgID),
		`SELECT project_id FROM organization_projects WHERE organization_id = $1`, orgID)
}

func (g *SQLGraph) ProjectsOfTeam(ctx context.Context, teamID int64) (IDSet, error) {
	return g.queryIDSet(ctx, fmt.Sprintf("team:%d:projects", teamID),
		`SELECT project_id FROM team_projects WHERE team_id = $1`, teamID)
}

func (g *SQLGraph) TeamsOfOrganization(ctx context.Context, orgID int64) (IDSet, error) {
	return g.queryIDSet(ctx, fmt.Sprintf("org:%d:teams", orgID),
		`SELECT id FROM teams WHERE organization_id = $1`, orgID)
}

func (g *SQLGraph) InventoriesOfOrganization(ctx context.Context, orgID int64) (IDSet, error) {
	return g.queryIDSet(ctx, fmt.Sprintf("org:%d:inventories", orgID),
		`SELECT id FROM inventories WHERE organization_id = $1`, orgID)
}

func (g *SQLGraph) UsersOfOrganization(ctx context.Context, orgID int64) (IDSet, error) {
	return g.queryIDSet(ctx, fmt.Sprintf("org:%d:users", orgID),
		`SELECT user_id FROM organization_members WHERE organization_id = $1`, orgID)
}

func (g *SQLGraph) UsersOfTeam(ctx context.Context, teamID int64) (IDSet, error) {
	return g.queryIDSet(ctx, fmt.Sprintf("team:%d:users", teamID),
		`SELECT user_id FROM team_members WHERE team_id = $1`, teamID)
}

func (g *SQLGraph) FilterActiveOrganizations(ctx context.Context, orgs IDSet) (IDSet, error) {
	return g.filterActive(ctx, `SELECT id FROM organizations WHERE id = $1 AND active`, orgs)
}

func (g *SQLGraph) FilterActiveTeams(ctx context.Context, teams IDSet) (IDSet, error) {
	return g.filterActive(ctx,
		`SELECT t.id FROM teams t
		 JOIN organizations o ON o.id = t.organization_id
		 WHERE t.id = $1 AND t.active AND o.active`, teams)
}

// filterActive probes each id individually; edge sets are small (an actor's
// orgs/teams), so the per-id round trips stay bounded. Activity checks are
// never cached so a soft delete is observed immediately.
func (g *SQLGraph) filterActive(ctx context.Context, query string, ids IDSet) (IDSet, error) {
	out := IDSet{}
	for _, id := range ids.Sorted() {
		var got int64
		err := g.db.QueryRowContext(ctx, query, id).Scan(&got)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("activity check failed: %w", err)
		}
		out.Add(got)
	}
	return out, nil
}
