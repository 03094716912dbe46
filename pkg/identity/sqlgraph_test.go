package identity

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func graphDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	schema := []string{
		`CREATE TABLE users (id INTEGER PRIMARY KEY, username TEXT, is_superuser BOOLEAN DEFAULT FALSE, is_active BOOLEAN DEFAULT TRUE)`,
		`CREATE TABLE organizations (id INTEGER PRIMARY KEY, name TEXT, active BOOLEAN DEFAULT TRUE)`,
		`CREATE TABLE organization_admins (organization_id INTEGER, user_id INTEGER)`,
		`CREATE TABLE organization_members (organization_id INTEGER, user_id INTEGER)`,
		`CREATE TABLE teams (id INTEGER PRIMARY KEY, name TEXT, organization_id INTEGER, active BOOLEAN DEFAULT TRUE)`,
		`CREATE TABLE team_members (team_id INTEGER, user_id INTEGER)`,
		`CREATE TABLE organization_projects (organization_id INTEGER, project_id INTEGER)`,
		`CREATE TABLE team_projects (team_id INTEGER, project_id INTEGER)`,
		`CREATE TABLE inventories (id INTEGER PRIMARY KEY, name TEXT, organization_id INTEGER, active BOOLEAN DEFAULT TRUE)`,
		`CREATE TABLE permissions (id INTEGER PRIMARY KEY, user_id INTEGER, team_id INTEGER, inventory_id INTEGER, permission_type TEXT DEFAULT 'read', active BOOLEAN DEFAULT TRUE)`,
	}
	for _, stmt := range schema {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}

	seed := []string{
		`INSERT INTO users (id, username, is_superuser) VALUES (1, 'root', TRUE), (2, 'anne', FALSE), (3, 'bob', FALSE)`,
		`INSERT INTO organizations (id, name, active) VALUES (10, 'ops', TRUE), (12, 'legacy', FALSE)`,
		`INSERT INTO organization_admins VALUES (10, 2), (12, 2)`,
		`INSERT INTO organization_members VALUES (10, 3)`,
		`INSERT INTO teams (id, name, organization_id, active) VALUES (20, 'sre', 10, TRUE)`,
		`INSERT INTO team_members VALUES (20, 3)`,
		`INSERT INTO organization_projects VALUES (10, 30)`,
		`INSERT INTO team_projects VALUES (20, 31)`,
		`INSERT INTO inventories (id, name, organization_id) VALUES (40, 'prod', 10)`,
		`INSERT INTO permissions (user_id, team_id, inventory_id, permission_type, active) VALUES
			(3, NULL, 40, 'read', TRUE),
			(NULL, 20, 40, 'read', TRUE),
			(3, NULL, 41, 'read', FALSE)`,
	}
	for _, stmt := range seed {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
	return db
}

func TestSQLGraphEdges(t *testing.T) {
	g := NewSQLGraph(graphDB(t), nil)
	ctx := context.Background()

	super, err := g.IsSuperuser(ctx, 1)
	require.NoError(t, err)
	assert.True(t, super)
	super, err = g.IsSuperuser(ctx, 99)
	require.NoError(t, err)
	assert.False(t, super, "unknown user is not a superuser")

	admin, err := g.OrganizationsAdministeredBy(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 12}, admin.Sorted())

	active, err := g.FilterActiveOrganizations(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, []int64{10}, active.Sorted())

	teams, err := g.TeamsWithMember(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, []int64{20}, teams.Sorted())

	projects, err := g.ProjectsOfTeam(ctx, 20)
	require.NoError(t, err)
	assert.Equal(t, []int64{31}, projects.Sorted())
}

func TestSQLGraphGrantsSkipInactive(t *testing.T) {
	g := NewSQLGraph(graphDB(t), nil)
	ctx := context.Background()

	grants, err := g.ReadGrantsForUser(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, []int64{40}, grants.Sorted(), "revoked grant on 41 must not surface")

	grants, err = g.ReadGrantsForTeam(ctx, 20)
	require.NoError(t, err)
	assert.Equal(t, []int64{40}, grants.Sorted())
}

func TestSQLGraphFilterActiveTeams(t *testing.T) {
	db := graphDB(t)
	g := NewSQLGraph(db, nil)
	ctx := context.Background()

	active, err := g.FilterActiveTeams(ctx, NewIDSet(20))
	require.NoError(t, err)
	assert.Equal(t, []int64{20}, active.Sorted())

	// Deactivating the owning organization severs the team.
	_, err = db.Exec(`UPDATE organizations SET active = FALSE WHERE id = 10`)
	require.NoError(t, err)
	active, err = g.FilterActiveTeams(ctx, NewIDSet(20))
	require.NoError(t, err)
	assert.Equal(t, 0, active.Len())
}

func TestSQLGraphCaching(t *testing.T) {
	db := graphDB(t)
	cache := NewLRUEdgeCache(64, time.Minute)
	g := NewSQLGraph(db, cache)
	ctx := context.Background()

	admin, err := g.OrganizationsAdministeredBy(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 12}, admin.Sorted())

	// The edge write is invisible until invalidation.
	_, err = db.Exec(`INSERT INTO organization_admins VALUES (13, 2)`)
	require.NoError(t, err)
	admin, err = g.OrganizationsAdministeredBy(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 12}, admin.Sorted())

	g.InvalidateUser(ctx, 2)
	admin, err = g.OrganizationsAdministeredBy(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 12, 13}, admin.Sorted())
}
