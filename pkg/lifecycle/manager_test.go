package lifecycle

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/commander/pkg/identity"
	"github.com/platinummonkey/commander/pkg/rbac"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	schema := []string{
		`CREATE TABLE teams (id INTEGER PRIMARY KEY, name TEXT, organization_id INTEGER, active BOOLEAN DEFAULT TRUE)`,
		`CREATE TABLE organization_members (organization_id INTEGER, user_id INTEGER)`,
		`CREATE TABLE team_members (team_id INTEGER, user_id INTEGER)`,
	}
	for _, stmt := range schema {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
	return db
}

func testManager(t *testing.T, db *sql.DB) *Manager {
	t.Helper()
	g := identity.NewMemoryGraph()
	g.AddOrganization(&identity.Organization{ID: 10, Name: "ops", Active: true})
	g.AddOrgAdmin(10, 2)  // anne
	g.AddOrgMember(10, 3) // bob
	g.AddTeam(&identity.Team{ID: 20, Name: "sre", OrganizationID: 10, Active: true})
	return NewManager(rbac.NewEngine(g), NewSQLStore(db), nil, nil)
}

var (
	anne = rbac.ActorContext{User: &identity.User{ID: 2, Username: "anne", IsActive: true}}
	bob  = rbac.ActorContext{User: &identity.User{ID: 3, Username: "bob", IsActive: true}}
	root = rbac.ActorContext{User: &identity.User{ID: 1, Username: "root", IsSuperuser: true, IsActive: true}}
)

func TestGate(t *testing.T) {
	assert.NoError(t, Gate(anne, true))
	assert.ErrorIs(t, Gate(anne, false), rbac.ErrNotFound)
	assert.NoError(t, Gate(root, false), "superusers still see inactive records")
	assert.ErrorIs(t, Gate(rbac.Anonymous, true), rbac.ErrUnauthenticated)
}

func TestDeleteSoftDeactivates(t *testing.T) {
	db := testDB(t)
	_, err := db.Exec(`INSERT INTO teams (id, name, organization_id, active) VALUES (20, 'sre', 10, TRUE)`)
	require.NoError(t, err)
	m := testManager(t, db)
	ctx := context.Background()
	team := rbac.Object{Type: rbac.ResourceTeam, ID: 20, Active: true, OrgID: 10}

	require.NoError(t, m.Delete(ctx, anne, team))

	var active bool
	require.NoError(t, db.QueryRow(`SELECT active FROM teams WHERE id = 20`).Scan(&active))
	assert.False(t, active, "row survives deletion with active flipped off")

	// Once inactive, the record is gone for non-superusers.
	team.Active = false
	assert.ErrorIs(t, m.Delete(ctx, anne, team), rbac.ErrNotFound)

	// A superuser may repeat the delete; it stays a no-op success.
	assert.NoError(t, m.Delete(ctx, root, team))
}

func TestDeleteForbiddenForMembers(t *testing.T) {
	db := testDB(t)
	m := testManager(t, db)
	team := rbac.Object{Type: rbac.ResourceTeam, ID: 20, Active: true, OrgID: 10}
	assert.ErrorIs(t, m.Delete(context.Background(), bob, team), rbac.ErrForbidden)
}

func TestAssociateDeduplicates(t *testing.T) {
	db := testDB(t)
	m := testManager(t, db)
	ctx := context.Background()
	org := rbac.Object{Type: rbac.ResourceOrganization, ID: 10, Active: true}

	require.NoError(t, m.Associate(ctx, anne, org, OrgMembers, 7))
	require.NoError(t, m.Associate(ctx, anne, org, OrgMembers, 7))

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM organization_members WHERE organization_id = 10 AND user_id = 7`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestDisassociateIdempotent(t *testing.T) {
	db := testDB(t)
	m := testManager(t, db)
	ctx := context.Background()
	org := rbac.Object{Type: rbac.ResourceOrganization, ID: 10, Active: true}

	require.NoError(t, m.Associate(ctx, anne, org, OrgMembers, 7))
	require.NoError(t, m.Disassociate(ctx, anne, org, OrgMembers, 7))
	// Removing again must not fail.
	require.NoError(t, m.Disassociate(ctx, anne, org, OrgMembers, 7))

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM organization_members WHERE organization_id = 10`).Scan(&count))
	assert.Equal(t, 0, count)
}

func TestAssociateAuthorityMatchesUpdate(t *testing.T) {
	db := testDB(t)
	m := testManager(t, db)
	ctx := context.Background()
	org := rbac.Object{Type: rbac.ResourceOrganization, ID: 10, Active: true}

	// Members may read the organization but not manage its membership.
	assert.ErrorIs(t, m.Associate(ctx, bob, org, OrgMembers, 7), rbac.ErrForbidden)
	assert.ErrorIs(t, m.Disassociate(ctx, bob, org, OrgMembers, 3), rbac.ErrForbidden)
}

func TestTeamMembershipEdges(t *testing.T) {
	db := testDB(t)
	m := testManager(t, db)
	ctx := context.Background()
	team := rbac.Object{Type: rbac.ResourceTeam, ID: 20, Active: true, OrgID: 10}

	require.NoError(t, m.Associate(ctx, anne, team, TeamMembers, 3))
	has, err := NewSQLStore(db).HasEdge(ctx, TeamMembers, 20, 3)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestUnknownRelation(t *testing.T) {
	db := testDB(t)
	s := NewSQLStore(db)
	err := s.AddEdge(context.Background(), Relation("bogus"), 1, 2)
	assert.Error(t, err)
	assert.False(t, errors.Is(err, rbac.ErrForbidden))
}
