package teams

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/commander/pkg/identity"
	"github.com/platinummonkey/commander/pkg/lifecycle"
	"github.com/platinummonkey/commander/pkg/rbac"
	"github.com/platinummonkey/commander/pkg/storage"
)

type fixture struct {
	svc   *Service
	store *Store
	db    *sql.DB
}

// Topology: org 1 "ops" (admin anne=2, member bob=3), org 2 "dev"
// (admin carl=5). Team 1 "oncall" in org 1 with bob as its member.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	db, err := storage.Open(ctx, storage.DefaultConfig("sqlite3", ":memory:"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, storage.Migrate(ctx, db, "sqlite3"))

	for _, username := range []string{"root", "anne", "bob", "eve", "carl"} {
		_, err := db.ExecContext(ctx,
			`INSERT INTO users (username, is_superuser, is_active) VALUES ($1, $2, TRUE)`,
			username, username == "root")
		require.NoError(t, err)
	}
	seed := []string{
		`INSERT INTO organizations (name, active) VALUES ('ops', TRUE)`,
		`INSERT INTO organizations (name, active) VALUES ('dev', TRUE)`,
		`INSERT INTO organization_admins (organization_id, user_id) VALUES (1, 2)`,
		`INSERT INTO organization_members (organization_id, user_id) VALUES (1, 2)`,
		`INSERT INTO organization_members (organization_id, user_id) VALUES (1, 3)`,
		`INSERT INTO organization_admins (organization_id, user_id) VALUES (2, 5)`,
		`INSERT INTO teams (name, organization_id, active) VALUES ('oncall', 1, TRUE)`,
		`INSERT INTO team_members (team_id, user_id) VALUES (1, 3)`,
	}
	for _, q := range seed {
		_, err := db.ExecContext(ctx, q)
		require.NoError(t, err)
	}

	store := NewStore(db)
	graph := identity.NewSQLGraph(db, nil)
	engine := rbac.NewEngine(graph)
	life := lifecycle.NewManager(engine, lifecycle.NewSQLStore(db), nil, nil)
	return &fixture{svc: NewService(engine, graph, store, life), store: store, db: db}
}

func actorFor(t *testing.T, f *fixture, id int64) rbac.ActorContext {
	t.Helper()
	u := &identity.User{}
	err := f.db.QueryRowContext(context.Background(),
		`SELECT id, username, is_superuser, is_active FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.Username, &u.IsSuperuser, &u.IsActive)
	require.NoError(t, err)
	return rbac.ActorContext{User: u}
}

func TestListVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Both the org admin and the team member see the team; the foreign
	// admin does not.
	for _, id := range []int64{2, 3} {
		got, err := f.svc.List(ctx, actorFor(t, f, id))
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "oncall", got[0].Name)
	}

	got, err := f.svc.List(ctx, actorFor(t, f, 5))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGetDenials(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Get(ctx, actorFor(t, f, 3), 1)
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, actorFor(t, f, 5), 1)
	assert.ErrorIs(t, err, rbac.ErrForbidden)

	_, err = f.svc.Get(ctx, actorFor(t, f, 2), 999)
	assert.ErrorIs(t, err, rbac.ErrNotFound)

	_, err = f.svc.Get(ctx, rbac.Anonymous, 1)
	assert.ErrorIs(t, err, rbac.ErrUnauthenticated)
}

func TestCreateRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Members cannot create teams; the owning organization's admin can.
	_, err := f.svc.Create(ctx, actorFor(t, f, 3), map[string]interface{}{
		"name": "new", "organization": float64(1),
	})
	assert.ErrorIs(t, err, rbac.ErrForbidden)

	team, err := f.svc.Create(ctx, actorFor(t, f, 2), map[string]interface{}{
		"name": "new", "organization": float64(1),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), team.OrganizationID)

	// Unique per organization, not globally.
	_, err = f.svc.Create(ctx, actorFor(t, f, 2), map[string]interface{}{
		"name": "new", "organization": float64(1),
	})
	assert.True(t, rbac.IsValidation(err))

	other, err := f.svc.Create(ctx, actorFor(t, f, 5), map[string]interface{}{
		"name": "new", "organization": float64(2),
	})
	require.NoError(t, err)
	assert.NotEqual(t, team.ID, other.ID)

	// A create naming no organization is superuser territory.
	_, err = f.svc.Create(ctx, actorFor(t, f, 2), map[string]interface{}{"name": "stray"})
	assert.ErrorIs(t, err, rbac.ErrForbidden)
}

func TestUpdateGuard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	anne := actorFor(t, f, 2)

	team, err := f.svc.Update(ctx, anne, 1, map[string]interface{}{"description": "pager duty"})
	require.NoError(t, err)
	assert.Equal(t, "pager duty", team.Description)

	// Re-parenting is write-once, even for superusers.
	_, err = f.svc.Update(ctx, actorFor(t, f, 1), 1, map[string]interface{}{"organization": float64(2)})
	assert.True(t, rbac.IsValidation(err))

	_, err = f.svc.Update(ctx, actorFor(t, f, 3), 1, map[string]interface{}{"description": "x"})
	assert.ErrorIs(t, err, rbac.ErrForbidden)
}

func TestMembershipEdges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	anne := actorFor(t, f, 2)

	// Adding an existing member is idempotent.
	require.NoError(t, f.svc.AddMember(ctx, anne, 1, 4))
	require.NoError(t, f.svc.AddMember(ctx, anne, 1, 4))

	// The full roster, including people the admin could not list globally.
	members, err := f.svc.MemberIDsOf(ctx, anne, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 4}, members.Sorted())

	// Removing an absent member succeeds.
	require.NoError(t, f.svc.RemoveMember(ctx, anne, 1, 4))
	require.NoError(t, f.svc.RemoveMember(ctx, anne, 1, 4))

	// Edge mutation authority matches update authority.
	err = f.svc.AddMember(ctx, actorFor(t, f, 3), 1, 4)
	assert.ErrorIs(t, err, rbac.ErrForbidden)
}

func TestDeleteSeversTeamRights(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.svc.Delete(ctx, actorFor(t, f, 3), 1)
	assert.ErrorIs(t, err, rbac.ErrForbidden)

	require.NoError(t, f.svc.Delete(ctx, actorFor(t, f, 2), 1))

	_, err = f.svc.Get(ctx, actorFor(t, f, 3), 1)
	assert.ErrorIs(t, err, rbac.ErrNotFound)

	got, err := f.svc.List(ctx, actorFor(t, f, 3))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSublists(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	anne := actorFor(t, f, 2)

	_, err := f.db.ExecContext(ctx,
		`INSERT INTO credentials (name, team_id, active) VALUES ('deploy-key', 1, TRUE)`)
	require.NoError(t, err)
	_, err = f.db.ExecContext(ctx,
		`INSERT INTO inventories (name, organization_id, active) VALUES ('fleet', 1, TRUE)`)
	require.NoError(t, err)
	_, err = f.db.ExecContext(ctx,
		`INSERT INTO permissions (team_id, inventory_id, permission_type, active) VALUES (1, 1, 'read', TRUE)`)
	require.NoError(t, err)

	creds, err := f.svc.CredentialIDsOf(ctx, anne, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, creds.Sorted())

	perms, err := f.svc.PermissionIDsOf(ctx, anne, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, perms.Sorted())

	_, err = f.svc.MemberIDsOf(ctx, actorFor(t, f, 5), 1)
	assert.ErrorIs(t, err, rbac.ErrForbidden)
}
