package inventory

import (
	"context"
	"database/sql"
	"testing"
	"time"

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
// (admin carl=5). Inventory 1 "fleet" in org 1. Inventory 2 "lab" in org 2,
// with a direct read grant for bob and a team grant for team 1 ("research",
// org 2) whose member is eve=4. Host 1 and group 1 live in "fleet"; host 2
// lives in "lab".
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
		`INSERT INTO teams (name, organization_id, active) VALUES ('research', 2, TRUE)`,
		`INSERT INTO team_members (team_id, user_id) VALUES (1, 4)`,
		`INSERT INTO inventories (name, organization_id, active) VALUES ('fleet', 1, TRUE)`,
		`INSERT INTO inventories (name, organization_id, active) VALUES ('lab', 2, TRUE)`,
		`INSERT INTO permissions (user_id, inventory_id, permission_type, active) VALUES (3, 2, 'read', TRUE)`,
		`INSERT INTO permissions (team_id, inventory_id, permission_type, active) VALUES (1, 2, 'read', TRUE)`,
		`INSERT INTO hosts (name, inventory_id, active) VALUES ('web01', 1, TRUE)`,
		`INSERT INTO hosts (name, inventory_id, active) VALUES ('bench01', 2, TRUE)`,
		`INSERT INTO groups (name, inventory_id, active) VALUES ('web', 1, TRUE)`,
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

func inventoryNames(invs []*Inventory) []string {
	names := make([]string, 0, len(invs))
	for _, inv := range invs {
		names = append(names, inv.Name)
	}
	return names
}

func TestListVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	got, err := f.svc.List(ctx, actorFor(t, f, 2))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"fleet"}, inventoryNames(got))

	// Bob is a plain member of org 1: membership conveys nothing for
	// inventories, but his direct grant on "lab" does.
	got, err = f.svc.List(ctx, actorFor(t, f, 3))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"lab"}, inventoryNames(got))

	// Eve reaches "lab" through her team's grant.
	got, err = f.svc.List(ctx, actorFor(t, f, 4))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"lab"}, inventoryNames(got))
}

func TestGetDenials(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Plain org membership does not reach inventories.
	_, err := f.svc.Get(ctx, actorFor(t, f, 3), 1)
	assert.ErrorIs(t, err, rbac.ErrForbidden)

	inv, err := f.svc.Get(ctx, actorFor(t, f, 3), 2)
	require.NoError(t, err)
	assert.Equal(t, "lab", inv.Name)

	_, err = f.svc.Get(ctx, actorFor(t, f, 2), 999)
	assert.ErrorIs(t, err, rbac.ErrNotFound)

	_, err = f.svc.Get(ctx, rbac.Anonymous, 1)
	assert.ErrorIs(t, err, rbac.ErrUnauthenticated)
}

func TestCreateAndWriteOnceOrganization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, actorFor(t, f, 3), map[string]interface{}{
		"name": "new", "organization": float64(1),
	})
	assert.ErrorIs(t, err, rbac.ErrForbidden)

	inv, err := f.svc.Create(ctx, actorFor(t, f, 2), map[string]interface{}{
		"name": "new", "organization": float64(1),
	})
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, actorFor(t, f, 2), map[string]interface{}{
		"name": "new", "organization": float64(1),
	})
	assert.True(t, rbac.IsValidation(err), "names are unique per organization")

	// Re-homing an inventory is write-once, even for superusers.
	_, err = f.svc.Update(ctx, actorFor(t, f, 1), inv.ID, map[string]interface{}{
		"organization": float64(2),
	})
	assert.True(t, rbac.IsValidation(err))
}

func TestGrantDoesNotConveyWrite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bob := actorFor(t, f, 3)

	_, err := f.svc.Update(ctx, bob, 2, map[string]interface{}{"description": "mine"})
	assert.ErrorIs(t, err, rbac.ErrForbidden)

	err = f.svc.Delete(ctx, bob, 2)
	assert.ErrorIs(t, err, rbac.ErrForbidden)

	_, err = f.svc.CreateHost(ctx, bob, map[string]interface{}{
		"name": "rogue", "inventory": float64(2),
	})
	assert.ErrorIs(t, err, rbac.ErrForbidden)
}

func TestHostsInheritInventoryRule(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Bob's grant on "lab" reaches its hosts.
	h, err := f.svc.GetHost(ctx, actorFor(t, f, 3), 2)
	require.NoError(t, err)
	assert.Equal(t, "bench01", h.Name)

	// But not the hosts of the ungranted "fleet".
	_, err = f.svc.GetHost(ctx, actorFor(t, f, 3), 1)
	assert.ErrorIs(t, err, rbac.ErrForbidden)

	hosts, err := f.svc.HostsOf(ctx, actorFor(t, f, 3), 2)
	require.NoError(t, err)
	require.Len(t, hosts, 1)

	_, err = f.svc.HostsOf(ctx, actorFor(t, f, 3), 1)
	assert.ErrorIs(t, err, rbac.ErrForbidden)
}

func TestHostLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	anne := actorFor(t, f, 2)

	h, err := f.svc.CreateHost(ctx, anne, map[string]interface{}{
		"name": "web02", "inventory": float64(1),
	})
	require.NoError(t, err)

	_, err = f.svc.CreateHost(ctx, anne, map[string]interface{}{
		"name": "web02", "inventory": float64(1),
	})
	assert.True(t, rbac.IsValidation(err))

	_, err = f.svc.UpdateHost(ctx, anne, h.ID, map[string]interface{}{
		"inventory": float64(2),
	})
	assert.True(t, rbac.IsValidation(err), "a host never moves between inventories")

	require.NoError(t, f.svc.DeleteHost(ctx, anne, h.ID))
	_, err = f.svc.GetHost(ctx, anne, h.ID)
	assert.ErrorIs(t, err, rbac.ErrNotFound)
}

func TestGroupEdges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	anne := actorFor(t, f, 2)

	// Idempotent association.
	require.NoError(t, f.svc.AddHostToGroup(ctx, anne, 1, 1))
	require.NoError(t, f.svc.AddHostToGroup(ctx, anne, 1, 1))
	hosts, err := f.svc.HostIDsOfGroup(ctx, anne, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, hosts.Sorted())

	// Cross-inventory membership is malformed.
	err = f.svc.AddHostToGroup(ctx, anne, 1, 2)
	assert.True(t, rbac.IsValidation(err))

	err = f.svc.AddChildGroup(ctx, anne, 1, 1)
	assert.True(t, rbac.IsValidation(err), "self-nesting is malformed")

	g, err := f.svc.CreateGroup(ctx, anne, map[string]interface{}{
		"name": "db", "inventory": float64(1),
	})
	require.NoError(t, err)
	require.NoError(t, f.svc.AddChildGroup(ctx, anne, 1, g.ID))
	children, err := f.svc.ChildIDsOfGroup(ctx, anne, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{g.ID}, children.Sorted())

	// Removing an absent edge succeeds.
	require.NoError(t, f.svc.RemoveHostFromGroup(ctx, anne, 1, 999))

	// Association authority is write authority.
	err = f.svc.AddHostToGroup(ctx, actorFor(t, f, 3), 1, 1)
	assert.ErrorIs(t, err, rbac.ErrForbidden)
}

// Nesting that closes a loop is malformed, however long the chain.
func TestChildGroupCycleRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	anne := actorFor(t, f, 2)

	db, err := f.svc.CreateGroup(ctx, anne, map[string]interface{}{
		"name": "db", "inventory": float64(1),
	})
	require.NoError(t, err)
	jobs, err := f.svc.CreateGroup(ctx, anne, map[string]interface{}{
		"name": "jobs", "inventory": float64(1),
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.AddChildGroup(ctx, anne, 1, db.ID))
	require.NoError(t, f.svc.AddChildGroup(ctx, anne, db.ID, jobs.ID))

	err = f.svc.AddChildGroup(ctx, anne, db.ID, 1)
	assert.True(t, rbac.IsValidation(err), "direct loop")

	err = f.svc.AddChildGroup(ctx, anne, jobs.ID, 1)
	assert.True(t, rbac.IsValidation(err), "transitive loop")

	// A diamond is not a loop.
	require.NoError(t, f.svc.AddChildGroup(ctx, anne, 1, jobs.ID))
}

// A freshly created grant must show through a warm edge cache immediately,
// the same way revocation drops it.
func TestGrantCreateInvalidatesEdgeCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	graph := identity.NewSQLGraph(f.db, identity.NewLRUEdgeCache(64, time.Minute))
	engine := rbac.NewEngine(graph)
	life := lifecycle.NewManager(engine, lifecycle.NewSQLStore(f.db), graph, nil)
	svc := NewService(engine, graph, f.store, life)

	anne := actorFor(t, f, 2)
	eve := actorFor(t, f, 4)

	// Warm the cache with eve's empty grant set for "fleet".
	_, err := svc.Get(ctx, eve, 1)
	assert.ErrorIs(t, err, rbac.ErrForbidden)

	_, err = svc.CreatePermission(ctx, anne, map[string]interface{}{
		"inventory": float64(1), "user": float64(4),
	})
	require.NoError(t, err)

	inv, err := svc.Get(ctx, eve, 1)
	require.NoError(t, err)
	assert.Equal(t, "fleet", inv.Name)
}

func TestVariableData(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	anne := actorFor(t, f, 2)

	// First read materializes an empty blob.
	v, err := f.svc.HostVariableData(ctx, anne, 1)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, v.Data)

	v, err = f.svc.UpdateHostVariableData(ctx, anne, 1, map[string]interface{}{
		"ansible_port": 2222,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ansible_port": 2222}`, v.Data)

	// Grant holders read but do not write.
	v, err = f.svc.HostVariableData(ctx, actorFor(t, f, 3), 2)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, v.Data)

	_, err = f.svc.UpdateHostVariableData(ctx, actorFor(t, f, 3), 2, map[string]interface{}{"x": 1})
	assert.ErrorIs(t, err, rbac.ErrForbidden)

	gv, err := f.svc.GroupVariableData(ctx, anne, 1)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, gv.Data)
}

func TestPermissionSubjectValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	anne := actorFor(t, f, 2)

	_, err := f.svc.CreatePermission(ctx, anne, map[string]interface{}{
		"inventory": float64(1),
	})
	assert.True(t, rbac.IsValidation(err), "a grant needs a subject")

	_, err = f.svc.CreatePermission(ctx, anne, map[string]interface{}{
		"inventory": float64(1), "user": float64(3), "team": float64(1),
	})
	assert.True(t, rbac.IsValidation(err), "user and team are mutually exclusive")

	p, err := f.svc.CreatePermission(ctx, anne, map[string]interface{}{
		"inventory": float64(1), "user": float64(3),
	})
	require.NoError(t, err)
	require.NotNil(t, p.UserID)
	assert.Equal(t, int64(3), *p.UserID)

	// Only the inventory organization's admin may grant.
	_, err = f.svc.CreatePermission(ctx, actorFor(t, f, 3), map[string]interface{}{
		"inventory": float64(1), "user": float64(4),
	})
	assert.ErrorIs(t, err, rbac.ErrForbidden)
}

func TestPermissionVisibilityAndRevocation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bob := actorFor(t, f, 3)

	// The subject sees the grant naming them; strangers do not.
	p, err := f.svc.GetPermission(ctx, bob, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), p.InventoryID)

	_, err = f.svc.GetPermission(ctx, actorFor(t, f, 2), 1)
	assert.ErrorIs(t, err, rbac.ErrForbidden)

	// Revoking the grant severs bob's access to "lab" immediately.
	require.NoError(t, f.svc.DeletePermission(ctx, actorFor(t, f, 5), 1))
	_, err = f.svc.Get(ctx, bob, 2)
	assert.ErrorIs(t, err, rbac.ErrForbidden)

	// The admin path for the grant list: carl sees both grants.
	perms, err := f.svc.PermissionsOf(ctx, actorFor(t, f, 5), 2)
	require.NoError(t, err)
	assert.Len(t, perms, 1, "the revoked grant no longer lists")
}
