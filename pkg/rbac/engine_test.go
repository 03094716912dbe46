package rbac

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/commander/pkg/identity"
)

// Shared fixture:
//
//	org 10 (active):   admin anne, member bob; team 20 (bob); project 30;
//	                   inventory 40
//	org 11 (active):   admin carl; inventory 41 (user grant: bob;
//	                   team grant: team 20); project 31 (also on team 20)
//	org 12 (inactive): admin anne
func testGraph() *identity.MemoryGraph {
	g := identity.NewMemoryGraph()
	g.Superusers.Add(userRoot.ID)

	g.AddOrganization(&identity.Organization{ID: 10, Name: "ops", Active: true})
	g.AddOrganization(&identity.Organization{ID: 11, Name: "eng", Active: true})
	g.AddOrganization(&identity.Organization{ID: 12, Name: "legacy", Active: false})

	g.AddOrgAdmin(10, userAnne.ID)
	g.AddOrgMember(10, userBob.ID)
	g.AddOrgAdmin(11, userCarl.ID)
	g.AddOrgAdmin(12, userAnne.ID)

	g.AddTeam(&identity.Team{ID: 20, Name: "sre", OrganizationID: 10, Active: true})
	g.AddTeamUser(20, userBob.ID)

	g.AddOrgProject(10, 30)
	g.AddOrgProject(11, 31)
	g.AddTeamProject(20, 31)

	g.AddOrgInventory(10, 40)
	g.AddOrgInventory(11, 41)
	g.AddUserGrant(userBob.ID, 41)
	g.AddTeamGrant(20, 41)
	return g
}

var (
	userRoot = &identity.User{ID: 1, Username: "root", IsSuperuser: true, IsActive: true}
	userAnne = &identity.User{ID: 2, Username: "anne", IsActive: true}
	userBob  = &identity.User{ID: 3, Username: "bob", IsActive: true}
	userCarl = &identity.User{ID: 4, Username: "carl", IsActive: true}
	userEve  = &identity.User{ID: 5, Username: "eve", IsActive: true}
)

func actor(u *identity.User) ActorContext { return ActorContext{User: u} }

func TestDecideUnauthenticated(t *testing.T) {
	e := NewEngine(testGraph())
	d, err := e.Decide(context.Background(), Anonymous, ResourceOrganization, ActionRead, Object{Type: ResourceOrganization, ID: 10})
	require.NoError(t, err)
	assert.Equal(t, DenyUnauthenticated, d)

	// An inactive account is treated the same as no account.
	disabled := &identity.User{ID: 9, Username: "ghost", IsActive: false}
	d, err = e.Decide(context.Background(), actor(disabled), ResourceOrganization, ActionRead, Object{Type: ResourceOrganization, ID: 10})
	require.NoError(t, err)
	assert.Equal(t, DenyUnauthenticated, d)
}

func TestSuperuserBypassesEverything(t *testing.T) {
	e := NewEngine(testGraph())
	ctx := context.Background()
	for _, action := range []Action{ActionRead, ActionCreate, ActionUpdate, ActionDelete} {
		d, err := e.Decide(ctx, actor(userRoot), ResourceOrganization, action, Object{Type: ResourceOrganization, ID: 11})
		require.NoError(t, err)
		assert.Equal(t, Allow, d, "superuser denied %s", action)
	}
	f, err := e.ListFilter(ctx, actor(userRoot), ResourceInventory)
	require.NoError(t, err)
	assert.True(t, f.All)
}

func TestOrganizationVisibility(t *testing.T) {
	e := NewEngine(testGraph())
	ctx := context.Background()

	f, err := e.ListFilter(ctx, actor(userAnne), ResourceOrganization)
	require.NoError(t, err)
	assert.Equal(t, []int64{10}, f.IDs.Sorted(), "inactive org 12 must not appear")

	f, err = e.ListFilter(ctx, actor(userBob), ResourceOrganization)
	require.NoError(t, err)
	assert.Equal(t, []int64{10}, f.IDs.Sorted())

	f, err = e.ListFilter(ctx, actor(userEve), ResourceOrganization)
	require.NoError(t, err)
	assert.True(t, f.Empty())

	ok, err := e.CanRead(ctx, actor(userBob), Object{Type: ResourceOrganization, ID: 11})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOrganizationWrites(t *testing.T) {
	e := NewEngine(testGraph())
	ctx := context.Background()
	org10 := Object{Type: ResourceOrganization, ID: 10}

	ok, err := e.CanWrite(ctx, actor(userAnne), org10, ActionUpdate)
	require.NoError(t, err)
	assert.True(t, ok)

	// Members read but do not write.
	ok, err = e.CanWrite(ctx, actor(userBob), org10, ActionUpdate)
	require.NoError(t, err)
	assert.False(t, ok)

	// Creating and deleting organizations is reserved to superusers.
	for _, u := range []*identity.User{userAnne, userBob} {
		ok, err = e.CanWrite(ctx, actor(u), Object{Type: ResourceOrganization}, ActionCreate)
		require.NoError(t, err)
		assert.False(t, ok)
		ok, err = e.CanWrite(ctx, actor(u), org10, ActionDelete)
		require.NoError(t, err)
		assert.False(t, ok)
	}
}

func TestProjectVisibility(t *testing.T) {
	e := NewEngine(testGraph())
	ctx := context.Background()

	// Anne sees org 10's project only.
	f, err := e.ListFilter(ctx, actor(userAnne), ResourceProject)
	require.NoError(t, err)
	assert.Equal(t, []int64{30}, f.IDs.Sorted())

	// Bob reaches project 30 through membership and 31 through team 20,
	// without any standing in org 11.
	f, err = e.ListFilter(ctx, actor(userBob), ResourceProject)
	require.NoError(t, err)
	assert.Equal(t, []int64{30, 31}, f.IDs.Sorted())

	ok, err := e.CanRead(ctx, actor(userBob), Object{Type: ResourceProject, ID: 31, OrgIDs: []int64{11}})
	require.NoError(t, err)
	assert.True(t, ok)

	// Reading it does not let him change it.
	ok, err = e.CanWrite(ctx, actor(userBob), Object{Type: ResourceProject, ID: 31, OrgIDs: []int64{11}}, ActionUpdate)
	require.NoError(t, err)
	assert.False(t, ok)

	// Carl administers org 11, so he may delete project 31 even though the
	// association runs through the organization, not him personally.
	ok, err = e.CanWrite(ctx, actor(userCarl), Object{Type: ResourceProject, ID: 31, OrgIDs: []int64{11}}, ActionDelete)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestInventoryGrants(t *testing.T) {
	e := NewEngine(testGraph())
	ctx := context.Background()
	inv40 := Object{Type: ResourceInventory, ID: 40, OrgID: 10}
	inv41 := Object{Type: ResourceInventory, ID: 41, OrgID: 11}

	// Plain membership conveys nothing: bob is a member of org 10 but has
	// no grant on its inventory.
	ok, err := e.CanRead(ctx, actor(userBob), inv40)
	require.NoError(t, err)
	assert.False(t, ok)

	// An explicit grant reaches across organizations.
	ok, err = e.CanRead(ctx, actor(userBob), inv41)
	require.NoError(t, err)
	assert.True(t, ok)

	// Admins see every inventory of their organization.
	ok, err = e.CanRead(ctx, actor(userAnne), inv40)
	require.NoError(t, err)
	assert.True(t, ok)

	// A read grant never implies write.
	ok, err = e.CanWrite(ctx, actor(userBob), inv41, ActionUpdate)
	require.NoError(t, err)
	assert.False(t, ok)

	f, err := e.ListFilter(ctx, actor(userBob), ResourceInventory)
	require.NoError(t, err)
	assert.Equal(t, []int64{41}, f.IDs.Sorted())
}

func TestTeamGrantPath(t *testing.T) {
	g := testGraph()
	// Drop bob's direct grant so only the team path remains.
	delete(g.UserGrants, userBob.ID)
	e := NewEngine(g)
	ctx := context.Background()

	ok, err := e.CanRead(ctx, actor(userBob), Object{Type: ResourceInventory, ID: 41, OrgID: 11})
	require.NoError(t, err)
	assert.True(t, ok)

	// Deactivating the team severs the derived grant.
	g.Teams[20].Active = false
	ok, err = e.CanRead(ctx, actor(userBob), Object{Type: ResourceInventory, ID: 41, OrgID: 11})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHostsInheritInventoryRule(t *testing.T) {
	e := NewEngine(testGraph())
	ctx := context.Background()
	host := Object{Type: ResourceHost, ID: 100, OrgID: 11, InventoryID: 41}

	ok, err := e.CanRead(ctx, actor(userBob), host)
	require.NoError(t, err)
	assert.True(t, ok, "grant on the inventory covers its hosts")

	ok, err = e.CanWrite(ctx, actor(userBob), host, ActionUpdate)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = e.CanWrite(ctx, actor(userCarl), host, ActionUpdate)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestInactiveOrgConveysNothing(t *testing.T) {
	e := NewEngine(testGraph())
	ctx := context.Background()

	// Anne administers org 12, but it is inactive.
	ok, err := e.CanRead(ctx, actor(userAnne), Object{Type: ResourceOrganization, ID: 12})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = e.CanWrite(ctx, actor(userAnne), Object{Type: ResourceInventory, ID: 99, OrgID: 12}, ActionCreate)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUserVisibility(t *testing.T) {
	e := NewEngine(testGraph())
	ctx := context.Background()

	// Everyone sees themself.
	ok, err := e.CanRead(ctx, actor(userEve), Object{Type: ResourceUser, ID: userEve.ID})
	require.NoError(t, err)
	assert.True(t, ok)

	// Admins see the members of their organizations.
	ok, err = e.CanRead(ctx, actor(userAnne), Object{Type: ResourceUser, ID: userBob.ID})
	require.NoError(t, err)
	assert.True(t, ok)

	// Strangers are invisible.
	ok, err = e.CanRead(ctx, actor(userAnne), Object{Type: ResourceUser, ID: userCarl.ID})
	require.NoError(t, err)
	assert.False(t, ok)

	f, err := e.ListFilter(ctx, actor(userBob), ResourceUser)
	require.NoError(t, err)
	assert.Equal(t, []int64{userBob.ID}, f.IDs.Sorted())

	f, err = e.ListFilter(ctx, actor(userAnne), ResourceUser)
	require.NoError(t, err)
	assert.Equal(t, []int64{userAnne.ID, userBob.ID}, f.IDs.Sorted())
}

func TestTeammatesSeeEachOther(t *testing.T) {
	g := testGraph()
	g.AddTeamUser(20, userEve.ID)
	e := NewEngine(g)
	ctx := context.Background()

	ok, err := e.CanRead(ctx, actor(userEve), Object{Type: ResourceUser, ID: userBob.ID})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUserLifecycleRules(t *testing.T) {
	e := NewEngine(testGraph())
	ctx := context.Background()

	// Org admins may create accounts; users with no admin role may not.
	ok, err := e.CanWrite(ctx, actor(userAnne), Object{Type: ResourceUser}, ActionCreate)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = e.CanWrite(ctx, actor(userBob), Object{Type: ResourceUser}, ActionCreate)
	require.NoError(t, err)
	assert.False(t, ok)

	// Self-update allowed, self-delete not.
	self := Object{Type: ResourceUser, ID: userAnne.ID}
	ok, err = e.CanWrite(ctx, actor(userAnne), self, ActionUpdate)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = e.CanWrite(ctx, actor(userAnne), self, ActionDelete)
	require.NoError(t, err)
	assert.False(t, ok)

	// Admin deletes a member of their org.
	ok, err = e.CanWrite(ctx, actor(userAnne), Object{Type: ResourceUser, ID: userBob.ID}, ActionDelete)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCredentialRules(t *testing.T) {
	e := NewEngine(testGraph())
	ctx := context.Background()

	mine := Object{Type: ResourceCredential, ID: 60, OwnerUserID: userBob.ID}
	teamCred := Object{Type: ResourceCredential, ID: 61, OwnerTeamID: 20}

	ok, err := e.CanRead(ctx, actor(userBob), mine)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = e.CanWrite(ctx, actor(userBob), mine, ActionUpdate)
	require.NoError(t, err)
	assert.True(t, ok)

	// Anne administers the org that bob belongs to, so she reaches his
	// credential too.
	ok, err = e.CanWrite(ctx, actor(userAnne), mine, ActionDelete)
	require.NoError(t, err)
	assert.True(t, ok)

	// Team members may use (read) the team credential but not rewrite it.
	ok, err = e.CanRead(ctx, actor(userBob), teamCred)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = e.CanWrite(ctx, actor(userBob), teamCred, ActionUpdate)
	require.NoError(t, err)
	assert.False(t, ok)

	// The owning team's org admin does.
	ok, err = e.CanWrite(ctx, actor(userAnne), teamCred, ActionUpdate)
	require.NoError(t, err)
	assert.True(t, ok)

	// Strangers see nothing.
	ok, err = e.CanRead(ctx, actor(userCarl), mine)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPermissionRules(t *testing.T) {
	e := NewEngine(testGraph())
	ctx := context.Background()
	grant := Object{Type: ResourcePermission, ID: 70, OrgID: 11, InventoryID: 41, OwnerUserID: userBob.ID}

	// The inventory organization's admin manages grants.
	ok, err := e.CanWrite(ctx, actor(userCarl), grant, ActionCreate)
	require.NoError(t, err)
	assert.True(t, ok)

	// The subject may see the grant naming them but not change it.
	ok, err = e.CanRead(ctx, actor(userBob), grant)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = e.CanWrite(ctx, actor(userBob), grant, ActionDelete)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUndefinedActionIsMethodNotSupported(t *testing.T) {
	e := NewEngine(testGraph())
	ctx := context.Background()

	_, err := e.Decide(ctx, actor(userAnne), ResourceAuditTrail, ActionUpdate, Object{Type: ResourceAuditTrail, ID: 1, OrgID: 10})
	assert.True(t, errors.Is(err, ErrMethodNotSupported))

	_, err = e.ListFilter(ctx, actor(userAnne), ResourceCredential)
	assert.True(t, errors.Is(err, ErrMethodNotSupported))
}

func TestBroadestGrantWins(t *testing.T) {
	g := testGraph()
	// Bob gains admin on org 11 while keeping the narrower direct grant;
	// the union must not shrink anything.
	g.AddOrgAdmin(11, userBob.ID)
	e := NewEngine(g)
	ctx := context.Background()

	f, err := e.ListFilter(ctx, actor(userBob), ResourceInventory)
	require.NoError(t, err)
	assert.Equal(t, []int64{41}, f.IDs.Sorted())

	ok, err := e.CanWrite(ctx, actor(userBob), Object{Type: ResourceInventory, ID: 41, OrgID: 11}, ActionUpdate)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestListFilterUnauthenticated(t *testing.T) {
	e := NewEngine(testGraph())
	_, err := e.ListFilter(context.Background(), Anonymous, ResourceOrganization)
	assert.True(t, errors.Is(err, ErrUnauthenticated))
}
