package rbac

import (
	"context"

	"github.com/platinummonkey/commander/pkg/identity"
)

// ruleTable enumerates every (resource, action) pair the engine supports.
// Adding a resource or action means adding rows here; nothing is derived at
// runtime. Rows that always return false exist so the pair maps to a plain
// denial rather than ErrMethodNotSupported (the action is defined, the plain
// user just may never perform it).
func ruleTable() map[ruleKey]ruleFunc {
	return map[ruleKey]ruleFunc{
		{ResourceOrganization, ActionRead}:         orgRead,
		{ResourceOrganization, ActionCreate}:       denyAlways, // superuser only
		{ResourceOrganization, ActionUpdate}:       orgAdminOf,
		{ResourceOrganization, ActionDelete}:       denyAlways, // superuser only
		{ResourceOrganization, ActionAssociate}:    orgAdminOf,
		{ResourceOrganization, ActionDisassociate}: orgAdminOf,

		{ResourceUser, ActionRead}:         userRead,
		{ResourceUser, ActionCreate}:       userCreate,
		{ResourceUser, ActionUpdate}:       userUpdate,
		{ResourceUser, ActionDelete}:       userDelete,
		{ResourceUser, ActionAssociate}:    userUpdate,
		{ResourceUser, ActionDisassociate}: userUpdate,

		{ResourceTeam, ActionRead}:         teamRead,
		{ResourceTeam, ActionCreate}:       adminOfOwningOrg,
		{ResourceTeam, ActionUpdate}:       adminOfOwningOrg,
		{ResourceTeam, ActionDelete}:       adminOfOwningOrg,
		{ResourceTeam, ActionAssociate}:    adminOfOwningOrg,
		{ResourceTeam, ActionDisassociate}: adminOfOwningOrg,

		{ResourceProject, ActionRead}:         projectRead,
		{ResourceProject, ActionCreate}:       projectCreate,
		{ResourceProject, ActionUpdate}:       projectWrite,
		{ResourceProject, ActionDelete}:       projectWrite,
		{ResourceProject, ActionAssociate}:    projectWrite,
		{ResourceProject, ActionDisassociate}: projectWrite,

		{ResourceInventory, ActionRead}:         inventoryRead,
		{ResourceInventory, ActionCreate}:       adminOfOwningOrg,
		{ResourceInventory, ActionUpdate}:       adminOfOwningOrg,
		{ResourceInventory, ActionDelete}:       adminOfOwningOrg,
		{ResourceInventory, ActionAssociate}:    adminOfOwningOrg,
		{ResourceInventory, ActionDisassociate}: adminOfOwningOrg,

		{ResourceHost, ActionRead}:   inventoryRead,
		{ResourceHost, ActionCreate}: adminOfOwningOrg,
		{ResourceHost, ActionUpdate}: adminOfOwningOrg,
		{ResourceHost, ActionDelete}: adminOfOwningOrg,

		{ResourceGroup, ActionRead}:         inventoryRead,
		{ResourceGroup, ActionCreate}:       adminOfOwningOrg,
		{ResourceGroup, ActionUpdate}:       adminOfOwningOrg,
		{ResourceGroup, ActionDelete}:       adminOfOwningOrg,
		{ResourceGroup, ActionAssociate}:    adminOfOwningOrg,
		{ResourceGroup, ActionDisassociate}: adminOfOwningOrg,

		{ResourceVariableData, ActionRead}:   inventoryRead,
		{ResourceVariableData, ActionUpdate}: adminOfOwningOrg,

		{ResourceCredential, ActionRead}:   credentialRead,
		{ResourceCredential, ActionCreate}: credentialWrite,
		{ResourceCredential, ActionUpdate}: credentialWrite,
		{ResourceCredential, ActionDelete}: credentialWrite,

		{ResourcePermission, ActionRead}:   permissionRead,
		{ResourcePermission, ActionCreate}: adminOfOwningOrg,
		{ResourcePermission, ActionUpdate}: adminOfOwningOrg,
		{ResourcePermission, ActionDelete}: adminOfOwningOrg,

		{ResourceTag, ActionRead}:         tagAdmin,
		{ResourceTag, ActionCreate}:       tagAdmin,
		{ResourceTag, ActionUpdate}:       tagAdmin,
		{ResourceTag, ActionDelete}:       tagAdmin,
		{ResourceTag, ActionAssociate}:    tagAdmin,
		{ResourceTag, ActionDisassociate}: tagAdmin,

		// Audit trails are append-only by the system; the API never writes
		// them, so only read is defined.
		{ResourceAuditTrail, ActionRead}: adminOfOwningOrg,
	}
}

func denyAlways(context.Context, *Engine, ActorContext, Object) (bool, error) {
	return false, nil
}

// orgRead: admins and members may read their organization.
func orgRead(ctx context.Context, e *Engine, actor ActorContext, obj Object) (bool, error) {
	admin, member, err := e.adminAndMemberOrgs(ctx, actor)
	if err != nil {
		return false, err
	}
	return admin.Contains(obj.ID) || member.Contains(obj.ID), nil
}

// orgAdminOf: the actor administers the organization itself.
func orgAdminOf(ctx context.Context, e *Engine, actor ActorContext, obj Object) (bool, error) {
	admin, err := e.adminOrgs(ctx, actor)
	if err != nil {
		return false, err
	}
	return admin.Contains(obj.ID), nil
}

// adminOfOwningOrg: the actor administers the organization that owns the
// record (carried in obj.OrgID). A record with no owning organization is
// writable only by superusers.
func adminOfOwningOrg(ctx context.Context, e *Engine, actor ActorContext, obj Object) (bool, error) {
	if obj.OrgID == 0 {
		return false, nil
	}
	admin, err := e.adminOrgs(ctx, actor)
	if err != nil {
		return false, err
	}
	return admin.Contains(obj.OrgID), nil
}

func userRead(ctx context.Context, e *Engine, actor ActorContext, obj Object) (bool, error) {
	if obj.ID == actor.UserID() {
		return true, nil
	}
	ok, err := e.adminOverUser(ctx, actor, obj.ID)
	if err != nil || ok {
		return ok, err
	}
	// Teammates see each other.
	teams, err := e.activeTeams(ctx, actor)
	if err != nil {
		return false, err
	}
	for _, teamID := range teams.Sorted() {
		users, err := e.graph.UsersOfTeam(ctx, teamID)
		if err != nil {
			return false, err
		}
		if users.Contains(obj.ID) {
			return true, nil
		}
	}
	return false, nil
}

// userCreate: any organization admin may create accounts (to add them to the
// organizations they run).
func userCreate(ctx context.Context, e *Engine, actor ActorContext, _ Object) (bool, error) {
	admin, err := e.adminOrgs(ctx, actor)
	if err != nil {
		return false, err
	}
	return admin.Len() > 0, nil
}

func userUpdate(ctx context.Context, e *Engine, actor ActorContext, obj Object) (bool, error) {
	if obj.ID == actor.UserID() {
		return true, nil
	}
	return e.adminOverUser(ctx, actor, obj.ID)
}

// userDelete: an admin may remove users of their organizations, but nobody
// deletes their own account.
func userDelete(ctx context.Context, e *Engine, actor ActorContext, obj Object) (bool, error) {
	if obj.ID == actor.UserID() {
		return false, nil
	}
	return e.adminOverUser(ctx, actor, obj.ID)
}

func teamRead(ctx context.Context, e *Engine, actor ActorContext, obj Object) (bool, error) {
	ok, err := adminOfOwningOrg(ctx, e, actor, obj)
	if err != nil || ok {
		return ok, err
	}
	teams, err := e.activeTeams(ctx, actor)
	if err != nil {
		return false, err
	}
	return teams.Contains(obj.ID), nil
}

func projectRead(ctx context.Context, e *Engine, actor ActorContext, obj Object) (bool, error) {
	admin, member, err := e.adminAndMemberOrgs(ctx, actor)
	if err != nil {
		return false, err
	}
	orgs := admin.Union(member)
	for _, orgID := range obj.OrgIDs {
		if orgs.Contains(orgID) {
			return true, nil
		}
	}
	teams, err := e.activeTeams(ctx, actor)
	if err != nil {
		return false, err
	}
	for _, teamID := range teams.Sorted() {
		projects, err := e.graph.ProjectsOfTeam(ctx, teamID)
		if err != nil {
			return false, err
		}
		if projects.Contains(obj.ID) {
			return true, nil
		}
	}
	return false, nil
}

// projectCreate: the actor must administer every organization the new
// project is being attached to. An unattached project is superuser-only.
func projectCreate(ctx context.Context, e *Engine, actor ActorContext, obj Object) (bool, error) {
	if len(obj.OrgIDs) == 0 {
		return false, nil
	}
	admin, err := e.adminOrgs(ctx, actor)
	if err != nil {
		return false, err
	}
	for _, orgID := range obj.OrgIDs {
		if !admin.Contains(orgID) {
			return false, nil
		}
	}
	return true, nil
}

// projectWrite: administering any one of the owning organizations is enough.
func projectWrite(ctx context.Context, e *Engine, actor ActorContext, obj Object) (bool, error) {
	admin, err := e.adminOrgs(ctx, actor)
	if err != nil {
		return false, err
	}
	for _, orgID := range obj.OrgIDs {
		if admin.Contains(orgID) {
			return true, nil
		}
	}
	return false, nil
}

// inventoryRead: organization admins see every inventory of their
// organization; everyone else needs an explicit read grant, directly or via
// an active team. Plain organization membership conveys nothing here.
func inventoryRead(ctx context.Context, e *Engine, actor ActorContext, obj Object) (bool, error) {
	admin, err := e.adminOrgs(ctx, actor)
	if err != nil {
		return false, err
	}
	if admin.Contains(obj.OrgID) {
		return true, nil
	}
	invID := obj.InventoryID
	if obj.Type == ResourceInventory {
		invID = obj.ID
	}
	granted, err := e.graph.ReadGrantsForUser(ctx, actor.UserID())
	if err != nil {
		return false, err
	}
	if granted.Contains(invID) {
		return true, nil
	}
	teams, err := e.activeTeams(ctx, actor)
	if err != nil {
		return false, err
	}
	for _, teamID := range teams.Sorted() {
		granted, err := e.graph.ReadGrantsForTeam(ctx, teamID)
		if err != nil {
			return false, err
		}
		if granted.Contains(invID) {
			return true, nil
		}
	}
	return false, nil
}

func credentialRead(ctx context.Context, e *Engine, actor ActorContext, obj Object) (bool, error) {
	if obj.OwnerUserID != 0 && obj.OwnerUserID == actor.UserID() {
		return true, nil
	}
	if obj.OwnerTeamID != 0 {
		active, err := e.graph.FilterActiveTeams(ctx, identity.NewIDSet(obj.OwnerTeamID))
		if err != nil {
			return false, err
		}
		if active.Contains(obj.OwnerTeamID) {
			users, err := e.graph.UsersOfTeam(ctx, obj.OwnerTeamID)
			if err != nil {
				return false, err
			}
			if users.Contains(actor.UserID()) {
				return true, nil
			}
		}
	}
	return adminOverCredentialOwner(ctx, e, actor, obj)
}

// credentialWrite: the owning user themself, or an admin over the owner.
// Team members may use a team credential but not rewrite it.
func credentialWrite(ctx context.Context, e *Engine, actor ActorContext, obj Object) (bool, error) {
	if obj.OwnerUserID != 0 && obj.OwnerUserID == actor.UserID() {
		return true, nil
	}
	return adminOverCredentialOwner(ctx, e, actor, obj)
}

func adminOverCredentialOwner(ctx context.Context, e *Engine, actor ActorContext, obj Object) (bool, error) {
	if obj.OwnerUserID != 0 {
		return e.adminOverUser(ctx, actor, obj.OwnerUserID)
	}
	if obj.OwnerTeamID != 0 {
		return e.adminOverTeam(ctx, actor, obj.OwnerTeamID)
	}
	return false, nil
}

// permissionRead: the inventory organization's admins, plus the grant
// subject — a user sees grants naming them, a team member sees grants naming
// the team.
func permissionRead(ctx context.Context, e *Engine, actor ActorContext, obj Object) (bool, error) {
	ok, err := adminOfOwningOrg(ctx, e, actor, obj)
	if err != nil || ok {
		return ok, err
	}
	if obj.OwnerUserID != 0 && obj.OwnerUserID == actor.UserID() {
		return true, nil
	}
	if obj.OwnerTeamID != 0 {
		users, err := e.graph.UsersOfTeam(ctx, obj.OwnerTeamID)
		if err != nil {
			return false, err
		}
		return users.Contains(actor.UserID()), nil
	}
	return false, nil
}

// tagAdmin: tags are an administrative vocabulary; all access requires
// administering one of the organizations the tag is attached to.
func tagAdmin(ctx context.Context, e *Engine, actor ActorContext, obj Object) (bool, error) {
	admin, err := e.adminOrgs(ctx, actor)
	if err != nil {
		return false, err
	}
	for _, orgID := range obj.OrgIDs {
		if admin.Contains(orgID) {
			return true, nil
		}
	}
	return false, nil
}
