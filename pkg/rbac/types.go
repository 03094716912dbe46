package rbac

import (
	"github.com/platinummonkey/commander/pkg/identity"
)

// Resource enumerates the record types the engine knows how to authorize.
type Resource string

const (
	ResourceOrganization Resource = "organization"
	ResourceUser         Resource = "user"
	ResourceTeam         Resource = "team"
	ResourceProject      Resource = "project"
	ResourceInventory    Resource = "inventory"
	ResourceHost         Resource = "host"
	ResourceGroup        Resource = "group"
	ResourceVariableData Resource = "variable_data"
	ResourceCredential   Resource = "credential"
	ResourcePermission   Resource = "permission"
	ResourceTag          Resource = "tag"
	ResourceAuditTrail   Resource = "audit_trail"
)

// Action enumerates the operation classes evaluated against a record.
// Listing is handled separately by Engine.ListFilter.
type Action string

const (
	ActionRead         Action = "read"
	ActionCreate       Action = "create"
	ActionUpdate       Action = "update"
	ActionDelete       Action = "delete"
	ActionAssociate    Action = "associate"
	ActionDisassociate Action = "disassociate"
)

// Decision is the outcome of the top-level Decide facade.
type Decision int

const (
	DenyUnauthenticated Decision = iota
	DenyForbidden
	Allow
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case DenyForbidden:
		return "deny-forbidden"
	default:
		return "deny-unauthenticated"
	}
}

// ActorContext carries the identity invoking an operation. It is passed
// explicitly into every engine call; there is no ambient actor state.
type ActorContext struct {
	User *identity.User // nil when unauthenticated
}

// Anonymous is the actor context of an unauthenticated request.
var Anonymous = ActorContext{}

// Authenticated reports whether a real, active identity is present.
func (a ActorContext) Authenticated() bool {
	return a.User != nil && a.User.IsActive
}

// Superuser reports whether the actor bypasses all relationship checks.
func (a ActorContext) Superuser() bool {
	return a.Authenticated() && a.User.IsSuperuser
}

// UserID returns the actor's user ID, or 0 when unauthenticated.
func (a ActorContext) UserID() int64 {
	if a.User == nil {
		return 0
	}
	return a.User.ID
}

// Object is the flattened authorization view of a record: only the ownership
// and association edges a rule can consult. Domain packages convert their
// records into Objects; the engine never sees the records themselves.
type Object struct {
	Type   Resource
	ID     int64
	Active bool

	// OrgID is the owning organization for singly owned resources
	// (inventory, team, audit trail; hosts/groups/variables carry their
	// inventory's organization here).
	OrgID int64

	// OrgIDs are the associated organizations for many-to-many owned
	// resources (project, tag).
	OrgIDs []int64

	// OwnerUserID / OwnerTeamID form the user-xor-team owner of a
	// credential or permission grant. For ResourceUser, OwnerUserID is the
	// record's own ID.
	OwnerUserID int64
	OwnerTeamID int64

	// InventoryID is the governing inventory for hosts, groups, variable
	// data and permission grants.
	InventoryID int64
}

// Filter is the predicate produced for a collection listing. When All is
// true the actor may see every record (superuser); otherwise only records
// whose IDs are in IDs.
type Filter struct {
	All bool
	IDs identity.IDSet
}

// Match reports whether the filter admits the given record ID.
func (f Filter) Match(id int64) bool {
	return f.All || f.IDs.Contains(id)
}

// Empty reports whether the filter admits nothing.
func (f Filter) Empty() bool {
	return !f.All && f.IDs.Len() == 0
}
