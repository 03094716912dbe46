package lifecycle

import (
	"fmt"

	"github.com/platinummonkey/commander/pkg/rbac"
)

// Relation names one association edge table between a parent resource and a
// child collection.
type Relation string

const (
	OrgAdmins    Relation = "organization_admins"
	OrgMembers   Relation = "organization_members"
	OrgProjects  Relation = "organization_projects"
	OrgTags      Relation = "organization_tags"
	TeamMembers  Relation = "team_members"
	TeamProjects Relation = "team_projects"
	GroupHosts   Relation = "group_hosts"
	GroupChilds  Relation = "group_children"
)

type relationSpec struct {
	table     string
	parentCol string
	childCol  string
	parent    rbac.Resource
}

var relationSpecs = map[Relation]relationSpec{
	OrgAdmins:    {"organization_admins", "organization_id", "user_id", rbac.ResourceOrganization},
	OrgMembers:   {"organization_members", "organization_id", "user_id", rbac.ResourceOrganization},
	OrgProjects:  {"organization_projects", "organization_id", "project_id", rbac.ResourceOrganization},
	OrgTags:      {"organization_tags", "organization_id", "tag_id", rbac.ResourceOrganization},
	TeamMembers:  {"team_members", "team_id", "user_id", rbac.ResourceTeam},
	TeamProjects: {"team_projects", "team_id", "project_id", rbac.ResourceTeam},
	GroupHosts:   {"group_hosts", "group_id", "host_id", rbac.ResourceGroup},
	GroupChilds:  {"group_children", "group_id", "child_group_id", rbac.ResourceGroup},
}

// Parent returns the resource type owning the relation's parent side.
func (r Relation) Parent() rbac.Resource {
	return relationSpecs[r].parent
}

func (r Relation) spec() (relationSpec, error) {
	s, ok := relationSpecs[r]
	if !ok {
		return relationSpec{}, fmt.Errorf("unknown relation %q", r)
	}
	return s, nil
}

// deactivation column per resource table; users flag accounts rather than
// records.
var deactivateTables = map[rbac.Resource]struct {
	table  string
	column string
}{
	rbac.ResourceOrganization: {"organizations", "active"},
	rbac.ResourceUser:         {"users", "is_active"},
	rbac.ResourceTeam:         {"teams", "active"},
	rbac.ResourceProject:      {"projects", "active"},
	rbac.ResourceInventory:    {"inventories", "active"},
	rbac.ResourceHost:         {"hosts", "active"},
	rbac.ResourceGroup:        {"groups", "active"},
	rbac.ResourceCredential:   {"credentials", "active"},
	rbac.ResourcePermission:   {"permissions", "active"},
	rbac.ResourceTag:          {"tags", "active"},
}
