package identity

import "context"

// MemoryGraph is a Graph over an in-memory snapshot of the relationship
// edges. It performs no I/O and is safe for concurrent reads once built.
type MemoryGraph struct {
	Superusers   IDSet
	Orgs         map[int64]*Organization
	Teams        map[int64]*Team
	OrgAdmins    map[int64]IDSet // org -> users
	OrgMembers   map[int64]IDSet // org -> users
	OrgProjects  map[int64]IDSet // org -> projects
	OrgInvs      map[int64]IDSet // org -> inventories
	TeamUsers    map[int64]IDSet // team -> users
	TeamProjects map[int64]IDSet // team -> projects
	UserGrants   map[int64]IDSet // user -> inventories with a read grant
	TeamGrants   map[int64]IDSet // team -> inventories with a read grant
}

// NewMemoryGraph returns an empty graph ready to be populated.
func NewMemoryGraph() *MemoryGraph {
	return &MemoryGraph{
		Superusers:   IDSet{},
		Orgs:         map[int64]*Organization{},
		Teams:        map[int64]*Team{},
		OrgAdmins:    map[int64]IDSet{},
		OrgMembers:   map[int64]IDSet{},
		OrgProjects:  map[int64]IDSet{},
		OrgInvs:      map[int64]IDSet{},
		TeamUsers:    map[int64]IDSet{},
		TeamProjects: map[int64]IDSet{},
		UserGrants:   map[int64]IDSet{},
		TeamGrants:   map[int64]IDSet{},
	}
}

func addEdge(m map[int64]IDSet, from, to int64) {
	if m[from] == nil {
		m[from] = IDSet{}
	}
	m[from].Add(to)
}

func removeEdge(m map[int64]IDSet, from, to int64) {
	if m[from] != nil {
		delete(m[from], to)
	}
}

// AddOrganization registers an organization node.
func (g *MemoryGraph) AddOrganization(org *Organization) { g.Orgs[org.ID] = org }

// AddTeam registers a team node.
func (g *MemoryGraph) AddTeam(team *Team) { g.Teams[team.ID] = team }

// AddOrgAdmin adds a user to an organization's admin set.
func (g *MemoryGraph) AddOrgAdmin(orgID, userID int64) { addEdge(g.OrgAdmins, orgID, userID) }

// AddOrgMember adds a user to an organization's member set.
func (g *MemoryGraph) AddOrgMember(orgID, userID int64) { addEdge(g.OrgMembers, orgID, userID) }

// AddOrgProject associates a project with an organization.
func (g *MemoryGraph) AddOrgProject(orgID, projectID int64) { addEdge(g.OrgProjects, orgID, projectID) }

// AddOrgInventory records an inventory as owned by an organization.
func (g *MemoryGraph) AddOrgInventory(orgID, invID int64) { addEdge(g.OrgInvs, orgID, invID) }

// AddTeamUser adds a user to a team's member set.
func (g *MemoryGraph) AddTeamUser(teamID, userID int64) { addEdge(g.TeamUsers, teamID, userID) }

// AddTeamProject associates a project with a team.
func (g *MemoryGraph) AddTeamProject(teamID, projectID int64) { addEdge(g.TeamProjects, teamID, projectID) }

// AddUserGrant records a direct read grant for a user on an inventory.
func (g *MemoryGraph) AddUserGrant(userID, invID int64) { addEdge(g.UserGrants, userID, invID) }

// AddTeamGrant records a read grant for a team on an inventory.
func (g *MemoryGraph) AddTeamGrant(teamID, invID int64) { addEdge(g.TeamGrants, teamID, invID) }

// RemoveTeamUser removes a user from a team's member set; removing an absent
// edge is a no-op.
func (g *MemoryGraph) RemoveTeamUser(teamID, userID int64) { removeEdge(g.TeamUsers, teamID, userID) }

func reverse(m map[int64]IDSet, to int64) IDSet {
	out := IDSet{}
	for from, set := range m {
		if set.Contains(to) {
			out.Add(from)
		}
	}
	return out
}

func (g *MemoryGraph) IsSuperuser(_ context.Context, userID int64) (bool, error) {
	return g.Superusers.Contains(userID), nil
}

func (g *MemoryGraph) OrganizationsAdministeredBy(_ context.Context, userID int64) (IDSet, error) {
	return reverse(g.OrgAdmins, userID), nil
}

func (g *MemoryGraph) OrganizationsWithMember(_ context.Context, userID int64) (IDSet, error) {
	return reverse(g.OrgMembers, userID), nil
}

func (g *MemoryGraph) TeamsWithMember(_ context.Context, userID int64) (IDSet, error) {
	return reverse(g.TeamUsers, userID), nil
}

func (g *MemoryGraph) ReadGrantsForUser(_ context.Context, userID int64) (IDSet, error) {
	return g.UserGrants[userID].Union(), nil
}

func (g *MemoryGraph) ReadGrantsForTeam(_ context.Context, teamID int64) (IDSet, error) {
	return g.TeamGrants[teamID].Union(), nil
}

func (g *MemoryGraph) ProjectsOfOrganization(_ context.Context, orgID int64) (IDSet, error) {
	return g.OrgProjects[orgID].Union(), nil
}

func (g *MemoryGraph) ProjectsOfTeam(_ context.Context, teamID int64) (IDSet, error) {
	return g.TeamProjects[teamID].Union(), nil
}

func (g *MemoryGraph) TeamsOfOrganization(_ context.Context, orgID int64) (IDSet, error) {
	out := IDSet{}
	for id, team := range g.Teams {
		if team.OrganizationID == orgID {
			out.Add(id)
		}
	}
	return out, nil
}

func (g *MemoryGraph) InventoriesOfOrganization(_ context.Context, orgID int64) (IDSet, error) {
	return g.OrgInvs[orgID].Union(), nil
}

func (g *MemoryGraph) UsersOfOrganization(_ context.Context, orgID int64) (IDSet, error) {
	return g.OrgMembers[orgID].Union(), nil
}

func (g *MemoryGraph) UsersOfTeam(_ context.Context, teamID int64) (IDSet, error) {
	return g.TeamUsers[teamID].Union(), nil
}

func (g *MemoryGraph) FilterActiveOrganizations(_ context.Context, orgs IDSet) (IDSet, error) {
	out := IDSet{}
	for id := range orgs {
		if org, ok := g.Orgs[id]; ok && org.Active {
			out.Add(id)
		}
	}
	return out, nil
}

func (g *MemoryGraph) FilterActiveTeams(_ context.Context, teams IDSet) (IDSet, error) {
	out := IDSet{}
	for id := range teams {
		team, ok := g.Teams[id]
		if !ok || !team.Active {
			continue
		}
		if org, ok := g.Orgs[team.OrganizationID]; ok && org.Active {
			out.Add(id)
		}
	}
	return out, nil
}
