package identity

import "context"

// Graph exposes one-hop queries over the relationship graph. Each query
// returns raw edges without composing transitive rights; in particular the
// admin/member queries do not filter on organization activity — callers that
// must ignore deactivated parents apply FilterActiveOrganizations or
// FilterActiveTeams on top.
type Graph interface {
	// IsSuperuser reports the superuser flag of the given user.
	IsSuperuser(ctx context.Context, userID int64) (bool, error)

	// OrganizationsAdministeredBy returns organizations having the user in
	// their admin set.
	OrganizationsAdministeredBy(ctx context.Context, userID int64) (IDSet, error)

	// OrganizationsWithMember returns organizations having the user in their
	// member set.
	OrganizationsWithMember(ctx context.Context, userID int64) (IDSet, error)

	// TeamsWithMember returns teams having the user in their member set.
	TeamsWithMember(ctx context.Context, userID int64) (IDSet, error)

	// ReadGrantsForUser returns inventories on which the user holds a direct
	// read permission grant.
	ReadGrantsForUser(ctx context.Context, userID int64) (IDSet, error)

	// ReadGrantsForTeam returns inventories on which the team holds a read
	// permission grant.
	ReadGrantsForTeam(ctx context.Context, teamID int64) (IDSet, error)

	// ProjectsOfOrganization returns projects associated with the organization.
	ProjectsOfOrganization(ctx context.Context, orgID int64) (IDSet, error)

	// ProjectsOfTeam returns projects associated with the team.
	ProjectsOfTeam(ctx context.Context, teamID int64) (IDSet, error)

	// TeamsOfOrganization returns teams owned by the organization.
	TeamsOfOrganization(ctx context.Context, orgID int64) (IDSet, error)

	// InventoriesOfOrganization returns inventories owned by the organization.
	InventoriesOfOrganization(ctx context.Context, orgID int64) (IDSet, error)

	// UsersOfOrganization returns the organization's member set.
	UsersOfOrganization(ctx context.Context, orgID int64) (IDSet, error)

	// UsersOfTeam returns the team's member set.
	UsersOfTeam(ctx context.Context, teamID int64) (IDSet, error)

	// FilterActiveOrganizations returns the subset of orgs that are active.
	FilterActiveOrganizations(ctx context.Context, orgs IDSet) (IDSet, error)

	// FilterActiveTeams returns the subset of teams that are active and whose
	// owning organization is active.
	FilterActiveTeams(ctx context.Context, teams IDSet) (IDSet, error)
}
