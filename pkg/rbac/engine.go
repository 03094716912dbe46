package rbac

import (
	"context"
	"fmt"

	"github.com/platinummonkey/commander/pkg/identity"
)

// Engine evaluates access decisions against the relationship graph.
type Engine struct {
	graph identity.Graph
	rules map[ruleKey]ruleFunc
}

type ruleKey struct {
	resource Resource
	action   Action
}

// A ruleFunc decides for an authenticated, non-superuser actor. The
// unauthenticated and superuser branches are handled before the table is
// consulted.
type ruleFunc func(ctx context.Context, e *Engine, actor ActorContext, obj Object) (bool, error)

// NewEngine creates an engine over the given relationship graph.
func NewEngine(graph identity.Graph) *Engine {
	return &Engine{graph: graph, rules: ruleTable()}
}

// Decide is the top-level facade: it resolves (actor, resource, action,
// target) into a Decision. The target may be the zero Object for actions
// that need none.
func (e *Engine) Decide(ctx context.Context, actor ActorContext, resource Resource, action Action, obj Object) (Decision, error) {
	if !actor.Authenticated() {
		return DenyUnauthenticated, nil
	}
	if actor.Superuser() {
		return Allow, nil
	}
	rule, ok := e.rules[ruleKey{resource, action}]
	if !ok {
		return DenyForbidden, fmt.Errorf("%w: %s on %s", ErrMethodNotSupported, action, resource)
	}
	allowed, err := rule(ctx, e, actor, obj)
	if err != nil {
		return DenyForbidden, err
	}
	if !allowed {
		return DenyForbidden, nil
	}
	return Allow, nil
}

// Authorize is Decide folded into the error taxonomy: nil on Allow,
// ErrUnauthenticated / ErrForbidden otherwise.
func (e *Engine) Authorize(ctx context.Context, actor ActorContext, resource Resource, action Action, obj Object) error {
	decision, err := e.Decide(ctx, actor, resource, action, obj)
	if err != nil {
		return err
	}
	switch decision {
	case Allow:
		return nil
	case DenyUnauthenticated:
		return ErrUnauthenticated
	default:
		return ErrForbidden
	}
}

// CanRead reports whether the actor may read the record.
func (e *Engine) CanRead(ctx context.Context, actor ActorContext, obj Object) (bool, error) {
	d, err := e.Decide(ctx, actor, obj.Type, ActionRead, obj)
	return d == Allow, err
}

// CanWrite reports whether the actor may apply the given mutating action to
// the record. For creates, obj describes the proposed record.
func (e *Engine) CanWrite(ctx context.Context, actor ActorContext, obj Object, action Action) (bool, error) {
	d, err := e.Decide(ctx, actor, obj.Type, action, obj)
	return d == Allow, err
}

// ListFilter produces the collection predicate for the resource: the set of
// record IDs whose existence the actor may know about.
func (e *Engine) ListFilter(ctx context.Context, actor ActorContext, resource Resource) (Filter, error) {
	if !actor.Authenticated() {
		return Filter{}, ErrUnauthenticated
	}
	if actor.Superuser() {
		return Filter{All: true}, nil
	}

	switch resource {
	case ResourceOrganization:
		admin, member, err := e.adminAndMemberOrgs(ctx, actor)
		if err != nil {
			return Filter{}, err
		}
		return Filter{IDs: admin.Union(member)}, nil

	case ResourceProject:
		return e.projectFilter(ctx, actor)

	case ResourceInventory:
		return e.inventoryFilter(ctx, actor)

	case ResourceTeam:
		admin, err := e.adminOrgs(ctx, actor)
		if err != nil {
			return Filter{}, err
		}
		visible := identity.IDSet{}
		for _, orgID := range admin.Sorted() {
			teams, err := e.graph.TeamsOfOrganization(ctx, orgID)
			if err != nil {
				return Filter{}, err
			}
			visible = visible.Union(teams)
		}
		mine, err := e.activeTeams(ctx, actor)
		if err != nil {
			return Filter{}, err
		}
		return Filter{IDs: visible.Union(mine)}, nil

	case ResourceUser:
		return e.userFilter(ctx, actor)
	}

	return Filter{}, fmt.Errorf("%w: list on %s", ErrMethodNotSupported, resource)
}

func (e *Engine) projectFilter(ctx context.Context, actor ActorContext) (Filter, error) {
	admin, member, err := e.adminAndMemberOrgs(ctx, actor)
	if err != nil {
		return Filter{}, err
	}
	visible := identity.IDSet{}
	for _, orgID := range admin.Union(member).Sorted() {
		projects, err := e.graph.ProjectsOfOrganization(ctx, orgID)
		if err != nil {
			return Filter{}, err
		}
		visible = visible.Union(projects)
	}
	teams, err := e.activeTeams(ctx, actor)
	if err != nil {
		return Filter{}, err
	}
	for _, teamID := range teams.Sorted() {
		projects, err := e.graph.ProjectsOfTeam(ctx, teamID)
		if err != nil {
			return Filter{}, err
		}
		visible = visible.Union(projects)
	}
	return Filter{IDs: visible}, nil
}

func (e *Engine) inventoryFilter(ctx context.Context, actor ActorContext) (Filter, error) {
	admin, err := e.adminOrgs(ctx, actor)
	if err != nil {
		return Filter{}, err
	}
	visible := identity.IDSet{}
	for _, orgID := range admin.Sorted() {
		invs, err := e.graph.InventoriesOfOrganization(ctx, orgID)
		if err != nil {
			return Filter{}, err
		}
		visible = visible.Union(invs)
	}
	granted, err := e.graph.ReadGrantsForUser(ctx, actor.UserID())
	if err != nil {
		return Filter{}, err
	}
	visible = visible.Union(granted)
	teams, err := e.activeTeams(ctx, actor)
	if err != nil {
		return Filter{}, err
	}
	for _, teamID := range teams.Sorted() {
		granted, err := e.graph.ReadGrantsForTeam(ctx, teamID)
		if err != nil {
			return Filter{}, err
		}
		visible = visible.Union(granted)
	}
	return Filter{IDs: visible}, nil
}

func (e *Engine) userFilter(ctx context.Context, actor ActorContext) (Filter, error) {
	visible := identity.NewIDSet(actor.UserID())
	admin, err := e.adminOrgs(ctx, actor)
	if err != nil {
		return Filter{}, err
	}
	for _, orgID := range admin.Sorted() {
		users, err := e.graph.UsersOfOrganization(ctx, orgID)
		if err != nil {
			return Filter{}, err
		}
		visible = visible.Union(users)
	}
	teams, err := e.activeTeams(ctx, actor)
	if err != nil {
		return Filter{}, err
	}
	for _, teamID := range teams.Sorted() {
		users, err := e.graph.UsersOfTeam(ctx, teamID)
		if err != nil {
			return Filter{}, err
		}
		visible = visible.Union(users)
	}
	return Filter{IDs: visible}, nil
}

// adminOrgs returns the active organizations the actor administers.
// Deactivated organizations grant no membership-derived rights.
func (e *Engine) adminOrgs(ctx context.Context, actor ActorContext) (identity.IDSet, error) {
	orgs, err := e.graph.OrganizationsAdministeredBy(ctx, actor.UserID())
	if err != nil {
		return nil, err
	}
	return e.graph.FilterActiveOrganizations(ctx, orgs)
}

// memberOrgs returns the active organizations the actor is a member of.
func (e *Engine) memberOrgs(ctx context.Context, actor ActorContext) (identity.IDSet, error) {
	orgs, err := e.graph.OrganizationsWithMember(ctx, actor.UserID())
	if err != nil {
		return nil, err
	}
	return e.graph.FilterActiveOrganizations(ctx, orgs)
}

func (e *Engine) adminAndMemberOrgs(ctx context.Context, actor ActorContext) (identity.IDSet, identity.IDSet, error) {
	admin, err := e.adminOrgs(ctx, actor)
	if err != nil {
		return nil, nil, err
	}
	member, err := e.memberOrgs(ctx, actor)
	if err != nil {
		return nil, nil, err
	}
	return admin, member, nil
}

// activeTeams returns the actor's teams, excluding teams that are inactive
// or owned by an inactive organization.
func (e *Engine) activeTeams(ctx context.Context, actor ActorContext) (identity.IDSet, error) {
	teams, err := e.graph.TeamsWithMember(ctx, actor.UserID())
	if err != nil {
		return nil, err
	}
	return e.graph.FilterActiveTeams(ctx, teams)
}

// adminOverUser reports whether the actor administers an active organization
// that has the given user in its member set.
func (e *Engine) adminOverUser(ctx context.Context, actor ActorContext, userID int64) (bool, error) {
	admin, err := e.adminOrgs(ctx, actor)
	if err != nil {
		return false, err
	}
	for _, orgID := range admin.Sorted() {
		users, err := e.graph.UsersOfOrganization(ctx, orgID)
		if err != nil {
			return false, err
		}
		if users.Contains(userID) {
			return true, nil
		}
	}
	return false, nil
}

// adminOverTeam reports whether the actor administers the active
// organization owning the given team.
func (e *Engine) adminOverTeam(ctx context.Context, actor ActorContext, teamID int64) (bool, error) {
	admin, err := e.adminOrgs(ctx, actor)
	if err != nil {
		return false, err
	}
	for _, orgID := range admin.Sorted() {
		teams, err := e.graph.TeamsOfOrganization(ctx, orgID)
		if err != nil {
			return false, err
		}
		if teams.Contains(teamID) {
			return true, nil
		}
	}
	return false, nil
}
