package users

import (
	"context"

	"github.com/platinummonkey/commander/pkg/identity"
	"github.com/platinummonkey/commander/pkg/lifecycle"
	"github.com/platinummonkey/commander/pkg/rbac"
	"github.com/platinummonkey/commander/pkg/wire"
)

// Service applies the authorization engine to user account operations.
type Service struct {
	engine *rbac.Engine
	graph  identity.Graph
	store  *Store
	life   *lifecycle.Manager
}

// NewService wires the user service.
func NewService(engine *rbac.Engine, graph identity.Graph, store *Store, life *lifecycle.Manager) *Service {
	return &Service{engine: engine, graph: graph, store: store, life: life}
}

func (s *Service) object(u *identity.User) rbac.Object {
	return rbac.Object{Type: rbac.ResourceUser, ID: u.ID, Active: u.IsActive, OwnerUserID: u.ID}
}

// List returns the accounts the actor may know about.
func (s *Service) List(ctx context.Context, actor rbac.ActorContext) ([]*identity.User, error) {
	filter, err := s.engine.ListFilter(ctx, actor, rbac.ResourceUser)
	if err != nil {
		return nil, err
	}
	if filter.All {
		return s.store.ListAll(ctx)
	}
	return s.store.ListByIDs(ctx, filter.IDs)
}

// ByIDs fetches the active accounts in ids. Callers pass ID sets the engine
// has already narrowed.
func (s *Service) ByIDs(ctx context.Context, ids identity.IDSet) ([]*identity.User, error) {
	return s.store.ListByIDs(ctx, ids)
}

// Get returns one account, or the taxonomy error for the denial.
func (s *Service) Get(ctx context.Context, actor rbac.ActorContext, id int64) (*identity.User, error) {
	u, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.Gate(actor, u.IsActive); err != nil {
		return nil, err
	}
	if err := s.engine.Authorize(ctx, actor, rbac.ResourceUser, rbac.ActionRead, s.object(u)); err != nil {
		return nil, err
	}
	return u, nil
}

// Me returns the calling actor's own account.
func (s *Service) Me(ctx context.Context, actor rbac.ActorContext) (*identity.User, error) {
	if !actor.Authenticated() {
		return nil, rbac.ErrUnauthenticated
	}
	return s.store.Get(ctx, actor.UserID())
}

// Create provisions an account from the request body.
func (s *Service) Create(ctx context.Context, actor rbac.ActorContext, body map[string]interface{}) (*identity.User, error) {
	if err := s.engine.Authorize(ctx, actor, rbac.ResourceUser, rbac.ActionCreate, rbac.Object{Type: rbac.ResourceUser}); err != nil {
		return nil, err
	}

	username, _ := fieldString(body, "username")
	if username == "" {
		return nil, rbac.NewValidationError("username is required", "username")
	}
	taken, err := s.store.UsernameTaken(ctx, username, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, rbac.NewValidationError("username already exists", "username")
	}

	u := &identity.User{Username: username}
	u.FirstName, _ = fieldString(body, "first_name")
	u.LastName, _ = fieldString(body, "last_name")
	u.Email, _ = fieldString(body, "email")

	if wantSuper, ok := body["is_superuser"].(bool); ok && wantSuper {
		if !actor.Superuser() {
			return nil, rbac.NewValidationError("field may not be changed", "is_superuser")
		}
		u.IsSuperuser = true
	}

	if password, ok := fieldString(body, "password"); ok && password != "" {
		hash, err := HashPassword(password)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = hash
	}

	if err := s.store.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Update applies the body to an existing account after the mutation guard.
func (s *Service) Update(ctx context.Context, actor rbac.ActorContext, id int64, body map[string]interface{}) (*identity.User, error) {
	u, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.Gate(actor, u.IsActive); err != nil {
		return nil, err
	}
	if err := s.engine.Authorize(ctx, actor, rbac.ResourceUser, rbac.ActionUpdate, s.object(u)); err != nil {
		return nil, err
	}
	if err := rbac.CheckChanges(actor, rbac.ResourceUser, wire.Diff(wireMap(u), body)); err != nil {
		return nil, err
	}

	if username, ok := fieldString(body, "username"); ok && username != u.Username {
		taken, err := s.store.UsernameTaken(ctx, username, u.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, rbac.NewValidationError("username already exists", "username")
		}
		u.Username = username
	}
	if v, ok := fieldString(body, "first_name"); ok {
		u.FirstName = v
	}
	if v, ok := fieldString(body, "last_name"); ok {
		u.LastName = v
	}
	if v, ok := fieldString(body, "email"); ok {
		u.Email = v
	}
	if password, ok := fieldString(body, "password"); ok && password != "" {
		hash, err := HashPassword(password)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = hash
	}
	// Guard already established only superusers reach these.
	if v, ok := body["is_superuser"].(bool); ok {
		u.IsSuperuser = v
	}
	if v, ok := body["is_active"].(bool); ok {
		u.IsActive = v
	}

	if err := s.store.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Delete soft-deletes the account.
func (s *Service) Delete(ctx context.Context, actor rbac.ActorContext, id int64) error {
	u, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.life.Delete(ctx, actor, s.object(u))
}

// requireReadable gates the per-user sub-collections.
func (s *Service) requireReadable(ctx context.Context, actor rbac.ActorContext, id int64) (*identity.User, error) {
	return s.Get(ctx, actor, id)
}

// OrganizationIDsOf lists the target user's organizations, narrowed to the
// organizations the actor could list anyway.
func (s *Service) OrganizationIDsOf(ctx context.Context, actor rbac.ActorContext, id int64) (identity.IDSet, error) {
	if _, err := s.requireReadable(ctx, actor, id); err != nil {
		return nil, err
	}
	member, err := s.graph.OrganizationsWithMember(ctx, id)
	if err != nil {
		return nil, err
	}
	member, err = s.graph.FilterActiveOrganizations(ctx, member)
	if err != nil {
		return nil, err
	}
	return s.narrowOrgs(ctx, actor, member)
}

// AdminOrganizationIDsOf lists organizations the target administers.
func (s *Service) AdminOrganizationIDsOf(ctx context.Context, actor rbac.ActorContext, id int64) (identity.IDSet, error) {
	if _, err := s.requireReadable(ctx, actor, id); err != nil {
		return nil, err
	}
	admin, err := s.graph.OrganizationsAdministeredBy(ctx, id)
	if err != nil {
		return nil, err
	}
	admin, err = s.graph.FilterActiveOrganizations(ctx, admin)
	if err != nil {
		return nil, err
	}
	return s.narrowOrgs(ctx, actor, admin)
}

// TeamIDsOf lists the target user's active teams visible to the actor.
func (s *Service) TeamIDsOf(ctx context.Context, actor rbac.ActorContext, id int64) (identity.IDSet, error) {
	if _, err := s.requireReadable(ctx, actor, id); err != nil {
		return nil, err
	}
	teams, err := s.graph.TeamsWithMember(ctx, id)
	if err != nil {
		return nil, err
	}
	teams, err = s.graph.FilterActiveTeams(ctx, teams)
	if err != nil {
		return nil, err
	}
	filter, err := s.engine.ListFilter(ctx, actor, rbac.ResourceTeam)
	if err != nil {
		return nil, err
	}
	if filter.All {
		return teams, nil
	}
	return teams.Intersect(filter.IDs), nil
}

// ProjectIDsOf lists the projects the target user can reach through their
// organizations and teams, narrowed to what the actor could list anyway.
func (s *Service) ProjectIDsOf(ctx context.Context, actor rbac.ActorContext, id int64) (identity.IDSet, error) {
	if _, err := s.requireReadable(ctx, actor, id); err != nil {
		return nil, err
	}
	admin, err := s.graph.OrganizationsAdministeredBy(ctx, id)
	if err != nil {
		return nil, err
	}
	member, err := s.graph.OrganizationsWithMember(ctx, id)
	if err != nil {
		return nil, err
	}
	orgs, err := s.graph.FilterActiveOrganizations(ctx, admin.Union(member))
	if err != nil {
		return nil, err
	}
	projects := identity.IDSet{}
	for _, orgID := range orgs.Sorted() {
		ids, err := s.graph.ProjectsOfOrganization(ctx, orgID)
		if err != nil {
			return nil, err
		}
		projects = projects.Union(ids)
	}
	teams, err := s.graph.TeamsWithMember(ctx, id)
	if err != nil {
		return nil, err
	}
	teams, err = s.graph.FilterActiveTeams(ctx, teams)
	if err != nil {
		return nil, err
	}
	for _, teamID := range teams.Sorted() {
		ids, err := s.graph.ProjectsOfTeam(ctx, teamID)
		if err != nil {
			return nil, err
		}
		projects = projects.Union(ids)
	}
	filter, err := s.engine.ListFilter(ctx, actor, rbac.ResourceProject)
	if err != nil {
		return nil, err
	}
	if filter.All {
		return projects, nil
	}
	return projects.Intersect(filter.IDs), nil
}

func (s *Service) narrowOrgs(ctx context.Context, actor rbac.ActorContext, orgs identity.IDSet) (identity.IDSet, error) {
	filter, err := s.engine.ListFilter(ctx, actor, rbac.ResourceOrganization)
	if err != nil {
		return nil, err
	}
	if filter.All {
		return orgs, nil
	}
	return orgs.Intersect(filter.IDs), nil
}

func fieldString(body map[string]interface{}, key string) (string, bool) {
	v, ok := body[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
