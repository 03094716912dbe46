package teams

import (
	"context"

	"github.com/platinummonkey/commander/pkg/identity"
	"github.com/platinummonkey/commander/pkg/lifecycle"
	"github.com/platinummonkey/commander/pkg/rbac"
	"github.com/platinummonkey/commander/pkg/wire"
)

// Service applies the authorization engine to team operations.
type Service struct {
	engine *rbac.Engine
	graph  identity.Graph
	store  *Store
	life   *lifecycle.Manager
}

// NewService wires the team service.
func NewService(engine *rbac.Engine, graph identity.Graph, store *Store, life *lifecycle.Manager) *Service {
	return &Service{engine: engine, graph: graph, store: store, life: life}
}

func (s *Service) object(t *identity.Team) rbac.Object {
	return rbac.Object{Type: rbac.ResourceTeam, ID: t.ID, Active: t.Active, OrgID: t.OrganizationID}
}

// List returns the teams the actor administers over or belongs to.
func (s *Service) List(ctx context.Context, actor rbac.ActorContext) ([]*identity.Team, error) {
	filter, err := s.engine.ListFilter(ctx, actor, rbac.ResourceTeam)
	if err != nil {
		return nil, err
	}
	if filter.All {
		return s.store.ListAll(ctx)
	}
	return s.store.ListByIDs(ctx, filter.IDs)
}

// ByIDs fetches the active teams in ids. Callers pass ID sets the engine has
// already narrowed.
func (s *Service) ByIDs(ctx context.Context, ids identity.IDSet) ([]*identity.Team, error) {
	return s.store.ListByIDs(ctx, ids)
}

// Get returns one team, or the taxonomy error for the denial.
func (s *Service) Get(ctx context.Context, actor rbac.ActorContext, id int64) (*identity.Team, error) {
	t, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.Gate(actor, t.Active); err != nil {
		return nil, err
	}
	if err := s.engine.Authorize(ctx, actor, rbac.ResourceTeam, rbac.ActionRead, s.object(t)); err != nil {
		return nil, err
	}
	return t, nil
}

// Create provisions a team inside an organization the actor administers.
func (s *Service) Create(ctx context.Context, actor rbac.ActorContext, body map[string]interface{}) (*identity.Team, error) {
	orgID, _ := fieldInt64(body, "organization")
	proposed := rbac.Object{Type: rbac.ResourceTeam, OrgID: orgID}
	if err := s.engine.Authorize(ctx, actor, rbac.ResourceTeam, rbac.ActionCreate, proposed); err != nil {
		return nil, err
	}

	name, _ := fieldString(body, "name")
	if name == "" {
		return nil, rbac.NewValidationError("name is required", "name")
	}
	taken, err := s.store.NameTakenInOrg(ctx, orgID, name, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, rbac.NewValidationError("team name already exists in this organization", "name")
	}

	t := &identity.Team{Name: name, OrganizationID: orgID}
	t.Description, _ = fieldString(body, "description")
	if err := s.store.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Update applies the body to a team after the mutation guard. Re-parenting a
// team trips the guard as a write-once violation.
func (s *Service) Update(ctx context.Context, actor rbac.ActorContext, id int64, body map[string]interface{}) (*identity.Team, error) {
	t, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.Gate(actor, t.Active); err != nil {
		return nil, err
	}
	if err := s.engine.Authorize(ctx, actor, rbac.ResourceTeam, rbac.ActionUpdate, s.object(t)); err != nil {
		return nil, err
	}
	if err := rbac.CheckChanges(actor, rbac.ResourceTeam, wire.Diff(wireMap(t), body)); err != nil {
		return nil, err
	}

	if name, ok := fieldString(body, "name"); ok && name != t.Name {
		taken, err := s.store.NameTakenInOrg(ctx, t.OrganizationID, name, t.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, rbac.NewValidationError("team name already exists in this organization", "name")
		}
		t.Name = name
	}
	if v, ok := fieldString(body, "description"); ok {
		t.Description = v
	}

	if err := s.store.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Delete soft-deletes the team, severing every right it conveys.
func (s *Service) Delete(ctx context.Context, actor rbac.ActorContext, id int64) error {
	t, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.life.Delete(ctx, actor, s.object(t))
}

// AddMember puts a user on the team.
func (s *Service) AddMember(ctx context.Context, actor rbac.ActorContext, id, userID int64) error {
	t, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.life.Associate(ctx, actor, s.object(t), lifecycle.TeamMembers, userID)
}

// RemoveMember takes a user off the team. Removing an absent member succeeds.
func (s *Service) RemoveMember(ctx context.Context, actor rbac.ActorContext, id, userID int64) error {
	t, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.life.Disassociate(ctx, actor, s.object(t), lifecycle.TeamMembers, userID)
}

// AddProject associates a project with the team.
func (s *Service) AddProject(ctx context.Context, actor rbac.ActorContext, id, projectID int64) error {
	t, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.life.Associate(ctx, actor, s.object(t), lifecycle.TeamProjects, projectID)
}

// RemoveProject drops a project association from the team.
func (s *Service) RemoveProject(ctx context.Context, actor rbac.ActorContext, id, projectID int64) error {
	t, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.life.Disassociate(ctx, actor, s.object(t), lifecycle.TeamProjects, projectID)
}

// MemberIDsOf lists the team's roster. The team must be readable; whoever can
// read a team can see everyone on it, so the roster is not cut down by the
// actor's global user visibility.
func (s *Service) MemberIDsOf(ctx context.Context, actor rbac.ActorContext, id int64) (identity.IDSet, error) {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.graph.UsersOfTeam(ctx, id)
}

// ProjectIDsOf lists the team's projects visible to the actor.
func (s *Service) ProjectIDsOf(ctx context.Context, actor rbac.ActorContext, id int64) (identity.IDSet, error) {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return nil, err
	}
	projects, err := s.graph.ProjectsOfTeam(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.narrow(ctx, actor, rbac.ResourceProject, projects)
}

// CredentialIDsOf lists the team's credentials. The team must be readable;
// per-credential visibility is the credential service's concern and team
// credentials are readable by exactly the people who can read the team's
// member list, so no further narrowing is applied.
func (s *Service) CredentialIDsOf(ctx context.Context, actor rbac.ActorContext, id int64) (identity.IDSet, error) {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.store.CredentialIDsOf(ctx, id)
}

// PermissionIDsOf lists the grants naming the team.
func (s *Service) PermissionIDsOf(ctx context.Context, actor rbac.ActorContext, id int64) (identity.IDSet, error) {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.store.PermissionIDsOf(ctx, id)
}

func (s *Service) narrow(ctx context.Context, actor rbac.ActorContext, resource rbac.Resource, ids identity.IDSet) (identity.IDSet, error) {
	filter, err := s.engine.ListFilter(ctx, actor, resource)
	if err != nil {
		return nil, err
	}
	if filter.All {
		return ids, nil
	}
	return ids.Intersect(filter.IDs), nil
}

func fieldString(body map[string]interface{}, key string) (string, bool) {
	v, ok := body[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func fieldInt64(body map[string]interface{}, key string) (int64, bool) {
	switch n := body[key].(type) {
	case float64:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	}
	return 0, false
}
