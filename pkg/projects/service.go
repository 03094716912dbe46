package projects

import (
	"context"

	"github.com/platinummonkey/commander/pkg/identity"
	"github.com/platinummonkey/commander/pkg/lifecycle"
	"github.com/platinummonkey/commander/pkg/rbac"
	"github.com/platinummonkey/commander/pkg/wire"
)

// Service applies the authorization engine to project operations.
type Service struct {
	engine *rbac.Engine
	graph  identity.Graph
	store  *Store
	life   *lifecycle.Manager
}

// NewService wires the project service.
func NewService(engine *rbac.Engine, graph identity.Graph, store *Store, life *lifecycle.Manager) *Service {
	return &Service{engine: engine, graph: graph, store: store, life: life}
}

func (s *Service) object(p *Project) rbac.Object {
	return rbac.Object{Type: rbac.ResourceProject, ID: p.ID, Active: p.Active, OrgIDs: p.OrgIDs}
}

// List returns the projects visible to the actor through any organization or
// team path.
func (s *Service) List(ctx context.Context, actor rbac.ActorContext) ([]*Project, error) {
	filter, err := s.engine.ListFilter(ctx, actor, rbac.ResourceProject)
	if err != nil {
		return nil, err
	}
	if filter.All {
		return s.store.ListAll(ctx)
	}
	return s.store.ListByIDs(ctx, filter.IDs)
}

// ByIDs fetches the active projects in ids. Callers pass ID sets the engine
// has already narrowed.
func (s *Service) ByIDs(ctx context.Context, ids identity.IDSet) ([]*Project, error) {
	return s.store.ListByIDs(ctx, ids)
}

// Get returns one project, or the taxonomy error for the denial.
func (s *Service) Get(ctx context.Context, actor rbac.ActorContext, id int64) (*Project, error) {
	p, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.Gate(actor, p.Active); err != nil {
		return nil, err
	}
	if err := s.engine.Authorize(ctx, actor, rbac.ResourceProject, rbac.ActionRead, s.object(p)); err != nil {
		return nil, err
	}
	return p, nil
}

// Create provisions a project. The actor must administer every organization
// the project would attach to; a create naming no organizations is denied.
func (s *Service) Create(ctx context.Context, actor rbac.ActorContext, body map[string]interface{}) (*Project, error) {
	orgIDs := fieldIDList(body, "organizations")
	proposed := rbac.Object{Type: rbac.ResourceProject, OrgIDs: orgIDs}
	if err := s.engine.Authorize(ctx, actor, rbac.ResourceProject, rbac.ActionCreate, proposed); err != nil {
		return nil, err
	}

	name, _ := fieldString(body, "name")
	if name == "" {
		return nil, rbac.NewValidationError("name is required", "name")
	}

	p := &Project{Name: name, OrgIDs: orgIDs}
	p.Description, _ = fieldString(body, "description")
	p.LocalPath, _ = fieldString(body, "local_path")
	if err := s.store.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Update applies the body to a project after the mutation guard. The
// organization list is association-managed and rejected here as read-only.
func (s *Service) Update(ctx context.Context, actor rbac.ActorContext, id int64, body map[string]interface{}) (*Project, error) {
	p, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.Gate(actor, p.Active); err != nil {
		return nil, err
	}
	if err := s.engine.Authorize(ctx, actor, rbac.ResourceProject, rbac.ActionUpdate, s.object(p)); err != nil {
		return nil, err
	}
	if err := rbac.CheckChanges(actor, rbac.ResourceProject, wire.Diff(wireMap(p), body)); err != nil {
		return nil, err
	}

	if v, ok := fieldString(body, "name"); ok {
		p.Name = v
	}
	if v, ok := fieldString(body, "description"); ok {
		p.Description = v
	}
	if v, ok := fieldString(body, "local_path"); ok {
		p.LocalPath = v
	}

	if err := s.store.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Delete soft-deletes the project.
func (s *Service) Delete(ctx context.Context, actor rbac.ActorContext, id int64) error {
	p, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.life.Delete(ctx, actor, s.object(p))
}

// OrganizationIDsOf lists the project's organizations visible to the actor.
func (s *Service) OrganizationIDsOf(ctx context.Context, actor rbac.ActorContext, id int64) (identity.IDSet, error) {
	p, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	orgs, err := s.graph.FilterActiveOrganizations(ctx, identity.NewIDSet(p.OrgIDs...))
	if err != nil {
		return nil, err
	}
	return s.narrow(ctx, actor, rbac.ResourceOrganization, orgs)
}

// TeamIDsOf lists the project's teams visible to the actor.
func (s *Service) TeamIDsOf(ctx context.Context, actor rbac.ActorContext, id int64) (identity.IDSet, error) {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return nil, err
	}
	teams, err := s.store.TeamIDsOf(ctx, id)
	if err != nil {
		return nil, err
	}
	teams, err = s.graph.FilterActiveTeams(ctx, teams)
	if err != nil {
		return nil, err
	}
	return s.narrow(ctx, actor, rbac.ResourceTeam, teams)
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

// fieldIDList reads a JSON array of record IDs, tolerating the numeric types
// a decoded body may carry.
func fieldIDList(body map[string]interface{}, key string) []int64 {
	raw, ok := body[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]int64, 0, len(raw))
	for _, v := range raw {
		switch n := v.(type) {
		case float64:
			out = append(out, int64(n))
		case int64:
			out = append(out, n)
		case int:
			out = append(out, int64(n))
		}
	}
	return out
}
