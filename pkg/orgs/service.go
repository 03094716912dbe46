package orgs

import (
	"context"
	"fmt"

	"github.com/platinummonkey/commander/pkg/identity"
	"github.com/platinummonkey/commander/pkg/lifecycle"
	"github.com/platinummonkey/commander/pkg/rbac"
	"github.com/platinummonkey/commander/pkg/wire"
)

// Service applies the authorization engine to organization operations.
// Creating and hard-deleting organizations is reserved for superusers; the
// rule table denies those actions for everyone else.
type Service struct {
	engine *rbac.Engine
	graph  identity.Graph
	store  *Store
	life   *lifecycle.Manager
}

// NewService wires the organization service.
func NewService(engine *rbac.Engine, graph identity.Graph, store *Store, life *lifecycle.Manager) *Service {
	return &Service{engine: engine, graph: graph, store: store, life: life}
}

func (s *Service) object(o *identity.Organization) rbac.Object {
	return rbac.Object{Type: rbac.ResourceOrganization, ID: o.ID, Active: o.Active, OrgID: o.ID}
}

// List returns the organizations the actor administers or belongs to.
func (s *Service) List(ctx context.Context, actor rbac.ActorContext) ([]*identity.Organization, error) {
	filter, err := s.engine.ListFilter(ctx, actor, rbac.ResourceOrganization)
	if err != nil {
		return nil, err
	}
	if filter.All {
		return s.store.ListAll(ctx)
	}
	return s.store.ListByIDs(ctx, filter.IDs)
}

// ByIDs fetches the active organizations in ids. Callers pass ID sets the
// engine has already narrowed.
func (s *Service) ByIDs(ctx context.Context, ids identity.IDSet) ([]*identity.Organization, error) {
	return s.store.ListByIDs(ctx, ids)
}

// Get returns one organization, or the taxonomy error for the denial.
func (s *Service) Get(ctx context.Context, actor rbac.ActorContext, id int64) (*identity.Organization, error) {
	o, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.Gate(actor, o.Active); err != nil {
		return nil, err
	}
	if err := s.engine.Authorize(ctx, actor, rbac.ResourceOrganization, rbac.ActionRead, s.object(o)); err != nil {
		return nil, err
	}
	return o, nil
}

// Create provisions an organization. Only superusers pass the rule table.
func (s *Service) Create(ctx context.Context, actor rbac.ActorContext, body map[string]interface{}) (*identity.Organization, error) {
	if err := s.engine.Authorize(ctx, actor, rbac.ResourceOrganization, rbac.ActionCreate, rbac.Object{Type: rbac.ResourceOrganization}); err != nil {
		return nil, err
	}

	name, _ := fieldString(body, "name")
	if name == "" {
		return nil, rbac.NewValidationError("name is required", "name")
	}
	taken, err := s.store.NameTaken(ctx, name, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, rbac.NewValidationError("organization name already exists", "name")
	}

	o := &identity.Organization{Name: name}
	o.Description, _ = fieldString(body, "description")
	if err := s.store.Create(ctx, o); err != nil {
		return nil, err
	}
	if err := s.Record(ctx, actor, o.ID, "organization", o.ID, "create", fmt.Sprintf("created organization %q", o.Name)); err != nil {
		return nil, err
	}
	return o, nil
}

// Update applies the body to an organization after the mutation guard.
func (s *Service) Update(ctx context.Context, actor rbac.ActorContext, id int64, body map[string]interface{}) (*identity.Organization, error) {
	o, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.Gate(actor, o.Active); err != nil {
		return nil, err
	}
	if err := s.engine.Authorize(ctx, actor, rbac.ResourceOrganization, rbac.ActionUpdate, s.object(o)); err != nil {
		return nil, err
	}
	if err := rbac.CheckChanges(actor, rbac.ResourceOrganization, wire.Diff(wireMap(o), body)); err != nil {
		return nil, err
	}

	if name, ok := fieldString(body, "name"); ok && name != o.Name {
		taken, err := s.store.NameTaken(ctx, name, o.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, rbac.NewValidationError("organization name already exists", "name")
		}
		o.Name = name
	}
	if v, ok := fieldString(body, "description"); ok {
		o.Description = v
	}

	if err := s.store.Update(ctx, o); err != nil {
		return nil, err
	}
	if err := s.Record(ctx, actor, o.ID, "organization", o.ID, "update", fmt.Sprintf("updated organization %q", o.Name)); err != nil {
		return nil, err
	}
	return o, nil
}

// Delete soft-deletes the organization. Only superusers pass the rule table.
func (s *Service) Delete(ctx context.Context, actor rbac.ActorContext, id int64) error {
	o, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.life.Delete(ctx, actor, s.object(o)); err != nil {
		return err
	}
	return s.Record(ctx, actor, o.ID, "organization", o.ID, "delete", fmt.Sprintf("deactivated organization %q", o.Name))
}

// Associate adds an edge on one of the organization's relations. Only
// admins of the organization pass the rule table.
func (s *Service) Associate(ctx context.Context, actor rbac.ActorContext, id int64, rel lifecycle.Relation, childID int64) error {
	o, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.life.Associate(ctx, actor, s.object(o), rel, childID)
}

// Disassociate removes an edge; removing an absent edge succeeds.
func (s *Service) Disassociate(ctx context.Context, actor rbac.ActorContext, id int64, rel lifecycle.Relation, childID int64) error {
	o, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.life.Disassociate(ctx, actor, s.object(o), rel, childID)
}

// requireAdmin gates the per-organization sub-collections. Enumerating an
// organization's rosters is reserved for superusers and the organization's
// own admins; plain members read the organization itself, nothing below it.
func (s *Service) requireAdmin(ctx context.Context, actor rbac.ActorContext, id int64) (*identity.Organization, error) {
	o, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.Gate(actor, o.Active); err != nil {
		return nil, err
	}
	if err := s.engine.Authorize(ctx, actor, rbac.ResourceOrganization, rbac.ActionUpdate, s.object(o)); err != nil {
		return nil, err
	}
	return o, nil
}

// UserIDsOf lists the organization's members. Admin-only, like every
// organization sub-collection.
func (s *Service) UserIDsOf(ctx context.Context, actor rbac.ActorContext, id int64) (identity.IDSet, error) {
	if _, err := s.requireAdmin(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.graph.UsersOfOrganization(ctx, id)
}

// AdminIDsOf lists the organization's administrators.
func (s *Service) AdminIDsOf(ctx context.Context, actor rbac.ActorContext, id int64) (identity.IDSet, error) {
	if _, err := s.requireAdmin(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.store.AdminIDsOf(ctx, id)
}

// ProjectIDsOf lists the organization's projects.
func (s *Service) ProjectIDsOf(ctx context.Context, actor rbac.ActorContext, id int64) (identity.IDSet, error) {
	if _, err := s.requireAdmin(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.graph.ProjectsOfOrganization(ctx, id)
}

// InventoryIDsOf lists the organization's inventories.
func (s *Service) InventoryIDsOf(ctx context.Context, actor rbac.ActorContext, id int64) (identity.IDSet, error) {
	if _, err := s.requireAdmin(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.graph.InventoriesOfOrganization(ctx, id)
}

// TeamIDsOf lists the organization's teams.
func (s *Service) TeamIDsOf(ctx context.Context, actor rbac.ActorContext, id int64) (identity.IDSet, error) {
	if _, err := s.requireAdmin(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.graph.TeamsOfOrganization(ctx, id)
}

// TagsOf lists the organization's tags. The admin gate matches per-tag reads:
// an admin of the attached organization passes both.
func (s *Service) TagsOf(ctx context.Context, actor rbac.ActorContext, id int64) ([]*Tag, error) {
	if _, err := s.requireAdmin(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.store.TagsOfOrganization(ctx, id)
}

// GetTag returns one tag. Only an admin of an attached organization (or a
// superuser) may see it.
func (s *Service) GetTag(ctx context.Context, actor rbac.ActorContext, id int64) (*Tag, error) {
	t, err := s.store.GetTag(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.Gate(actor, t.Active); err != nil {
		return nil, err
	}
	obj, err := s.tagObject(ctx, t)
	if err != nil {
		return nil, err
	}
	if err := s.engine.Authorize(ctx, actor, rbac.ResourceTag, rbac.ActionRead, obj); err != nil {
		return nil, err
	}
	return t, nil
}

// CreateTag creates a tag attached to the organization.
func (s *Service) CreateTag(ctx context.Context, actor rbac.ActorContext, orgID int64, body map[string]interface{}) (*Tag, error) {
	o, err := s.store.Get(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.Gate(actor, o.Active); err != nil {
		return nil, err
	}
	proposed := rbac.Object{Type: rbac.ResourceTag, OrgIDs: []int64{orgID}}
	if err := s.engine.Authorize(ctx, actor, rbac.ResourceTag, rbac.ActionCreate, proposed); err != nil {
		return nil, err
	}

	name, _ := fieldString(body, "name")
	if name == "" {
		return nil, rbac.NewValidationError("name is required", "name")
	}
	t := &Tag{Name: name}
	if err := s.store.CreateTag(ctx, t); err != nil {
		return nil, err
	}
	if err := s.life.Associate(ctx, actor, s.object(o), lifecycle.OrgTags, t.ID); err != nil {
		return nil, err
	}
	if err := s.Record(ctx, actor, orgID, "tag", t.ID, "create", fmt.Sprintf("created tag %q", t.Name)); err != nil {
		return nil, err
	}
	return t, nil
}

// DeleteTag soft-deletes the tag.
func (s *Service) DeleteTag(ctx context.Context, actor rbac.ActorContext, id int64) error {
	t, err := s.store.GetTag(ctx, id)
	if err != nil {
		return err
	}
	obj, err := s.tagObject(ctx, t)
	if err != nil {
		return err
	}
	return s.life.Delete(ctx, actor, obj)
}

func (s *Service) tagObject(ctx context.Context, t *Tag) (rbac.Object, error) {
	orgIDs, err := s.store.OrganizationIDsOfTag(ctx, t.ID)
	if err != nil {
		return rbac.Object{}, err
	}
	return rbac.Object{Type: rbac.ResourceTag, ID: t.ID, Active: t.Active, OrgIDs: orgIDs}, nil
}

// AuditTrailOf lists the organization's audit entries. Only organization
// admins and superusers may read it.
func (s *Service) AuditTrailOf(ctx context.Context, actor rbac.ActorContext, id int64) ([]*AuditEntry, error) {
	o, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.Gate(actor, o.Active); err != nil {
		return nil, err
	}
	obj := rbac.Object{Type: rbac.ResourceAuditTrail, Active: true, OrgID: id}
	if err := s.engine.Authorize(ctx, actor, rbac.ResourceAuditTrail, rbac.ActionRead, obj); err != nil {
		return nil, err
	}
	return s.store.AuditTrailOf(ctx, id)
}

// Record appends an audit entry for a mutation that happened inside the
// organization. Failures are surfaced to the caller; the mutation itself has
// already been committed.
func (s *Service) Record(ctx context.Context, actor rbac.ActorContext, orgID int64, resourceType string, resourceID int64, action, detail string) error {
	e := &AuditEntry{
		OrganizationID: orgID,
		ResourceType:   resourceType,
		ResourceID:     resourceID,
		Action:         action,
		ActorID:        actor.UserID(),
		Detail:         detail,
	}
	return s.store.AppendAudit(ctx, e)
}

func fieldString(body map[string]interface{}, key string) (string, bool) {
	v, ok := body[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
