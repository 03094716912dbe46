package inventory

import (
	"context"
	"encoding/json"
	"time"

	"github.com/platinummonkey/commander/pkg/identity"
	"github.com/platinummonkey/commander/pkg/lifecycle"
	"github.com/platinummonkey/commander/pkg/rbac"
	"github.com/platinummonkey/commander/pkg/wire"
)

// Service applies the authorization engine to inventories and everything
// scoped under them.
type Service struct {
	engine *rbac.Engine
	graph  identity.Graph
	store  *Store
	life   *lifecycle.Manager
}

// NewService wires the inventory service.
func NewService(engine *rbac.Engine, graph identity.Graph, store *Store, life *lifecycle.Manager) *Service {
	return &Service{engine: engine, graph: graph, store: store, life: life}
}

func (s *Service) inventoryObject(inv *Inventory) rbac.Object {
	return rbac.Object{
		Type:   rbac.ResourceInventory,
		ID:     inv.ID,
		Active: inv.Active,
		OrgID:  inv.OrganizationID,
	}
}

// scopedObject builds the authorization view of a record living inside an
// inventory: hosts, groups, variable data and permission grants all evaluate
// against the governing inventory and its owning organization.
func (s *Service) scopedObject(ctx context.Context, typ rbac.Resource, id int64, active bool, invID int64) (rbac.Object, *Inventory, error) {
	inv, err := s.store.GetInventory(ctx, invID)
	if err != nil {
		return rbac.Object{}, nil, err
	}
	return rbac.Object{
		Type:        typ,
		ID:          id,
		Active:      active,
		OrgID:       inv.OrganizationID,
		InventoryID: invID,
	}, inv, nil
}

// List returns the inventories visible to the actor.
func (s *Service) List(ctx context.Context, actor rbac.ActorContext) ([]*Inventory, error) {
	filter, err := s.engine.ListFilter(ctx, actor, rbac.ResourceInventory)
	if err != nil {
		return nil, err
	}
	if filter.All {
		return s.store.ListAllInventories(ctx)
	}
	return s.store.ListInventoriesByIDs(ctx, filter.IDs)
}

// Get returns one inventory, or the taxonomy error for the denial.
func (s *Service) Get(ctx context.Context, actor rbac.ActorContext, id int64) (*Inventory, error) {
	inv, err := s.store.GetInventory(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.Gate(actor, inv.Active); err != nil {
		return nil, err
	}
	if err := s.engine.Authorize(ctx, actor, rbac.ResourceInventory, rbac.ActionRead, s.inventoryObject(inv)); err != nil {
		return nil, err
	}
	return inv, nil
}

// Create provisions an inventory inside an organization the actor administers.
func (s *Service) Create(ctx context.Context, actor rbac.ActorContext, body map[string]interface{}) (*Inventory, error) {
	orgID, _ := fieldInt64(body, "organization")
	proposed := rbac.Object{Type: rbac.ResourceInventory, OrgID: orgID}
	if err := s.engine.Authorize(ctx, actor, rbac.ResourceInventory, rbac.ActionCreate, proposed); err != nil {
		return nil, err
	}

	name, _ := fieldString(body, "name")
	if name == "" {
		return nil, rbac.NewValidationError("name is required", "name")
	}
	taken, err := s.store.InventoryNameTakenInOrg(ctx, orgID, name, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, rbac.NewValidationError("inventory name already exists in this organization", "name")
	}

	inv := &Inventory{Name: name, OrganizationID: orgID}
	inv.Description, _ = fieldString(body, "description")
	if err := s.store.CreateInventory(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// Update applies the body to an inventory after the mutation guard.
func (s *Service) Update(ctx context.Context, actor rbac.ActorContext, id int64, body map[string]interface{}) (*Inventory, error) {
	inv, err := s.store.GetInventory(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.Gate(actor, inv.Active); err != nil {
		return nil, err
	}
	if err := s.engine.Authorize(ctx, actor, rbac.ResourceInventory, rbac.ActionUpdate, s.inventoryObject(inv)); err != nil {
		return nil, err
	}
	if err := rbac.CheckChanges(actor, rbac.ResourceInventory, wire.Diff(inventoryWireMap(inv), body)); err != nil {
		return nil, err
	}

	if name, ok := fieldString(body, "name"); ok && name != inv.Name {
		taken, err := s.store.InventoryNameTakenInOrg(ctx, inv.OrganizationID, name, inv.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, rbac.NewValidationError("inventory name already exists in this organization", "name")
		}
		inv.Name = name
	}
	if v, ok := fieldString(body, "description"); ok {
		inv.Description = v
	}

	if err := s.store.UpdateInventory(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// Delete soft-deletes the inventory.
func (s *Service) Delete(ctx context.Context, actor rbac.ActorContext, id int64) error {
	inv, err := s.store.GetInventory(ctx, id)
	if err != nil {
		return err
	}
	return s.life.Delete(ctx, actor, s.inventoryObject(inv))
}

// HostsOf lists the inventory's hosts. Host visibility is exactly inventory
// visibility, so readability of the parent admits the whole list.
func (s *Service) HostsOf(ctx context.Context, actor rbac.ActorContext, id int64) ([]*Host, error) {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.store.HostsOfInventory(ctx, id)
}

// GroupsOf lists the inventory's groups.
func (s *Service) GroupsOf(ctx context.Context, actor rbac.ActorContext, id int64) ([]*Group, error) {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.store.GroupsOfInventory(ctx, id)
}

// PermissionsOf lists the inventory's grants, narrowed to the ones the actor
// may read (admins see all, subjects see their own).
func (s *Service) PermissionsOf(ctx context.Context, actor rbac.ActorContext, id int64) ([]*Permission, error) {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return nil, err
	}
	all, err := s.store.PermissionsOfInventory(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make([]*Permission, 0, len(all))
	for _, p := range all {
		obj, _, err := s.permissionObject(ctx, p)
		if err != nil {
			return nil, err
		}
		ok, err := s.engine.CanRead(ctx, actor, obj)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// GetHost returns one host, or the taxonomy error for the denial.
func (s *Service) GetHost(ctx context.Context, actor rbac.ActorContext, id int64) (*Host, error) {
	h, err := s.store.GetHost(ctx, id)
	if err != nil {
		return nil, err
	}
	obj, inv, err := s.scopedObject(ctx, rbac.ResourceHost, h.ID, h.Active, h.InventoryID)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.Gate(actor, h.Active && inv.Active); err != nil {
		return nil, err
	}
	if err := s.engine.Authorize(ctx, actor, rbac.ResourceHost, rbac.ActionRead, obj); err != nil {
		return nil, err
	}
	return h, nil
}

// CreateHost provisions a host inside an inventory whose organization the
// actor administers.
func (s *Service) CreateHost(ctx context.Context, actor rbac.ActorContext, body map[string]interface{}) (*Host, error) {
	invID, ok := fieldInt64(body, "inventory")
	if !ok {
		return nil, rbac.NewValidationError("inventory is required", "inventory")
	}
	obj, inv, err := s.scopedObject(ctx, rbac.ResourceHost, 0, true, invID)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.Gate(actor, inv.Active); err != nil {
		return nil, err
	}
	if err := s.engine.Authorize(ctx, actor, rbac.ResourceHost, rbac.ActionCreate, obj); err != nil {
		return nil, err
	}

	name, _ := fieldString(body, "name")
	if name == "" {
		return nil, rbac.NewValidationError("name is required", "name")
	}
	taken, err := s.store.HostNameTaken(ctx, invID, name, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, rbac.NewValidationError("host name already exists in this inventory", "name")
	}

	h := &Host{Name: name, InventoryID: invID}
	h.Description, _ = fieldString(body, "description")
	if err := s.store.CreateHost(ctx, h); err != nil {
		return nil, err
	}
	return h, nil
}

// UpdateHost applies the body to a host after the mutation guard.
func (s *Service) UpdateHost(ctx context.Context, actor rbac.ActorContext, id int64, body map[string]interface{}) (*Host, error) {
	h, err := s.store.GetHost(ctx, id)
	if err != nil {
		return nil, err
	}
	obj, inv, err := s.scopedObject(ctx, rbac.ResourceHost, h.ID, h.Active, h.InventoryID)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.Gate(actor, h.Active && inv.Active); err != nil {
		return nil, err
	}
	if err := s.engine.Authorize(ctx, actor, rbac.ResourceHost, rbac.ActionUpdate, obj); err != nil {
		return nil, err
	}
	if err := rbac.CheckChanges(actor, rbac.ResourceHost, wire.Diff(hostWireMap(h), body)); err != nil {
		return nil, err
	}

	if name, ok := fieldString(body, "name"); ok && name != h.Name {
		taken, err := s.store.HostNameTaken(ctx, h.InventoryID, name, h.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, rbac.NewValidationError("host name already exists in this inventory", "name")
		}
		h.Name = name
	}
	if v, ok := fieldString(body, "description"); ok {
		h.Description = v
	}

	if err := s.store.UpdateHost(ctx, h); err != nil {
		return nil, err
	}
	return h, nil
}

// DeleteHost soft-deletes the host.
func (s *Service) DeleteHost(ctx context.Context, actor rbac.ActorContext, id int64) error {
	h, err := s.store.GetHost(ctx, id)
	if err != nil {
		return err
	}
	obj, _, err := s.scopedObject(ctx, rbac.ResourceHost, h.ID, h.Active, h.InventoryID)
	if err != nil {
		return err
	}
	return s.life.Delete(ctx, actor, obj)
}

// GroupIDsOfHost lists the groups a host belongs to.
func (s *Service) GroupIDsOfHost(ctx context.Context, actor rbac.ActorContext, id int64) (identity.IDSet, error) {
	if _, err := s.GetHost(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.store.GroupIDsOfHost(ctx, id)
}

// GetGroup returns one group, or the taxonomy error for the denial.
func (s *Service) GetGroup(ctx context.Context, actor rbac.ActorContext, id int64) (*Group, error) {
	g, err := s.store.GetGroup(ctx, id)
	if err != nil {
		return nil, err
	}
	obj, inv, err := s.scopedObject(ctx, rbac.ResourceGroup, g.ID, g.Active, g.InventoryID)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.Gate(actor, g.Active && inv.Active); err != nil {
		return nil, err
	}
	if err := s.engine.Authorize(ctx, actor, rbac.ResourceGroup, rbac.ActionRead, obj); err != nil {
		return nil, err
	}
	return g, nil
}

// CreateGroup provisions a group inside an inventory whose organization the
// actor administers.
func (s *Service) CreateGroup(ctx context.Context, actor rbac.ActorContext, body map[string]interface{}) (*Group, error) {
	invID, ok := fieldInt64(body, "inventory")
	if !ok {
		return nil, rbac.NewValidationError("inventory is required", "inventory")
	}
	obj, inv, err := s.scopedObject(ctx, rbac.ResourceGroup, 0, true, invID)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.Gate(actor, inv.Active); err != nil {
		return nil, err
	}
	if err := s.engine.Authorize(ctx, actor, rbac.ResourceGroup, rbac.ActionCreate, obj); err != nil {
		return nil, err
	}

	name, _ := fieldString(body, "name")
	if name == "" {
		return nil, rbac.NewValidationError("name is required", "name")
	}
	taken, err := s.store.GroupNameTaken(ctx, invID, name, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, rbac.NewValidationError("group name already exists in this inventory", "name")
	}

	g := &Group{Name: name, InventoryID: invID}
	g.Description, _ = fieldString(body, "description")
	if err := s.store.CreateGroup(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

// UpdateGroup applies the body to a group after the mutation guard.
func (s *Service) UpdateGroup(ctx context.Context, actor rbac.ActorContext, id int64, body map[string]interface{}) (*Group, error) {
	g, err := s.store.GetGroup(ctx, id)
	if err != nil {
		return nil, err
	}
	obj, inv, err := s.scopedObject(ctx, rbac.ResourceGroup, g.ID, g.Active, g.InventoryID)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.Gate(actor, g.Active && inv.Active); err != nil {
		return nil, err
	}
	if err := s.engine.Authorize(ctx, actor, rbac.ResourceGroup, rbac.ActionUpdate, obj); err != nil {
		return nil, err
	}
	if err := rbac.CheckChanges(actor, rbac.ResourceGroup, wire.Diff(groupWireMap(g), body)); err != nil {
		return nil, err
	}

	if name, ok := fieldString(body, "name"); ok && name != g.Name {
		taken, err := s.store.GroupNameTaken(ctx, g.InventoryID, name, g.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, rbac.NewValidationError("group name already exists in this inventory", "name")
		}
		g.Name = name
	}
	if v, ok := fieldString(body, "description"); ok {
		g.Description = v
	}

	if err := s.store.UpdateGroup(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

// DeleteGroup soft-deletes the group.
func (s *Service) DeleteGroup(ctx context.Context, actor rbac.ActorContext, id int64) error {
	g, err := s.store.GetGroup(ctx, id)
	if err != nil {
		return err
	}
	obj, _, err := s.scopedObject(ctx, rbac.ResourceGroup, g.ID, g.Active, g.InventoryID)
	if err != nil {
		return err
	}
	return s.life.Delete(ctx, actor, obj)
}

// AddHostToGroup puts a host in the group. Both must live in the same
// inventory.
func (s *Service) AddHostToGroup(ctx context.Context, actor rbac.ActorContext, groupID, hostID int64) error {
	g, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return err
	}
	h, err := s.store.GetHost(ctx, hostID)
	if err != nil {
		return err
	}
	if h.InventoryID != g.InventoryID {
		return rbac.NewValidationError("host and group belong to different inventories", "host")
	}
	obj, _, err := s.scopedObject(ctx, rbac.ResourceGroup, g.ID, g.Active, g.InventoryID)
	if err != nil {
		return err
	}
	return s.life.Associate(ctx, actor, obj, lifecycle.GroupHosts, hostID)
}

// RemoveHostFromGroup takes a host out of the group. Removing an absent host
// succeeds.
func (s *Service) RemoveHostFromGroup(ctx context.Context, actor rbac.ActorContext, groupID, hostID int64) error {
	g, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return err
	}
	obj, _, err := s.scopedObject(ctx, rbac.ResourceGroup, g.ID, g.Active, g.InventoryID)
	if err != nil {
		return err
	}
	return s.life.Disassociate(ctx, actor, obj, lifecycle.GroupHosts, hostID)
}

// AddChildGroup nests child under the group. Self-nesting and edges that
// would close a loop are rejected.
func (s *Service) AddChildGroup(ctx context.Context, actor rbac.ActorContext, groupID, childID int64) error {
	if groupID == childID {
		return rbac.NewValidationError("a group cannot contain itself", "group")
	}
	g, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return err
	}
	child, err := s.store.GetGroup(ctx, childID)
	if err != nil {
		return err
	}
	if child.InventoryID != g.InventoryID {
		return rbac.NewValidationError("groups belong to different inventories", "group")
	}
	looped, err := s.reachable(ctx, childID, groupID)
	if err != nil {
		return err
	}
	if looped {
		return rbac.NewValidationError("nesting would create a cycle", "group")
	}
	obj, _, err := s.scopedObject(ctx, rbac.ResourceGroup, g.ID, g.Active, g.InventoryID)
	if err != nil {
		return err
	}
	return s.life.Associate(ctx, actor, obj, lifecycle.GroupChilds, childID)
}

// reachable reports whether target sits anywhere in the child subtree
// rooted at from.
func (s *Service) reachable(ctx context.Context, from, target int64) (bool, error) {
	seen := identity.NewIDSet(from)
	queue := []int64{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == target {
			return true, nil
		}
		children, err := s.store.ChildIDsOfGroup(ctx, cur)
		if err != nil {
			return false, err
		}
		for _, id := range children.Sorted() {
			if !seen.Contains(id) {
				seen.Add(id)
				queue = append(queue, id)
			}
		}
	}
	return false, nil
}

// RemoveChildGroup unnests child from the group.
func (s *Service) RemoveChildGroup(ctx context.Context, actor rbac.ActorContext, groupID, childID int64) error {
	g, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return err
	}
	obj, _, err := s.scopedObject(ctx, rbac.ResourceGroup, g.ID, g.Active, g.InventoryID)
	if err != nil {
		return err
	}
	return s.life.Disassociate(ctx, actor, obj, lifecycle.GroupChilds, childID)
}

// HostIDsOfGroup lists the hosts directly in the group.
func (s *Service) HostIDsOfGroup(ctx context.Context, actor rbac.ActorContext, id int64) (identity.IDSet, error) {
	if _, err := s.GetGroup(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.store.HostIDsOfGroup(ctx, id)
}

// ChildIDsOfGroup lists the group's direct children.
func (s *Service) ChildIDsOfGroup(ctx context.Context, actor rbac.ActorContext, id int64) (identity.IDSet, error) {
	if _, err := s.GetGroup(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.store.ChildIDsOfGroup(ctx, id)
}

// HostVariableData returns the variable blob of a host, creating an empty one
// on first read. Reading follows host readability.
func (s *Service) HostVariableData(ctx context.Context, actor rbac.ActorContext, hostID int64) (*VariableData, error) {
	h, err := s.GetHost(ctx, actor, hostID)
	if err != nil {
		return nil, err
	}
	return s.store.GetVariableData(ctx, &h.ID, nil)
}

// GroupVariableData returns the variable blob of a group.
func (s *Service) GroupVariableData(ctx context.Context, actor rbac.ActorContext, groupID int64) (*VariableData, error) {
	g, err := s.GetGroup(ctx, actor, groupID)
	if err != nil {
		return nil, err
	}
	return s.store.GetVariableData(ctx, nil, &g.ID)
}

// UpdateHostVariableData replaces the host's variable blob. Writing requires
// administering the owning organization.
func (s *Service) UpdateHostVariableData(ctx context.Context, actor rbac.ActorContext, hostID int64, data map[string]interface{}) (*VariableData, error) {
	h, err := s.store.GetHost(ctx, hostID)
	if err != nil {
		return nil, err
	}
	obj, inv, err := s.scopedObject(ctx, rbac.ResourceVariableData, 0, true, h.InventoryID)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.Gate(actor, h.Active && inv.Active); err != nil {
		return nil, err
	}
	if err := s.engine.Authorize(ctx, actor, rbac.ResourceVariableData, rbac.ActionUpdate, obj); err != nil {
		return nil, err
	}
	return s.writeVariableData(ctx, &h.ID, nil, data)
}

// UpdateGroupVariableData replaces the group's variable blob.
func (s *Service) UpdateGroupVariableData(ctx context.Context, actor rbac.ActorContext, groupID int64, data map[string]interface{}) (*VariableData, error) {
	g, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	obj, inv, err := s.scopedObject(ctx, rbac.ResourceVariableData, 0, true, g.InventoryID)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.Gate(actor, g.Active && inv.Active); err != nil {
		return nil, err
	}
	if err := s.engine.Authorize(ctx, actor, rbac.ResourceVariableData, rbac.ActionUpdate, obj); err != nil {
		return nil, err
	}
	return s.writeVariableData(ctx, nil, &g.ID, data)
}

func (s *Service) writeVariableData(ctx context.Context, hostID, groupID *int64, data map[string]interface{}) (*VariableData, error) {
	blob, err := json.Marshal(data)
	if err != nil {
		return nil, rbac.NewValidationError("variable data must be a JSON object", "data")
	}
	v, err := s.store.GetVariableData(ctx, hostID, groupID)
	if err != nil {
		return nil, err
	}
	v.Data = string(blob)
	if err := s.store.UpdateVariableData(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *Service) permissionObject(ctx context.Context, p *Permission) (rbac.Object, *Inventory, error) {
	obj, inv, err := s.scopedObject(ctx, rbac.ResourcePermission, p.ID, p.Active, p.InventoryID)
	if err != nil {
		return rbac.Object{}, nil, err
	}
	userID, teamID := p.Subject()
	obj.OwnerUserID = userID
	obj.OwnerTeamID = teamID
	return obj, inv, nil
}

// GetPermission returns one grant, or the taxonomy error for the denial.
func (s *Service) GetPermission(ctx context.Context, actor rbac.ActorContext, id int64) (*Permission, error) {
	p, err := s.store.GetPermission(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.Gate(actor, p.Active); err != nil {
		return nil, err
	}
	obj, _, err := s.permissionObject(ctx, p)
	if err != nil {
		return nil, err
	}
	if err := s.engine.Authorize(ctx, actor, rbac.ResourcePermission, rbac.ActionRead, obj); err != nil {
		return nil, err
	}
	return p, nil
}

// CreatePermission grants read visibility on an inventory to exactly one of a
// user or a team.
func (s *Service) CreatePermission(ctx context.Context, actor rbac.ActorContext, body map[string]interface{}) (*Permission, error) {
	invID, ok := fieldInt64(body, "inventory")
	if !ok {
		return nil, rbac.NewValidationError("inventory is required", "inventory")
	}
	obj, inv, err := s.scopedObject(ctx, rbac.ResourcePermission, 0, true, invID)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.Gate(actor, inv.Active); err != nil {
		return nil, err
	}
	if err := s.engine.Authorize(ctx, actor, rbac.ResourcePermission, rbac.ActionCreate, obj); err != nil {
		return nil, err
	}

	userID, hasUser := fieldInt64(body, "user")
	teamID, hasTeam := fieldInt64(body, "team")
	if hasUser == hasTeam {
		return nil, rbac.NewValidationError("exactly one of user or team must be set", "user", "team")
	}

	kind := string(identity.PermissionRead)
	if v, ok := fieldString(body, "permission_type"); ok {
		kind = v
	}
	if kind != string(identity.PermissionRead) {
		return nil, rbac.NewValidationError("unknown permission type", "permission_type")
	}

	p := &Permission{}
	p.InventoryID = invID
	p.Kind = identity.PermissionKind(kind)
	if hasUser {
		p.UserID = &userID
	} else {
		p.TeamID = &teamID
	}
	if err := s.store.CreatePermission(ctx, p); err != nil {
		return nil, err
	}
	// The grant row changes who can read the inventory; cached edges must go
	// the same way revocation drops them.
	s.life.InvalidateEdges(ctx)
	return p, nil
}

// UpdatePermission applies the body to a grant after the mutation guard. The
// subject and inventory are write-once, leaving only the kind mutable.
func (s *Service) UpdatePermission(ctx context.Context, actor rbac.ActorContext, id int64, body map[string]interface{}) (*Permission, error) {
	p, err := s.store.GetPermission(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.Gate(actor, p.Active); err != nil {
		return nil, err
	}
	obj, _, err := s.permissionObject(ctx, p)
	if err != nil {
		return nil, err
	}
	if err := s.engine.Authorize(ctx, actor, rbac.ResourcePermission, rbac.ActionUpdate, obj); err != nil {
		return nil, err
	}
	if err := rbac.CheckChanges(actor, rbac.ResourcePermission, wire.Diff(permissionWireMap(p), body)); err != nil {
		return nil, err
	}

	if v, ok := fieldString(body, "permission_type"); ok {
		if v != string(identity.PermissionRead) {
			return nil, rbac.NewValidationError("unknown permission type", "permission_type")
		}
		p.Kind = identity.PermissionKind(v)
	}

	if err := s.store.UpdatePermission(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// DeletePermission revokes the grant by soft-deleting it.
func (s *Service) DeletePermission(ctx context.Context, actor rbac.ActorContext, id int64) error {
	p, err := s.store.GetPermission(ctx, id)
	if err != nil {
		return err
	}
	obj, _, err := s.permissionObject(ctx, p)
	if err != nil {
		return err
	}
	return s.life.Delete(ctx, actor, obj)
}

// PermissionsByIDs fetches the active grants in ids. Callers pass ID sets
// whose visibility is already established.
func (s *Service) PermissionsByIDs(ctx context.Context, ids identity.IDSet) ([]*Permission, error) {
	out := make([]*Permission, 0, ids.Len())
	for _, id := range ids.Sorted() {
		p, err := s.store.GetPermission(ctx, id)
		if err == rbac.ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		if p.Active {
			out = append(out, p)
		}
	}
	return out, nil
}

// InventoriesByIDs fetches the active inventories in ids.
func (s *Service) InventoriesByIDs(ctx context.Context, ids identity.IDSet) ([]*Inventory, error) {
	return s.store.ListInventoriesByIDs(ctx, ids)
}

// HostsByIDs fetches the active hosts in ids.
func (s *Service) HostsByIDs(ctx context.Context, ids identity.IDSet) ([]*Host, error) {
	out := make([]*Host, 0, ids.Len())
	for _, id := range ids.Sorted() {
		h, err := s.store.GetHost(ctx, id)
		if err == rbac.ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		if h.Active {
			out = append(out, h)
		}
	}
	return out, nil
}

// GroupsByIDs fetches the active groups in ids.
func (s *Service) GroupsByIDs(ctx context.Context, ids identity.IDSet) ([]*Group, error) {
	out := make([]*Group, 0, ids.Len())
	for _, id := range ids.Sorted() {
		g, err := s.store.GetGroup(ctx, id)
		if err == rbac.ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		if g.Active {
			out = append(out, g)
		}
	}
	return out, nil
}

// PermissionIDsOfUser lists the active grants naming the user.
func (s *Service) PermissionIDsOfUser(ctx context.Context, userID int64) (identity.IDSet, error) {
	return s.store.PermissionIDsOfUser(ctx, userID)
}

func permissionWireMap(p *Permission) map[string]interface{} {
	userID, teamID := p.Subject()
	return map[string]interface{}{
		"id":              p.ID,
		"url":             wire.DetailURL(rbac.ResourcePermission, p.ID),
		"user":            userID,
		"team":            teamID,
		"inventory":       p.InventoryID,
		"permission_type": string(p.Kind),
		"active":          p.Active,
		"creation_date":   p.CreatedAt.Format(time.RFC3339),
	}
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
