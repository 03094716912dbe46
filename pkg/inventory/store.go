package inventory

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/platinummonkey/commander/pkg/identity"
	"github.com/platinummonkey/commander/pkg/rbac"
)

// Store persists inventories, hosts, groups, variable data and permission
// grants.
type Store struct {
	db *sql.DB
}

// NewStore creates a store over db.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// GetInventory fetches an inventory by ID regardless of active state.
func (s *Store) GetInventory(ctx context.Context, id int64) (*Inventory, error) {
	inv := &Inventory{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, organization_id, active, created_at FROM inventories WHERE id = $1`, id).
		Scan(&inv.ID, &inv.Name, &inv.Description, &inv.OrganizationID, &inv.Active, &inv.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, rbac.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching inventory %d: %w", id, err)
	}
	return inv, nil
}

// ListInventoriesByIDs fetches active inventories in ids, ordered by ID.
func (s *Store) ListInventoriesByIDs(ctx context.Context, ids identity.IDSet) ([]*Inventory, error) {
	out := make([]*Inventory, 0, ids.Len())
	for _, id := range ids.Sorted() {
		inv, err := s.GetInventory(ctx, id)
		if err == rbac.ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		if inv.Active {
			out = append(out, inv)
		}
	}
	return out, nil
}

// ListAllInventories fetches every active inventory.
func (s *Store) ListAllInventories(ctx context.Context) ([]*Inventory, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, organization_id, active, created_at
		 FROM inventories WHERE active ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing inventories: %w", err)
	}
	defer rows.Close()

	var out []*Inventory
	for rows.Next() {
		inv := &Inventory{}
		if err := rows.Scan(&inv.ID, &inv.Name, &inv.Description, &inv.OrganizationID, &inv.Active, &inv.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

// CreateInventory inserts the inventory.
func (s *Store) CreateInventory(ctx context.Context, inv *Inventory) error {
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO inventories (name, description, organization_id, active) VALUES ($1, $2, $3, TRUE)
		 RETURNING id, created_at`,
		inv.Name, inv.Description, inv.OrganizationID).Scan(&inv.ID, &inv.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating inventory %q: %w", inv.Name, err)
	}
	inv.Active = true
	return nil
}

// UpdateInventory persists the mutable fields. The owning organization is
// write-once and never updated here.
func (s *Store) UpdateInventory(ctx context.Context, inv *Inventory) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE inventories SET name = $1, description = $2 WHERE id = $3`,
		inv.Name, inv.Description, inv.ID)
	if err != nil {
		return fmt.Errorf("updating inventory %d: %w", inv.ID, err)
	}
	return nil
}

// InventoryNameTakenInOrg reports whether another inventory in the
// organization holds the name.
func (s *Store) InventoryNameTakenInOrg(ctx context.Context, orgID int64, name string, excludeID int64) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM inventories WHERE organization_id = $1 AND name = $2 AND id != $3`,
		orgID, name, excludeID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking inventory name %q: %w", name, err)
	}
	return count > 0, nil
}

// GetHost fetches a host by ID regardless of active state.
func (s *Store) GetHost(ctx context.Context, id int64) (*Host, error) {
	h := &Host{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, inventory_id, active, created_at FROM hosts WHERE id = $1`, id).
		Scan(&h.ID, &h.Name, &h.Description, &h.InventoryID, &h.Active, &h.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, rbac.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching host %d: %w", id, err)
	}
	return h, nil
}

// HostsOfInventory lists the inventory's active hosts.
func (s *Store) HostsOfInventory(ctx context.Context, invID int64) ([]*Host, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, inventory_id, active, created_at
		 FROM hosts WHERE inventory_id = $1 AND active ORDER BY id`, invID)
	if err != nil {
		return nil, fmt.Errorf("listing hosts of inventory %d: %w", invID, err)
	}
	defer rows.Close()

	var out []*Host
	for rows.Next() {
		h := &Host{}
		if err := rows.Scan(&h.ID, &h.Name, &h.Description, &h.InventoryID, &h.Active, &h.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// CreateHost inserts the host.
func (s *Store) CreateHost(ctx context.Context, h *Host) error {
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO hosts (name, description, inventory_id, active) VALUES ($1, $2, $3, TRUE)
		 RETURNING id, created_at`,
		h.Name, h.Description, h.InventoryID).Scan(&h.ID, &h.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating host %q: %w", h.Name, err)
	}
	h.Active = true
	return nil
}

// UpdateHost persists the mutable fields. The governing inventory is
// write-once.
func (s *Store) UpdateHost(ctx context.Context, h *Host) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE hosts SET name = $1, description = $2 WHERE id = $3`,
		h.Name, h.Description, h.ID)
	if err != nil {
		return fmt.Errorf("updating host %d: %w", h.ID, err)
	}
	return nil
}

// HostNameTaken reports whether another host in the inventory holds the name.
func (s *Store) HostNameTaken(ctx context.Context, invID int64, name string, excludeID int64) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM hosts WHERE inventory_id = $1 AND name = $2 AND id != $3`,
		invID, name, excludeID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking host name %q: %w", name, err)
	}
	return count > 0, nil
}

// GetGroup fetches a group by ID regardless of active state.
func (s *Store) GetGroup(ctx context.Context, id int64) (*Group, error) {
	g := &Group{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, inventory_id, active, created_at FROM groups WHERE id = $1`, id).
		Scan(&g.ID, &g.Name, &g.Description, &g.InventoryID, &g.Active, &g.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, rbac.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching group %d: %w", id, err)
	}
	return g, nil
}

// GroupsOfInventory lists the inventory's active groups.
func (s *Store) GroupsOfInventory(ctx context.Context, invID int64) ([]*Group, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, inventory_id, active, created_at
		 FROM groups WHERE inventory_id = $1 AND active ORDER BY id`, invID)
	if err != nil {
		return nil, fmt.Errorf("listing groups of inventory %d: %w", invID, err)
	}
	defer rows.Close()

	var out []*Group
	for rows.Next() {
		g := &Group{}
		if err := rows.Scan(&g.ID, &g.Name, &g.Description, &g.InventoryID, &g.Active, &g.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// CreateGroup inserts the group.
func (s *Store) CreateGroup(ctx context.Context, g *Group) error {
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO groups (name, description, inventory_id, active) VALUES ($1, $2, $3, TRUE)
		 RETURNING id, created_at`,
		g.Name, g.Description, g.InventoryID).Scan(&g.ID, &g.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating group %q: %w", g.Name, err)
	}
	g.Active = true
	return nil
}

// UpdateGroup persists the mutable fields.
func (s *Store) UpdateGroup(ctx context.Context, g *Group) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE groups SET name = $1, description = $2 WHERE id = $3`,
		g.Name, g.Description, g.ID)
	if err != nil {
		return fmt.Errorf("updating group %d: %w", g.ID, err)
	}
	return nil
}

// GroupNameTaken reports whether another group in the inventory holds the name.
func (s *Store) GroupNameTaken(ctx context.Context, invID int64, name string, excludeID int64) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM groups WHERE inventory_id = $1 AND name = $2 AND id != $3`,
		invID, name, excludeID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking group name %q: %w", name, err)
	}
	return count > 0, nil
}

// HostIDsOfGroup returns the hosts directly in the group.
func (s *Store) HostIDsOfGroup(ctx context.Context, groupID int64) (identity.IDSet, error) {
	return s.queryIDSet(ctx,
		`SELECT host_id FROM group_hosts WHERE group_id = $1`, groupID)
}

// ChildIDsOfGroup returns the group's direct child groups.
func (s *Store) ChildIDsOfGroup(ctx context.Context, groupID int64) (identity.IDSet, error) {
	return s.queryIDSet(ctx,
		`SELECT child_group_id FROM group_children WHERE group_id = $1`, groupID)
}

// GroupIDsOfHost returns the groups a host belongs to directly.
func (s *Store) GroupIDsOfHost(ctx context.Context, hostID int64) (identity.IDSet, error) {
	return s.queryIDSet(ctx,
		`SELECT group_id FROM group_hosts WHERE host_id = $1`, hostID)
}

// GetVariableData fetches the variable blob attached to a host or group,
// creating an empty one on first read.
func (s *Store) GetVariableData(ctx context.Context, hostID, groupID *int64) (*VariableData, error) {
	v := &VariableData{}
	var err error
	if hostID != nil {
		err = s.db.QueryRowContext(ctx,
			`SELECT id, host_id, group_id, data, created_at FROM variable_data WHERE host_id = $1`, *hostID).
			Scan(&v.ID, &v.HostID, &v.GroupID, &v.Data, &v.CreatedAt)
	} else {
		err = s.db.QueryRowContext(ctx,
			`SELECT id, host_id, group_id, data, created_at FROM variable_data WHERE group_id = $1`, *groupID).
			Scan(&v.ID, &v.HostID, &v.GroupID, &v.Data, &v.CreatedAt)
	}
	if err == sql.ErrNoRows {
		v = &VariableData{HostID: hostID, GroupID: groupID, Data: "{}"}
		err = s.db.QueryRowContext(ctx,
			`INSERT INTO variable_data (host_id, group_id, data) VALUES ($1, $2, '{}')
			 RETURNING id, created_at`, hostID, groupID).Scan(&v.ID, &v.CreatedAt)
	}
	if err != nil {
		return nil, fmt.Errorf("fetching variable data: %w", err)
	}
	return v, nil
}

// UpdateVariableData replaces the variable blob.
func (s *Store) UpdateVariableData(ctx context.Context, v *VariableData) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE variable_data SET data = $1 WHERE id = $2`, v.Data, v.ID)
	if err != nil {
		return fmt.Errorf("updating variable data %d: %w", v.ID, err)
	}
	return nil
}

// GetPermission fetches a grant by ID regardless of active state.
func (s *Store) GetPermission(ctx context.Context, id int64) (*Permission, error) {
	p := &Permission{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, team_id, inventory_id, permission_type, active, created_at
		 FROM permissions WHERE id = $1`, id).
		Scan(&p.ID, &p.UserID, &p.TeamID, &p.InventoryID, &p.Kind, &p.Active, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, rbac.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching permission %d: %w", id, err)
	}
	return p, nil
}

// PermissionsOfInventory lists the inventory's active grants.
func (s *Store) PermissionsOfInventory(ctx context.Context, invID int64) ([]*Permission, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, team_id, inventory_id, permission_type, active, created_at
		 FROM permissions WHERE inventory_id = $1 AND active ORDER BY id`, invID)
	if err != nil {
		return nil, fmt.Errorf("listing permissions of inventory %d: %w", invID, err)
	}
	defer rows.Close()

	var out []*Permission
	for rows.Next() {
		p := &Permission{}
		if err := rows.Scan(&p.ID, &p.UserID, &p.TeamID, &p.InventoryID, &p.Kind, &p.Active, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// PermissionIDsOfUser returns the active grants naming the user.
func (s *Store) PermissionIDsOfUser(ctx context.Context, userID int64) (identity.IDSet, error) {
	return s.queryIDSet(ctx,
		`SELECT id FROM permissions WHERE user_id = $1 AND active`, userID)
}

// CreatePermission inserts the grant.
func (s *Store) CreatePermission(ctx context.Context, p *Permission) error {
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO permissions (user_id, team_id, inventory_id, permission_type, active)
		 VALUES ($1, $2, $3, $4, TRUE) RETURNING id, created_at`,
		p.UserID, p.TeamID, p.InventoryID, string(p.Kind)).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating permission grant: %w", err)
	}
	p.Active = true
	return nil
}

// UpdatePermission persists the grant's kind. Subject and inventory are
// write-once.
func (s *Store) UpdatePermission(ctx context.Context, p *Permission) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE permissions SET permission_type = $1 WHERE id = $2`, string(p.Kind), p.ID)
	if err != nil {
		return fmt.Errorf("updating permission %d: %w", p.ID, err)
	}
	return nil
}

func (s *Store) queryIDSet(ctx context.Context, query string, args ...interface{}) (identity.IDSet, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("inventory edge query failed: %w", err)
	}
	defer rows.Close()

	ids := identity.IDSet{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids.Add(id)
	}
	return ids, rows.Err()
}
