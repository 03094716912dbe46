package inventory

import (
	"time"

	"github.com/platinummonkey/commander/pkg/identity"
	"github.com/platinummonkey/commander/pkg/rbac"
	"github.com/platinummonkey/commander/pkg/wire"
)

// Inventory is a named collection of hosts and groups owned by exactly one
// organization.
type Inventory struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	OrganizationID int64     `json:"organization"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"creation_date"`
}

// Host is one managed node inside an inventory.
type Host struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	InventoryID int64     `json:"inventory"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"creation_date"`
}

// Group is a named set of hosts inside an inventory. Groups may nest.
type Group struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	InventoryID int64     `json:"inventory"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"creation_date"`
}

// VariableData is the JSON variable blob attached to a host or a group.
// Exactly one of HostID / GroupID is set.
type VariableData struct {
	ID        int64     `json:"id"`
	HostID    *int64    `json:"host,omitempty"`
	GroupID   *int64    `json:"group,omitempty"`
	Data      string    `json:"data"`
	CreatedAt time.Time `json:"creation_date"`
}

// WireInventory is the JSON representation of an inventory.
type WireInventory struct {
	ID             int64             `json:"id"`
	URL            string            `json:"url"`
	Related        map[string]string `json:"related"`
	Name           string            `json:"name"`
	Description    string            `json:"description"`
	OrganizationID int64             `json:"organization"`
	Active         bool              `json:"active"`
	CreatedAt      time.Time         `json:"creation_date"`
}

// ToWire builds the inventory representation with its related links.
func ToWire(inv *Inventory) *WireInventory {
	return &WireInventory{
		ID:  inv.ID,
		URL: wire.DetailURL(rbac.ResourceInventory, inv.ID),
		Related: map[string]string{
			"hosts":        wire.SubURL(rbac.ResourceInventory, inv.ID, "hosts"),
			"groups":       wire.SubURL(rbac.ResourceInventory, inv.ID, "groups"),
			"permissions":  wire.SubURL(rbac.ResourceInventory, inv.ID, "permissions"),
			"organization": wire.DetailURL(rbac.ResourceOrganization, inv.OrganizationID),
		},
		Name:           inv.Name,
		Description:    inv.Description,
		OrganizationID: inv.OrganizationID,
		Active:         inv.Active,
		CreatedAt:      inv.CreatedAt,
	}
}

// WireHost is the JSON representation of a host.
type WireHost struct {
	ID          int64             `json:"id"`
	URL         string            `json:"url"`
	Related     map[string]string `json:"related"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	InventoryID int64             `json:"inventory"`
	Active      bool              `json:"active"`
	CreatedAt   time.Time         `json:"creation_date"`
}

// HostToWire builds the host representation with its related links.
func HostToWire(h *Host) *WireHost {
	return &WireHost{
		ID:  h.ID,
		URL: wire.DetailURL(rbac.ResourceHost, h.ID),
		Related: map[string]string{
			"variable_data": wire.SubURL(rbac.ResourceHost, h.ID, "variable_data"),
			"groups":        wire.SubURL(rbac.ResourceHost, h.ID, "groups"),
			"inventory":     wire.DetailURL(rbac.ResourceInventory, h.InventoryID),
		},
		Name:        h.Name,
		Description: h.Description,
		InventoryID: h.InventoryID,
		Active:      h.Active,
		CreatedAt:   h.CreatedAt,
	}
}

// WireGroup is the JSON representation of a group.
type WireGroup struct {
	ID          int64             `json:"id"`
	URL         string            `json:"url"`
	Related     map[string]string `json:"related"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	InventoryID int64             `json:"inventory"`
	Active      bool              `json:"active"`
	CreatedAt   time.Time         `json:"creation_date"`
}

// GroupToWire builds the group representation with its related links.
func GroupToWire(g *Group) *WireGroup {
	return &WireGroup{
		ID:  g.ID,
		URL: wire.DetailURL(rbac.ResourceGroup, g.ID),
		Related: map[string]string{
			"hosts":         wire.SubURL(rbac.ResourceGroup, g.ID, "hosts"),
			"children":      wire.SubURL(rbac.ResourceGroup, g.ID, "children"),
			"variable_data": wire.SubURL(rbac.ResourceGroup, g.ID, "variable_data"),
			"inventory":     wire.DetailURL(rbac.ResourceInventory, g.InventoryID),
		},
		Name:        g.Name,
		Description: g.Description,
		InventoryID: g.InventoryID,
		Active:      g.Active,
		CreatedAt:   g.CreatedAt,
	}
}

// Permission is a stored permission grant with its lifecycle flag.
type Permission struct {
	identity.PermissionGrant
	Active bool `json:"active"`
}

// WirePermission is the JSON representation of a permission grant.
type WirePermission struct {
	ID          int64     `json:"id"`
	URL         string    `json:"url"`
	UserID      *int64    `json:"user,omitempty"`
	TeamID      *int64    `json:"team,omitempty"`
	InventoryID int64     `json:"inventory"`
	Kind        string    `json:"permission_type"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"creation_date"`
}

// PermissionToWire builds the grant representation.
func PermissionToWire(p *Permission) *WirePermission {
	return &WirePermission{
		ID:          p.ID,
		URL:         wire.DetailURL(rbac.ResourcePermission, p.ID),
		UserID:      p.UserID,
		TeamID:      p.TeamID,
		InventoryID: p.InventoryID,
		Kind:        string(p.Kind),
		Active:      p.Active,
		CreatedAt:   p.CreatedAt,
	}
}

func inventoryWireMap(inv *Inventory) map[string]interface{} {
	return map[string]interface{}{
		"id":            inv.ID,
		"url":           wire.DetailURL(rbac.ResourceInventory, inv.ID),
		"name":          inv.Name,
		"description":   inv.Description,
		"organization":  inv.OrganizationID,
		"active":        inv.Active,
		"creation_date": inv.CreatedAt.Format(time.RFC3339),
	}
}

func hostWireMap(h *Host) map[string]interface{} {
	return map[string]interface{}{
		"id":            h.ID,
		"url":           wire.DetailURL(rbac.ResourceHost, h.ID),
		"name":          h.Name,
		"description":   h.Description,
		"inventory":     h.InventoryID,
		"active":        h.Active,
		"creation_date": h.CreatedAt.Format(time.RFC3339),
	}
}

func groupWireMap(g *Group) map[string]interface{} {
	return map[string]interface{}{
		"id":            g.ID,
		"url":           wire.DetailURL(rbac.ResourceGroup, g.ID),
		"name":          g.Name,
		"description":   g.Description,
		"inventory":     g.InventoryID,
		"active":        g.Active,
		"creation_date": g.CreatedAt.Format(time.RFC3339),
	}
}
