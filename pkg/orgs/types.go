package orgs

import (
	"time"

	"github.com/platinummonkey/commander/pkg/identity"
	"github.com/platinummonkey/commander/pkg/rbac"
	"github.com/platinummonkey/commander/pkg/wire"
)

// Tag is a labeling record attachable to organizations.
type Tag struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"creation_date"`
}

// AuditEntry is one append-only audit trail record. The API never writes
// these; services record them as mutations happen.
type AuditEntry struct {
	ID             int64     `json:"id"`
	OrganizationID int64     `json:"organization"`
	ResourceType   string    `json:"resource_type"`
	ResourceID     int64     `json:"resource_id"`
	Action         string    `json:"action"`
	ActorID        int64     `json:"actor"`
	Detail         string    `json:"detail"`
	CreatedAt      time.Time `json:"creation_date"`
}

// WireOrganization is the JSON representation of an organization.
type WireOrganization struct {
	ID          int64             `json:"id"`
	URL         string            `json:"url"`
	Related     map[string]string `json:"related"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Active      bool              `json:"active"`
	CreatedAt   time.Time         `json:"creation_date"`
}

// ToWire builds the representation with its related links.
func ToWire(o *identity.Organization) *WireOrganization {
	return &WireOrganization{
		ID:  o.ID,
		URL: wire.DetailURL(rbac.ResourceOrganization, o.ID),
		Related: map[string]string{
			"users":        wire.SubURL(rbac.ResourceOrganization, o.ID, "users"),
			"admins":       wire.SubURL(rbac.ResourceOrganization, o.ID, "admins"),
			"projects":     wire.SubURL(rbac.ResourceOrganization, o.ID, "projects"),
			"inventories":  wire.SubURL(rbac.ResourceOrganization, o.ID, "inventories"),
			"teams":        wire.SubURL(rbac.ResourceOrganization, o.ID, "teams"),
			"tags":         wire.SubURL(rbac.ResourceOrganization, o.ID, "tags"),
			"audit_trails": wire.SubURL(rbac.ResourceOrganization, o.ID, "audit_trails"),
		},
		Name:        o.Name,
		Description: o.Description,
		Active:      o.Active,
		CreatedAt:   o.CreatedAt,
	}
}

func wireMap(o *identity.Organization) map[string]interface{} {
	return map[string]interface{}{
		"id":            o.ID,
		"url":           wire.DetailURL(rbac.ResourceOrganization, o.ID),
		"name":          o.Name,
		"description":   o.Description,
		"active":        o.Active,
		"creation_date": o.CreatedAt.Format(time.RFC3339),
	}
}
