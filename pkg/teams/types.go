package teams

import (
	"time"

	"github.com/platinummonkey/commander/pkg/identity"
	"github.com/platinummonkey/commander/pkg/rbac"
	"github.com/platinummonkey/commander/pkg/wire"
)

// WireTeam is the JSON representation of a team.
type WireTeam struct {
	ID             int64             `json:"id"`
	URL            string            `json:"url"`
	Related        map[string]string `json:"related"`
	Name           string            `json:"name"`
	Description    string            `json:"description"`
	OrganizationID int64             `json:"organization"`
	Active         bool              `json:"active"`
	CreatedAt      time.Time         `json:"creation_date"`
}

// ToWire builds the representation with its related links.
func ToWire(t *identity.Team) *WireTeam {
	return &WireTeam{
		ID:  t.ID,
		URL: wire.DetailURL(rbac.ResourceTeam, t.ID),
		Related: map[string]string{
			"users":       wire.SubURL(rbac.ResourceTeam, t.ID, "users"),
			"projects":    wire.SubURL(rbac.ResourceTeam, t.ID, "projects"),
			"credentials": wire.SubURL(rbac.ResourceTeam, t.ID, "credentials"),
			"permissions": wire.SubURL(rbac.ResourceTeam, t.ID, "permissions"),
		},
		Name:           t.Name,
		Description:    t.Description,
		OrganizationID: t.OrganizationID,
		Active:         t.Active,
		CreatedAt:      t.CreatedAt,
	}
}

func wireMap(t *identity.Team) map[string]interface{} {
	return map[string]interface{}{
		"id":            t.ID,
		"url":           wire.DetailURL(rbac.ResourceTeam, t.ID),
		"name":          t.Name,
		"description":   t.Description,
		"organization":  t.OrganizationID,
		"active":        t.Active,
		"creation_date": t.CreatedAt.Format(time.RFC3339),
	}
}
