package projects

import (
	"time"

	"github.com/platinummonkey/commander/pkg/rbac"
	"github.com/platinummonkey/commander/pkg/wire"
)

// Project is a versioned collection of configuration content on disk.
// OrgIDs carries the associated organizations, loaded with the record.
type Project struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	LocalPath   string    `json:"local_path"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"creation_date"`
	OrgIDs      []int64   `json:"-"`
}

// WireProject is the JSON representation of a project.
type WireProject struct {
	ID          int64             `json:"id"`
	URL         string            `json:"url"`
	Related     map[string]string `json:"related"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	LocalPath   string            `json:"local_path"`
	Active      bool              `json:"active"`
	CreatedAt   time.Time         `json:"creation_date"`
}

// ToWire builds the representation with its related links.
func ToWire(p *Project) *WireProject {
	return &WireProject{
		ID:  p.ID,
		URL: wire.DetailURL(rbac.ResourceProject, p.ID),
		Related: map[string]string{
			"organizations": wire.SubURL(rbac.ResourceProject, p.ID, "organizations"),
			"teams":         wire.SubURL(rbac.ResourceProject, p.ID, "teams"),
		},
		Name:        p.Name,
		Description: p.Description,
		LocalPath:   p.LocalPath,
		Active:      p.Active,
		CreatedAt:   p.CreatedAt,
	}
}

func wireMap(p *Project) map[string]interface{} {
	return map[string]interface{}{
		"id":            p.ID,
		"url":           wire.DetailURL(rbac.ResourceProject, p.ID),
		"name":          p.Name,
		"description":   p.Description,
		"local_path":    p.LocalPath,
		"active":        p.Active,
		"creation_date": p.CreatedAt.Format(time.RFC3339),
	}
}
