package credentials

import (
	"time"

	"github.com/platinummonkey/commander/pkg/rbac"
	"github.com/platinummonkey/commander/pkg/wire"
)

// Credential is a stored login secret for reaching managed nodes.
type Credential struct {
	ID          int64
	Name        string
	Description string
	UserID      *int64
	TeamID      *int64

	SSHUsername  string
	SSHPassword  string
	SSHKeyData   string
	SSHKeyUnlock string
	SudoUsername string
	SudoPassword string

	Active    bool
	CreatedAt time.Time
}

// Subject returns which side of the user-xor-team union owns the credential.
func (c *Credential) Subject() (userID, teamID int64) {
	if c.UserID != nil {
		userID = *c.UserID
	}
	if c.TeamID != nil {
		teamID = *c.TeamID
	}
	return userID, teamID
}

// WireCredential is the JSON representation of a credential. Secret material
// is deliberately absent; only its presence is reported.
type WireCredential struct {
	ID          int64     `json:"id"`
	URL         string    `json:"url"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	UserID      *int64    `json:"user,omitempty"`
	TeamID      *int64    `json:"team,omitempty"`
	SSHUsername string    `json:"ssh_username"`
	HasPassword bool      `json:"has_ssh_password"`
	HasKeyData  bool      `json:"has_ssh_key_data"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"creation_date"`
}

// ToWire builds the representation, withholding secrets.
func ToWire(c *Credential) *WireCredential {
	return &WireCredential{
		ID:          c.ID,
		URL:         wire.DetailURL(rbac.ResourceCredential, c.ID),
		Name:        c.Name,
		Description: c.Description,
		UserID:      c.UserID,
		TeamID:      c.TeamID,
		SSHUsername: c.SSHUsername,
		HasPassword: c.SSHPassword != "",
		HasKeyData:  c.SSHKeyData != "",
		Active:      c.Active,
		CreatedAt:   c.CreatedAt,
	}
}

func wireMap(c *Credential) map[string]interface{} {
	userID, teamID := c.Subject()
	return map[string]interface{}{
		"id":            c.ID,
		"url":           wire.DetailURL(rbac.ResourceCredential, c.ID),
		"name":          c.Name,
		"description":   c.Description,
		"user":          userID,
		"team":          teamID,
		"ssh_username":  c.SSHUsername,
		"active":        c.Active,
		"creation_date": c.CreatedAt.Format(time.RFC3339),
	}
}
