package users

import (
	"time"

	"github.com/platinummonkey/commander/pkg/identity"
	"github.com/platinummonkey/commander/pkg/rbac"
	"github.com/platinummonkey/commander/pkg/wire"
)

// WireUser is the JSON representation of a user account.
type WireUser struct {
	ID          int64             `json:"id"`
	URL         string            `json:"url"`
	Related     map[string]string `json:"related"`
	Username    string            `json:"username"`
	FirstName   string            `json:"first_name"`
	LastName    string            `json:"last_name"`
	Email       string            `json:"email"`
	IsSuperuser bool              `json:"is_superuser"`
	IsActive    bool              `json:"is_active"`
	CreatedAt   time.Time         `json:"creation_date"`
}

// ToWire builds the representation. The password hash never leaves the
// service.
func ToWire(u *identity.User) *WireUser {
	return &WireUser{
		ID:  u.ID,
		URL: wire.DetailURL(rbac.ResourceUser, u.ID),
		Related: map[string]string{
			"organizations":       wire.SubURL(rbac.ResourceUser, u.ID, "organizations"),
			"admin_organizations": wire.SubURL(rbac.ResourceUser, u.ID, "admin_organizations"),
			"teams":               wire.SubURL(rbac.ResourceUser, u.ID, "teams"),
			"credentials":         wire.SubURL(rbac.ResourceUser, u.ID, "credentials"),
			"permissions":         wire.SubURL(rbac.ResourceUser, u.ID, "permissions"),
		},
		Username:    u.Username,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Email:       u.Email,
		IsSuperuser: u.IsSuperuser,
		IsActive:    u.IsActive,
		CreatedAt:   u.CreatedAt,
	}
}

// wireMap flattens the stored record into guard-comparable fields.
func wireMap(u *identity.User) map[string]interface{} {
	return map[string]interface{}{
		"id":            u.ID,
		"url":           wire.DetailURL(rbac.ResourceUser, u.ID),
		"username":      u.Username,
		"first_name":    u.FirstName,
		"last_name":     u.LastName,
		"email":         u.Email,
		"is_superuser":  u.IsSuperuser,
		"is_active":     u.IsActive,
		"creation_date": u.CreatedAt.Format(time.RFC3339),
	}
}
