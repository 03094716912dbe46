package identity

import "time"

// PermissionKind is the kind of an explicit inventory permission grant.
type PermissionKind string

const (
	// PermissionRead grants read visibility on an inventory to an actor
	// outside the owning organization's admin set.
	PermissionRead PermissionKind = "read"
)

// User represents a user account.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	FirstName    string    `json:"first_name,omitempty"`
	LastName     string    `json:"last_name,omitempty"`
	Email        string    `json:"email,omitempty"`
	IsSuperuser  bool      `json:"is_superuser"`
	IsActive     bool      `json:"is_active"`
	PasswordHash string    `json:"-"` // never serialized
	CreatedAt    time.Time `json:"created_at"`
}

// Organization is the authorization root for inventories, teams and
// (via association) projects. Inactive organizations stay resolvable by
// primary key but are excluded from default listings.
type Organization struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"creation_date"`
}

// Team belongs to exactly one organization. The organization reference is
// write-once; re-parenting a team is disallowed.
type Team struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	OrganizationID int64     `json:"organization"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"creation_date"`
}

// PermissionGrant is an explicit, narrowly scoped authorization on an
// inventory, held by exactly one of a user or a team.
type PermissionGrant struct {
	ID          int64          `json:"id"`
	UserID      *int64         `json:"user,omitempty"`
	TeamID      *int64         `json:"team,omitempty"`
	InventoryID int64          `json:"inventory"`
	Kind        PermissionKind `json:"permission_type"`
	CreatedAt   time.Time      `json:"creation_date"`
}

// Subject returns which side of the user-xor-team union holds the grant.
func (p *PermissionGrant) Subject() (userID, teamID int64) {
	if p.UserID != nil {
		userID = *p.UserID
	}
	if p.TeamID != nil {
		teamID = *p.TeamID
	}
	return userID, teamID
}
