// Package wire builds the JSON representation shared by every resource:
// canonical URLs, related-link maps, and the field diffs consumed by the
// mutation guard.
package wire

import (
	"fmt"

	"github.com/platinummonkey/commander/pkg/rbac"
)

// Prefix is the versioned API root.
const Prefix = "/api/v1"

var plurals = map[rbac.Resource]string{
	rbac.ResourceOrganization: "organizations",
	rbac.ResourceUser:         "users",
	rbac.ResourceTeam:         "teams",
	rbac.ResourceProject:      "projects",
	rbac.ResourceInventory:    "inventories",
	rbac.ResourceHost:         "hosts",
	rbac.ResourceGroup:        "groups",
	rbac.ResourceCredential:   "credentials",
	rbac.ResourcePermission:   "permissions",
	rbac.ResourceTag:          "tags",
	rbac.ResourceAuditTrail:   "audit_trails",
}

// CollectionURL returns the list endpoint of a resource.
func CollectionURL(res rbac.Resource) string {
	return fmt.Sprintf("%s/%s/", Prefix, plurals[res])
}

// DetailURL returns the canonical URL of one record.
func DetailURL(res rbac.Resource, id int64) string {
	return fmt.Sprintf("%s/%s/%d/", Prefix, plurals[res], id)
}

// SubURL returns a sub-collection URL under a record.
func SubURL(res rbac.Resource, id int64, sub string) string {
	return fmt.Sprintf("%s/%s/%d/%s/", Prefix, plurals[res], id, sub)
}

// Diff compares the stored representation with the fields a request body
// supplies. Only keys present in both are compared; unknown body keys are
// ignored, matching the tolerant-reader contract.
func Diff(current map[string]interface{}, body map[string]interface{}) []rbac.FieldChange {
	var changes []rbac.FieldChange
	for field, to := range body {
		from, known := current[field]
		if !known {
			continue
		}
		changes = append(changes, rbac.FieldChange{Field: field, From: from, To: to})
	}
	return changes
}
