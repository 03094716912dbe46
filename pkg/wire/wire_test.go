package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/platinummonkey/commander/pkg/rbac"
)

func TestURLs(t *testing.T) {
	assert.Equal(t, "/api/v1/organizations/", CollectionURL(rbac.ResourceOrganization))
	assert.Equal(t, "/api/v1/inventories/4/", DetailURL(rbac.ResourceInventory, 4))
	assert.Equal(t, "/api/v1/organizations/4/users/", SubURL(rbac.ResourceOrganization, 4, "users"))
}

func TestDiffIgnoresUnknownKeys(t *testing.T) {
	current := map[string]interface{}{"name": "ops", "id": int64(1)}
	body := map[string]interface{}{"name": "platform", "bogus": true}

	changes := Diff(current, body)
	assert.Len(t, changes, 1)
	assert.Equal(t, "name", changes[0].Field)
	assert.Equal(t, "ops", changes[0].From)
	assert.Equal(t, "platform", changes[0].To)
}
