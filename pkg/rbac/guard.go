package rbac

import (
	"fmt"
)

// FieldChange records one field an update request would modify, using wire
// field names. From is the currently stored value, To the requested one.
type FieldChange struct {
	Field string
	From  any
	To    any
}

// fieldPolicy describes per-resource mutation restrictions.
type fieldPolicy struct {
	// readOnly fields are server-computed and may never be changed by any
	// actor, superusers included.
	readOnly []string
	// superuserOnly fields may only be changed by superusers.
	superuserOnly []string
	// writeOnce fields are fixed at creation; changing an already-set value
	// is illegal regardless of actor.
	writeOnce []string
}

// commonReadOnly covers the representation fields every resource computes
// server-side. "active" only changes through the delete path.
var commonReadOnly = []string{"id", "url", "related", "creation_date", "active"}

var fieldPolicies = map[Resource]fieldPolicy{
	ResourceOrganization: {readOnly: commonReadOnly},
	ResourceUser: {
		readOnly:      []string{"id", "url", "related", "creation_date"},
		superuserOnly: []string{"is_superuser", "is_active"},
	},
	ResourceTeam: {
		readOnly:  commonReadOnly,
		writeOnce: []string{"organization"},
	},
	ResourceProject:   {readOnly: commonReadOnly},
	ResourceInventory: {
		readOnly:  commonReadOnly,
		writeOnce: []string{"organization"},
	},
	ResourceHost: {
		readOnly:  commonReadOnly,
		writeOnce: []string{"inventory"},
	},
	ResourceGroup: {
		readOnly:  commonReadOnly,
		writeOnce: []string{"inventory"},
	},
	ResourceVariableData: {readOnly: []string{"id", "url", "related"}},
	ResourceCredential: {
		readOnly:  commonReadOnly,
		writeOnce: []string{"user", "team"},
	},
	ResourcePermission: {
		readOnly:  commonReadOnly,
		writeOnce: []string{"user", "team", "inventory"},
	},
	ResourceTag:        {readOnly: commonReadOnly},
	ResourceAuditTrail: {readOnly: commonReadOnly},
}

// IllegalChanges returns the wire field names in changes that the actor may
// not modify on the given resource. An empty result means the update passes
// the guard. Violations are validation failures (the request is malformed
// for this actor), never authorization denials.
func IllegalChanges(actor ActorContext, resource Resource, changes []FieldChange) []string {
	policy := fieldPolicies[resource]
	var illegal []string
	for _, ch := range changes {
		if !valueChanged(ch.From, ch.To) {
			continue
		}
		switch {
		case contains(policy.readOnly, ch.Field):
			illegal = append(illegal, ch.Field)
		case contains(policy.superuserOnly, ch.Field) && !actor.Superuser():
			illegal = append(illegal, ch.Field)
		case contains(policy.writeOnce, ch.Field) && !isZeroValue(ch.From):
			illegal = append(illegal, ch.Field)
		}
	}
	return illegal
}

// CheckChanges wraps IllegalChanges into the error taxonomy.
func CheckChanges(actor ActorContext, resource Resource, changes []FieldChange) error {
	if illegal := IllegalChanges(actor, resource, changes); len(illegal) > 0 {
		return NewValidationError("field may not be changed", illegal...)
	}
	return nil
}

// valueChanged compares request and stored values after normalizing, so a
// JSON-decoded float64(3) matches a stored int64(3).
func valueChanged(from, to any) bool {
	return normalize(from) != normalize(to)
}

func normalize(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case float64:
		if x == float64(int64(x)) {
			return fmt.Sprintf("%d", int64(x))
		}
		return fmt.Sprintf("%v", x)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func isZeroValue(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case int64:
		return x == 0
	case float64:
		return x == 0
	case int:
		return x == 0
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
