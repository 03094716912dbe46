// Package inventory manages inventories and the records scoped under them:
// hosts, groups, per-host and per-group variable data, and explicit
// permission grants. Inventory visibility is the narrowest in the system.
// Plain organization membership conveys nothing; a reader is either an admin
// of the owning organization or the subject of an explicit read grant, held
// directly or through an active team.
package inventory
