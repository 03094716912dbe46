// Package orgs manages organizations, the tenancy root of the system, along
// with their tags and the per-organization audit trail. Organization
// membership edges (users, admins, projects, tags) are mutated through the
// lifecycle manager; this package owns the records themselves.
package orgs
