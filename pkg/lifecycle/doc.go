// Package lifecycle owns record deactivation and association-edge
// management.
//
// Deletion is soft and one-way: a record moves from active to inactive and
// never back. Non-superusers cannot observe inactive records at all, which
// is enforced here by Gate before any authorization rule runs, so a denied
// actor cannot distinguish "deleted" from "never existed".
//
// Associations (org members, team projects, permission grants and the rest
// of the edge tables) are mutated through the same authority as updating the
// parent record. Adding an existing edge and removing an absent edge are
// both no-ops that report success.
package lifecycle
