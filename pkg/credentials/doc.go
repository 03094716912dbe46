// Package credentials manages login secrets. A credential is owned by
// exactly one of a user or a team, fixed at creation. Team members may read
// and use a team credential but only admins over the owner rewrite it; the
// secret material itself is write-only and never serialized back out.
package credentials
