// Package teams manages team records. A team belongs to exactly one
// organization for its whole life; every write on a team is reserved for
// admins of that organization, while members may read it.
package teams
