// Package rbac is the authorization engine. Given an actor, a resource type,
// an action and (for detail operations) a flattened view of the target
// record, it decides allow/deny; for collection listings it produces the set
// of record IDs the actor may know about.
//
// Rules are held in a closed table keyed by (Resource, Action). A
// combination with no table entry is not merely denied, it is undefined for
// the resource and reported as ErrMethodNotSupported. Superusers bypass the
// table entirely and are evaluated first; an unauthenticated actor is denied
// before anything else is looked at.
//
// The engine performs no I/O of its own: it composes one-hop queries from an
// identity.Graph and is otherwise pure computation, so it is safe to call
// concurrently with each call carrying its own ActorContext. When multiple
// relationship paths reach the same record the broadest grant wins; no path
// can revoke a right granted by another.
//
// The package also hosts the field-mutation guard (guard.go), which decides
// which changed fields of an update are forbidden for the current actor.
// Guard violations are validation failures, not authorization denials.
package rbac
