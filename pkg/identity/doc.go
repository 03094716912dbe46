// Package identity holds the identity and relationship model: users,
// organizations, teams, and the membership/admin/permission-grant edges
// between them.
//
// The package exposes the relationship graph through the Graph interface.
// Every query resolves exactly one hop of the graph (team membership does not
// imply organization admin-ship); composing hops into access decisions is the
// job of pkg/rbac. All Graph queries are pure reads with no side effects.
//
// Two implementations are provided:
//   - MemoryGraph: an in-memory snapshot, used by tests and anywhere the
//     relationship data has already been fetched.
//   - SQLGraph: backed by the relational store, with optional LRU/TTL or
//     Redis-backed caching of per-user edge sets.
package identity
