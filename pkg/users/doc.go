// Package users manages user accounts: CRUD through the authorization
// engine, bcrypt credential verification for HTTP Basic auth, and the
// per-user sub-collections (organizations, teams, credentials, grants).
package users
