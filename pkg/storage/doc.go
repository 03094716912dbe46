// Package storage opens and migrates the relational database backing the
// inventory service.
//
// PostgreSQL is the production backend; SQLite is supported for development
// and tests. All queries elsewhere in the codebase use $n placeholders,
// which both drivers accept, so the two backends share one schema and one
// query dialect.
package storage
