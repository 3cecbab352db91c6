// Package history persists a record of every scheduled or one-off job run
// and the per-platform publish outcomes it produced.
//
// The store is a single SQLite database (modernc.org/sqlite, WAL mode)
// under the data directory. Writes retry briefly on SQLITE_BUSY so the
// daemon and an operator CLI invocation can share the file.
package history
