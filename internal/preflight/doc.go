// Package preflight provides readiness checks for the filesystem, account
// credentials and external binaries clipcaster depends on.
//
// The daemon runs RunAll once at startup and logs failures without refusing
// to start; `clipcaster doctor` renders the same results as a table.
package preflight
