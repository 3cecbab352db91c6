// Package daemon coordinates the long-running clipcaster process.
//
// It owns the scheduler lifecycle and a flock-based lock under the data
// directory that prevents two daemons from running slots against the same
// schedule document and rate ledgers.
package daemon
