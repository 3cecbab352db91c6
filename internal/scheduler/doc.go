// Package scheduler drives the long-lived control loop: every check
// interval it reloads the schedule document, runs the jobs of each due
// pending slot strictly in sequence, and marks the slot completed.
//
// Jobs are retried as a whole with a random backoff; validation and
// configuration failures are not retried. A slot completes even when some
// of its jobs failed, and a cancelled slot is left pending so it runs again
// after restart.
//
// Wake cuts the check interval short; the daemon calls it when the schedule
// file changes on disk.
package scheduler
