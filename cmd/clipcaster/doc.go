// Package main hosts the clipcaster CLI entrypoint and command graph.
//
// The Cobra command tree covers the scheduler daemon (run, status), one-off
// clip jobs (process), schedule maintenance, publish ledgers, run history,
// log tailing, work directory cleanup, account inspection, notification
// checks and configuration scaffolding.
// Configuration resolution happens once in the root command so subcommands
// only deal with their own flags.
//
// Keep this package lean: behavior lives in the internal packages and is
// surfaced here through dedicated commands or flags.
package main
