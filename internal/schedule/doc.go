// Package schedule owns the persisted slot document that drives clipcaster.
//
// A schedule is a JSON array of slots. Each slot carries a due timestamp in
// "YYYY-MM-DD,HH:MM" form, a status of pending or completed, and an ordered
// list of job records. The document stays human-editable while the daemon
// runs: Store reads it wholesale every cycle and rewrites it wholesale with
// an atomic rename under a cross-process file lock.
//
// JobRecord mirrors the on-disk keys so a load/save round trip preserves
// exactly which keys were present. Resolve turns a record into a typed Job
// with explicit defaults and fails fast on malformed input.
package schedule
