// Package logs reads the daemon's log files for the CLI.
//
// Last returns trailing lines with bounded memory, Since reads lines appended
// after a cursor, and Follow polls until its context ends. Every reader
// accepts a substring filter so callers can narrow output to one run id,
// slot or account.
package logs
