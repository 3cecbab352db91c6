// Package workdir inspects and prunes the clip work directory.
//
// Rendered clips stay in the work directory when no platform accepted them,
// and scratch files survive when the process dies mid-job. List classifies
// what is there; Prune removes entries past an age limit.
package workdir
