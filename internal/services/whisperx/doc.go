// Package whisperx runs WhisperX over a clip's audio slice and returns
// word-timed segments for cue generation.
//
// The model size comes from each job; device and compute type come from
// configuration. The command runner is injectable so tests can fake the
// binary and its JSON output.
package whisperx
