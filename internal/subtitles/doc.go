// Package subtitles renders word-timed transcripts into ASS cue files for
// burn-in. Each word gets its own dialogue line tinted with a highlight
// colour chosen once per render, and an account watermark runs for the whole
// clip.
package subtitles
