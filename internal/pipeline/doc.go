// Package pipeline turns one scheduled job into a rendered vertical clip and
// hands it to publish dispatch.
//
// An Executor run walks a fixed sequence of steps: resolve the source,
// slice the audio, transcribe and build cues when subtitles are enabled,
// render, and dispatch unless the job is a dry run. Each step is logged at
// its boundaries with the run id, slot and account carried on the context.
// Scratch audio and cue files are scoped to the run and removed on every
// exit path; the rendered clip is removed only after at least one platform
// published it.
//
// The executor does not retry. The scheduler retries the whole run.
package pipeline
