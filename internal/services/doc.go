// Package services defines shared utilities consumed by the pipeline steps,
// publish clients, and the scheduler.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, slot keys, accounts, and platforms
//     for logging and tracing.
//   - Structured error markers plus the Wrap helper that classify failures as
//     retryable (transient remote trouble) or permanent (bad job records,
//     missing credentials).
//
// Use these helpers when wiring new collaborators so operational behaviour
// (error handling, observability, retries) stays uniform across the system.
package services
