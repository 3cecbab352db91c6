// Package notifications delivers clipcaster events to the operator.
//
// Two transports are supported: Telegram bot messages (HTML formatted, the
// same Title/Account/Platform/Link layout for every event) and ntfy topics.
// When both are configured every event fans out to both; when neither is, a
// no-op service is returned. Sends are paced by a token bucket so bursts of
// publish events stay under Telegram's per-chat limit.
//
// Notification failures are returned to the caller for logging only. No
// pipeline or publish outcome depends on them.
package notifications
