// Package logging assembles the slog loggers used across clipcaster.
//
// The console handler prints "component[platform]: message key=value" lines
// and colors levels on a terminal; the JSON handler uses short ts/level/msg
// keys. Both mask credentials: attributes named like tokens, and access
// tokens, Telegram bot tokens or proxy userinfo inside error text.
//
// WarnWithContext and ErrorWithContext enforce the triage fields
// (event_type, error_hint, impact, error_kind) operators filter on.
package logging
