// Package config loads, normalizes, and validates clipcaster configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// PROXIES, MAX_RETRIES, and TELEGRAM_TOKEN (optionally provided through a
// .env file). The Config type centralizes every knob the scheduler, pipeline,
// and CLI need so directories and service credentials are discovered in one
// pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
