// Package language maps user-facing language names and ISO 639 codes onto
// the two-letter codes WhisperX accepts for --language.
package language
