// Package ffprobe inspects local source files before a clip is cut.
//
// Probe runs ffprobe with JSON output and reduces it to Info: container
// duration, stream counts and the first video stream's geometry.
package ffprobe
