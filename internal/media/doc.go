// Package media wraps the external tools that acquire and transform video:
// yt-dlp for stream resolution and ffmpeg for audio extraction and the final
// vertical render. Both run through an injectable Runner so argument
// construction can be tested without the binaries.
package media
