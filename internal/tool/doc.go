// Package tool adapts the external yt-dlp and ffmpeg binaries: it builds
// argument vectors for jobs, spawns child processes and exposes their
// output as line streams.
package tool
