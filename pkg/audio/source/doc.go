// Package source provides PCM sources for local playback: a test tone and
// looping MP3 and WAV file readers.
package source
