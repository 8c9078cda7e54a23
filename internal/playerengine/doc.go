// ABOUTME: Reference MediaPlayer implementation backing the syncjam-probe client
// ABOUTME: Decodes PCM/MP3/FLAC/Opus and drives oto output with resample-based rate correction
// Package playerengine implements clientcontrol.MediaPlayer: it resolves a
// track's source, decodes it fully, and plays it through the system audio
// device, honoring the controller's soft playback-rate corrections via a
// linear resampler.
package playerengine
