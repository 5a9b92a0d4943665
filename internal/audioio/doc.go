// Package audioio reads audio files and synthetic test tones as interleaved
// float64 frames and writes processed frames back to 16-bit WAV.
//
// Decoders:
//   - .wav through github.com/go-audio/wav
//   - .mp3 through github.com/hajimehoshi/go-mp3 (always stereo, 16-bit)
//   - .ogg through github.com/jfreymuth/oggvorbis
//
// Samples are normalised to [-1, 1).
package audioio
