// Package core holds the small helpers every stage of the pedal shares:
// numeric guards, block buffers, the host processor configuration and the
// error taxonomy (invalid parameter, numeric domain, buffer size).
package core
