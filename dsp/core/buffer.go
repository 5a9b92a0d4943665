package core

// EnsureLen returns a slice with the requested length, reusing buf capacity if possible.
func EnsureLen(buf []float64, n int) []float64 {
	if n <= 0 {
		return buf[:0]
	}
	if cap(buf) >= n {
		return buf[:n]
	}
	return make([]float64, n)
}

// EnsureBlock returns a channels×n block, reusing row capacity of buf where
// possible. Rows are not cleared.
func EnsureBlock(buf [][]float64, channels, n int) [][]float64 {
	if channels <= 0 {
		return buf[:0]
	}
	if cap(buf) >= channels {
		buf = buf[:channels]
	} else {
		grown := make([][]float64, channels)
		copy(grown, buf)
		buf = grown
	}
	for ch := range buf {
		buf[ch] = EnsureLen(buf[ch], n)
	}
	return buf
}

// Zero sets all values in buf to 0.
func Zero(buf []float64) {
	for i := range buf {
		buf[i] = 0
	}
}

// ZeroBlock clears every row of block.
func ZeroBlock(block [][]float64) {
	for _, row := range block {
		Zero(row)
	}
}

// CopyBlock copies the first n samples of each src row into the matching dst
// row. Rows beyond the shorter of the two blocks are left untouched.
func CopyBlock(dst, src [][]float64, n int) {
	channels := len(dst)
	if len(src) < channels {
		channels = len(src)
	}
	for ch := 0; ch < channels; ch++ {
		copy(dst[ch][:n], src[ch][:n])
	}
}
