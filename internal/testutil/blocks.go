package testutil

// Stereo returns a two-row block holding copies of left and right.
func Stereo(left, right []float64) [][]float64 {
	return [][]float64{append([]float64(nil), left...), append([]float64(nil), right...)}
}

// Rows returns a block of rows×n samples, every sample set to value.
func Rows(rows, n int, value float64) [][]float64 {
	out := make([][]float64, rows)
	for i := range out {
		out[i] = DC(value, n)
	}
	return out
}

// CloneBlock deep-copies a [channel][sample] block.
func CloneBlock(block [][]float64) [][]float64 {
	out := make([][]float64, len(block))
	for i, row := range block {
		out[i] = append([]float64(nil), row...)
	}
	return out
}

// SubBlock returns views of block[ch][from:to] for every channel.
func SubBlock(block [][]float64, from, to int) [][]float64 {
	out := make([][]float64, len(block))
	for i, row := range block {
		out[i] = row[from:to]
	}
	return out
}
