package lexical

import "hash/crc32"

// LCG constants (Numerical Recipes).
const (
	lcgMultiplier uint32 = 1664525
	lcgIncrement  uint32 = 1013904223
)

// FallbackEmbedding derives a pseudo-random vector from the CRC-32 of text.
// Identical text always yields the identical vector; the result carries no
// semantics and callers must flag it as a fallback. Components are in [-1, 1].
func FallbackEmbedding(text string, dimension int) []float32 {
	if dimension <= 0 {
		return []float32{}
	}
	state := crc32.ChecksumIEEE([]byte(text))
	out := make([]float32, dimension)
	for i := range out {
		state = state*lcgMultiplier + lcgIncrement
		out[i] = float32(float64(state)/float64(^uint32(0))*2 - 1)
	}
	return out
}
