package retrieval

import "math"

// cosineSimilarity computes the normalized dot product of two vectors with
// float64 accumulation. A zero-magnitude operand or length mismatch yields
// 0 — never NaN, never a division by zero.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x := float64(a[i])
		y := float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
