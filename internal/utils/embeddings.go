package utils

import (
	"fmt"
	"math"
)

// CosineSimilarity computes the cosine of the angle between two embedding
// vectors. Returns 0 when either vector has zero magnitude.
func CosineSimilarity(a, b []float32) (float32, error) {
	if len(a) == 0 || len(b) == 0 {
		return 0, fmt.Errorf("vectors cannot be empty")
	}
	if len(a) != len(b) {
		return 0, fmt.Errorf("vectors must have the same dimension: %d != %d", len(a), len(b))
	}

	var dot, sumA, sumB float32
	for i := range a {
		dot += a[i] * b[i]
		sumA += a[i] * a[i]
		sumB += b[i] * b[i]
	}

	magA := float32(math.Sqrt(float64(sumA)))
	magB := float32(math.Sqrt(float64(sumB)))
	if magA == 0 || magB == 0 {
		return 0, nil
	}
	return dot / (magA * magB), nil
}
