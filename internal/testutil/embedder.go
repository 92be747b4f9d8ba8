// Package testutil provides shared testing utilities for the coursechat
// project.
//
// This package contains reusable test infrastructure that can be used across
// multiple packages, following the pattern of Go standard library packages
// like net/http/httptest and testing/iotest.
package testutil

import (
	"context"
	"math"
	"strings"

	"github.com/coursechat/coursechat/internal/vector"
)

// EmbeddingDim is the dimensionality of vectors produced by NewMockEmbedding.
const EmbeddingDim = 128

// NewMockEmbedding returns a deterministic embedding function for tests.
// It hashes overlapping character trigrams of the lowercased input into a
// fixed-size histogram and L2-normalizes the result, so texts sharing
// character runs land near each other in cosine space. A truncated name
// like "deep learnin" therefore stays closest to "Deep Learning" while
// remaining far from unrelated titles, which makes nearest-neighbor
// behavior testable without a real model.
func NewMockEmbedding() vector.EmbeddingFunc {
	return func(_ context.Context, text string) ([]float32, error) {
		vec := make([]float32, EmbeddingDim)
		s := strings.ToLower(text)
		runes := []rune(s)
		if len(runes) < 3 {
			runes = append(runes, ' ', ' ')
		}
		for i := 0; i+3 <= len(runes); i++ {
			h := uint32(2166136261)
			for _, r := range runes[i : i+3] {
				h ^= uint32(r)
				h *= 16777619
			}
			vec[h%EmbeddingDim]++
		}

		var norm float64
		for _, v := range vec {
			norm += float64(v) * float64(v)
		}
		if norm == 0 {
			vec[0] = 1
			return vec, nil
		}
		inv := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= inv
		}
		return vec, nil
	}
}
