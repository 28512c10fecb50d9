package search

import (
	"context"
	"hash/fnv"
	"math"
)

// HashEmbeddingProvider produces deterministic vectors from token hashes.
// Texts sharing words land near each other. It has no semantic knowledge,
// but works offline and needs no API key, so it is the default provider.
type HashEmbeddingProvider struct {
	Dimensions int
}

func (m *HashEmbeddingProvider) Embed(ctx context.Context, texts []string, mode string) ([][]float32, error) {
	dims := m.Dimensions
	if dims <= 0 {
		dims = 64
	}

	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, dims)
		var word []byte
		flush := func() {
			if len(word) == 0 {
				return
			}
			h := fnv.New32a()
			h.Write(word)
			vec[int(h.Sum32())%dims] += 1
			word = word[:0]
		}
		for j := 0; j < len(text); j++ {
			c := text[j]
			if c == ' ' || c == '\n' || c == '\t' {
				flush()
				continue
			}
			word = append(word, c)
		}
		flush()
		out[i] = normalize(vec)
	}
	return out, nil
}

func normalize(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		vec[0] = 1
		return vec
	}
	inv := 1.0 / math.Sqrt(sum)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) * inv)
	}
	return vec
}
