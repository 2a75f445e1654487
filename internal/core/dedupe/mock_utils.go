package dedupe

import (
	"context"
	"fmt"
	"hash/fnv"
)

// MockEmbedder returns canned vectors per input text. Strings without a
// canned vector get a hash-derived one-hot vector, so distinct unknown
// strings read as dissimilar; with Strict set they fail instead.
type MockEmbedder struct {
	Vectors map[string][]float32
	Strict  bool
	Calls   int
}

func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	m.Calls++
	if vec, ok := m.Vectors[text]; ok {
		return vec, nil
	}
	if m.Strict {
		return nil, fmt.Errorf("no vector for %q", text)
	}
	h := fnv.New32a()
	h.Write([]byte(text))
	vec := make([]float32, 64)
	vec[h.Sum32()%64] = 1
	return vec, nil
}
