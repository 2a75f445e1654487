package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MockLLM answers with the response whose key is a substring of the
// prompt, falling back to Response. Safe for concurrent extraction.
type MockLLM struct {
	Response  string
	ByContent map[string]string
	mu        sync.Mutex
	Prompts   []string
}

func (m *MockLLM) Generate(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.Prompts = append(m.Prompts, prompt)
	m.mu.Unlock()

	for needle, resp := range m.ByContent {
		if strings.Contains(prompt, needle) {
			return resp, nil
		}
	}
	if m.Response == "" {
		return "", fmt.Errorf("no canned response for prompt")
	}
	return m.Response, nil
}

// MockEmbedder returns canned vectors per text.
type MockEmbedder struct {
	Vectors map[string][]float32
}

func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if vec, ok := m.Vectors[text]; ok {
		return vec, nil
	}
	return nil, fmt.Errorf("no vector for %q", text)
}
