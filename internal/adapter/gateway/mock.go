package gateway

import (
	"context"
	"fmt"
	"strings"

	"souschef/internal/domain"
	"souschef/internal/port"
)

// MockGateway is a deterministic local stand-in for the real gateway,
// for development and tests without an API key.
type MockGateway struct {
	dimension int
}

func NewMockGateway(dimension int) *MockGateway {
	return &MockGateway{dimension: dimension}
}

func (m *MockGateway) Embed(ctx context.Context, texts []string, intent port.Intent) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i := range texts {
		embeddings[i] = make([]float32, m.dimension)

		for j, r := range texts[i] {
			if j < m.dimension {
				embeddings[i][j] = float32(r) / 1000.0
			}
		}
	}
	return embeddings, nil
}

func (m *MockGateway) Chat(ctx context.Context, query string, docs []domain.Document, preamble string, temperature float64) (port.ChatResult, error) {
	if len(docs) == 0 {
		return port.ChatResult{Text: "I could not find any kitchen notes relevant to that question."}, nil
	}

	top := docs[0]
	claim := firstSentence(top.Body)
	text := fmt.Sprintf("According to %q: %s", top.Title, claim)

	start := strings.Index(text, claim)
	return port.ChatResult{
		Text: text,
		Citations: []domain.Citation{
			{Start: start, End: start + len(claim), DocumentID: top.ID},
		},
	}, nil
}

func (m *MockGateway) Dimension() int {
	return m.dimension
}

func (m *MockGateway) ModelName() string {
	return "mock"
}

func firstSentence(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, ".!?"); i >= 0 {
		return s[:i+1]
	}
	return s
}
