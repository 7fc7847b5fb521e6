package port

import (
	"context"

	"souschef/internal/domain"
)

// Generator produces grounded answers from a query and supporting documents.
type Generator interface {
	// Chat answers the query using the given documents as grounding context.
	// Citations in the result refer to IDs of the provided documents.
	Chat(ctx context.Context, query string, docs []domain.Document, preamble string, temperature float64) (ChatResult, error)
}

// ChatResult is the generator's raw output before answer assembly.
type ChatResult struct {
	Text      string
	Citations []domain.Citation
}
