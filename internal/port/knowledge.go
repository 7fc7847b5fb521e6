package port

import "souschef/internal/domain"

// SourceLoader loads knowledge documents from their backing sources.
type SourceLoader interface {
	// Load reads all configured sources and returns their documents.
	// Unreadable or malformed sources are skipped, not fatal.
	Load() ([]domain.Document, error)
}

// EmbeddingCache persists embedded documents between runs.
type EmbeddingCache interface {
	// Load returns the cached set and true, or false when no usable
	// cache exists. A missing or corrupt cache is not an error.
	Load() ([]domain.EmbeddedDocument, bool)

	// Save replaces the cached set with docs.
	Save(docs []domain.EmbeddedDocument) error
}
