package port

import "context"

// Intent tells the embedding service how a text will be used. Retrieval
// quality depends on documents and queries being embedded with matching
// intents.
type Intent string

const (
	// IntentDocument marks texts that are stored and searched against.
	IntentDocument Intent = "search_document"

	// IntentQuery marks texts used to search stored documents.
	IntentQuery Intent = "search_query"
)

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Embed generates embeddings for the given texts with the given intent.
	// Returns a slice of vectors, one per input text, in input order.
	Embed(ctx context.Context, texts []string, intent Intent) ([][]float32, error)

	// Dimension returns the embedding vector dimension.
	Dimension() int

	// ModelName returns the name of the embedding model.
	ModelName() string
}
