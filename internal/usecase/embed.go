package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"souschef/internal/domain"
	"souschef/internal/port"
)

const defaultBatchSize = 96

// ProgressFunc reports embedding progress as documents complete.
type ProgressFunc func(done, total int)

// BatchEmbedder embeds document sets through the gateway in bounded,
// sequential batches with a fixed pause between them.
type BatchEmbedder struct {
	embedder  port.Embedder
	batchSize int
	delay     time.Duration
	progress  ProgressFunc
	logger    *slog.Logger
}

func NewBatchEmbedder(embedder port.Embedder, batchSize int, delay time.Duration, progress ProgressFunc, logger *slog.Logger) *BatchEmbedder {
	if batchSize <= 0 || batchSize > defaultBatchSize {
		batchSize = defaultBatchSize
	}
	return &BatchEmbedder{
		embedder:  embedder,
		batchSize: batchSize,
		delay:     delay,
		progress:  progress,
		logger:    logger.With("component", "embed"),
	}
}

// EmbedDocuments embeds every document with document intent, returning
// one vector per document in input order. A failed batch fails the whole
// operation; nothing is retried here.
func (b *BatchEmbedder) EmbedDocuments(ctx context.Context, docs []domain.Document) ([][]float32, error) {
	if len(docs) == 0 {
		return nil, nil
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = embeddingText(d)
	}

	// Burst 1 lets the first batch through immediately and makes every
	// later batch wait out the configured delay. No wait runs after the
	// final batch.
	limiter := rate.NewLimiter(rate.Every(b.delay), 1)

	vectors := make([][]float32, 0, len(docs))
	for start := 0; start < len(texts); start += b.batchSize {
		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}

		end := start + b.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[start:end]

		embeddings, err := b.embedder.Embed(ctx, batch, port.IntentDocument)
		if err != nil {
			return nil, fmt.Errorf("embedding documents %d-%d: %w", start, end-1, err)
		}
		if len(embeddings) != len(batch) {
			return nil, fmt.Errorf("gateway returned %d embeddings for %d documents", len(embeddings), len(batch))
		}

		vectors = append(vectors, embeddings...)
		if b.progress != nil {
			b.progress(len(vectors), len(docs))
		}
	}

	dimension := len(vectors[0])
	for i, v := range vectors {
		if len(v) != dimension {
			return nil, fmt.Errorf("inconsistent embedding dimensions: document %d has %d, want %d", i, len(v), dimension)
		}
	}

	b.logger.Debug("embedded documents",
		"documents", len(docs),
		"batch_size", b.batchSize,
		"dimension", dimension)

	return vectors, nil
}

// embeddingText is the text a document is embedded under.
func embeddingText(d domain.Document) string {
	if d.Title == "" {
		return d.Body
	}
	return d.Title + "\n\n" + d.Body
}
