package cache

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"souschef/internal/domain"
)

// DocumentCache persists embedded documents as a single JSON file so the
// index can be republished without re-embedding. A cache that is missing,
// unreadable, or malformed counts as absent, never as an error.
type DocumentCache struct {
	path   string
	logger *slog.Logger
}

type cachedDocument struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Snippet    string    `json:"snippet"`
	Category   string    `json:"category"`
	Embedding  []float32 `json:"embedding"`
	ComputedAt time.Time `json:"computedAt"`
}

func NewDocumentCache(path string, logger *slog.Logger) *DocumentCache {
	return &DocumentCache{
		path:   path,
		logger: logger.With("component", "cache"),
	}
}

// Load returns the cached documents and true, or false when no usable
// cache exists.
func (c *DocumentCache) Load() ([]domain.EmbeddedDocument, bool) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if !os.IsNotExist(err) {
			c.logger.Warn("embedding cache unreadable", "path", c.path, "error", err)
		}
		return nil, false
	}

	var records []cachedDocument
	if err := json.Unmarshal(data, &records); err != nil {
		c.logger.Warn("embedding cache corrupt", "path", c.path, "error", err)
		return nil, false
	}
	if len(records) == 0 {
		return nil, false
	}

	docs := make([]domain.EmbeddedDocument, len(records))
	dimension := len(records[0].Embedding)
	for i, r := range records {
		category, ok := domain.ParseCategory(r.Category)
		if !ok || r.ID == "" || len(r.Embedding) == 0 || len(r.Embedding) != dimension {
			c.logger.Warn("embedding cache has malformed records, ignoring it", "path", c.path)
			return nil, false
		}

		docs[i] = domain.EmbeddedDocument{
			Document: domain.Document{
				ID:       r.ID,
				Category: category,
				Title:    r.Title,
				Body:     r.Snippet,
			},
			Embedding:  r.Embedding,
			ComputedAt: r.ComputedAt,
		}
	}

	return docs, true
}

// Save writes the full document set, replacing any previous cache. The
// write goes through a temp file in the target directory so readers only
// ever see a complete cache.
func (c *DocumentCache) Save(docs []domain.EmbeddedDocument) error {
	records := make([]cachedDocument, len(docs))
	for i, d := range docs {
		records[i] = cachedDocument{
			ID:         d.ID,
			Title:      d.Title,
			Snippet:    d.Body,
			Category:   string(d.Category),
			Embedding:  d.Embedding,
			ComputedAt: d.ComputedAt,
		}
	}

	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to marshal embedding cache: %w", err)
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "embeddings-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp cache file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close cache file: %w", err)
	}

	if err := os.Rename(tmp.Name(), c.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace cache: %w", err)
	}

	return nil
}
