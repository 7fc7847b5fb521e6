package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"souschef/internal/domain"
	"souschef/internal/port"
)

// Index lifecycle states, reported by Stats and the health endpoint.
const (
	StateIdle         = "idle"
	StateInitializing = "initializing"
	StateReady        = "ready"
)

// Manager owns the knowledge index. The index is built once, on demand,
// and is immutable after publication. Concurrent first callers share a
// single build; a failed build publishes nothing, and the next call
// starts a fresh build.
type Manager struct {
	loader   port.SourceLoader
	cache    port.EmbeddingCache
	embedder *BatchEmbedder
	logger   *slog.Logger

	group singleflight.Group

	mu       sync.RWMutex
	index    *Index
	building bool
}

func NewManager(loader port.SourceLoader, cache port.EmbeddingCache, embedder *BatchEmbedder, logger *slog.Logger) *Manager {
	return &Manager{
		loader:   loader,
		cache:    cache,
		embedder: embedder,
		logger:   logger.With("component", "index"),
	}
}

// Index returns the published index, building it first if needed.
func (m *Manager) Index(ctx context.Context) (*Index, error) {
	m.mu.RLock()
	idx := m.index
	m.mu.RUnlock()
	if idx != nil {
		return idx, nil
	}

	return m.initialize(ctx, false)
}

// Rebuild recomputes the index from sources, ignoring the embedding
// cache, and publishes the result.
func (m *Manager) Rebuild(ctx context.Context) (*Index, error) {
	return m.initialize(ctx, true)
}

func (m *Manager) initialize(ctx context.Context, force bool) (*Index, error) {
	key := "build"
	if force {
		key = "rebuild"
	}

	v, err, _ := m.group.Do(key, func() (any, error) {
		if !force {
			// A build that finished while this caller queued wins.
			m.mu.RLock()
			idx := m.index
			m.mu.RUnlock()
			if idx != nil {
				return idx, nil
			}
		}

		m.setBuilding(true)
		defer m.setBuilding(false)

		idx, err := m.build(ctx, force)
		if err != nil {
			return nil, err
		}

		m.mu.Lock()
		m.index = idx
		m.mu.Unlock()

		return idx, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Index), nil
}

func (m *Manager) build(ctx context.Context, force bool) (*Index, error) {
	start := time.Now()

	if !force {
		if cached, ok := m.cache.Load(); ok {
			m.logger.Info("index loaded from embedding cache", "documents", len(cached))
			return NewIndex(cached), nil
		}
	}

	docs, err := m.loader.Load()
	if err != nil {
		return nil, fmt.Errorf("loading knowledge sources: %w", err)
	}

	vectors, err := m.embedder.EmbedDocuments(ctx, docs)
	if err != nil {
		return nil, fmt.Errorf("embedding knowledge: %w", err)
	}

	now := time.Now().UTC()
	embedded := make([]domain.EmbeddedDocument, len(docs))
	for i := range docs {
		embedded[i] = domain.EmbeddedDocument{
			Document:   docs[i],
			Embedding:  vectors[i],
			ComputedAt: now,
		}
	}

	if err := m.cache.Save(embedded); err != nil {
		// The built index is still good; the next start recomputes.
		m.logger.Warn("failed to save embedding cache", "error", err)
	}

	m.logger.Info("index built",
		"documents", len(embedded),
		"elapsed", time.Since(start))

	return NewIndex(embedded), nil
}

// LoadCached publishes the index from the embedding cache without
// touching the gateway, reporting whether a usable cache existed. For
// read-only consumers that must never trigger an embedding run.
func (m *Manager) LoadCached() bool {
	m.mu.RLock()
	published := m.index != nil
	m.mu.RUnlock()
	if published {
		return true
	}

	cached, ok := m.cache.Load()
	if !ok {
		return false
	}

	m.mu.Lock()
	if m.index == nil {
		m.index = NewIndex(cached)
	}
	m.mu.Unlock()
	return true
}

func (m *Manager) setBuilding(v bool) {
	m.mu.Lock()
	m.building = v
	m.mu.Unlock()
}

// State reports the index lifecycle state.
func (m *Manager) State() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	switch {
	case m.index != nil:
		return StateReady
	case m.building:
		return StateInitializing
	default:
		return StateIdle
	}
}

// Stats summarizes the published index. Before publication only the
// state is filled in.
func (m *Manager) Stats() domain.Stats {
	stats := domain.Stats{State: m.State()}

	m.mu.RLock()
	idx := m.index
	m.mu.RUnlock()
	if idx == nil {
		return stats
	}

	stats.Documents = idx.Size()
	stats.Categories = idx.CategoryCounts()
	stats.Dimension = idx.Dimension()
	stats.ComputedAt = idx.ComputedAt()
	return stats
}
