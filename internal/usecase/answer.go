package usecase

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"strings"

	"souschef/internal/adapter/cache"
	"souschef/internal/domain"
	"souschef/internal/port"
)

// defaultPreamble steers the generator when the config does not
// override it.
//
//go:embed preamble.txt
var defaultPreamble string

// Answerer turns a user prompt into a grounded answer: ensure the index
// exists, embed the prompt, retrieve the closest documents, and hand
// them to the generator.
type Answerer struct {
	manager     *Manager
	embedder    port.Embedder
	generator   port.Generator
	cache       *cache.AnswerCache
	preamble    string
	temperature float64
	topK        int
	logger      *slog.Logger
}

func NewAnswerer(manager *Manager, embedder port.Embedder, generator port.Generator, answerCache *cache.AnswerCache, preamble string, temperature float64, topK int, logger *slog.Logger) *Answerer {
	if preamble == "" {
		preamble = defaultPreamble
	}
	if topK <= 0 {
		topK = 8
	}
	return &Answerer{
		manager:     manager,
		embedder:    embedder,
		generator:   generator,
		cache:       answerCache,
		preamble:    preamble,
		temperature: temperature,
		topK:        topK,
		logger:      logger.With("component", "answer"),
	}
}

// Answer answers prompt from the knowledge index. An empty prompt fails
// before any gateway call or index access. A failed call leaves the
// index untouched; the same prompt can simply be retried.
func (a *Answerer) Answer(ctx context.Context, prompt string) (*domain.Answer, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, domain.ErrEmptyQuery
	}

	if a.cache != nil {
		if answer, ok := a.cache.Get(prompt, a.topK); ok {
			a.logger.Debug("answer cache hit")
			return answer, nil
		}
	}

	idx, err := a.manager.Index(ctx)
	if err != nil {
		return nil, err
	}

	vectors, err := a.embedder.Embed(ctx, []string{prompt}, port.IntentQuery)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("gateway returned %d embeddings for one query", len(vectors))
	}

	docs := idx.TopK(vectors[0], a.topK)

	result, err := a.generator.Chat(ctx, prompt, docs, a.preamble, a.temperature)
	if err != nil {
		return nil, fmt.Errorf("generating answer: %w", err)
	}

	answer := &domain.Answer{
		Text:                 result.Text,
		Citations:            result.Citations,
		DocumentsUsed:        len(docs),
		CategoriesReferenced: referencedCategories(docs),
	}

	a.logger.Debug("answered",
		"documents_used", answer.DocumentsUsed,
		"citations", len(answer.Citations))

	if a.cache != nil {
		a.cache.Put(prompt, a.topK, answer)
	}

	return answer, nil
}

// CacheSize reports the number of cached answers, for stats.
func (a *Answerer) CacheSize() int {
	if a.cache == nil {
		return 0
	}
	return a.cache.Size()
}

// referencedCategories lists the distinct categories of docs in first
// appearance order.
func referencedCategories(docs []domain.Document) []domain.Category {
	seen := make(map[domain.Category]bool)
	var categories []domain.Category
	for _, d := range docs {
		if !seen[d.Category] {
			seen[d.Category] = true
			categories = append(categories, d.Category)
		}
	}
	return categories
}
