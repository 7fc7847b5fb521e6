package usecase

import (
	"math"
	"sort"
	"time"

	"souschef/internal/domain"
)

// Index is an immutable embedded document set ready for search.
type Index struct {
	docs      []domain.EmbeddedDocument
	dimension int
}

func NewIndex(docs []domain.EmbeddedDocument) *Index {
	dimension := 0
	if len(docs) > 0 {
		dimension = len(docs[0].Embedding)
	}
	return &Index{docs: docs, dimension: dimension}
}

// Size returns the number of indexed documents.
func (x *Index) Size() int {
	return len(x.docs)
}

// Dimension returns the embedding dimension, 0 for an empty index.
func (x *Index) Dimension() int {
	return x.dimension
}

// ComputedAt returns the newest embedding timestamp in the index.
func (x *Index) ComputedAt() time.Time {
	var latest time.Time
	for i := range x.docs {
		if x.docs[i].ComputedAt.After(latest) {
			latest = x.docs[i].ComputedAt
		}
	}
	return latest
}

// CategoryCounts returns document counts per category.
func (x *Index) CategoryCounts() map[domain.Category]int {
	counts := make(map[domain.Category]int)
	for i := range x.docs {
		counts[x.docs[i].Category]++
	}
	return counts
}

// TopK scans the whole index and returns the k documents most similar
// to the query vector, most similar first. Ties keep indexing order.
// Documents without a defined similarity to the query are left out.
func (x *Index) TopK(query []float32, k int) []domain.Document {
	if k <= 0 || len(x.docs) == 0 {
		return nil
	}

	type scored struct {
		idx   int
		score float64
	}

	scores := make([]scored, 0, len(x.docs))
	for i := range x.docs {
		score := cosineSimilarity(query, x.docs[i].Embedding)
		if math.IsNaN(score) {
			continue
		}
		scores = append(scores, scored{idx: i, score: score})
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].score > scores[j].score
	})

	if k > len(scores) {
		k = len(scores)
	}

	results := make([]domain.Document, k)
	for i := 0; i < k; i++ {
		results[i] = x.docs[scores[i].idx].Document
	}

	return results
}

// cosineSimilarity calculates the cosine similarity between two vectors,
// accumulating in float64. Mismatched or empty inputs and zero-magnitude
// vectors have no defined similarity and yield NaN.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return math.NaN()
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return math.NaN()
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
