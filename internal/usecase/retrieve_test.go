package usecase

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"souschef/internal/domain"
)

func TestCosineSimilarity_SelfIsOne(t *testing.T) {
	vectors := [][]float32{
		{1, 0, 0},
		{0.5, 0.5, 0.5},
		{-1, 2, -3, 4},
	}
	for _, v := range vectors {
		got := cosineSimilarity(v, v)
		if math.Abs(got-1) > 1e-6 {
			t.Errorf("cosineSimilarity(%v, self) = %v, want 1", v, got)
		}
	}
}

func TestCosineSimilarity_Symmetry(t *testing.T) {
	a := []float32{1, 2, 3, 4}
	b := []float32{-2, 0.5, 7, 1}

	if cosineSimilarity(a, b) != cosineSimilarity(b, a) {
		t.Error("cosine similarity must be symmetric")
	}
}

func TestCosineSimilarity_Orthogonal(t *testing.T) {
	got := cosineSimilarity([]float32{1, 0}, []float32{0, 1})
	if math.Abs(got) > 1e-9 {
		t.Errorf("orthogonal vectors: got %v, want 0", got)
	}
}

func TestCosineSimilarity_Degenerate(t *testing.T) {
	cases := []struct {
		name string
		a, b []float32
	}{
		{"zero vector", []float32{0, 0, 0}, []float32{1, 2, 3}},
		{"both zero", []float32{0, 0}, []float32{0, 0}},
		{"length mismatch", []float32{1, 2}, []float32{1, 2, 3}},
		{"empty", nil, nil},
	}
	for _, tc := range cases {
		if got := cosineSimilarity(tc.a, tc.b); !math.IsNaN(got) {
			t.Errorf("%s: got %v, want NaN", tc.name, got)
		}
	}
}

func testIndex() *Index {
	// Unit vectors at increasing angles from (1, 0); doc order is not
	// similarity order so sorting is actually exercised.
	angles := map[string]float64{
		"recipes_1":    1.2,
		"recipes_2":    0.1,
		"techniques_1": 0.8,
		"nutrition_1":  0.4,
	}
	ids := []string{"recipes_1", "recipes_2", "techniques_1", "nutrition_1"}

	docs := make([]domain.EmbeddedDocument, 0, len(ids))
	for _, id := range ids {
		a := angles[id]
		cat, _ := domain.ParseCategory(id[:len(id)-2])
		docs = append(docs, domain.EmbeddedDocument{
			Document:  domain.Document{ID: id, Category: cat, Title: id},
			Embedding: []float32{float32(math.Cos(a)), float32(math.Sin(a))},
		})
	}
	return NewIndex(docs)
}

func TestTopK_SortedByDescendingSimilarity(t *testing.T) {
	idx := testIndex()
	query := []float32{1, 0}

	got := idx.TopK(query, 4)
	want := []string{"recipes_2", "nutrition_1", "techniques_1", "recipes_1"}

	if len(got) != len(want) {
		t.Fatalf("expected %d results, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].ID != want[i] {
			t.Errorf("result %d: got %s, want %s", i, got[i].ID, want[i])
		}
	}
}

func TestTopK_LengthIsMinKAndSize(t *testing.T) {
	idx := testIndex()
	query := []float32{1, 0}

	if got := idx.TopK(query, 2); len(got) != 2 {
		t.Errorf("k=2: got %d results", len(got))
	}
	if got := idx.TopK(query, 100); len(got) != idx.Size() {
		t.Errorf("k>size: got %d results, want %d", len(got), idx.Size())
	}
	if got := idx.TopK(query, 0); got != nil {
		t.Errorf("k=0: got %v, want nil", got)
	}
}

func TestTopK_EmptyIndex(t *testing.T) {
	idx := NewIndex(nil)
	if got := idx.TopK([]float32{1, 0}, 8); len(got) != 0 {
		t.Errorf("empty index: got %d results", len(got))
	}
}

func TestTopK_TiesKeepIndexOrder(t *testing.T) {
	docs := []domain.EmbeddedDocument{
		{Document: domain.Document{ID: "a"}, Embedding: []float32{1, 0}},
		{Document: domain.Document{ID: "b"}, Embedding: []float32{2, 0}}, // same direction as a
		{Document: domain.Document{ID: "c"}, Embedding: []float32{0, 1}},
	}
	idx := NewIndex(docs)

	got := idx.TopK([]float32{1, 0}, 3)
	if got[0].ID != "a" || got[1].ID != "b" {
		t.Errorf("tied scores must keep index order, got %s then %s", got[0].ID, got[1].ID)
	}
}

func TestTopK_SkipsUndefinedSimilarity(t *testing.T) {
	docs := []domain.EmbeddedDocument{
		{Document: domain.Document{ID: "zero"}, Embedding: []float32{0, 0}},
		{Document: domain.Document{ID: "ok"}, Embedding: []float32{1, 1}},
	}
	idx := NewIndex(docs)

	got := idx.TopK([]float32{1, 0}, 8)
	if len(got) != 1 || got[0].ID != "ok" {
		t.Errorf("expected only the well-defined document, got %v", got)
	}
}

func TestIndex_CategoryCounts(t *testing.T) {
	idx := testIndex()
	counts := idx.CategoryCounts()

	if counts[domain.CategoryRecipes] != 2 {
		t.Errorf("recipes: got %d, want 2", counts[domain.CategoryRecipes])
	}
	if counts[domain.CategoryTechniques] != 1 || counts[domain.CategoryNutrition] != 1 {
		t.Errorf("unexpected counts: %v", counts)
	}
}

func BenchmarkTopK(b *testing.B) {
	rng := rand.New(rand.NewSource(42))
	const dim = 1024

	docs := make([]domain.EmbeddedDocument, 1000)
	for i := range docs {
		v := make([]float32, dim)
		for j := range v {
			v[j] = rng.Float32()
		}
		docs[i] = domain.EmbeddedDocument{
			Document:  domain.Document{ID: fmt.Sprintf("general_%d", i+1)},
			Embedding: v,
		}
	}
	idx := NewIndex(docs)

	query := make([]float32, dim)
	for j := range query {
		query[j] = rng.Float32()
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		idx.TopK(query, 8)
	}
}
