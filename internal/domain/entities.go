package domain

import (
	"errors"
	"time"
)

// Category classifies a knowledge entry by the kind of cooking question it answers.
type Category string

const (
	CategoryRecipes       Category = "recipes"
	CategoryTechniques    Category = "techniques"
	CategoryNutrition     Category = "nutrition"
	CategorySubstitutions Category = "substitutions"
	CategoryFoodSafety    Category = "food_safety"
	CategoryEquipment     Category = "equipment"
	CategoryCookingAdvice Category = "cooking_advice"
	CategoryGeneral       Category = "general"
)

// Categories returns all known categories in canonical order.
func Categories() []Category {
	return []Category{
		CategoryRecipes,
		CategoryTechniques,
		CategoryNutrition,
		CategorySubstitutions,
		CategoryFoodSafety,
		CategoryEquipment,
		CategoryCookingAdvice,
		CategoryGeneral,
	}
}

// ParseCategory reports whether s names a known category.
func ParseCategory(s string) (Category, bool) {
	for _, c := range Categories() {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

type Document struct {
	ID       string
	Category Category
	Title    string
	Body     string
}

// EmbeddedDocument is a Document paired with its embedding vector.
type EmbeddedDocument struct {
	Document
	Embedding  []float32
	ComputedAt time.Time
}

// Citation marks the half-open byte range [Start, End) of an answer's text
// that is grounded in the document identified by DocumentID.
type Citation struct {
	Start      int    `json:"start"`
	End        int    `json:"end"`
	DocumentID string `json:"document_id"`
}

type Answer struct {
	Text                 string     `json:"text"`
	Citations            []Citation `json:"citations"`
	DocumentsUsed        int        `json:"documents_used"`
	CategoriesReferenced []Category `json:"categories_referenced"`
}

// Stats summarizes the state of the knowledge index.
type Stats struct {
	State      string           `json:"state"`
	Documents  int              `json:"documents"`
	Categories map[Category]int `json:"categories,omitempty"`
	Dimension  int              `json:"dimension,omitempty"`
	ComputedAt time.Time        `json:"computed_at,omitempty"`
}

// ErrEmptyQuery is returned when a prompt is empty or only whitespace.
var ErrEmptyQuery = errors.New("query is empty")
