package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"souschef/internal/domain"
	"souschef/internal/port"
)

func newTestClient(t *testing.T, handler http.Handler) *CohereClient {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	t.Setenv("TEST_GATEWAY_KEY", "test-key")
	client, err := NewCohereClient("TEST_GATEWAY_KEY", "embed-english-v3.0", "command-r", srv.URL, 5*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	return client
}

func TestNewCohereClient_MissingKey(t *testing.T) {
	t.Setenv("TEST_GATEWAY_KEY", "")
	if _, err := NewCohereClient("TEST_GATEWAY_KEY", "embed-english-v3.0", "command-r", "", 0); err == nil {
		t.Error("expected error for missing API key, got nil")
	}
}

func TestCohereClient_Dimension(t *testing.T) {
	t.Setenv("TEST_GATEWAY_KEY", "k")

	client, err := NewCohereClient("TEST_GATEWAY_KEY", "embed-english-v3.0", "command-r", "", 0)
	if err != nil {
		t.Fatal(err)
	}
	if client.Dimension() != 1024 {
		t.Errorf("expected dimension 1024, got %d", client.Dimension())
	}

	light, err := NewCohereClient("TEST_GATEWAY_KEY", "embed-english-light-v3.0", "command-r", "", 0)
	if err != nil {
		t.Fatal(err)
	}
	if light.Dimension() != 384 {
		t.Errorf("expected dimension 384, got %d", light.Dimension())
	}
}

func TestCohereClient_Embed(t *testing.T) {
	var gotReq embedRequest
	var gotAuth string

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embed" {
			t.Errorf("expected path /v1/embed, got %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatal(err)
		}
		json.NewEncoder(w).Encode(embedResponse{
			ID:         "emb-1",
			Embeddings: [][]float32{{0.1, 0.2}, {0.3, 0.4}},
		})
	}))

	vecs, err := client.Embed(context.Background(), []string{"roux basics", "how to sear"}, port.IntentDocument)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotAuth != "Bearer test-key" {
		t.Errorf("expected bearer auth, got %q", gotAuth)
	}
	if gotReq.InputType != "search_document" {
		t.Errorf("expected input_type search_document, got %q", gotReq.InputType)
	}
	if gotReq.Model != "embed-english-v3.0" {
		t.Errorf("expected embed model, got %q", gotReq.Model)
	}
	if len(vecs) != 2 || vecs[1][0] != 0.3 {
		t.Errorf("unexpected embeddings: %v", vecs)
	}
}

func TestCohereClient_Embed_QueryIntent(t *testing.T) {
	var gotReq embedRequest

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatal(err)
		}
		json.NewEncoder(w).Encode(embedResponse{Embeddings: [][]float32{{1}}})
	}))

	if _, err := client.Embed(context.Background(), []string{"what is a roux"}, port.IntentQuery); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotReq.InputType != "search_query" {
		t.Errorf("expected input_type search_query, got %q", gotReq.InputType)
	}
}

func TestCohereClient_Embed_TooManyTexts(t *testing.T) {
	requests := 0
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))

	texts := make([]string, maxTextsPerRequest+1)
	for i := range texts {
		texts[i] = "text"
	}

	if _, err := client.Embed(context.Background(), texts, port.IntentDocument); err == nil {
		t.Error("expected error for oversized batch, got nil")
	}
	if requests != 0 {
		t.Errorf("oversized batch must not reach the gateway, saw %d requests", requests)
	}
}

func TestCohereClient_Embed_Empty(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("empty input must not reach the gateway")
	}))

	vecs, err := client.Embed(context.Background(), nil, port.IntentDocument)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if vecs != nil {
		t.Errorf("expected nil embeddings, got %v", vecs)
	}
}

func TestCohereClient_Embed_APIError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]string{"message": "rate limit exceeded"})
	}))

	_, err := client.Embed(context.Background(), []string{"text"}, port.IntentDocument)
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("expected status 429, got %d", apiErr.StatusCode)
	}
	if apiErr.Message != "rate limit exceeded" {
		t.Errorf("expected API message, got %q", apiErr.Message)
	}
}

func TestCohereClient_Embed_CountMismatch(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(embedResponse{Embeddings: [][]float32{{1}}})
	}))

	if _, err := client.Embed(context.Background(), []string{"a", "b"}, port.IntentDocument); err == nil {
		t.Error("expected error for embedding count mismatch, got nil")
	}
}

func TestCohereClient_Chat(t *testing.T) {
	var gotReq chatRequest

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat" {
			t.Errorf("expected path /v1/chat, got %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatal(err)
		}
		json.NewEncoder(w).Encode(chatResponse{
			ResponseID: "chat-1",
			Text:       "Sear the steak in a hot pan.",
			Citations: []chatCitation{
				{Start: 0, End: 27, Text: "Sear the steak in a hot pan", DocumentIDs: []string{"techniques_1", "recipes_2"}},
			},
		})
	}))

	docs := []domain.Document{
		{ID: "techniques_1", Category: domain.CategoryTechniques, Title: "How do I sear?", Body: "Use a ripping hot pan."},
		{ID: "recipes_2", Category: domain.CategoryRecipes, Title: "Steak recipe", Body: "Season, sear, rest."},
	}

	result, err := client.Chat(context.Background(), "how do I cook steak", docs, "be brief", 0.2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotReq.Preamble != "be brief" {
		t.Errorf("expected preamble passthrough, got %q", gotReq.Preamble)
	}
	if gotReq.Temperature != 0.2 {
		t.Errorf("expected temperature 0.2, got %v", gotReq.Temperature)
	}
	if len(gotReq.Documents) != 2 || gotReq.Documents[0].Snippet != "Use a ripping hot pan." {
		t.Errorf("documents not forwarded as id/title/snippet: %+v", gotReq.Documents)
	}

	if result.Text != "Sear the steak in a hot pan." {
		t.Errorf("unexpected text: %q", result.Text)
	}
	// One wire citation with two document IDs flattens to two citations.
	if len(result.Citations) != 2 {
		t.Fatalf("expected 2 citations, got %d", len(result.Citations))
	}
	if result.Citations[0].DocumentID != "techniques_1" || result.Citations[1].DocumentID != "recipes_2" {
		t.Errorf("unexpected citation documents: %+v", result.Citations)
	}
	if result.Citations[0].Start != 0 || result.Citations[0].End != 27 {
		t.Errorf("unexpected citation span: %+v", result.Citations[0])
	}
}

func TestCohereClient_Chat_ParseError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))

	_, err := client.Chat(context.Background(), "query", nil, "", 0)
	if err == nil {
		t.Fatal("expected error for unparseable body, got nil")
	}
	if !strings.Contains(err.Error(), "failed to parse response") {
		t.Errorf("expected parse error with body preview, got: %v", err)
	}
}
