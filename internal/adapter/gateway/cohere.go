package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"souschef/internal/domain"
	"souschef/internal/port"
)

// maxTextsPerRequest is the gateway's hard ceiling on texts per embed call.
const maxTextsPerRequest = 96

// APIError is an error response from the gateway.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gateway returned status %d: %s", e.StatusCode, e.Message)
}

// CohereClient talks to the Cohere embed and chat endpoints.
type CohereClient struct {
	apiKey     string
	baseURL    string
	embedModel string
	chatModel  string
	dimension  int
	client     *http.Client
}

type embedRequest struct {
	Texts     []string `json:"texts"`
	Model     string   `json:"model"`
	InputType string   `json:"input_type"`
	Truncate  string   `json:"truncate"`
}

type embedResponse struct {
	ID         string      `json:"id"`
	Embeddings [][]float32 `json:"embeddings"`
	Message    string      `json:"message,omitempty"`
}

type chatRequest struct {
	Model       string         `json:"model"`
	Message     string         `json:"message"`
	Preamble    string         `json:"preamble,omitempty"`
	Temperature float64        `json:"temperature"`
	Documents   []chatDocument `json:"documents,omitempty"`
}

type chatDocument struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

type chatResponse struct {
	ResponseID string         `json:"response_id"`
	Text       string         `json:"text"`
	Citations  []chatCitation `json:"citations"`
	Message    string         `json:"message,omitempty"`
}

type chatCitation struct {
	Start       int      `json:"start"`
	End         int      `json:"end"`
	Text        string   `json:"text"`
	DocumentIDs []string `json:"document_ids"`
}

// NewCohereClient creates a client for the Cohere API. The API key is
// read from the environment variable named by apiKeyEnv.
func NewCohereClient(apiKeyEnv, embedModel, chatModel, baseURL string, timeout time.Duration) (*CohereClient, error) {
	apiKey := os.Getenv(apiKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("API key not found in environment variable: %s", apiKeyEnv)
	}

	if baseURL == "" {
		baseURL = "https://api.cohere.com"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	dimension := 1024
	switch embedModel {
	case "embed-english-v3.0", "embed-multilingual-v3.0":
		dimension = 1024
	case "embed-english-light-v3.0", "embed-multilingual-light-v3.0":
		dimension = 384
	}

	return &CohereClient{
		apiKey:     apiKey,
		baseURL:    baseURL,
		embedModel: embedModel,
		chatModel:  chatModel,
		dimension:  dimension,
		client: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Embed generates one embedding per text. Callers must keep batches
// within maxTextsPerRequest; partitioning larger inputs is not this
// client's job.
func (c *CohereClient) Embed(ctx context.Context, texts []string, intent port.Intent) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if len(texts) > maxTextsPerRequest {
		return nil, fmt.Errorf("embed request exceeds %d texts: got %d", maxTextsPerRequest, len(texts))
	}

	reqBody := embedRequest{
		Texts:     texts,
		Model:     c.embedModel,
		InputType: string(intent),
		Truncate:  "END",
	}

	var embResp embedResponse
	if err := c.post(ctx, "/v1/embed", reqBody, &embResp); err != nil {
		return nil, err
	}

	if len(embResp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(embResp.Embeddings))
	}

	return embResp.Embeddings, nil
}

// Chat answers the query grounded in the given documents.
func (c *CohereClient) Chat(ctx context.Context, query string, docs []domain.Document, preamble string, temperature float64) (port.ChatResult, error) {
	reqBody := chatRequest{
		Model:       c.chatModel,
		Message:     query,
		Preamble:    preamble,
		Temperature: temperature,
		Documents:   make([]chatDocument, len(docs)),
	}
	for i, d := range docs {
		reqBody.Documents[i] = chatDocument{
			ID:      d.ID,
			Title:   d.Title,
			Snippet: d.Body,
		}
	}

	var chatResp chatResponse
	if err := c.post(ctx, "/v1/chat", reqBody, &chatResp); err != nil {
		return port.ChatResult{}, err
	}

	result := port.ChatResult{Text: chatResp.Text}
	for _, cit := range chatResp.Citations {
		// One citation per referenced document.
		for _, docID := range cit.DocumentIDs {
			result.Citations = append(result.Citations, domain.Citation{
				Start:      cit.Start,
				End:        cit.End,
				DocumentID: docID,
			})
		}
	}

	return result, nil
}

// post sends a JSON request and decodes the JSON response into out.
func (c *CohereClient) post(ctx context.Context, path string, reqBody, out any) error {
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiResp struct {
			Message string `json:"message"`
		}
		message := string(body)
		if err := json.Unmarshal(body, &apiResp); err == nil && apiResp.Message != "" {
			message = apiResp.Message
		}
		return &APIError{StatusCode: resp.StatusCode, Message: message}
	}

	if err := json.Unmarshal(body, out); err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200]
		}
		return fmt.Errorf("failed to parse response (body: %s): %w", bodyPreview, err)
	}

	return nil
}

// Dimension returns the embedding vector dimension.
func (c *CohereClient) Dimension() int {
	return c.dimension
}

// ModelName returns the name of the embedding model.
func (c *CohereClient) ModelName() string {
	return c.embedModel
}
