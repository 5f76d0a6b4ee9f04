package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/cognicore/feedback/pkg/feedback/internalerr"
)

// OpenAI calls an OpenAI-compatible /embeddings endpoint.
type OpenAI struct {
	BaseURL    string // e.g. https://api.openai.com/v1
	APIKey     string
	Model      string
	Dimensions int // optional, 0 keeps the model default

	HTTPClient *http.Client
}

type embeddingsRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type embeddingsResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Name implements Embedder. A requested width is part of the name so cached
// vectors of another width are never reused.
func (c *OpenAI) Name() string {
	if c.Dimensions > 0 {
		return fmt.Sprintf("%s@%d", c.Model, c.Dimensions)
	}
	return c.Model
}

// Embed implements Embedder.
func (c *OpenAI) Embed(ctx context.Context, text string) (Vector, error) {
	return embedOne(ctx, c, text)
}

// EmbedBatch implements Embedder.
func (c *OpenAI) EmbedBatch(ctx context.Context, texts []string) ([]Vector, error) {
	if c.BaseURL == "" || c.Model == "" {
		return nil, fmt.Errorf("%w: base URL and model required", internalerr.ErrEmbedderUnavailable)
	}
	if len(texts) == 0 {
		return nil, nil
	}

	reqBody, err := json.Marshal(embeddingsRequest{Model: c.Model, Input: texts, Dimensions: c.Dimensions})
	if err != nil {
		return nil, err
	}
	url := strings.TrimRight(c.BaseURL, "/") + "/embeddings"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrEmbedderUnavailable, err)
	}
	defer resp.Body.Close()

	var payload embeddingsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode embeddings (status %d): %w", resp.StatusCode, err)
	}
	if payload.Error != nil {
		return nil, fmt.Errorf("embeddings error: %s", payload.Error.Message)
	}
	if len(payload.Data) != len(texts) {
		return nil, fmt.Errorf("embeddings: got %d vectors for %d texts", len(payload.Data), len(texts))
	}

	sort.Slice(payload.Data, func(i, j int) bool {
		return payload.Data[i].Index < payload.Data[j].Index
	})
	vectors := make([]Vector, len(payload.Data))
	for i, d := range payload.Data {
		vectors[i] = Vector(d.Embedding)
	}
	return vectors, nil
}

func (c *OpenAI) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 30 * time.Second}
}
