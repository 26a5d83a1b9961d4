package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"
)

// GeminiConfig configures the Gemini embeddings client.
type GeminiConfig struct {
	APIKeyEnv string
	Model     string
	Timeout   time.Duration
}

// Gemini embeds text via the Google Generative Language API.
type Gemini struct {
	apiKey string
	model  string
	client *http.Client

	mu        sync.Mutex
	dimension int
}

func NewGemini(cfg GeminiConfig) (*Gemini, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.Model == "" {
		cfg.Model = "text-embedding-004"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Gemini{
		apiKey: key,
		model:  cfg.Model,
		client: &http.Client{Timeout: timeout},
	}, nil
}

func (g *Gemini) Name() string { return "gemini" }

func (g *Gemini) Dimension() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.dimension
}

type geminiEmbedRequest struct {
	Content struct {
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"content"`
}

// Embed returns the embedding vector for text.
func (g *Gemini) Embed(ctx context.Context, text string) ([]float64, error) {
	var body geminiEmbedRequest
	body.Content.Parts = []struct {
		Text string `json:"text"`
	}{{Text: text}}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("https://generativelanguage.googleapis.com/v1/models/%s:embedContent", g.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-goog-api-key", g.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gemini embedding failed, code %d, body %s", resp.StatusCode, payload)
	}
	var out struct {
		Embedding struct {
			Values []float64 `json:"values"`
		} `json:"embedding"`
	}
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, err
	}
	vec := out.Embedding.Values
	if len(vec) == 0 {
		return nil, fmt.Errorf("gemini returned an empty embedding")
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.dimension == 0 {
		g.dimension = len(vec)
	} else if len(vec) != g.dimension {
		return nil, fmt.Errorf("embedding dimension changed: got %d, want %d", len(vec), g.dimension)
	}
	return vec, nil
}
