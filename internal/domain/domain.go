package domain

import (
	"context"
	"time"
)

// Chunk is a contiguous segment of the source transcript used for indexing.
// Vector is nil until the embedding stage attaches it; it is set exactly once.
type Chunk struct {
	Index  int
	Text   string
	Vector []float64
}

// Embedded reports whether the embedding stage has run for this chunk.
func (c Chunk) Embedded() bool { return c.Vector != nil }

// SearchResult is a matching chunk with its cosine similarity score.
type SearchResult struct {
	Chunk Chunk
	Score float64
}

// SessionStatus describes the ingestion state of the current source.
type SessionStatus string

const (
	StatusEmpty      SessionStatus = "empty"
	StatusInProgress SessionStatus = "in_progress"
	StatusReady      SessionStatus = "ready"
	StatusFailed     SessionStatus = "failed"
)

// Transcript is the raw text returned by the transcript service, together
// with the source duration so the size policy can run before embedding.
type Transcript struct {
	Text     string
	Duration time.Duration
}

// TranscriptSource fetches the transcript for a source identifier (a video URL).
type TranscriptSource interface {
	Fetch(ctx context.Context, sourceID string) (Transcript, error)
}

// Embedder converts free text into a fixed-length numeric vector.
// Dimension returns 0 until the first successful Embed when the
// implementation learns its dimensionality lazily.
type Embedder interface {
	Name() string
	Dimension() int
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Generator produces an answer for an assembled prompt.
type Generator interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// Summarizer produces a brief summary of the provided text.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}
