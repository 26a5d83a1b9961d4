// Package pipeline orchestrates the two request flows: ingestion
// (fetch, segment, embed, index) and retrieval (embed, search, prompt,
// generate). Both stream ordered progress events to the caller and end in
// exactly one terminal event.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"clipchat/internal/chunker"
	"clipchat/internal/domain"
	"clipchat/internal/event"
	"clipchat/internal/vectorstore"
)

var (
	// ErrBusy is reported when an ingestion starts while another is in
	// flight. New ingestions are rejected, not cancelled into.
	ErrBusy = errors.New("an ingestion is already in progress")

	// ErrEmptySource is reported for transcripts with no usable text.
	ErrEmptySource = errors.New("transcript is empty, nothing to index")

	// ErrSourceTooLong is reported when the source exceeds the configured
	// size policy, checked before any embedding cost is incurred.
	ErrSourceTooLong = errors.New("source exceeds the configured size limit")

	// ErrNotReady is re-exported so callers need not import vectorstore.
	ErrNotReady = vectorstore.ErrNotReady
)

// Config bounds the pipeline's work.
type Config struct {
	ChunkSize    int           // target chunk length in runes
	ChunkOverlap int           // overlap between consecutive chunks
	EmbedWorkers int           // bounded fan-out for embedding calls
	TopK         int           // retrieved chunks per question
	MaxDuration  time.Duration // reject sources longer than this, 0 = no limit
	MaxChars     int           // reject transcripts longer than this, 0 = no limit
	CallTimeout  time.Duration // per collaborator call
}

func (c *Config) applyDefaults() {
	if c.ChunkSize <= 0 {
		c.ChunkSize = 1000
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		c.ChunkOverlap = 200
	}
	if c.EmbedWorkers <= 0 {
		c.EmbedWorkers = 5
	}
	if c.TopK <= 0 {
		c.TopK = 4
	}
	if c.CallTimeout <= 0 {
		c.CallTimeout = 60 * time.Second
	}
}

// Pipeline owns the session: the vector index for the one live source and
// the single-writer rule over it.
type Pipeline struct {
	cfg        Config
	source     domain.TranscriptSource
	embedder   domain.Embedder
	generator  domain.Generator
	summarizer domain.Summarizer
	splitter   *chunker.Splitter
	store      *vectorstore.Store
	log        *zap.Logger

	ingesting sync.Mutex // held for the whole of one ingestion
}

func New(cfg Config, source domain.TranscriptSource, embedder domain.Embedder,
	generator domain.Generator, summarizer domain.Summarizer, log *zap.Logger) *Pipeline {
	cfg.applyDefaults()
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{
		cfg:        cfg,
		source:     source,
		embedder:   embedder,
		generator:  generator,
		summarizer: summarizer,
		splitter:   chunker.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap),
		store:      vectorstore.NewStore(),
		log:        log,
	}
}

// Status derives the session status from the pipeline state.
func (p *Pipeline) Status() domain.SessionStatus {
	if !p.ingesting.TryLock() {
		return domain.StatusInProgress
	}
	p.ingesting.Unlock()
	if p.store.Ready() {
		return domain.StatusReady
	}
	return domain.StatusEmpty
}

// Ingest runs fetch, segment, embed and index for sourceID, emitting ordered
// progress events. On success the index is swapped in as one unit; on any
// failure the previous index, if any, is left untouched.
func (p *Pipeline) Ingest(ctx context.Context, sourceID string, emit func(event.Event)) {
	e := newEmitter(emit)
	if !p.ingesting.TryLock() {
		e.fail("%v", ErrBusy)
		return
	}
	defer p.ingesting.Unlock()

	log := p.log.With(zap.String("source", sourceID))
	log.Info("ingestion started")

	e.status("fetching transcript")
	fetchCtx, cancel := context.WithTimeout(ctx, p.cfg.CallTimeout)
	tr, err := p.source.Fetch(fetchCtx, sourceID)
	cancel()
	if err != nil {
		log.Warn("transcript fetch failed", zap.Error(err))
		e.fail("transcript fetch failed: %v", err)
		return
	}
	if p.cfg.MaxDuration > 0 && tr.Duration > p.cfg.MaxDuration {
		e.fail("%v: video runs %s, limit is %s", ErrSourceTooLong, tr.Duration, p.cfg.MaxDuration)
		return
	}
	text := strings.TrimSpace(tr.Text)
	if text == "" {
		e.fail("%v", ErrEmptySource)
		return
	}
	if p.cfg.MaxChars > 0 && len([]rune(text)) > p.cfg.MaxChars {
		e.fail("%v: transcript has %d characters, limit is %d", ErrSourceTooLong, len([]rune(text)), p.cfg.MaxChars)
		return
	}
	e.status("transcript fetched, %d characters", len([]rune(text)))

	chunks := p.splitter.Split(text)
	if len(chunks) == 0 {
		e.fail("%v", ErrEmptySource)
		return
	}
	e.status("segmented into %d chunks", len(chunks))

	embedded, err := p.embedAll(ctx, chunks, e)
	if err != nil {
		log.Warn("embedding failed, previous index kept", zap.Error(err))
		e.fail("embedding failed: %v", err)
		return
	}

	if err := p.store.Swap(embedded); err != nil {
		e.fail("indexing failed: %v", err)
		return
	}
	log.Info("index swapped in", zap.Int("chunks", len(embedded)))

	summary := ""
	if p.summarizer != nil {
		if s, err := p.summarizer.Summarize(text, 3); err == nil {
			summary = s
		}
	}
	e.complete("ingestion complete", event.IngestResult{ChunkCount: len(embedded), Summary: summary})
}

// embedAll runs the embedding collaborator once per chunk through a fixed
// worker pool with blocking submission. A single failure aborts the whole
// batch and no partial vectors are retained.
func (p *Pipeline) embedAll(ctx context.Context, chunks []domain.Chunk, e *emitter) ([]domain.Chunk, error) {
	embedded := make([]domain.Chunk, len(chunks))
	var done int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.EmbedWorkers)
	for i := range chunks {
		i := i
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(gctx, p.cfg.CallTimeout)
			defer cancel()
			vec, err := p.embedder.Embed(callCtx, chunks[i].Text)
			if err != nil {
				return fmt.Errorf("chunk %d: %w", chunks[i].Index, err)
			}
			embedded[i] = domain.Chunk{Index: chunks[i].Index, Text: chunks[i].Text, Vector: vec}
			if n := atomic.AddInt64(&done, 1); n < int64(len(chunks)) {
				e.status("embedded %d/%d chunks", n, len(chunks))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	e.status("embedded %d/%d chunks", len(chunks), len(chunks))
	return embedded, nil
}

// Answer runs the retrieval pipeline for one question, emitting ordered
// progress events and ending in a complete event carrying the answer.
func (p *Pipeline) Answer(ctx context.Context, question string, emit func(event.Event)) {
	e := newEmitter(emit)
	if !p.store.Ready() {
		e.fail("no indexed source - ingest a video first")
		return
	}

	e.status("embedding question")
	embedCtx, cancel := context.WithTimeout(ctx, p.cfg.CallTimeout)
	vec, err := p.embedder.Embed(embedCtx, question)
	cancel()
	if err != nil {
		e.fail("question embedding failed: %v", err)
		return
	}

	results, err := p.store.Search(vec, p.cfg.TopK)
	if err != nil {
		e.fail("index search failed: %v", err)
		return
	}
	e.status("found %d matching chunks", len(results))

	prompt := buildPrompt(question, results)
	e.status("generating answer")
	genCtx, cancel := context.WithTimeout(ctx, p.cfg.CallTimeout)
	answer, err := p.generator.Generate(genCtx, prompt)
	cancel()
	if err != nil {
		p.log.Warn("generation failed", zap.Error(err))
		e.fail("answer generation failed: %v", err)
		return
	}

	e.complete("answer ready", event.AnswerResult{Answer: answer})
}

// Search embeds the query and returns the top-k matching chunks. It is the
// non-streaming sibling of Answer used by the search endpoint.
func (p *Pipeline) Search(ctx context.Context, query string, k int) ([]domain.SearchResult, error) {
	if k <= 0 {
		k = p.cfg.TopK
	}
	callCtx, cancel := context.WithTimeout(ctx, p.cfg.CallTimeout)
	defer cancel()
	vec, err := p.embedder.Embed(callCtx, query)
	if err != nil {
		return nil, fmt.Errorf("query embedding failed: %w", err)
	}
	return p.store.Search(vec, k)
}
