package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"clipchat/internal/config"
	"clipchat/internal/domain"
	"clipchat/internal/embedding"
	"clipchat/internal/event"
	"clipchat/internal/pipeline"
	"clipchat/internal/stream"
	"clipchat/internal/summarizer"
)

type stubSource struct{ text string }

func (s stubSource) Fetch(ctx context.Context, sourceID string) (domain.Transcript, error) {
	return domain.Transcript{Text: s.text, Duration: 2 * time.Minute}, nil
}

type stubGenerator struct{ answer string }

func (s stubGenerator) Name() string { return "stub" }

func (s stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return s.answer, nil
}

func newTestServer(t *testing.T, text string) *Server {
	t.Helper()
	p := pipeline.New(
		pipeline.Config{ChunkSize: 200, ChunkOverlap: 40},
		stubSource{text: text},
		embedding.NewLocal(64),
		stubGenerator{answer: "I cover that in the video."},
		summarizer.NewFrequencySummarizer(),
		zap.NewNop(),
	)
	return New(config.Default(), p, zap.NewNop())
}

func postJSON(t *testing.T, s *Server, path string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeStream(t *testing.T, resp *http.Response) []event.Event {
	t.Helper()
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	d := stream.NewDecoder()
	events := d.Feed(raw)
	require.NoError(t, d.Close(), "stream must end with a terminal event")
	require.Zero(t, d.Dropped())
	return events
}

func TestIngestStreamsEvents(t *testing.T) {
	s := newTestServer(t, strings.Repeat("The talk covers migration patterns of ducks. ", 30))

	resp := postJSON(t, s, "/api/ingest", IngestRequest{URL: "https://youtube.com/watch?v=abc"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/x-ndjson", resp.Header.Get("Content-Type"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	events := decodeStream(t, resp)
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	require.Equal(t, event.KindComplete, last.Kind)

	var res event.IngestResult
	require.NoError(t, json.Unmarshal(last.Payload, &res))
	assert.Greater(t, res.ChunkCount, 1)
}

func TestChatBeforeIngest(t *testing.T) {
	s := newTestServer(t, "anything")

	resp := postJSON(t, s, "/api/chat", ChatRequest{Question: "what is it about?"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	events := decodeStream(t, resp)
	require.Len(t, events, 1)
	assert.Equal(t, event.KindError, events[0].Kind)
	assert.Contains(t, events[0].Message, "no indexed source")
}

func TestIngestThenChat(t *testing.T) {
	s := newTestServer(t, strings.Repeat("Ducks travel in formation to save energy. ", 30))

	ingest := postJSON(t, s, "/api/ingest", IngestRequest{URL: "https://youtube.com/watch?v=abc"})
	events := decodeStream(t, ingest)
	require.Equal(t, event.KindComplete, events[len(events)-1].Kind)

	chat := postJSON(t, s, "/api/chat", ChatRequest{Question: "why do ducks fly in formation?"})
	events = decodeStream(t, chat)
	last := events[len(events)-1]
	require.Equal(t, event.KindComplete, last.Kind)

	var res event.AnswerResult
	require.NoError(t, json.Unmarshal(last.Payload, &res))
	assert.Equal(t, "I cover that in the video.", res.Answer)

	// reducer contract end to end: exactly one finalized assistant message
	r := stream.NewChatReducer()
	r.User("why do ducks fly in formation?")
	for _, ev := range events {
		r.Apply(ev)
	}
	msgs := r.Messages()
	require.Len(t, msgs, 2)
	assert.False(t, msgs[1].Provisional)
	assert.Equal(t, "I cover that in the video.", msgs[1].Content)
}

func TestSearchEndpoint(t *testing.T) {
	s := newTestServer(t, strings.Repeat("Interesting facts about rivers and lakes. ", 30))

	resp := postJSON(t, s, "/api/search", SearchRequest{Query: "rivers", K: 2})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode, "search before ingest must fail")

	ingest := postJSON(t, s, "/api/ingest", IngestRequest{URL: "https://youtube.com/watch?v=abc"})
	decodeStream(t, ingest)

	resp = postJSON(t, s, "/api/search", SearchRequest{Query: "rivers", K: 2})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out SearchResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	resp.Body.Close()
	assert.Len(t, out.Results, 2)
}

func TestValidationFailures(t *testing.T) {
	s := newTestServer(t, "text")

	resp := postJSON(t, s, "/api/ingest", map[string]string{"url": "not a url"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postJSON(t, s, "/api/chat", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	req := httptest.NewRequest(http.MethodPost, "/api/ingest", strings.NewReader("{{{"))
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
