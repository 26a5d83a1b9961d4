package stream

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clipchat/internal/event"
)

func mustMarshal(t *testing.T, events ...event.Event) []byte {
	t.Helper()
	var out []byte
	for _, ev := range events {
		data, err := event.Marshal(ev)
		require.NoError(t, err)
		out = append(out, data...)
	}
	return out
}

func answerEvent(t *testing.T, seq int, answer string) event.Event {
	t.Helper()
	payload, err := json.Marshal(event.AnswerResult{Answer: answer})
	require.NoError(t, err)
	return event.Event{Seq: seq, Kind: event.KindComplete, Message: "done", Payload: payload}
}

func TestDecoderSingleFragment(t *testing.T) {
	raw := mustMarshal(t,
		event.Event{Seq: 1, Kind: event.KindStatus, Message: "fetching"},
		event.Event{Seq: 2, Kind: event.KindStatus, Message: "segmenting"},
		event.Event{Seq: 3, Kind: event.KindComplete, Message: "done"},
	)
	d := NewDecoder()
	events := d.Feed(raw)
	require.Len(t, events, 3)
	assert.Equal(t, "fetching", events[0].Message)
	assert.True(t, d.Terminal())
	assert.NoError(t, d.Close())
}

func TestDecoderAnyFragmentation(t *testing.T) {
	raw := mustMarshal(t,
		event.Event{Seq: 1, Kind: event.KindStatus, Message: "embedding 3/12 chunks"},
		event.Event{Seq: 2, Kind: event.KindStatus, Message: "embedding 9/12 chunks"},
		answerEvent(t, 3, "the speaker says yes"),
	)
	whole := NewDecoder().Feed(raw)
	require.Len(t, whole, 3)

	// Split at every possible byte offset: final state must be identical.
	for offset := 0; offset <= len(raw); offset++ {
		d := NewDecoder()
		events := d.Feed(raw[:offset])
		events = append(events, d.Feed(raw[offset:])...)
		require.Equal(t, whole, events, "offset %d", offset)
		require.NoError(t, d.Close(), "offset %d", offset)
	}

	// Byte-at-a-time.
	d := NewDecoder()
	var events []event.Event
	for i := range raw {
		events = append(events, d.Feed(raw[i:i+1])...)
	}
	require.Equal(t, whole, events)
}

func TestDecoderSkipsMalformedRecords(t *testing.T) {
	raw := mustMarshal(t, event.Event{Seq: 1, Kind: event.KindStatus, Message: "ok"})
	raw = append(raw, []byte("this is not json\n")...)
	raw = append(raw, []byte(`{"seq":5,"kind":"banana","message":"nope"}`+"\n")...)
	raw = append(raw, mustMarshal(t, event.Event{Seq: 2, Kind: event.KindComplete, Message: "done"})...)

	d := NewDecoder()
	events := d.Feed(raw)
	require.Len(t, events, 2)
	assert.Equal(t, 2, d.Dropped())
	assert.NoError(t, d.Close())
}

func TestDecoderDiscardsTruncatedTail(t *testing.T) {
	raw := mustMarshal(t, event.Event{Seq: 1, Kind: event.KindStatus, Message: "fetching"})
	raw = append(raw, []byte(`{"seq":2,"kind":"comp`)...) // cut mid-record

	d := NewDecoder()
	events := d.Feed(raw)
	require.Len(t, events, 1)
	assert.False(t, d.Terminal())
	assert.ErrorIs(t, d.Close(), ErrTruncated)
}

func TestDecoderIgnoresBlankLines(t *testing.T) {
	raw := []byte("\n\n")
	raw = append(raw, mustMarshal(t, event.Event{Seq: 1, Kind: event.KindComplete, Message: "done"})...)
	d := NewDecoder()
	events := d.Feed(raw)
	require.Len(t, events, 1)
	assert.Zero(t, d.Dropped())
}
