package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clipchat/internal/event"
)

func TestLogReducerAppendsPerEvent(t *testing.T) {
	r := NewLogReducer()
	r.Apply(event.Event{Seq: 1, Kind: event.KindStatus, Message: "fetching transcript"})
	r.Apply(event.Event{Seq: 2, Kind: event.KindStatus, Message: "segmented into 12 chunks"})
	r.Apply(event.Event{Seq: 3, Kind: event.KindError, Message: "embedding failed"})

	entries := r.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, event.KindStatus, entries[0].Kind)
	assert.Equal(t, "segmented into 12 chunks", entries[1].Message)
	assert.Equal(t, event.KindError, entries[2].Kind)
	assert.False(t, entries[0].Time.IsZero())
}

func TestChatReducerSingleAssistantMessage(t *testing.T) {
	r := NewChatReducer()
	r.User("what does the speaker think of ducks?")
	r.Apply(event.Event{Seq: 1, Kind: event.KindStatus, Message: "embedding question"})
	r.Apply(event.Event{Seq: 2, Kind: event.KindStatus, Message: "found 4 matching chunks"})
	r.Apply(answerEvent(t, 3, "They are fond of ducks."))

	msgs := r.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, RoleUser, msgs[0].Role)
	assert.Equal(t, RoleAssistant, msgs[1].Role)
	assert.Equal(t, "They are fond of ducks.", msgs[1].Content)
	assert.False(t, msgs[1].Provisional)
	assert.False(t, r.Pending())
}

func TestChatReducerMutatesInPlace(t *testing.T) {
	r := NewChatReducer()
	r.User("question")
	r.Apply(event.Event{Seq: 1, Kind: event.KindStatus, Message: "embedding question"})
	require.Len(t, r.Messages(), 2)
	assert.True(t, r.Messages()[1].Provisional)
	assert.Equal(t, "embedding question", r.Messages()[1].Content)

	r.Apply(event.Event{Seq: 2, Kind: event.KindStatus, Message: "searching index"})
	require.Len(t, r.Messages(), 2, "status events must not append new messages")
	assert.Equal(t, "searching index", r.Messages()[1].Content)
	assert.True(t, r.Pending())
}

func TestChatReducerErrorFinalizes(t *testing.T) {
	r := NewChatReducer()
	r.User("question")
	r.Apply(event.Event{Seq: 1, Kind: event.KindError, Message: "no indexed source"})

	msgs := r.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "no indexed source", msgs[1].Content)
	assert.False(t, msgs[1].Provisional)
}

func TestChatReducerTransportFailure(t *testing.T) {
	r := NewChatReducer()
	r.User("question")
	r.Apply(event.Event{Seq: 1, Kind: event.KindStatus, Message: "generating answer"})
	require.True(t, r.Pending())

	r.Fail("connection lost before the answer arrived")
	msgs := r.Messages()
	require.Len(t, msgs, 2)
	assert.False(t, msgs[1].Provisional)
	assert.Equal(t, "connection lost before the answer arrived", msgs[1].Content)
	assert.False(t, r.Pending())

	// A later Fail is a no-op.
	r.Fail("again")
	assert.Equal(t, "connection lost before the answer arrived", r.Messages()[1].Content)
}

func TestChatReducerSecondRequest(t *testing.T) {
	r := NewChatReducer()
	r.User("first")
	r.Apply(answerEvent(t, 1, "one"))
	r.User("second")
	r.Apply(event.Event{Seq: 1, Kind: event.KindStatus, Message: "thinking"})
	r.Apply(answerEvent(t, 2, "two"))

	msgs := r.Messages()
	require.Len(t, msgs, 4)
	assert.Equal(t, "one", msgs[1].Content)
	assert.Equal(t, "two", msgs[3].Content)
}
