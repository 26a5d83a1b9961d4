package stream

import (
	"encoding/json"
	"time"

	"clipchat/internal/event"
)

// LogEntry is one line of the ingestion log.
type LogEntry struct {
	Time    time.Time
	Kind    event.Kind
	Message string
}

// LogReducer folds ingestion events into an append-only log. Entries are
// never mutated, only added.
type LogReducer struct {
	entries []LogEntry
}

func NewLogReducer() *LogReducer { return &LogReducer{} }

// Apply appends one entry for the event, unconditionally.
func (r *LogReducer) Apply(ev event.Event) {
	r.entries = append(r.entries, LogEntry{Time: time.Now(), Kind: ev.Kind, Message: ev.Message})
}

// Note appends a consumer-side entry, used for local conditions such as a
// truncated transport or skipped records.
func (r *LogReducer) Note(kind event.Kind, message string) {
	r.entries = append(r.entries, LogEntry{Time: time.Now(), Kind: kind, Message: message})
}

func (r *LogReducer) Entries() []LogEntry { return r.entries }

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one conversation turn. A user message is immutable once
// appended. An assistant message stays provisional, its content rewritten
// by every event of the request, until a terminal event pins it down.
type Message struct {
	Role        Role
	Content     string
	Provisional bool
}

// ChatReducer folds chat-request events into a conversation. The first
// event of a request creates one provisional assistant message; every later
// event of the same request mutates that message in place. A second
// assistant message is never appended for one request.
type ChatReducer struct {
	messages []Message
	active   int // index of the provisional assistant message, -1 when none
}

func NewChatReducer() *ChatReducer { return &ChatReducer{active: -1} }

// User appends the question that opens a chat request.
func (r *ChatReducer) User(content string) {
	r.messages = append(r.messages, Message{Role: RoleUser, Content: content})
}

// Apply folds one event of the current chat request into the conversation.
func (r *ChatReducer) Apply(ev event.Event) {
	if r.active < 0 {
		r.messages = append(r.messages, Message{Role: RoleAssistant, Provisional: true})
		r.active = len(r.messages) - 1
	}
	msg := &r.messages[r.active]
	switch ev.Kind {
	case event.KindComplete:
		var res event.AnswerResult
		if err := json.Unmarshal(ev.Payload, &res); err == nil && res.Answer != "" {
			msg.Content = res.Answer
		} else {
			msg.Content = ev.Message
		}
	default:
		msg.Content = ev.Message
	}
	if ev.Terminal() {
		msg.Provisional = false
		r.active = -1
	}
}

// Fail finalizes the pending assistant message when the transport ended
// without a terminal event, so the failure is visible rather than leaving a
// spinner forever.
func (r *ChatReducer) Fail(reason string) {
	if r.active < 0 {
		return
	}
	msg := &r.messages[r.active]
	msg.Content = reason
	msg.Provisional = false
	r.active = -1
}

func (r *ChatReducer) Messages() []Message { return r.messages }

// Pending reports whether a chat request is still in flight.
func (r *ChatReducer) Pending() bool { return r.active >= 0 }
