package pipeline

import (
	"encoding/json"
	"fmt"
	"sync"

	"clipchat/internal/event"
)

// emitter assigns sequence numbers and enforces the stream contract: events
// go out in emit order, exactly one terminal event is sent, and nothing is
// sent after it. It is safe for use from the embedding workers.
type emitter struct {
	mu   sync.Mutex
	seq  int
	send func(event.Event)
	done bool
}

func newEmitter(send func(event.Event)) *emitter {
	return &emitter{send: send}
}

func (e *emitter) status(format string, args ...any) {
	e.emit(event.KindStatus, fmt.Sprintf(format, args...), nil)
}

func (e *emitter) fail(format string, args ...any) {
	e.emit(event.KindError, fmt.Sprintf(format, args...), nil)
}

func (e *emitter) complete(message string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		e.emit(event.KindError, fmt.Sprintf("encoding result payload: %v", err), nil)
		return
	}
	e.emit(event.KindComplete, message, data)
}

func (e *emitter) emit(kind event.Kind, message string, payload json.RawMessage) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.done {
		return
	}
	e.seq++
	ev := event.Event{Seq: e.seq, Kind: kind, Message: message, Payload: payload}
	if ev.Terminal() {
		e.done = true
	}
	e.send(ev)
}
