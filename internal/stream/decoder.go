// Package stream holds the consumer side of the event protocol: an
// incremental decoder for the newline-delimited byte stream and the two
// reducers that fold decoded events into client state (ingestion log,
// conversation).
package stream

import (
	"bytes"
	"errors"

	"clipchat/internal/event"
)

// ErrTruncated is reported by Close when the transport ended before a
// terminal event was seen. The request must be treated as failed even
// though no error event arrived.
var ErrTruncated = errors.New("stream ended before a terminal event")

// Decoder turns raw byte fragments of arbitrary size into events. Fragment
// boundaries carry no meaning: feeding the same bytes in any segmentation
// produces the same event sequence. Undecodable records are counted and
// skipped so one bad line cannot lose the rest of the session.
type Decoder struct {
	buf      []byte
	dropped  int
	terminal bool
}

func NewDecoder() *Decoder { return &Decoder{} }

// Feed appends a fragment to the pending buffer and returns every complete
// event it can now decode, in order.
func (d *Decoder) Feed(fragment []byte) []event.Event {
	d.buf = append(d.buf, fragment...)
	var events []event.Event
	for {
		i := bytes.IndexByte(d.buf, '\n')
		if i < 0 {
			return events
		}
		line := d.buf[:i]
		d.buf = d.buf[i+1:]
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		ev, err := event.Unmarshal(line)
		if err != nil {
			d.dropped++
			continue
		}
		events = append(events, ev)
		if ev.Terminal() {
			d.terminal = true
		}
	}
}

// Dropped returns how many undecodable records were skipped.
func (d *Decoder) Dropped() int { return d.dropped }

// Terminal reports whether a terminal event has been decoded.
func (d *Decoder) Terminal() bool { return d.terminal }

// Close marks the end of the transport. Bytes left in the buffer are a
// truncated final record and are discarded. If no terminal event was
// decoded the whole request is a failure and ErrTruncated is returned.
func (d *Decoder) Close() error {
	d.buf = nil
	if !d.terminal {
		return ErrTruncated
	}
	return nil
}
