package tui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	tea "github.com/charmbracelet/bubbletea"

	"clipchat/internal/event"
	"clipchat/internal/stream"
)

// streamEventMsg delivers one decoded event to the model.
type streamEventMsg struct {
	chat bool
	ev   event.Event
}

// streamDoneMsg marks the end of a request stream. err is non-nil when the
// transport ended before a terminal event (or the request itself failed).
type streamDoneMsg struct {
	chat    bool
	dropped int
	err     error
}

// Client posts requests to the server and consumes the resulting event
// streams through the incremental decoder.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	// no overall timeout: streams stay open for the whole request
	return &Client{baseURL: baseURL, http: &http.Client{}}
}

// run reads one request's stream and forwards messages to out. It runs in
// its own goroutine; fragment sizes depend on the network and carry no
// meaning, which is exactly what the decoder is for.
func (c *Client) run(path string, payload any, chat bool, out chan<- tea.Msg) {
	body, err := json.Marshal(payload)
	if err != nil {
		out <- streamDoneMsg{chat: chat, err: err}
		return
	}
	resp, err := c.http.Post(c.baseURL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		out <- streamDoneMsg{chat: chat, err: err}
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Error != "" {
			out <- streamDoneMsg{chat: chat, err: fmt.Errorf("request rejected: %s", apiErr.Error)}
		} else {
			out <- streamDoneMsg{chat: chat, err: fmt.Errorf("request rejected: %s", resp.Status)}
		}
		return
	}

	d := stream.NewDecoder()
	buf := make([]byte, 4096)
	for {
		n, readErr := resp.Body.Read(buf)
		for _, ev := range d.Feed(buf[:n]) {
			out <- streamEventMsg{chat: chat, ev: ev}
		}
		if readErr != nil {
			out <- streamDoneMsg{chat: chat, dropped: d.Dropped(), err: d.Close()}
			return
		}
	}
}
