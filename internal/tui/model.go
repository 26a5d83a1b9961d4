// Package tui is the terminal client: it talks to the server, folds the
// event streams through the reducers and renders the ingestion log and the
// conversation live.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"clipchat/internal/event"
	"clipchat/internal/stream"
)

var (
	chatBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	userStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	assistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	pendingStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
	logStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

const logLines = 4

// Model is the Bubble Tea model for the client.
type Model struct {
	client   *Client
	input    textinput.Model
	viewport viewport.Model
	logr     *stream.LogReducer
	chatr    *stream.ChatReducer
	events   chan tea.Msg
	log      *zap.Logger
	status   string
	busy     bool
	ready    bool
}

// New creates the client model pointed at the server base URL.
func New(client *Client, log *zap.Logger) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "/ingest <video url>, or ask a question"
	ti.Focus()
	ti.CharLimit = 0
	if log == nil {
		log = zap.NewNop()
	}
	return Model{
		client:   client,
		input:    ti,
		viewport: viewport.New(0, 0),
		logr:     stream.NewLogReducer(),
		chatr:    stream.NewChatReducer(),
		events:   make(chan tea.Msg, 16),
		log:      log,
		status:   "Ingest a video to get started.",
	}
}

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd { return textinput.Blink }

// waitForEvent blocks on the stream channel and hands the next message to
// Update.
func (m Model) waitForEvent() tea.Cmd {
	return func() tea.Msg { return <-m.events }
}

// Update handles key, window and stream events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, frame := chatBoxStyle.GetFrameSize()
		_, inputFrame := inputBoxStyle.GetFrameSize()
		reserved := 1 + logLines + inputFrame + 2 + frame // header, log pane, input, status, spacer
		height := msg.Height - reserved
		if height < 3 {
			height = 3
		}
		m.viewport.Width = max(20, msg.Width-4)
		m.viewport.Height = height
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		if msg.String() == "enter" {
			return m.submit()
		}

	case streamEventMsg:
		if msg.chat {
			m.chatr.Apply(msg.ev)
		} else {
			m.logr.Apply(msg.ev)
		}
		if msg.ev.Terminal() {
			m.status = msg.ev.Message
		}
		m.refresh()
		return m, m.waitForEvent()

	case streamDoneMsg:
		m.busy = false
		if msg.dropped > 0 {
			m.log.Warn("skipped undecodable records", zap.Int("count", msg.dropped))
		}
		if msg.err != nil {
			m.log.Warn("stream ended abnormally", zap.Error(msg.err))
			if msg.chat {
				m.chatr.Fail(fmt.Sprintf("request failed: %v", msg.err))
			} else {
				m.logr.Note(event.KindError, fmt.Sprintf("request failed: %v", msg.err))
			}
			m.status = errorStyle.Render(msg.err.Error())
		}
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	line := strings.TrimSpace(m.input.Value())
	if line == "" || m.busy {
		return m, nil
	}
	m.input.SetValue("")
	m.busy = true

	var start tea.Cmd
	if url, ok := strings.CutPrefix(line, "/ingest "); ok {
		url = strings.TrimSpace(url)
		m.status = "Ingesting " + url
		start = func() tea.Msg {
			go m.client.run("/api/ingest", map[string]string{"url": url}, false, m.events)
			return nil
		}
	} else {
		m.chatr.User(line)
		m.status = "Thinking..."
		start = func() tea.Msg {
			go m.client.run("/api/chat", map[string]string{"question": line}, true, m.events)
			return nil
		}
	}
	m.refresh()
	return m, tea.Batch(start, m.waitForEvent())
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderConversation())
	m.viewport.GotoBottom()
}

// View renders the log pane, the conversation and the input line.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("clipchat")
	return header + "\n" +
		m.renderLog() + "\n" +
		chatBoxStyle.Render(m.viewport.View()) + "\n" +
		inputBoxStyle.Render(m.input.View()) + "\n" +
		m.status
}

func (m Model) renderLog() string {
	entries := m.logr.Entries()
	lines := make([]string, 0, logLines)
	from := len(entries) - logLines
	if from < 0 {
		from = 0
	}
	for _, e := range entries[from:] {
		line := fmt.Sprintf("%s  %s", e.Time.Format("15:04:05"), e.Message)
		if e.Kind == event.KindError {
			lines = append(lines, errorStyle.Render(line))
		} else {
			lines = append(lines, logStyle.Render(line))
		}
	}
	for len(lines) < logLines {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderConversation() string {
	msgs := m.chatr.Messages()
	if len(msgs) == 0 {
		return pendingStyle.Render("No conversation yet. Ask something about the ingested video.")
	}
	var b strings.Builder
	for i, msg := range msgs {
		if i > 0 {
			b.WriteString("\n\n")
		}
		switch msg.Role {
		case stream.RoleUser:
			b.WriteString(userStyle.Render("you: ") + msg.Content)
		default:
			content := msg.Content
			if msg.Provisional {
				b.WriteString(assistantStyle.Render("clip: ") + pendingStyle.Render(content+" ..."))
			} else {
				b.WriteString(assistantStyle.Render("clip: ") + content)
			}
		}
	}
	return b.String()
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
