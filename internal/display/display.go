// Package display provides the terminal UI using Bubble Tea.
//
// The [UI] type renders the conversation scrollback, a status line, and
// a multi-line input box. Intent flows out through a single tagged
// event channel; state pushed in from other goroutines arrives through
// Program.Send, so the model itself never needs locking.
package display

import (
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/echomind-ai/echomind/internal/domain"
)

// ── Styles ───────────────────────────────────────────────────────

var (
	// BannerStyle — muted slate for the startup banner.
	BannerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#94a3b8"))

	userLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#94a3b8")).
			Bold(true)

	userTextStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#d4d4d8"))

	assistantLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#bae6fd")).
				Bold(true)

	assistantTextStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#bae6fd"))

	typingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#71717a")).
			Italic(true)

	infoNoticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#bbf7d0"))

	listeningNoticeStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#fde68a")).
				Bold(true)

	errorNoticeStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#fca5a5"))

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#52525b"))

	inputBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("#3f3f46"))

	inputBorderBlurred = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("#27272a"))
)

// ── Events ───────────────────────────────────────────────────────

// Event is the tagged union of intents the UI emits.
type Event interface{ isEvent() }

// SubmitEvent carries the input box contents when the user submits.
type SubmitEvent struct{ Text string }

// ToggleRecordEvent fires when the user presses the record key.
type ToggleRecordEvent struct{}

// QuitEvent fires when the user asks to exit.
type QuitEvent struct{}

func (SubmitEvent) isEvent()       {}
func (ToggleRecordEvent) isEvent() {}
func (QuitEvent) isEvent()         {}

// ── Inbound messages ─────────────────────────────────────────────

type refreshMsg struct{}
type noticeMsg struct{ notice *domain.Notice }
type typingMsg struct {
	id   string
	show bool
}
type setInputMsg struct{ text string }
type clearInputMsg struct{}
type recordingMsg struct{ active bool }

// ── UI ───────────────────────────────────────────────────────────

// Compile-time interface check.
var _ domain.ConversationView = (*UI)(nil)

// UI manages the terminal through Bubble Tea.
//
// Call [NewUI] then [UI.Run] (blocking). Other goroutines may safely
// call the push methods and read from [UI.Events] once [UI.WaitReady]
// returns.
type UI struct {
	program *tea.Program
	events  chan Event
	readyCh chan struct{}
	quitCh  chan struct{}
	entries domain.EntryLog
	done    atomic.Bool
}

// NewUI creates the display. Call Run() to start.
func NewUI(entries domain.EntryLog) *UI {
	return &UI{
		entries: entries,
		events:  make(chan Event, 16),
		readyCh: make(chan struct{}),
		quitCh:  make(chan struct{}),
	}
}

// Events returns the stream of user intents, in the order the user
// produced them.
func (u *UI) Events() <-chan Event { return u.events }

// Refresh re-renders the scrollback from the entry log.
func (u *UI) Refresh() { u.send(refreshMsg{}) }

// SetNotice displays a status notice; nil clears the status line.
func (u *UI) SetNotice(n *domain.Notice) { u.send(noticeMsg{notice: n}) }

// ShowTyping adds a typing indicator to the conversation.
func (u *UI) ShowTyping(id string) { u.send(typingMsg{id: id, show: true}) }

// HideTyping removes a previously shown typing indicator.
func (u *UI) HideTyping(id string) { u.send(typingMsg{id: id, show: false}) }

// SetInput replaces the input box contents, e.g. with a transcript.
func (u *UI) SetInput(text string) { u.send(setInputMsg{text: text}) }

// ClearInput empties the input box.
func (u *UI) ClearInput() { u.send(clearInputMsg{}) }

// SetRecording switches the record-key hint between its two states.
func (u *UI) SetRecording(active bool) { u.send(recordingMsg{active: active}) }

// WaitReady blocks until the Bubble Tea event loop is running.
func (u *UI) WaitReady() { <-u.readyCh }

// Quit tells Bubble Tea to exit.
func (u *UI) Quit() {
	if u.program != nil {
		u.program.Quit()
	}
}

// QuitChan is closed when Run returns.
func (u *UI) QuitChan() <-chan struct{} { return u.quitCh }

func (u *UI) send(msg tea.Msg) {
	if u.program != nil && !u.done.Load() {
		u.program.Send(msg)
	}
}

// Run starts the Bubble Tea event loop. Blocks until quit.
func (u *UI) Run() error {
	ta := textarea.New()
	ta.Placeholder = "type a message, or press esc then space to talk"
	ta.Prompt = ""
	ta.CharLimit = 4000
	ta.SetHeight(3)
	ta.ShowLineNumbers = false
	ta.KeyMap.InsertNewline.SetEnabled(false)
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = typingStyle

	m := model{
		entries: u.entries,
		input:   ta,
		spin:    sp,
		view:    viewport.New(80, 20),
		events:  u.events,
		readyCh: u.readyCh,
		focused: true,
		typing:  map[string]bool{},
	}

	u.program = tea.NewProgram(m, tea.WithAltScreen())
	_, err := u.program.Run()
	u.done.Store(true)
	close(u.quitCh)
	return err
}

// ── Bubble Tea model ─────────────────────────────────────────────

type model struct {
	entries domain.EntryLog
	input   textarea.Model
	spin    spinner.Model
	view    viewport.Model
	events  chan<- Event
	readyCh chan struct{}

	notice    *domain.Notice
	typing    map[string]bool
	focused   bool
	recording bool
	width     int
	height    int
	ready     bool
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, signalReady(m.readyCh))
}

func signalReady(ch chan struct{}) tea.Cmd {
	return func() tea.Msg {
		close(ch)
		return nil
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.SetWidth(msg.Width - 4)
		m.view.Width = msg.Width
		m.view.Height = m.scrollbackHeight()
		m.ready = true
		m.refreshScrollback()
		return m, nil

	case refreshMsg:
		m.refreshScrollback()
		return m, nil

	case noticeMsg:
		m.notice = msg.notice
		return m, nil

	case typingMsg:
		wasTyping := len(m.typing) > 0
		if msg.show {
			m.typing[msg.id] = true
		} else {
			delete(m.typing, msg.id)
		}
		m.refreshScrollback()
		if !wasTyping && len(m.typing) > 0 {
			return m, m.spin.Tick
		}
		return m, nil

	case setInputMsg:
		m.input.SetValue(msg.text)
		m.input.CursorEnd()
		m.input.Focus()
		m.focused = true
		return m, nil

	case clearInputMsg:
		m.input.Reset()
		return m, nil

	case recordingMsg:
		m.recording = msg.active
		return m, nil

	case spinner.TickMsg:
		if len(m.typing) == 0 {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		m.refreshScrollback()
		return m, cmd
	}

	return m.forward(msg)
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		m.events <- QuitEvent{}
		return m, tea.Quit

	case tea.KeyEsc:
		if m.focused {
			m.input.Blur()
			m.focused = false
		} else {
			m.input.Focus()
			m.focused = true
		}
		return m, nil

	case tea.KeyEnter:
		if !m.focused {
			m.input.Focus()
			m.focused = true
			return m, nil
		}
		if msg.Alt {
			m.input.InsertString("\n")
			return m, nil
		}
		if strings.TrimSpace(m.input.Value()) != "" {
			m.events <- SubmitEvent{Text: m.input.Value()}
		}
		return m, nil
	}

	if !m.focused {
		switch msg.String() {
		case " ":
			m.events <- ToggleRecordEvent{}
			return m, nil
		case "i":
			m.input.Focus()
			m.focused = true
			return m, nil
		case "q":
			m.events <- QuitEvent{}
			return m, tea.Quit
		}
		// Remaining keys scroll the conversation.
		var cmd tea.Cmd
		m.view, cmd = m.view.Update(msg)
		return m, cmd
	}

	return m.forward(msg)
}

func (m model) forward(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *model) scrollbackHeight() int {
	// Status line, hint line, and the bordered input box.
	reserved := 2 + m.input.Height() + 2
	h := m.height - reserved
	if h < 3 {
		h = 3
	}
	return h
}

// refreshScrollback re-renders the conversation into the viewport and
// pins it to the newest entry.
func (m *model) refreshScrollback() {
	all := m.entries.Entries()
	if len(all) == 0 && len(m.typing) == 0 {
		m.view.SetContent(hintStyle.Render("no messages yet"))
		return
	}

	var b strings.Builder
	for _, e := range all {
		b.WriteString(renderEntry(e, m.width))
		b.WriteByte('\n')
	}
	if len(m.typing) > 0 {
		b.WriteString(m.spin.View())
		b.WriteString(typingStyle.Render("thinking..."))
		b.WriteByte('\n')
	}
	m.view.SetContent(b.String())
	m.view.GotoBottom()
}

func renderEntry(e domain.Entry, width int) string {
	wrap := lipgloss.NewStyle().Width(max(width-8, 20))
	switch e.Sender {
	case domain.SenderUser:
		return userLabelStyle.Render("you ") +
			hintStyle.Render(e.At.Format("15:04 ")) + "\n" +
			wrap.Inherit(userTextStyle).Render(e.Text) + "\n"
	default:
		return assistantLabelStyle.Render("echo ") +
			hintStyle.Render(e.At.Format("15:04 ")) + "\n" +
			wrap.Inherit(assistantTextStyle).Render(e.Text) + "\n"
	}
}

func (m model) View() string {
	if !m.ready {
		return "starting..."
	}

	var b strings.Builder
	b.WriteString(m.view.View())
	b.WriteByte('\n')
	b.WriteString(m.statusLine())
	b.WriteByte('\n')

	border := inputBorderStyle
	if !m.focused {
		border = inputBorderBlurred
	}
	b.WriteString(border.Width(m.width - 2).Render(m.input.View()))
	b.WriteByte('\n')
	b.WriteString(hintStyle.Render(m.hintLine()))
	return b.String()
}

func (m model) statusLine() string {
	if m.notice == nil {
		return ""
	}
	switch m.notice.Severity {
	case domain.SeverityListening:
		return listeningNoticeStyle.Render("● " + m.notice.Message)
	case domain.SeverityError:
		return errorNoticeStyle.Render(m.notice.Message)
	default:
		return infoNoticeStyle.Render(m.notice.Message)
	}
}

func (m model) hintLine() string {
	if m.recording {
		return " esc+space stop recording · ctrl+c quit"
	}
	if m.focused {
		return " enter send · alt+enter newline · esc leave input · ctrl+c quit"
	}
	return " space record · i edit · q quit"
}
