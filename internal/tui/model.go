package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/guardline/operator-console/internal/assist"
	"github.com/guardline/operator-console/internal/console"
	"github.com/guardline/operator-console/internal/model"
)

type focusArea int

const (
	focusSessions focusArea = iota
	focusCompose
)

const sidebarWidth = 34

// consoleMsg wraps a console update for the bubbletea loop.
type consoleMsg struct {
	update console.Update
}

// consoleClosedMsg means the console shut down; the UI exits.
type consoleClosedMsg struct{}

// draftMsg carries an assist draft result.
type draftMsg struct {
	text string
	err  error
}

// Model is the root bubbletea model for the console.
type Model struct {
	console *console.Console
	drafter *assist.Drafter

	width  int
	height int
	ready  bool

	focus    focusArea
	sessions []model.ChatSession
	cursor   int

	openID   string
	vpState  console.ViewportState
	vpErr    error
	messages []model.Message
	msgView  viewport.Model

	compose  textarea.Model
	sending  bool
	drafting bool

	connected bool
	notice    string

	styles Styles
}

// New creates the console UI. The drafter may be nil when assist is not
// configured.
func New(c *console.Console, drafter *assist.Drafter) Model {
	ta := textarea.New()
	ta.Placeholder = "Type a reply... (Enter sends, Shift+Enter for newline)"
	ta.CharLimit = 4000
	ta.SetHeight(3)
	ta.ShowLineNumbers = false
	// Plain Enter submits; newline needs an explicit modifier.
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("shift+enter", "alt+enter"))

	return Model{
		console: c,
		drafter: drafter,
		focus:   focusSessions,
		compose: ta,
		styles:  DefaultStyles(),
	}
}

// Init starts listening for console updates.
func (m Model) Init() tea.Cmd {
	return waitForUpdate(m.console.Updates())
}

func waitForUpdate(ch <-chan console.Update) tea.Cmd {
	return func() tea.Msg {
		u, ok := <-ch
		if !ok {
			return consoleClosedMsg{}
		}
		return consoleMsg{update: u}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.ready = true

	case consoleClosedMsg:
		return m, tea.Quit

	case consoleMsg:
		m.applyUpdate(msg.update)
		cmds = append(cmds, waitForUpdate(m.console.Updates()))

	case draftMsg:
		m.drafting = false
		if msg.err != nil {
			m.notice = "draft failed: " + msg.err.Error()
		} else {
			m.compose.SetValue(msg.text)
			m.notice = "draft inserted, review before sending"
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "tab":
			m.toggleFocus()
			return m, nil
		}

		if m.focus == focusSessions {
			return m.updateSessionList(msg)
		}
		return m.updateCompose(msg)
	}

	var cmd tea.Cmd
	m.msgView, cmd = m.msgView.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *Model) toggleFocus() {
	if m.focus == focusSessions {
		m.focus = focusCompose
		m.compose.Focus()
	} else {
		m.focus = focusSessions
		m.compose.Blur()
	}
}

func (m Model) updateSessionList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.sessions)-1 {
			m.cursor++
		}
	case "enter":
		if m.cursor < len(m.sessions) {
			m.console.SelectSession(m.sessions[m.cursor].ID)
			m.focus = focusCompose
			m.compose.Focus()
		}
	}
	return m, nil
}

func (m Model) updateCompose(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		if m.sending {
			return m, nil
		}
		content := m.compose.Value()
		if strings.TrimSpace(content) == "" {
			return m, nil
		}
		if !m.connected {
			m.notice = "disconnected: reply not sent"
			return m, nil
		}
		m.sending = true
		m.console.SendReply(content)
		return m, nil

	case "ctrl+d":
		if m.drafter == nil {
			m.notice = "reply drafting is not configured"
			return m, nil
		}
		if m.drafting || len(m.messages) == 0 {
			return m, nil
		}
		m.drafting = true
		m.notice = "drafting..."
		history := append([]model.Message(nil), m.messages...)
		drafter := m.drafter
		return m, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			text, err := drafter.Draft(ctx, history)
			return draftMsg{text: text, err: err}
		}
	}

	var cmd tea.Cmd
	m.compose, cmd = m.compose.Update(msg)
	return m, cmd
}

func (m *Model) applyUpdate(u console.Update) {
	switch u := u.(type) {
	case console.DirectoryUpdate:
		selected := ""
		if m.cursor < len(m.sessions) {
			selected = m.sessions[m.cursor].ID
		}
		m.sessions = u.Sessions
		// Keep the cursor on the same session as rows reorder.
		m.cursor = 0
		for i, s := range m.sessions {
			if s.ID == selected {
				m.cursor = i
				break
			}
		}

	case console.ViewportUpdate:
		m.openID = u.SessionID
		m.vpState = u.State
		m.vpErr = u.Err
		m.messages = u.Messages
		m.renderMessages()
		if u.Err != nil {
			m.notice = "history unavailable: " + u.Err.Error()
		}

	case console.MessageAppended:
		if u.SessionID == m.openID {
			m.messages = append(m.messages, u.Message)
			m.renderMessages()
		}

	case console.ConnectivityUpdate:
		m.connected = u.Connected
		if u.Connected {
			m.notice = ""
		} else {
			m.notice = "connection lost, reconnecting..."
		}

	case console.ReplyUpdate:
		m.sending = false
		if u.Err != nil {
			// Compose content stays put so the operator can retry.
			m.notice = "send failed: " + u.Err.Error()
		} else {
			m.compose.Reset()
			m.notice = ""
		}

	case console.NoticeUpdate:
		m.notice = u.Text
	}
}

func (m *Model) layout() {
	convWidth := m.width - sidebarWidth - 6
	if convWidth < 20 {
		convWidth = 20
	}
	msgHeight := m.height - 10
	if msgHeight < 5 {
		msgHeight = 5
	}
	if m.msgView.Width == 0 {
		m.msgView = viewport.New(convWidth, msgHeight)
	} else {
		m.msgView.Width = convWidth
		m.msgView.Height = msgHeight
	}
	m.compose.SetWidth(convWidth)
	m.renderMessages()
}

// renderMessages rebuilds the viewport content and pins it to the newest
// message.
func (m *Model) renderMessages() {
	var b strings.Builder
	for _, msg := range m.messages {
		ts := m.styles.Timestamp.Render(msg.CreatedAt.Format("15:04"))
		name := msg.SenderName
		line := fmt.Sprintf("%s %s: %s", ts, name, msg.Content)
		if msg.SenderType == model.SenderAdmin {
			b.WriteString(m.styles.AdminMessage.Render(line))
		} else {
			b.WriteString(m.styles.GuestMessage.Render(line))
		}
		b.WriteString("\n")
	}
	m.msgView.SetContent(b.String())
	m.msgView.GotoBottom()
}

// View renders the console.
func (m Model) View() string {
	if !m.ready {
		return "loading..."
	}

	sidebar := m.renderSidebar()
	conversation := m.renderConversation()

	main := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, conversation)
	return lipgloss.JoinVertical(lipgloss.Left, main, m.renderStatusBar())
}

func (m Model) renderSidebar() string {
	var rows []string
	for i, s := range m.sessions {
		name := truncateName(s.DisplayName(), 18)
		row := name
		if s.UnreadCount > 0 {
			row += " " + m.styles.UnreadBadge.Render(fmt.Sprintf("%d", s.UnreadCount))
		}
		if !s.IsActive {
			row += " (away)"
		}
		if i == m.cursor {
			row = m.styles.SessionActive.Render("> " + row)
		} else {
			row = m.styles.SessionRow.Render("  " + row)
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		rows = append(rows, m.styles.Timestamp.Render("no active sessions"))
	}

	body := strings.Join(rows, "\n")
	style := m.styles.Sidebar
	if m.focus == focusSessions {
		style = m.styles.SidebarFocused
	}
	return style.Width(sidebarWidth).Height(m.height - 4).Render(body)
}

// truncateName shortens a guest name to at most max runes. Truncating on
// bytes could split a multibyte rune and garble the sidebar.
func truncateName(name string, max int) string {
	runes := []rune(name)
	if len(runes) <= max {
		return name
	}
	return string(runes[:max])
}

func (m Model) renderConversation() string {
	var body string
	switch {
	case m.openID == "":
		body = m.styles.Timestamp.Render("select a session to open the conversation")
	case m.vpState == console.StateLoading:
		body = m.styles.Timestamp.Render("loading history...")
	default:
		body = m.msgView.View()
	}

	composeStyle := m.styles.Compose
	if m.focus == focusCompose {
		composeStyle = m.styles.ComposeFocused
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.styles.Conversation.Render(body),
		composeStyle.Render(m.compose.View()),
	)
}

func (m Model) renderStatusBar() string {
	conn := m.styles.Disconnected.Render("● offline")
	if m.connected {
		conn = m.styles.Connected.Render("● online")
	}

	parts := []string{conn}
	if m.sending {
		parts = append(parts, "sending...")
	}
	if m.notice != "" {
		parts = append(parts, m.styles.Notice.Render(m.notice))
	}
	parts = append(parts, m.styles.Timestamp.Render("tab: switch focus · enter: open/send · ctrl+d: draft · ctrl+c: quit"))

	return m.styles.StatusBar.Render(strings.Join(parts, "  "))
}
