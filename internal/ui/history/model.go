package history

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/hr-console/internal/keys"
	"github.com/nhle/hr-console/internal/model"
	"github.com/nhle/hr-console/internal/store"
	"github.com/nhle/hr-console/internal/theme"
)

// pageSize is the number of history rows loaded at once.
const pageSize = 200

// LoadedMsg carries the notifications read from the store.
type LoadedMsg struct {
	Events []model.NotificationEvent
	Err    error
}

// ReadAllMsg is sent after every notification was marked read.
type ReadAllMsg struct {
	Err error
}

// BackMsg signals the parent to navigate back.
type BackMsg struct{}

// Model lists past notifications, newest first.
type Model struct {
	store      store.Store
	keys       *keys.KeyMap
	events     []model.NotificationEvent
	cursor     int
	errorsOnly bool
	err        error
	loading    bool
	width      int
	height     int
}

// New creates a new history view.
func New(s store.Store, k *keys.KeyMap, width, height int) Model {
	return Model{
		store:  s,
		keys:   k,
		width:  width,
		height: height,
	}
}

// Load returns a command reading notifications from the store.
func (m *Model) Load() tea.Cmd {
	m.loading = true
	s := m.store
	filter := store.NotificationFilter{Limit: pageSize}
	if m.errorsOnly {
		kind := model.NotificationError
		filter.Kind = &kind
	}
	return func() tea.Msg {
		events, err := s.GetNotifications(context.Background(), filter)
		return LoadedMsg{Events: events, Err: err}
	}
}

// MarkAllRead returns a command marking every notification read.
func (m Model) MarkAllRead() tea.Cmd {
	s := m.store
	return func() tea.Msg {
		return ReadAllMsg{Err: s.MarkAllNotificationsRead(context.Background())}
	}
}

// Update handles messages for the history view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LoadedMsg:
		m.loading = false
		m.err = msg.Err
		m.events = msg.Events
		if m.cursor >= len(m.events) {
			m.cursor = max(len(m.events)-1, 0)
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg { return BackMsg{} }
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.events)-1 {
				m.cursor++
			}
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keys.Refresh):
			return m, m.Load()
		case msg.String() == "f":
			m.errorsOnly = !m.errorsOnly
			m.cursor = 0
			return m, m.Load()
		case msg.String() == "a":
			return m, m.MarkAllRead()
		}
	}
	return m, nil
}

// View renders the history view.
func (m Model) View() string {
	heading := "Notifications"
	if m.errorsOnly {
		heading += " (errors only)"
	}
	title := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).Render(heading)

	var b strings.Builder
	b.WriteString(title)
	b.WriteString("\n\n")

	switch {
	case m.err != nil:
		b.WriteString(theme.ErrorTextStyle.Render(m.err.Error()))
	case m.loading && len(m.events) == 0:
		b.WriteString(theme.HelpStyle.Render("Loading..."))
	case len(m.events) == 0:
		b.WriteString(theme.HelpStyle.Render("Nothing yet"))
	default:
		start, end := m.window()
		for i := start; i < end; i++ {
			b.WriteString(m.renderRow(i))
			b.WriteString("\n")
		}
	}

	return theme.PanelStyle.Width(max(m.width-4, 0)).Render(b.String())
}

func (m Model) renderRow(i int) string {
	ev := m.events[i]
	marker := " "
	if !ev.Read {
		marker = "•"
	}
	badge := theme.ToastStyle(ev.Kind).Render(string(ev.Kind))
	line := fmt.Sprintf("%s %s %s  %s",
		marker,
		ev.EmittedAt.Local().Format("Jan 02 15:04:05"),
		badge,
		ev.Message,
	)
	if i == m.cursor {
		return theme.SelectedItemStyle.Render(line)
	}
	return theme.ItemStyle.Render(line)
}

// window returns the slice of rows that fit the panel around the cursor.
func (m Model) window() (int, int) {
	visible := max(m.height-6, 1)
	start := 0
	if m.cursor >= visible {
		start = m.cursor - visible + 1
	}
	end := min(start+visible, len(m.events))
	return start, end
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
