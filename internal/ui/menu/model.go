package menu

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/hr-console/internal/keys"
	"github.com/nhle/hr-console/internal/model"
	"github.com/nhle/hr-console/internal/theme"
)

// SelectEntityMsg is sent when the user opens an entity list.
type SelectEntityMsg struct {
	Entity model.Entity
}

// OpenHistoryMsg is sent when the user opens the notification history.
type OpenHistoryMsg struct{}

// LogoutMsg is sent when the user chooses to sign out.
type LogoutMsg struct{}

type entryKind int

const (
	entryEntity entryKind = iota
	entryHistory
	entryLogout
)

type entry struct {
	kind   entryKind
	entity model.Entity
	label  string
}

// Model is the home screen listing every HR section.
type Model struct {
	entries []entry
	cursor  int
	keys    *keys.KeyMap
	user    string
	unread  int
	width   int
	height  int
}

// New creates the home menu for the given entities.
func New(entities []model.Entity, k *keys.KeyMap, width, height int) Model {
	entries := make([]entry, 0, len(entities)+2)
	for _, e := range entities {
		entries = append(entries, entry{kind: entryEntity, entity: e, label: e.Label()})
	}
	entries = append(entries,
		entry{kind: entryHistory, label: "Notifications"},
		entry{kind: entryLogout, label: "Sign out"},
	)
	return Model{
		entries: entries,
		keys:    k,
		width:   width,
		height:  height,
	}
}

// SetUser sets the greeting shown above the menu.
func (m *Model) SetUser(name string) {
	m.user = name
}

// SetUnread sets the unread notification badge.
func (m *Model) SetUnread(n int) {
	m.unread = n
}

// Update handles messages for the menu.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Down):
		if m.cursor < len(m.entries)-1 {
			m.cursor++
		}
	case key.Matches(keyMsg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(keyMsg, m.keys.Select):
		selected := m.entries[m.cursor]
		return m, func() tea.Msg {
			switch selected.kind {
			case entryHistory:
				return OpenHistoryMsg{}
			case entryLogout:
				return LogoutMsg{}
			default:
				return SelectEntityMsg{Entity: selected.entity}
			}
		}
	}
	return m, nil
}

// View renders the menu.
func (m Model) View() string {
	var b strings.Builder

	greeting := "Welcome"
	if m.user != "" {
		greeting = "Welcome, " + m.user
	}
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).Render(greeting))
	b.WriteString("\n\n")

	for i, e := range m.entries {
		label := e.label
		if e.kind == entryHistory && m.unread > 0 {
			label = fmt.Sprintf("%s (%d unread)", label, m.unread)
		}
		if i == m.cursor {
			b.WriteString(theme.SelectedItemStyle.Render(label))
		} else {
			b.WriteString(theme.ItemStyle.Render(label))
		}
		b.WriteString("\n")
	}

	return theme.PanelStyle.
		Width(max(m.width-4, 0)).
		Render(b.String())
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
