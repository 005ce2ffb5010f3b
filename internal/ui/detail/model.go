package detail

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/hr-console/internal/keys"
	"github.com/nhle/hr-console/internal/model"
	"github.com/nhle/hr-console/internal/slice"
	"github.com/nhle/hr-console/internal/theme"
)

// BackMsg signals the parent to navigate back to the list view.
type BackMsg struct{}

// EditMsg asks the parent to open the edit form for the shown record.
type EditMsg struct {
	ID int64
}

// DeleteMsg is sent once the user confirmed deleting the shown record.
type DeleteMsg struct {
	ID int64
}

// RefreshMsg asks the parent to fetch the record again.
type RefreshMsg struct {
	ID int64
}

// Model is the record detail view component.
type Model struct {
	entity     model.Entity
	id         int64
	snapshot   slice.Snapshot
	viewport   viewport.Model
	keys       *keys.KeyMap
	confirming bool
	width      int
	height     int
}

// New creates a new detail view model.
func New(keys *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		keys:     keys,
		width:    width,
		height:   height,
	}
}

// Open points the view at record id of entity e before its fetch resolves.
func (m *Model) Open(e model.Entity, id int64) {
	m.entity = e
	m.id = id
	m.confirming = false
	m.snapshot = slice.Snapshot{Status: model.StatusLoading}
	m.viewport.SetContent("")
	m.viewport.GotoTop()
}

// ID returns the record being shown.
func (m Model) ID() int64 {
	return m.id
}

// SetSnapshot updates the view from the get slot.
func (m *Model) SetSnapshot(snap slice.Snapshot) {
	m.snapshot = snap
	m.viewport.SetContent(m.renderContent())
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if m.confirming {
			m.confirming = false
			if keyMsg.String() == "y" || keyMsg.String() == "Y" {
				id := m.id
				return m, func() tea.Msg { return DeleteMsg{ID: id} }
			}
			return m, nil
		}

		switch {
		case key.Matches(keyMsg, m.keys.Back):
			return m, func() tea.Msg {
				return BackMsg{}
			}

		case key.Matches(keyMsg, m.keys.Edit):
			if m.snapshot.Item != nil {
				id := m.id
				return m, func() tea.Msg { return EditMsg{ID: id} }
			}
			return m, nil

		case key.Matches(keyMsg, m.keys.Delete):
			if m.snapshot.Item != nil {
				m.confirming = true
			}
			return m, nil

		case key.Matches(keyMsg, m.keys.Refresh):
			id := m.id
			return m, func() tea.Msg { return RefreshMsg{ID: id} }
		}
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the detail view.
func (m Model) View() string {
	switch {
	case m.snapshot.Status == model.StatusLoading && m.snapshot.Item == nil:
		return lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Padding(1, 2).
			Render("Loading...")
	case m.snapshot.Status == model.StatusFailed:
		return theme.PanelStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
			theme.ErrorTextStyle.Render(m.snapshot.Error),
			theme.HelpStyle.Render("r retry | esc back"),
		))
	}

	view := m.viewport.View()
	if m.confirming {
		view = lipgloss.JoinVertical(lipgloss.Left, view,
			theme.ErrorTextStyle.Render(fmt.Sprintf("Delete record #%d? (y/N)", m.id)))
	}
	return view
}

// renderContent builds the full content string for the viewport.
func (m Model) renderContent() string {
	rec := m.snapshot.Item
	if rec == nil {
		return ""
	}

	var b strings.Builder

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s #%d  %s", m.entity.Label(), rec.GetID(), rec.GetTitle())))
	b.WriteString("\n\n")

	for _, f := range rec.Details() {
		value := f.Value
		if value == "" {
			value = "-"
		}
		if f.Label == "Status" {
			value = theme.RecordStatusStyle(f.Value).Render(value)
		}
		b.WriteString(theme.LabelStyle.Render(f.Label))
		b.WriteString(value)
		b.WriteString("\n")
	}

	if m.snapshot.Status == model.StatusLoading {
		b.WriteString("\n")
		b.WriteString(theme.HelpStyle.Render("refreshing..."))
	}

	return theme.PanelStyle.Width(max(m.width-4, 0)).Render(b.String())
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
	m.viewport.SetContent(m.renderContent())
}
