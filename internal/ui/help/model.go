package help

import (
	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/hr-console/internal/keys"
	"github.com/nhle/hr-console/internal/theme"
)

// Model is the help overlay view. It is reachable without a session.
type Model struct {
	keys   *keys.KeyMap
	help   help.Model
	apiURL string
	width  int
	height int
}

// New creates a new help view model.
func New(keys *keys.KeyMap, apiURL string, width, height int) Model {
	h := help.New()
	h.Width = width
	h.ShowAll = true
	return Model{
		keys:   keys,
		help:   h,
		apiURL: apiURL,
		width:  width,
		height: height,
	}
}

// Update handles messages for the help view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// View renders the help overlay.
func (m Model) View() string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		Render("Keyboard Shortcuts")

	server := theme.HelpStyle.Render("Connected to " + m.apiURL)

	content := lipgloss.JoinVertical(lipgloss.Left,
		title,
		server,
		"",
		m.help.View(m.keys),
	)

	return theme.PanelStyle.
		Width(max(m.width-4, 0)).
		Height(max(m.height-4, 0)).
		Render(content)
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width - 4
}
