package login

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/hr-console/internal/session"
	"github.com/nhle/hr-console/internal/theme"
)

// SubmitMsg is dispatched when the user submits credentials.
type SubmitMsg struct {
	Credentials session.Credentials
}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	email    string
	password string
}

// Model is the sign-in view.
type Model struct {
	form    *huh.Form
	fb      *formBindings
	err     string
	pending bool
	width   int
	height  int
}

// New creates a new login view.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// Start resets the form, keeping the last email for convenience.
func (m *Model) Start() tea.Cmd {
	m.fb.password = ""
	m.pending = false
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Placeholder("admin@company.com").
				Value(&m.fb.email).
				Validate(validateRequired("Email")),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.password).
				Validate(validateRequired("Password")),
		),
	).WithWidth(m.formWidth()).WithShowHelp(false)
	return m.form.Init()
}

// SetError shows a failed sign-in and reopens the form.
func (m *Model) SetError(message string) tea.Cmd {
	m.err = message
	return m.Start()
}

// Pending reports whether a sign-in request is in flight.
func (m Model) Pending() bool {
	return m.pending
}

// Update handles messages for the login view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil || m.pending {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.pending = true
		m.err = ""
		creds := session.Credentials{
			Email:    strings.TrimSpace(m.fb.email),
			Password: m.fb.password,
		}
		return m, func() tea.Msg { return SubmitMsg{Credentials: creds} }
	}
	if m.form.State == huh.StateAborted {
		return m, m.Start()
	}

	return m, cmd
}

// View renders the login view.
func (m Model) View() string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1).
		Render("Sign in to HR Console")

	parts := []string{title}
	if m.err != "" {
		parts = append(parts, theme.ErrorTextStyle.Render(m.err), "")
	}
	switch {
	case m.pending:
		parts = append(parts, theme.HelpStyle.Render("Signing in..."))
	case m.form != nil:
		parts = append(parts, m.form.View())
	}

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
		theme.PanelStyle.Render(lipgloss.JoinVertical(lipgloss.Left, parts...)),
	)
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	w := m.width / 2
	if w < 40 {
		w = 40
	}
	return w
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}
