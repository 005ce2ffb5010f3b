package entityform

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/hr-console/internal/model"
	"github.com/nhle/hr-console/internal/theme"
)

// SubmitMsg carries the payload of a completed form. ID is zero for a
// create.
type SubmitMsg struct {
	Entity  model.Entity
	ID      int64
	Payload map[string]interface{}
}

// CancelMsg is sent when the user aborts the form.
type CancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	values map[string]*string
}

// Model is the create/edit form for any entity.
type Model struct {
	entity    model.Entity
	id        int64
	fields    []model.FormField
	form      *huh.Form
	fb        *formBindings
	submitted bool
	errMsg    string
	fieldErrs map[string][]string
	width     int
	height    int
}

// New creates a new form view model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{values: make(map[string]*string)},
		width:  width,
		height: height,
	}
}

// StartCreate opens an empty form for entity e.
func (m *Model) StartCreate(e model.Entity) tea.Cmd {
	m.reset(e, 0)
	return m.buildForm()
}

// StartEdit opens a form for record rec, pre-filled with its values.
func (m *Model) StartEdit(e model.Entity, rec model.Record) tea.Cmd {
	m.reset(e, rec.GetID())
	for k, v := range recordValues(rec) {
		if p, ok := m.fb.values[k]; ok {
			*p = v
		}
	}
	return m.buildForm()
}

// SetErrors shows a rejected submission and reopens the form with the
// values the user entered.
func (m *Model) SetErrors(message string, fields map[string][]string) tea.Cmd {
	m.errMsg = message
	m.fieldErrs = fields
	m.submitted = false
	return m.buildForm()
}

// Submitted reports whether the form is waiting on the server.
func (m Model) Submitted() bool {
	return m.submitted
}

// IsEdit reports whether the form edits an existing record.
func (m Model) IsEdit() bool {
	return m.id != 0
}

// Entity returns the entity the form edits.
func (m Model) Entity() model.Entity {
	return m.entity
}

func (m *Model) reset(e model.Entity, id int64) {
	m.entity = e
	m.id = id
	m.fields = model.FormFields(e)
	m.submitted = false
	m.errMsg = ""
	m.fieldErrs = nil
	m.fb = &formBindings{values: make(map[string]*string, len(m.fields))}
	for _, f := range m.fields {
		m.fb.values[f.Key] = new(string)
	}
}

func (m *Model) buildForm() tea.Cmd {
	inputs := make([]huh.Field, 0, len(m.fields))
	for _, f := range m.fields {
		title := f.Label
		if f.Required {
			title += " *"
		}
		input := huh.NewInput().
			Key(f.Key).
			Title(title).
			Placeholder(f.Placeholder).
			Value(m.fb.values[f.Key])
		if errs := m.fieldErrs[f.Key]; len(errs) > 0 {
			input = input.Description(strings.Join(errs, "; "))
		}
		inputs = append(inputs, input)
	}

	m.form = huh.NewForm(huh.NewGroup(inputs...)).
		WithWidth(m.formWidth()).
		WithHeight(m.formHeight()).
		WithShowHelp(true)
	return m.form.Init()
}

// Update handles messages for the form view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil || m.submitted {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m.handleSubmit()
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// handleSubmit builds the payload from the bound values. Required fields
// are only marked in the form; the server is the authority on validity.
func (m Model) handleSubmit() (Model, tea.Cmd) {
	m.submitted = true
	payload := make(map[string]interface{}, len(m.fields))
	for _, f := range m.fields {
		raw := strings.TrimSpace(*m.fb.values[f.Key])
		if raw == "" {
			if m.IsEdit() {
				payload[f.Key] = nil
			}
			continue
		}
		payload[f.Key] = coerce(f.Key, raw)
	}

	msg := SubmitMsg{Entity: m.entity, ID: m.id, Payload: payload}
	return m, func() tea.Msg { return msg }
}

// View renders the form view.
func (m Model) View() string {
	verb := "New"
	if m.IsEdit() {
		verb = fmt.Sprintf("Edit #%d", m.id)
	}
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1).
		Render(fmt.Sprintf("%s %s", verb, m.entity.Label()))

	parts := []string{title}
	if m.errMsg != "" {
		parts = append(parts, theme.ErrorTextStyle.Render(m.errMsg))
		for _, line := range m.unmatchedErrors() {
			parts = append(parts, theme.ErrorTextStyle.Render("  "+line))
		}
		parts = append(parts, "")
	}
	switch {
	case m.submitted:
		parts = append(parts, theme.HelpStyle.Render("Saving..."))
	case m.form != nil:
		parts = append(parts, m.form.View())
	}

	return theme.PanelStyle.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

// unmatchedErrors lists server field errors for keys the form has no
// input for.
func (m Model) unmatchedErrors() []string {
	var out []string
	for k, errs := range m.fieldErrs {
		if _, ok := m.fb.values[k]; ok {
			continue
		}
		out = append(out, fmt.Sprintf("%s: %s", k, strings.Join(errs, "; ")))
	}
	sort.Strings(out)
	return out
}

// SetSize updates the form view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	if m.form != nil {
		m.form = m.form.WithWidth(m.formWidth()).WithHeight(m.formHeight())
	}
}

func (m Model) formWidth() int {
	w := m.width - 8
	if w > 100 {
		w = 100
	}
	if w < 40 {
		w = 40
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 8
	if h < 10 {
		h = 10
	}
	return h
}

// coerce sends foreign keys as numbers when they parse as one.
func coerce(key, raw string) interface{} {
	if strings.HasSuffix(key, "_id") {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return n
		}
	}
	return raw
}

// recordValues flattens rec's JSON form into strings keyed by property.
func recordValues(rec model.Record) map[string]string {
	raw, err := json.Marshal(rec)
	if err != nil {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var props map[string]interface{}
	if err := dec.Decode(&props); err != nil {
		return nil
	}

	out := make(map[string]string, len(props))
	for k, v := range props {
		switch v := v.(type) {
		case nil, map[string]interface{}, []interface{}:
		case string:
			out[k] = v
		default:
			out[k] = fmt.Sprint(v)
		}
	}
	return out
}
