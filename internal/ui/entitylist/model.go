package entitylist

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/hr-console/internal/keys"
	"github.com/nhle/hr-console/internal/model"
	"github.com/nhle/hr-console/internal/slice"
	"github.com/nhle/hr-console/internal/theme"
)

// OpenMsg asks the parent to show the detail of a record.
type OpenMsg struct {
	ID int64
}

// NewMsg asks the parent to open an empty create form.
type NewMsg struct{}

// EditMsg asks the parent to open the edit form for a record.
type EditMsg struct {
	ID int64
}

// DeleteMsg is sent once the user confirmed deleting a record.
type DeleteMsg struct {
	ID int64
}

// PageMsg asks the parent to move by Delta pages.
type PageMsg struct {
	Delta int
}

// SearchMsg asks the parent to re-run the list with a new query.
type SearchMsg struct {
	Query string
}

// RefreshMsg asks the parent to reload the current page.
type RefreshMsg struct{}

// BackMsg signals the parent to return to the menu.
type BackMsg struct{}

// Model renders one page of an entity list.
type Model struct {
	entity      model.Entity
	table       table.Model
	records     []model.Record
	snapshot    slice.Snapshot
	hasNext     bool
	hasPrev     bool
	query       string
	keys        *keys.KeyMap
	searchMode  bool
	searchInput textinput.Model
	confirmID   int64
	width       int
	height      int
}

// New creates an empty list view.
func New(k *keys.KeyMap, width, height int) Model {
	t := table.New(table.WithFocused(true))
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(theme.ColorBorder).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(theme.ColorWhite).
		Background(theme.ColorBlue).
		Bold(false)
	t.SetStyles(styles)

	si := textinput.New()
	si.Placeholder = "search..."
	si.Prompt = "/ "

	m := Model{
		table:       t,
		keys:        k,
		searchInput: si,
	}
	m.SetSize(width, height)
	return m
}

// Reset switches the view to entity e and clears local state.
func (m *Model) Reset(e model.Entity) {
	m.entity = e
	m.records = nil
	m.snapshot = slice.Snapshot{}
	m.query = ""
	m.searchMode = false
	m.searchInput.Reset()
	m.confirmID = 0
	m.hasNext, m.hasPrev = false, false
	m.table.SetRows(nil)
	m.table.SetColumns(m.columns())
	m.table.SetCursor(0)
}

// Entity returns the entity being listed.
func (m Model) Entity() model.Entity {
	return m.entity
}

// Query returns the active search text.
func (m Model) Query() string {
	return m.query
}

// Searching reports whether the search input has focus.
func (m Model) Searching() bool {
	return m.searchMode
}

// SetSnapshot refreshes the rows from the list slot.
func (m *Model) SetSnapshot(snap slice.Snapshot, hasPrev, hasNext bool) {
	m.snapshot = snap
	m.hasPrev = hasPrev
	m.hasNext = hasNext
	m.records = snap.Items

	rows := make([]table.Row, len(snap.Items))
	for i, rec := range snap.Items {
		rows[i] = table.Row(rec.Columns())
	}
	m.table.SetRows(rows)
	// An empty table leaves the cursor at -1.
	if c := m.table.Cursor(); len(rows) > 0 && (c < 0 || c >= len(rows)) {
		m.table.SetCursor(min(max(c, 0), len(rows)-1))
	}
}

// Selected returns the record under the cursor.
func (m Model) Selected() (model.Record, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.records) {
		return nil, false
	}
	return m.records[i], true
}

// Update handles messages for the list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if m.confirmID != 0 {
		return m.handleConfirmKeys(keyMsg)
	}
	if m.searchMode {
		return m.handleSearchKeys(keyMsg)
	}
	return m.handleNormalKeys(keyMsg)
}

func (m Model) handleConfirmKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	id := m.confirmID
	m.confirmID = 0
	switch msg.String() {
	case "y", "Y":
		return m, func() tea.Msg { return DeleteMsg{ID: id} }
	}
	return m, nil
}

func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchMode = false
		m.query = strings.TrimSpace(m.searchInput.Value())
		query := m.query
		return m, func() tea.Msg { return SearchMsg{Query: query} }

	case "esc":
		m.searchMode = false
		m.searchInput.SetValue(m.query)
		return m, nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return BackMsg{} }

	case key.Matches(msg, m.keys.Select):
		if rec, ok := m.Selected(); ok {
			id := rec.GetID()
			return m, func() tea.Msg { return OpenMsg{ID: id} }
		}
		return m, nil

	case key.Matches(msg, m.keys.New):
		return m, func() tea.Msg { return NewMsg{} }

	case key.Matches(msg, m.keys.Edit):
		if rec, ok := m.Selected(); ok {
			id := rec.GetID()
			return m, func() tea.Msg { return EditMsg{ID: id} }
		}
		return m, nil

	case key.Matches(msg, m.keys.Delete):
		if rec, ok := m.Selected(); ok {
			m.confirmID = rec.GetID()
		}
		return m, nil

	case key.Matches(msg, m.keys.NextPage):
		if m.hasNext {
			return m, func() tea.Msg { return PageMsg{Delta: 1} }
		}
		return m, nil

	case key.Matches(msg, m.keys.PrevPage):
		if m.hasPrev {
			return m, func() tea.Msg { return PageMsg{Delta: -1} }
		}
		return m, nil

	case key.Matches(msg, m.keys.Search):
		m.searchMode = true
		m.searchInput.SetValue(m.query)
		return m, m.searchInput.Focus()

	case key.Matches(msg, m.keys.Refresh):
		return m, func() tea.Msg { return RefreshMsg{} }
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the list view.
func (m Model) View() string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		Render(m.entity.Label())
	if m.query != "" {
		title += theme.HelpStyle.Render(fmt.Sprintf("  matching %q", m.query))
	}

	parts := []string{title, ""}

	switch {
	case m.snapshot.Status == model.StatusLoading && len(m.records) == 0:
		parts = append(parts, theme.HelpStyle.Render("Loading..."))
	case m.snapshot.Status == model.StatusFailed:
		parts = append(parts, theme.ErrorTextStyle.Render(m.snapshot.Error), theme.HelpStyle.Render("press r to retry"))
	case len(m.records) == 0:
		parts = append(parts, theme.HelpStyle.Render("No records"))
	default:
		parts = append(parts, m.table.View())
	}

	parts = append(parts, "", m.footer())

	if m.searchMode {
		parts = append(parts, m.searchInput.View())
	}
	if m.confirmID != 0 {
		parts = append(parts, theme.ErrorTextStyle.Render(fmt.Sprintf("Delete record #%d? (y/N)", m.confirmID)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) footer() string {
	p := m.snapshot.Pagination
	if p == nil {
		return ""
	}
	text := fmt.Sprintf("Page %d of %d  (%d total)", p.CurrentPage, p.LastPage, p.Total)
	if m.snapshot.Status == model.StatusLoading {
		text += "  loading..."
	}
	var arrows []string
	if m.hasPrev {
		arrows = append(arrows, "← prev")
	}
	if m.hasNext {
		arrows = append(arrows, "next →")
	}
	if len(arrows) > 0 {
		text += "  " + strings.Join(arrows, " ")
	}
	return theme.HelpStyle.Render(text)
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.searchInput.Width = max(width-4, 10)
	m.table.SetWidth(width)
	m.table.SetHeight(max(height-6, 3))
	m.table.SetColumns(m.columns())
}

// columns splits the width evenly, giving the ID column a fixed width.
func (m Model) columns() []table.Column {
	headers := model.Headers(m.entity)
	if len(headers) == 0 {
		return nil
	}
	const idWidth = 6
	rest := 0
	if len(headers) > 1 {
		rest = max((m.width-idWidth-2*len(headers))/(len(headers)-1), 8)
	}

	cols := make([]table.Column, len(headers))
	for i, h := range headers {
		w := rest
		if i == 0 {
			w = idWidth
		}
		cols[i] = table.Column{Title: h, Width: w}
	}
	return cols
}
