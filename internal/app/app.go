package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/nhle/hr-console/internal/api"
	"github.com/nhle/hr-console/internal/guard"
	"github.com/nhle/hr-console/internal/keys"
	"github.com/nhle/hr-console/internal/model"
	"github.com/nhle/hr-console/internal/notify"
	"github.com/nhle/hr-console/internal/pagination"
	"github.com/nhle/hr-console/internal/session"
	"github.com/nhle/hr-console/internal/slice"
	"github.com/nhle/hr-console/internal/store"
	"github.com/nhle/hr-console/internal/ui"
	"github.com/nhle/hr-console/internal/ui/detail"
	"github.com/nhle/hr-console/internal/ui/entityform"
	"github.com/nhle/hr-console/internal/ui/entitylist"
	helpview "github.com/nhle/hr-console/internal/ui/help"
	"github.com/nhle/hr-console/internal/ui/history"
	"github.com/nhle/hr-console/internal/ui/login"
	"github.com/nhle/hr-console/internal/ui/menu"
)

// toastDuration is how long a notification stays in the status bar.
const toastDuration = 4 * time.Second

// unreadCountMsg carries the number of unread notifications to the UI.
type unreadCountMsg struct {
	count int
}

// toastExpiredMsg clears the toast with the matching sequence number.
type toastExpiredMsg struct {
	seq int
}

// Deps are the long-lived services the UI drives.
type Deps struct {
	Config   *model.AppConfig
	Session  *session.Store
	Guard    *guard.Guard
	Registry *slice.Registry
	Pages    *pagination.Cache
	Bridge   *notify.Bridge
	Store    store.Store
	Logger   *zap.Logger
}

// Model is the root Bubble Tea model that manages routing, layout, and the
// wiring between views and request slices.
type Model struct {
	route         guard.Route
	previousRoute guard.Route
	layout        ui.Layout
	keys          *keys.KeyMap

	cfg      *model.AppConfig
	session  *session.Store
	guard    *guard.Guard
	registry *slice.Registry
	pages    *pagination.Cache
	bridge   *notify.Bridge
	store    store.Store
	logger   *zap.Logger

	loginView   login.Model
	menuView    menu.Model
	listView    entitylist.Model
	detailView  detail.Model
	formView    entityform.Model
	historyView history.Model
	helpView    helpview.Model

	entity     model.Entity
	listParams api.ListParams
	listKey    pagination.Key

	toast       *model.NotificationEvent
	toastSeq    int
	unreadCount int
	ready       bool
	initCmd     tea.Cmd
}

// New creates the root model. The session must already be bootstrapped.
func New(d Deps) Model {
	k := keys.DefaultKeyMap()
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	m := Model{
		keys:        k,
		cfg:         d.Config,
		session:     d.Session,
		guard:       d.Guard,
		registry:    d.Registry,
		pages:       d.Pages,
		bridge:      d.Bridge,
		store:       d.Store,
		logger:      logger.With(zap.String("module", "app")),
		loginView:   login.New(80, 24),
		menuView:    menu.New(d.Registry.Entities(), k, 80, 24),
		listView:    entitylist.New(k, 80, 24),
		detailView:  detail.New(k, 80, 24),
		formView:    entityform.New(80, 24),
		historyView: history.New(d.Store, k, 80, 24),
		helpView:    helpview.New(k, d.Config.API.BaseURL, 80, 24),
	}
	m.initCmd = m.navigate(guard.RouteHome)
	return m
}

// Init starts listening for notifications and opens the first view.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.initCmd,
		m.bridge.WaitForEvent(),
		m.fetchUnreadCount(),
	)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		contentWidth := m.layout.ContentWidth()
		contentHeight := m.layout.ContentHeight()
		m.loginView.SetSize(contentWidth, contentHeight)
		m.menuView.SetSize(contentWidth, contentHeight)
		m.listView.SetSize(contentWidth, contentHeight)
		m.detailView.SetSize(contentWidth, contentHeight)
		m.formView.SetSize(contentWidth, contentHeight)
		m.historyView.SetSize(contentWidth, contentHeight)
		m.helpView.SetSize(contentWidth, contentHeight)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case slice.ResultMsg:
		return m, m.handleResult(msg)

	case login.SubmitMsg:
		return m, m.session.Login(msg.Credentials)

	case session.LoginResultMsg:
		return m, m.handleLoginResult(msg)

	case notify.NotificationMsg:
		m.toastSeq++
		ev := msg.Event
		m.toast = &ev
		seq := m.toastSeq
		cmds := []tea.Cmd{
			m.bridge.WaitForEvent(),
			m.fetchUnreadCount(),
			tea.Tick(toastDuration, func(time.Time) tea.Msg {
				return toastExpiredMsg{seq: seq}
			}),
		}
		if m.route == guard.RouteHistory {
			cmds = append(cmds, m.historyView.Load())
		}
		return m, tea.Batch(cmds...)

	case toastExpiredMsg:
		if msg.seq == m.toastSeq {
			m.toast = nil
		}
		return m, nil

	case unreadCountMsg:
		m.unreadCount = msg.count
		m.menuView.SetUnread(msg.count)
		return m, nil

	case menu.SelectEntityMsg:
		return m, m.openList(msg.Entity)

	case menu.OpenHistoryMsg:
		cmd := m.navigate(guard.RouteHistory)
		return m, tea.Batch(cmd, tea.Sequence(m.historyView.Load(), m.historyView.MarkAllRead()))

	case menu.LogoutMsg:
		return m, m.logout()

	case history.ReadAllMsg:
		if msg.Err != nil {
			m.logger.Warn("marking notifications read failed", zap.Error(msg.Err))
		}
		return m, m.fetchUnreadCount()

	case history.BackMsg:
		return m, m.navigate(guard.RouteHome)

	case entitylist.BackMsg:
		m.clearErrors(model.OpList)
		return m, m.navigate(guard.RouteHome)

	case entitylist.OpenMsg:
		return m, m.openDetail(msg.ID)

	case entitylist.NewMsg:
		cmd := m.navigate(guard.RouteForm)
		return m, tea.Batch(cmd, m.formView.StartCreate(m.entity))

	case entitylist.EditMsg:
		rec, ok := m.listView.Selected()
		if !ok || rec.GetID() != msg.ID {
			return m, nil
		}
		return m, m.openEdit(rec)

	case entitylist.DeleteMsg:
		return m, m.dispatch(func(c slice.Controller) tea.Cmd { return c.Remove(msg.ID) })

	case entitylist.PageMsg:
		return m, m.movePage(msg.Delta)

	case entitylist.SearchMsg:
		return m, m.search(msg.Query)

	case entitylist.RefreshMsg:
		return m, m.refreshList()

	case detail.BackMsg:
		m.clearErrors(model.OpGet)
		return m, m.navigate(guard.RouteList)

	case detail.EditMsg:
		c, ok := m.controller()
		if !ok {
			return m, nil
		}
		rec := c.Snapshot(model.OpGet).Item
		if rec == nil {
			return m, nil
		}
		return m, m.openEdit(rec)

	case detail.DeleteMsg:
		return m, m.dispatch(func(c slice.Controller) tea.Cmd { return c.Remove(msg.ID) })

	case detail.RefreshMsg:
		return m, m.dispatch(func(c slice.Controller) tea.Cmd { return c.Get(msg.ID) })

	case entityform.SubmitMsg:
		return m, m.dispatch(func(c slice.Controller) tea.Cmd {
			if msg.ID == 0 {
				return c.Create(msg.Payload)
			}
			return c.Update(msg.ID, msg.Payload)
		})

	case entityform.CancelMsg:
		m.clearErrors(model.OpCreate, model.OpUpdate)
		return m, m.navigate(m.formReturnRoute())

	case tea.KeyMsg:
		if cmd, handled := m.handleGlobalKey(msg); handled {
			return m, cmd
		}
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

// handleGlobalKey processes keys that work across views. Views with text
// input only receive ctrl+c here.
func (m *Model) handleGlobalKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	if msg.String() == "ctrl+c" {
		return tea.Quit, true
	}
	if m.capturesText() {
		return nil, false
	}

	switch msg.String() {
	case "q":
		if m.route == guard.RouteHome {
			return tea.Quit, true
		}

	case "?":
		if m.route == guard.RouteHelp {
			return m.navigate(m.previousRoute), true
		}
		return m.navigate(guard.RouteHelp), true

	case "esc":
		if m.route == guard.RouteHelp {
			return m.navigate(m.previousRoute), true
		}

	case "N":
		if m.route != guard.RouteHistory && m.route != guard.RouteHelp {
			cmd := m.navigate(guard.RouteHistory)
			return tea.Batch(cmd, tea.Sequence(m.historyView.Load(), m.historyView.MarkAllRead())), true
		}

	case "ctrl+l":
		if m.session.IsAuthenticated() {
			return m.logout(), true
		}
	}
	return nil, false
}

// capturesText reports whether the active view consumes printable keys.
func (m Model) capturesText() bool {
	switch m.route {
	case guard.RouteLogin, guard.RouteForm:
		return true
	case guard.RouteList:
		return m.listView.Searching()
	}
	return false
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.route {
	case guard.RouteLogin:
		m.loginView, cmd = m.loginView.Update(msg)
	case guard.RouteHome:
		m.menuView, cmd = m.menuView.Update(msg)
	case guard.RouteList:
		m.listView, cmd = m.listView.Update(msg)
	case guard.RouteDetail:
		m.detailView, cmd = m.detailView.Update(msg)
	case guard.RouteForm:
		m.formView, cmd = m.formView.Update(msg)
	case guard.RouteHistory:
		m.historyView, cmd = m.historyView.Update(msg)
	case guard.RouteHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	}

	return m, cmd
}

// navigate moves to r after the guard has checked it. Protected routes
// resolve to the login view when no session is held.
func (m *Model) navigate(r guard.Route) tea.Cmd {
	resolved := m.guard.Resolve(r)
	if resolved != r {
		m.logger.Info("navigation redirected",
			zap.String("requested", string(r)),
			zap.String("resolved", string(resolved)),
		)
	}

	prev := m.route
	if resolved != prev {
		m.previousRoute = prev
	}
	m.route = resolved

	switch resolved {
	case guard.RouteLogin:
		if prev != guard.RouteLogin || !m.loginView.Pending() {
			return m.loginView.Start()
		}
	case guard.RouteHome:
		m.menuView.SetUser(m.session.UserName())
	}
	return nil
}

// enforceSession sends the user to login when the current view needs a
// session that is no longer held.
func (m *Model) enforceSession() tea.Cmd {
	if m.route == guard.RouteLogin || !guard.IsProtected(m.route) || m.guard.CanEnter() {
		return nil
	}
	return m.navigate(m.route)
}

// handleLoginResult applies a completed login exchange.
func (m *Model) handleLoginResult(msg session.LoginResultMsg) tea.Cmd {
	if _, err := m.session.ApplyLogin(msg); err != nil {
		var message string
		var authErr *session.AuthError
		if errors.As(err, &authErr) {
			message = authErr.Message
		} else {
			message = err.Error()
		}
		return m.loginView.SetError(message)
	}

	name := m.session.UserName()
	greeting := "Signed in"
	if name != "" {
		greeting = "Signed in as " + name
	}
	m.bridge.Emit(model.NotificationSuccess, model.EntitySession, model.OpAuth, greeting)
	return m.navigate(guard.RouteHome)
}

// logout ends the session and returns to the login view.
func (m *Model) logout() tea.Cmd {
	m.session.Logout()
	m.bridge.Emit(model.NotificationSuccess, model.EntitySession, model.OpAuth, "Signed out")
	return m.navigate(guard.RouteLogin)
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	headerTitle := "HR Console"
	switch m.route {
	case guard.RouteList, guard.RouteDetail, guard.RouteForm:
		headerTitle += " / " + m.entity.Label()
	case guard.RouteHistory:
		headerTitle += " / Notifications"
	}
	header := m.layout.RenderHeader(headerTitle, m.sessionInfo())
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.keyHints(), m.toast)

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.route {
	case guard.RouteLogin:
		return m.loginView.View()
	case guard.RouteHome:
		return m.menuView.View()
	case guard.RouteList:
		return m.listView.View()
	case guard.RouteDetail:
		return m.detailView.View()
	case guard.RouteForm:
		return m.formView.View()
	case guard.RouteHistory:
		return m.historyView.View()
	case guard.RouteHelp:
		return m.helpView.View()
	default:
		return ""
	}
}

// sessionInfo returns the right-hand header text.
func (m Model) sessionInfo() string {
	if !m.session.IsAuthenticated() {
		return "signed out"
	}
	info := m.session.UserName()
	if info == "" {
		info = "signed in"
	}
	if claims, ok := m.session.Claims(); ok && !claims.ExpiresAt.IsZero() {
		info += " · exp " + claims.ExpiresAt.Local().Format("15:04")
	}
	if m.unreadCount > 0 {
		info = fmt.Sprintf("%s [%d new]", info, m.unreadCount)
	}
	return info
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.route {
	case guard.RouteLogin:
		return "enter submit | ctrl+c quit"
	case guard.RouteHelp:
		return "? close help | esc back"
	case guard.RouteList:
		return "enter open | n new | e edit | d delete | h/l page | / search | r refresh | esc back"
	case guard.RouteDetail:
		return "e edit | d delete | r refresh | j/k scroll | esc back"
	case guard.RouteForm:
		return "enter next/submit | esc cancel"
	case guard.RouteHistory:
		return "f errors only | a mark all read | r refresh | esc back"
	default:
		return "q quit | ? help | N notifications | ctrl+l sign out"
	}
}

// fetchUnreadCount returns a tea.Cmd that queries the store for the
// number of unread notifications.
func (m Model) fetchUnreadCount() tea.Cmd {
	s := m.store
	if s == nil {
		return nil
	}
	return func() tea.Msg {
		n, err := s.GetUnreadCount(context.Background())
		if err != nil {
			return unreadCountMsg{count: 0}
		}
		return unreadCountMsg{count: n}
	}
}
