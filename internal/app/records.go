package app

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/hr-console/internal/api"
	"github.com/nhle/hr-console/internal/guard"
	"github.com/nhle/hr-console/internal/model"
	"github.com/nhle/hr-console/internal/slice"
)

// controller returns the slice of the entity being browsed.
func (m Model) controller() (slice.Controller, bool) {
	if m.entity == "" {
		return nil, false
	}
	return m.registry.Get(m.entity)
}

// handleResult commits a request outcome and acknowledges mutation
// results the views have consumed. Lists are never refreshed by the slice
// itself; the views that need fresh rows re-dispatch here.
func (m *Model) handleResult(msg slice.ResultMsg) tea.Cmd {
	if !m.registry.Apply(msg) {
		m.logger.Debug("result for unknown entity dropped")
		return nil
	}
	if !m.guard.CanEnter() {
		// The redirect replaces any error surface; the failure stays in
		// the notification history only.
		if c, ok := m.registry.Get(msg.Entity); ok {
			c.ClearError(msg.Operation)
		}
		m.syncViews()
		return m.enforceSession()
	}

	c, ok := m.registry.Get(msg.Entity)
	if !ok {
		return nil
	}

	var cmd tea.Cmd
	switch msg.Operation {
	case model.OpCreate, model.OpUpdate:
		cmd = m.handleSaveResult(c, msg.Operation)
	case model.OpRemove:
		cmd = m.handleRemoveResult(c)
	}

	m.syncViews()
	return cmd
}

func (m *Model) handleSaveResult(c slice.Controller, op model.Operation) tea.Cmd {
	snap := c.Snapshot(op)
	inForm := m.route == guard.RouteForm && m.formView.Entity() == c.Entity()

	switch snap.Status {
	case model.StatusSucceeded:
		c.ClearSuccess(op)
		if !inForm || c.Entity() != m.entity {
			return nil
		}
		ret := m.formReturnRoute()
		cmds := []tea.Cmd{m.navigate(ret), m.refreshList()}
		if ret == guard.RouteDetail {
			cmds = append(cmds, c.Get(m.detailView.ID()))
		}
		return tea.Batch(cmds...)

	case model.StatusFailed:
		c.ClearError(op)
		if inForm {
			return m.formView.SetErrors(snap.Error, snap.Fields)
		}
	}
	return nil
}

func (m *Model) handleRemoveResult(c slice.Controller) tea.Cmd {
	snap := c.Snapshot(model.OpRemove)

	switch snap.Status {
	case model.StatusSucceeded:
		c.ClearSuccess(model.OpRemove)
		if c.Entity() != m.entity {
			return nil
		}
		var nav tea.Cmd
		if m.route == guard.RouteDetail {
			nav = m.navigate(guard.RouteList)
		}
		return tea.Batch(nav, m.refreshList())

	case model.StatusFailed:
		// The notification already carries the message.
		c.ClearError(model.OpRemove)
	}
	return nil
}

// openList starts browsing entity e from its first page.
func (m *Model) openList(e model.Entity) tea.Cmd {
	c, ok := m.registry.Get(e)
	if !ok {
		return nil
	}

	nav := m.navigate(guard.RouteList)
	if m.route != guard.RouteList {
		return nav
	}

	m.entity = e
	m.listView.Reset(e)
	m.listParams = api.ListParams{Page: 1, PerPage: m.cfg.Display.PerPage}
	m.listKey = m.pages.Track(e, m.listParams)

	cmd := c.List(m.listParams)
	m.syncViews()
	return tea.Batch(nav, cmd)
}

// openDetail fetches record id and shows it.
func (m *Model) openDetail(id int64) tea.Cmd {
	c, ok := m.controller()
	if !ok {
		return nil
	}
	nav := m.navigate(guard.RouteDetail)
	if m.route != guard.RouteDetail {
		return nav
	}
	m.detailView.Open(m.entity, id)
	cmd := c.Get(id)
	m.syncViews()
	return tea.Batch(nav, cmd)
}

// openEdit shows the edit form for rec.
func (m *Model) openEdit(rec model.Record) tea.Cmd {
	nav := m.navigate(guard.RouteForm)
	if m.route != guard.RouteForm {
		return nav
	}
	return tea.Batch(nav, m.formView.StartEdit(m.entity, rec))
}

// dispatch runs fn against the current entity's slice and refreshes the
// views from the new loading state.
func (m *Model) dispatch(fn func(c slice.Controller) tea.Cmd) tea.Cmd {
	c, ok := m.controller()
	if !ok {
		return nil
	}
	cmd := fn(c)
	m.syncViews()
	return cmd
}

// movePage asks the pagination cache for the adjacent page. Nothing is
// dispatched past either end of the known window.
func (m *Model) movePage(delta int) tea.Cmd {
	return m.dispatch(func(c slice.Controller) tea.Cmd {
		if delta > 0 {
			return m.pages.Next(m.listKey, c)
		}
		return m.pages.Prev(m.listKey, c)
	})
}

// search restarts the list from page one with query q.
func (m *Model) search(q string) tea.Cmd {
	m.listParams = api.ListParams{Page: 1, PerPage: m.cfg.Display.PerPage, Search: q}
	m.listKey = m.pages.Track(m.entity, m.listParams)
	return m.dispatch(func(c slice.Controller) tea.Cmd {
		return c.List(m.listParams)
	})
}

// refreshList reloads the page last reported by the server.
func (m *Model) refreshList() tea.Cmd {
	params := m.listParams
	if state, ok := m.pages.State(m.listKey); ok && state.CurrentPage >= 1 {
		params = params.WithPage(state.CurrentPage)
	}
	return m.dispatch(func(c slice.Controller) tea.Cmd {
		return c.List(params)
	})
}

// clearErrors acknowledges failures of ops on the current entity.
func (m *Model) clearErrors(ops ...model.Operation) {
	if c, ok := m.controller(); ok {
		c.ClearError(ops...)
		m.syncViews()
	}
}

// formReturnRoute is where a closed form goes back to.
func (m Model) formReturnRoute() guard.Route {
	if m.previousRoute == guard.RouteDetail {
		return guard.RouteDetail
	}
	return guard.RouteList
}

// syncViews copies the current slots of the browsed entity into the list
// and detail views.
func (m *Model) syncViews() {
	c, ok := m.controller()
	if !ok {
		return
	}

	m.listView.SetSnapshot(
		c.Snapshot(model.OpList),
		m.pages.HasPrev(m.listKey),
		m.pages.HasNext(m.listKey),
	)

	if id := m.detailView.ID(); id != 0 {
		snap := c.Snapshot(model.OpGet)
		if snap.Item != nil && snap.Item.GetID() != id {
			snap.Item = nil
		}
		m.detailView.SetSnapshot(snap)
	}
}
