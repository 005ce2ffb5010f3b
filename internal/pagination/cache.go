// Package pagination keeps the page window of every list query. Windows are
// only ever copied from server responses.
package pagination

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/hr-console/internal/api"
	"github.com/nhle/hr-console/internal/eventbus"
	"github.com/nhle/hr-console/internal/model"
)

// Key identifies one list query regardless of page.
type Key struct {
	Entity    model.Entity
	Signature string
}

// KeyFor builds the key of params for entity e.
func KeyFor(e model.Entity, params api.ListParams) Key {
	return Key{Entity: e, Signature: params.Signature()}
}

// Lister dispatches list requests. *slice.Slice satisfies it.
type Lister interface {
	List(params api.ListParams) tea.Cmd
}

type entry struct {
	params  api.ListParams
	tracked bool
	state   model.Pagination
	known   bool
}

// Cache holds pagination state per (entity, query).
type Cache struct {
	entries map[Key]*entry
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{entries: make(map[Key]*entry)}
}

// Watch subscribes the cache to successful list transitions.
func (c *Cache) Watch(bus *eventbus.Bus) error {
	return bus.OnTransition(c.observe)
}

func (c *Cache) observe(t eventbus.Transition) {
	if t.Operation != model.OpList || t.To != model.StatusSucceeded || t.Pagination == nil {
		return
	}
	c.Replace(Key{Entity: t.Entity, Signature: t.Signature}, *t.Pagination)
}

// Track remembers the query params for key so later page moves reuse them.
func (c *Cache) Track(e model.Entity, params api.ListParams) Key {
	key := KeyFor(e, params)
	en, ok := c.entries[key]
	if !ok {
		en = &entry{}
		c.entries[key] = en
	}
	en.params = params
	en.tracked = true
	return key
}

// Replace overwrites the window for key with state.
func (c *Cache) Replace(key Key, state model.Pagination) {
	en, ok := c.entries[key]
	if !ok {
		en = &entry{}
		c.entries[key] = en
	}
	en.state = state
	en.known = true
}

// State returns the last window reported for key.
func (c *Cache) State(key Key) (model.Pagination, bool) {
	en, ok := c.entries[key]
	if !ok || !en.known {
		return model.Pagination{}, false
	}
	return en.state, true
}

// CanGoto reports whether page n is inside the known window for a tracked
// key.
func (c *Cache) CanGoto(key Key, n int) bool {
	en, ok := c.entries[key]
	if !ok || !en.tracked || !en.known {
		return false
	}
	return en.state.Contains(n)
}

// GotoPage dispatches a list of page n through lister. It returns nil and
// dispatches nothing when n is outside 1..lastPage.
func (c *Cache) GotoPage(key Key, n int, lister Lister) tea.Cmd {
	if !c.CanGoto(key, n) {
		return nil
	}
	en := c.entries[key]
	return lister.List(en.params.WithPage(n))
}

// HasNext reports whether a next page can be dispatched.
func (c *Cache) HasNext(key Key) bool {
	state, ok := c.State(key)
	return ok && state.HasNext()
}

// HasPrev reports whether a previous page can be dispatched.
func (c *Cache) HasPrev(key Key) bool {
	state, ok := c.State(key)
	return ok && state.HasPrev()
}

// Next dispatches the page after the current one, if any.
func (c *Cache) Next(key Key, lister Lister) tea.Cmd {
	state, ok := c.State(key)
	if !ok {
		return nil
	}
	return c.GotoPage(key, state.CurrentPage+1, lister)
}

// Prev dispatches the page before the current one, if any.
func (c *Cache) Prev(key Key, lister Lister) tea.Cmd {
	state, ok := c.State(key)
	if !ok {
		return nil
	}
	return c.GotoPage(key, state.CurrentPage-1, lister)
}
