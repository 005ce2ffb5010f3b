package slice

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/hr-console/internal/api"
	"github.com/nhle/hr-console/internal/model"
)

// Controller is the type-erased view of a Slice used by screens that work
// with any entity.
type Controller interface {
	Entity() model.Entity
	Apply(msg tea.Msg) bool
	List(params api.ListParams) tea.Cmd
	Get(id int64) tea.Cmd
	Create(payload interface{}) tea.Cmd
	Update(id int64, payload interface{}) tea.Cmd
	Remove(id int64) tea.Cmd
	ClearError(ops ...model.Operation)
	ClearSuccess(ops ...model.Operation)
	ListSignature() string

	// Snapshot returns the slot for op with records erased to model.Record.
	Snapshot(op model.Operation) Snapshot
}

// Snapshot is a read-only, type-erased copy of a RequestState.
type Snapshot struct {
	Status         model.Status
	Items          []model.Record
	Item           model.Record
	Pagination     *model.Pagination
	Error          string
	ErrorKind      api.ErrorKind
	Fields         map[string][]string
	SuccessMessage string
	RequestID      int64
}

// Snapshot implements Controller. Records that do not implement
// model.Record are skipped.
func (s *Slice[T]) Snapshot(op model.Operation) Snapshot {
	st := s.slots[op]
	snap := Snapshot{
		Status:         st.Status,
		Pagination:     st.Pagination,
		Error:          st.Error,
		ErrorKind:      st.ErrorKind,
		Fields:         st.Fields,
		SuccessMessage: st.SuccessMessage,
		RequestID:      st.RequestID,
	}
	for _, item := range st.Items {
		if rec, ok := any(item).(model.Record); ok {
			snap.Items = append(snap.Items, rec)
		}
	}
	if st.Item != nil {
		if rec, ok := any(*st.Item).(model.Record); ok {
			snap.Item = rec
		}
	}
	return snap
}

// Registry holds the slice of every entity and routes results to them.
type Registry struct {
	order  []model.Entity
	slices map[model.Entity]Controller
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{slices: make(map[model.Entity]Controller)}
}

// Register adds c, replacing any slice registered for the same entity.
func (r *Registry) Register(c Controller) {
	if _, exists := r.slices[c.Entity()]; !exists {
		r.order = append(r.order, c.Entity())
	}
	r.slices[c.Entity()] = c
}

// Get returns the slice for e.
func (r *Registry) Get(e model.Entity) (Controller, bool) {
	c, ok := r.slices[e]
	return c, ok
}

// Entities returns registered entities in registration order.
func (r *Registry) Entities() []model.Entity {
	out := make([]model.Entity, len(r.order))
	copy(out, r.order)
	return out
}

// Apply routes a ResultMsg to its slice. It reports whether msg was a
// result for a registered entity.
func (r *Registry) Apply(msg tea.Msg) bool {
	res, ok := msg.(ResultMsg)
	if !ok {
		return false
	}
	c, ok := r.slices[res.Entity]
	if !ok {
		return false
	}
	return c.Apply(res)
}
