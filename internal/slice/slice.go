// Package slice implements the per-entity request state machine. Each
// operation (list, get, create, update, remove) owns one slot that moves
// idle -> loading -> succeeded|failed and back to idle only when the caller
// acknowledges the outcome.
package slice

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/nhle/hr-console/internal/api"
	"github.com/nhle/hr-console/internal/eventbus"
	"github.com/nhle/hr-console/internal/model"
)

// Remote is the API surface a slice drives.
type Remote[T any] interface {
	List(ctx context.Context, params api.ListParams) (*api.ListResponse[T], error)
	Get(ctx context.Context, id int64) (*T, error)
	Create(ctx context.Context, payload interface{}) (*api.MutationResponse[T], error)
	Update(ctx context.Context, id int64, payload interface{}) (*api.MutationResponse[T], error)
	Delete(ctx context.Context, id int64) (*api.MutationResponse[T], error)
}

// ResultMsg is a tea.Msg carrying the outcome of one dispatched request.
// It is routed back to the owning slice by Apply.
type ResultMsg struct {
	Entity    model.Entity
	Operation model.Operation
	RequestID int64
	Signature string

	outcome interface{}
}

// Options configures a slice.
type Options struct {
	// Timeout bounds each remote call.
	Timeout time.Duration

	// Token returns the bearer token; it is read when a request is
	// dispatched, on the event loop.
	Token func() string

	Bus    *eventbus.Bus
	Logger *zap.Logger
}

// Slice is the request state machine of one entity.
type Slice[T any] struct {
	entity  model.Entity
	remote  Remote[T]
	opts    Options
	logger  *zap.Logger
	slots   map[model.Operation]RequestState[T]
	nextID  int64
	lastSig string
}

// New creates a slice with every slot idle.
func New[T any](entity model.Entity, remote Remote[T], opts Options) *Slice[T] {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Token == nil {
		opts.Token = func() string { return "" }
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	slots := make(map[model.Operation]RequestState[T], len(model.Operations))
	for _, op := range model.Operations {
		slots[op] = RequestState[T]{Status: model.StatusIdle}
	}

	return &Slice[T]{
		entity: entity,
		remote: remote,
		opts:   opts,
		logger: logger.With(zap.String("module", "slice"), zap.String("entity", string(entity))),
		slots:  slots,
	}
}

// Entity returns the entity this slice manages.
func (s *Slice[T]) Entity() model.Entity {
	return s.entity
}

// State returns a copy of the slot for op.
func (s *Slice[T]) State(op model.Operation) RequestState[T] {
	return s.slots[op]
}

// ListSignature returns the signature of the most recently dispatched list
// query.
func (s *Slice[T]) ListSignature() string {
	return s.lastSig
}

// List fetches a page of records into the list slot.
func (s *Slice[T]) List(params api.ListParams) tea.Cmd {
	sig := params.Signature()
	s.lastSig = sig
	id := s.begin(model.OpList, sig)
	return s.run(model.OpList, id, sig, func(ctx context.Context) outcome[T] {
		resp, err := s.remote.List(ctx, params)
		if err != nil {
			return outcome[T]{err: err}
		}
		p := resp.Pagination()
		return outcome[T]{list: true, items: resp.Data, pagination: &p}
	})
}

// Get fetches one record into the detail slot.
func (s *Slice[T]) Get(id int64) tea.Cmd {
	reqID := s.begin(model.OpGet, "")
	return s.run(model.OpGet, reqID, "", func(ctx context.Context) outcome[T] {
		item, err := s.remote.Get(ctx, id)
		if err != nil {
			return outcome[T]{err: err}
		}
		return outcome[T]{item: item}
	})
}

// Create posts a new record. The list slot is not refreshed.
func (s *Slice[T]) Create(payload interface{}) tea.Cmd {
	reqID := s.begin(model.OpCreate, "")
	return s.run(model.OpCreate, reqID, "", func(ctx context.Context) outcome[T] {
		resp, err := s.remote.Create(ctx, payload)
		return mutationOutcome(model.OpCreate, resp, err)
	})
}

// Update replaces record id. The list slot is not refreshed.
func (s *Slice[T]) Update(id int64, payload interface{}) tea.Cmd {
	reqID := s.begin(model.OpUpdate, "")
	return s.run(model.OpUpdate, reqID, "", func(ctx context.Context) outcome[T] {
		resp, err := s.remote.Update(ctx, id, payload)
		return mutationOutcome(model.OpUpdate, resp, err)
	})
}

// Remove deletes record id. The list slot and its pagination are not
// adjusted.
func (s *Slice[T]) Remove(id int64) tea.Cmd {
	reqID := s.begin(model.OpRemove, "")
	return s.run(model.OpRemove, reqID, "", func(ctx context.Context) outcome[T] {
		resp, err := s.remote.Delete(ctx, id)
		return mutationOutcome(model.OpRemove, resp, err)
	})
}

// ClearError acknowledges the error of the given slots, or of every slot
// when none is given.
func (s *Slice[T]) ClearError(ops ...model.Operation) {
	for _, op := range s.targets(ops) {
		s.transition(op, ackError(s.slots[op]), "")
	}
}

// ClearSuccess acknowledges the success message of the given slots, or of
// every slot when none is given.
func (s *Slice[T]) ClearSuccess(ops ...model.Operation) {
	for _, op := range s.targets(ops) {
		s.transition(op, ackSuccess(s.slots[op]), "")
	}
}

// Apply commits msg if it belongs to this slice. It reports whether the
// message was addressed to this slice, whether or not it was committed.
func (s *Slice[T]) Apply(msg tea.Msg) bool {
	res, ok := msg.(ResultMsg)
	if !ok || res.Entity != s.entity {
		return false
	}

	out, ok := res.outcome.(outcome[T])
	if !ok {
		s.logger.Error("result payload type mismatch", zap.String("operation", string(res.Operation)))
		return true
	}

	next, committed := resolve(s.slots[res.Operation], res.RequestID, out)
	if !committed {
		s.logger.Debug("discarding stale response",
			zap.String("operation", string(res.Operation)),
			zap.Int64("request_id", res.RequestID),
			zap.Int64("latest_id", s.slots[res.Operation].RequestID),
		)
		return true
	}

	s.transition(res.Operation, next, res.Signature)
	return true
}

// begin moves op to loading under a fresh request id.
func (s *Slice[T]) begin(op model.Operation, sig string) int64 {
	s.nextID++
	s.transition(op, begin(s.slots[op], s.nextID), sig)
	return s.nextID
}

// run wraps the remote call in a command. The token is captured now, on
// the event loop.
func (s *Slice[T]) run(op model.Operation, id int64, sig string, call func(ctx context.Context) outcome[T]) tea.Cmd {
	token := s.opts.Token()
	timeout := s.opts.Timeout
	entity := s.entity

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(api.WithToken(context.Background(), token), timeout)
		defer cancel()

		out := call(ctx)
		if out.err != nil && api.KindOf(out.err) == "" {
			out.err = &api.Error{Kind: api.KindNetwork, Message: api.MsgNetwork, Err: out.err}
		}

		return ResultMsg{
			Entity:    entity,
			Operation: op,
			RequestID: id,
			Signature: sig,
			outcome:   out,
		}
	}
}

// transition stores next for op and publishes the change when the status
// or the request id moved.
func (s *Slice[T]) transition(op model.Operation, next RequestState[T], sig string) {
	prev := s.slots[op]
	s.slots[op] = next

	if prev.Status == next.Status && prev.RequestID == next.RequestID {
		return
	}

	t := eventbus.Transition{
		Entity:    s.entity,
		Operation: op,
		From:      prev.Status,
		To:        next.Status,
		RequestID: next.RequestID,
		Signature: sig,
	}
	switch next.Status {
	case model.StatusSucceeded:
		t.Message = next.SuccessMessage
		t.Pagination = next.Pagination
	case model.StatusFailed:
		t.Message = next.Error
		t.ErrorKind = string(next.ErrorKind)
	}

	s.logger.Debug("slot transition",
		zap.String("operation", string(op)),
		zap.Stringer("from", prev.Status),
		zap.Stringer("to", next.Status),
		zap.Int64("request_id", next.RequestID),
	)

	if s.opts.Bus != nil {
		s.opts.Bus.PublishTransition(t)
	}
}

func (s *Slice[T]) targets(ops []model.Operation) []model.Operation {
	if len(ops) == 0 {
		return model.Operations
	}
	return ops
}

// defaultSuccess is shown when the server confirms a mutation without a
// message of its own.
var defaultSuccess = map[model.Operation]string{
	model.OpCreate: "Created successfully",
	model.OpUpdate: "Updated successfully",
	model.OpRemove: "Deleted successfully",
}

func mutationOutcome[T any](op model.Operation, resp *api.MutationResponse[T], err error) outcome[T] {
	if err != nil {
		return outcome[T]{err: err}
	}
	message := resp.Message
	if message == "" {
		message = defaultSuccess[op]
	}
	return outcome[T]{item: resp.Data, message: message}
}
