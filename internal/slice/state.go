package slice

import (
	"errors"

	"github.com/nhle/hr-console/internal/api"
	"github.com/nhle/hr-console/internal/model"
)

// RequestState is the state of one slot. Items holds list results, Item
// holds detail and mutation results.
type RequestState[T any] struct {
	Status         model.Status
	Items          []T
	Item           *T
	Pagination     *model.Pagination
	Error          string
	ErrorKind      api.ErrorKind
	Fields         map[string][]string
	SuccessMessage string
	RequestID      int64
}

// Loading reports whether a request is in flight.
func (s RequestState[T]) Loading() bool {
	return s.Status == model.StatusLoading
}

// outcome is the resolved result of one remote call.
type outcome[T any] struct {
	list       bool
	items      []T
	item       *T
	pagination *model.Pagination
	message    string
	err        error
}

// The functions below are the only transitions a slot can make. They are
// pure: each returns the next state and leaves its input untouched.

// begin starts a new logical request tagged id. Previous data is kept so
// views can keep rendering it while loading.
func begin[T any](st RequestState[T], id int64) RequestState[T] {
	st.Status = model.StatusLoading
	st.RequestID = id
	st.Error = ""
	st.ErrorKind = ""
	st.Fields = nil
	st.SuccessMessage = ""
	return st
}

// resolve commits an outcome. It reports false, leaving the state
// unchanged, when the outcome belongs to a superseded request or the slot
// is not waiting for one.
func resolve[T any](st RequestState[T], id int64, out outcome[T]) (RequestState[T], bool) {
	if st.Status != model.StatusLoading || st.RequestID != id {
		return st, false
	}

	if out.err != nil {
		st.Status = model.StatusFailed
		st.Error = api.Message(out.err)
		st.ErrorKind = api.KindOf(out.err)
		if st.ErrorKind == "" {
			st.ErrorKind = api.KindNetwork
		}
		var apiErr *api.Error
		if errors.As(out.err, &apiErr) {
			st.Fields = apiErr.Fields
		}
		return st, true
	}

	st.Status = model.StatusSucceeded
	if out.list {
		st.Items = out.items
		if st.Items == nil {
			st.Items = []T{}
		}
	}
	if out.item != nil {
		st.Item = out.item
	}
	if out.pagination != nil {
		p := *out.pagination
		st.Pagination = &p
	}
	st.SuccessMessage = out.message
	return st, true
}

// ackError clears the error; a failed slot returns to idle.
func ackError[T any](st RequestState[T]) RequestState[T] {
	st.Error = ""
	st.ErrorKind = ""
	st.Fields = nil
	if st.Status == model.StatusFailed {
		st.Status = model.StatusIdle
	}
	return st
}

// ackSuccess clears the success message; a succeeded slot returns to idle.
func ackSuccess[T any](st RequestState[T]) RequestState[T] {
	st.SuccessMessage = ""
	if st.Status == model.StatusSucceeded {
		st.Status = model.StatusIdle
	}
	return st
}
