package slice

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/hr-console/internal/api"
	"github.com/nhle/hr-console/internal/eventbus"
	"github.com/nhle/hr-console/internal/model"
	"github.com/nhle/hr-console/internal/notify"
)

// fakeRemote answers from canned functions and records the token each
// call carried.
type fakeRemote struct {
	list   func(params api.ListParams) (*api.ListResponse[model.Department], error)
	get    func(id int64) (*model.Department, error)
	create func(payload interface{}) (*api.MutationResponse[model.Department], error)
	update func(id int64, payload interface{}) (*api.MutationResponse[model.Department], error)
	remove func(id int64) (*api.MutationResponse[model.Department], error)

	listCalls int
}

func (f *fakeRemote) List(_ context.Context, params api.ListParams) (*api.ListResponse[model.Department], error) {
	f.listCalls++
	return f.list(params)
}

func (f *fakeRemote) Get(_ context.Context, id int64) (*model.Department, error) {
	return f.get(id)
}

func (f *fakeRemote) Create(_ context.Context, payload interface{}) (*api.MutationResponse[model.Department], error) {
	return f.create(payload)
}

func (f *fakeRemote) Update(_ context.Context, id int64, payload interface{}) (*api.MutationResponse[model.Department], error) {
	return f.update(id, payload)
}

func (f *fakeRemote) Delete(_ context.Context, id int64) (*api.MutationResponse[model.Department], error) {
	return f.remove(id)
}

func pageOf(names ...string) func(api.ListParams) (*api.ListResponse[model.Department], error) {
	return func(p api.ListParams) (*api.ListResponse[model.Department], error) {
		data := make([]model.Department, len(names))
		for i, n := range names {
			data[i] = model.Department{ID: int64(i + 1), Name: n}
		}
		return &api.ListResponse[model.Department]{
			Data: data, CurrentPage: max(p.Page, 1), LastPage: 3, PerPage: len(names), Total: 3 * len(names),
		}, nil
	}
}

type recorder struct {
	transitions []eventbus.Transition
}

func newTestSlice(t *testing.T, remote *fakeRemote) (*Slice[model.Department], *recorder) {
	t.Helper()
	bus := eventbus.New()
	rec := &recorder{}
	require.NoError(t, bus.OnTransition(func(tr eventbus.Transition) {
		rec.transitions = append(rec.transitions, tr)
	}))
	s := New[model.Department](model.EntityDepartments, remote, Options{
		Timeout: time.Second,
		Token:   func() string { return "tok" },
		Bus:     bus,
	})
	return s, rec
}

// run executes cmd the way the Bubble Tea runtime would.
func run(t *testing.T, cmd tea.Cmd) ResultMsg {
	t.Helper()
	require.NotNil(t, cmd)
	msg, ok := cmd().(ResultMsg)
	require.True(t, ok)
	return msg
}

func TestList_TransitionsLoadingThenSucceeded(t *testing.T) {
	s, rec := newTestSlice(t, &fakeRemote{list: pageOf("Ops", "HR")})

	cmd := s.List(api.ListParams{Page: 1, PerPage: 2})
	st := s.State(model.OpList)
	assert.Equal(t, model.StatusLoading, st.Status)
	assert.Equal(t, int64(1), st.RequestID)

	assert.True(t, s.Apply(run(t, cmd)))
	st = s.State(model.OpList)
	assert.Equal(t, model.StatusSucceeded, st.Status)
	require.Len(t, st.Items, 2)
	assert.Equal(t, "HR", st.Items[1].Name)
	require.NotNil(t, st.Pagination)
	assert.Equal(t, 3, st.Pagination.LastPage)

	require.Len(t, rec.transitions, 2)
	assert.Equal(t, model.StatusIdle, rec.transitions[0].From)
	assert.Equal(t, model.StatusLoading, rec.transitions[0].To)
	assert.Equal(t, model.StatusSucceeded, rec.transitions[1].To)
	assert.Equal(t, "per_page=2", rec.transitions[1].Signature)
	require.NotNil(t, rec.transitions[1].Pagination)
}

func TestList_EmptyPageReplacesItems(t *testing.T) {
	remote := &fakeRemote{list: pageOf("Ops")}
	s, _ := newTestSlice(t, remote)
	s.Apply(run(t, s.List(api.ListParams{Page: 1})))
	require.Len(t, s.State(model.OpList).Items, 1)

	remote.list = func(api.ListParams) (*api.ListResponse[model.Department], error) {
		return &api.ListResponse[model.Department]{CurrentPage: 1, LastPage: 1}, nil
	}
	s.Apply(run(t, s.List(api.ListParams{Page: 1, Search: "zzz"})))

	st := s.State(model.OpList)
	assert.NotNil(t, st.Items)
	assert.Empty(t, st.Items)
}

func TestList_KeepsItemsWhileLoading(t *testing.T) {
	s, _ := newTestSlice(t, &fakeRemote{list: pageOf("Ops")})
	s.Apply(run(t, s.List(api.ListParams{Page: 1})))

	s.List(api.ListParams{Page: 2})
	st := s.State(model.OpList)
	assert.True(t, st.Loading())
	assert.Len(t, st.Items, 1)
}

// Two list dispatches race; only the latest may commit regardless of the
// order results arrive in.
func TestList_StaleResponseIsDiscarded(t *testing.T) {
	remote := &fakeRemote{}
	remote.list = func(p api.ListParams) (*api.ListResponse[model.Department], error) {
		return &api.ListResponse[model.Department]{
			Data:        []model.Department{{ID: int64(p.Page), Name: fmt.Sprintf("page %d", p.Page)}},
			CurrentPage: p.Page, LastPage: 5,
		}, nil
	}
	s, rec := newTestSlice(t, remote)

	first := s.List(api.ListParams{Page: 1})
	second := s.List(api.ListParams{Page: 2})

	// The older response arrives while the newer request is in flight.
	assert.True(t, s.Apply(run(t, first)))
	assert.True(t, s.State(model.OpList).Loading())

	s.Apply(run(t, second))
	st := s.State(model.OpList)
	assert.Equal(t, model.StatusSucceeded, st.Status)
	assert.Equal(t, "page 2", st.Items[0].Name)

	// Transitions: idle->loading, loading->loading (new id), loading->succeeded.
	require.Len(t, rec.transitions, 3)
	assert.Equal(t, int64(2), rec.transitions[2].RequestID)
}

func TestList_StaleResponseAfterNewerCommitIsDiscarded(t *testing.T) {
	remote := &fakeRemote{}
	remote.list = func(p api.ListParams) (*api.ListResponse[model.Department], error) {
		return &api.ListResponse[model.Department]{
			Data:        []model.Department{{Name: fmt.Sprintf("page %d", p.Page)}},
			CurrentPage: p.Page, LastPage: 5,
		}, nil
	}
	s, _ := newTestSlice(t, remote)

	first := s.List(api.ListParams{Page: 1})
	second := s.List(api.ListParams{Page: 2})

	s.Apply(run(t, second))
	s.Apply(run(t, first))

	st := s.State(model.OpList)
	assert.Equal(t, model.StatusSucceeded, st.Status)
	assert.Equal(t, "page 2", st.Items[0].Name)
	assert.Equal(t, 2, st.Pagination.CurrentPage)
}

func TestApply_DuplicateDeliveryIsIgnored(t *testing.T) {
	s, rec := newTestSlice(t, &fakeRemote{list: pageOf("Ops")})

	msg := run(t, s.List(api.ListParams{Page: 1}))
	s.Apply(msg)
	s.Apply(msg)

	assert.Len(t, rec.transitions, 2)
}

func TestApply_IgnoresOtherEntities(t *testing.T) {
	s, _ := newTestSlice(t, &fakeRemote{list: pageOf("Ops")})
	msg := run(t, s.List(api.ListParams{Page: 1}))
	msg.Entity = model.EntityShifts

	assert.False(t, s.Apply(msg))
	assert.False(t, s.Apply("not a result"))
	assert.True(t, s.State(model.OpList).Loading())
}

func TestFailure_StoresMessageKindAndFields(t *testing.T) {
	remote := &fakeRemote{
		create: func(interface{}) (*api.MutationResponse[model.Department], error) {
			return nil, &api.Error{
				Kind:    api.KindValidation,
				Status:  422,
				Message: "The name field is required.",
				Fields:  map[string][]string{"name": {"The name field is required."}},
			}
		},
	}
	s, rec := newTestSlice(t, remote)

	s.Apply(run(t, s.Create(map[string]interface{}{})))

	st := s.State(model.OpCreate)
	assert.Equal(t, model.StatusFailed, st.Status)
	assert.Equal(t, "The name field is required.", st.Error)
	assert.Equal(t, api.KindValidation, st.ErrorKind)
	assert.Equal(t, []string{"The name field is required."}, st.Fields["name"])

	last := rec.transitions[len(rec.transitions)-1]
	assert.Equal(t, model.StatusFailed, last.To)
	assert.Equal(t, "The name field is required.", last.Message)
	assert.Equal(t, string(api.KindValidation), last.ErrorKind)
}

func TestFailure_UnclassifiedErrorBecomesNetwork(t *testing.T) {
	remote := &fakeRemote{
		get: func(int64) (*model.Department, error) { return nil, errors.New("dial tcp: refused") },
	}
	s, _ := newTestSlice(t, remote)

	s.Apply(run(t, s.Get(4)))
	st := s.State(model.OpGet)
	assert.Equal(t, model.StatusFailed, st.Status)
	assert.Equal(t, api.KindNetwork, st.ErrorKind)
	assert.Equal(t, api.MsgNetwork, st.Error)
}

func TestError_PersistsUntilAcknowledged(t *testing.T) {
	remote := &fakeRemote{
		get: func(int64) (*model.Department, error) {
			return nil, &api.Error{Kind: api.KindServer, Status: 500, Message: api.MsgServer}
		},
	}
	s, rec := newTestSlice(t, remote)
	s.Apply(run(t, s.Get(1)))
	before := len(rec.transitions)

	// Unrelated acknowledgments leave it alone.
	s.ClearSuccess(model.OpGet)
	s.ClearError(model.OpList)
	assert.Equal(t, model.StatusFailed, s.State(model.OpGet).Status)
	assert.Equal(t, before, len(rec.transitions))

	s.ClearError(model.OpGet)
	st := s.State(model.OpGet)
	assert.Equal(t, model.StatusIdle, st.Status)
	assert.Empty(t, st.Error)
	assert.Empty(t, st.ErrorKind)
	assert.Equal(t, before+1, len(rec.transitions))
}

func TestMutation_DefaultAndServerSuccessMessages(t *testing.T) {
	remote := &fakeRemote{
		create: func(interface{}) (*api.MutationResponse[model.Department], error) {
			return &api.MutationResponse[model.Department]{Data: &model.Department{ID: 9, Name: "Legal"}}, nil
		},
		update: func(int64, interface{}) (*api.MutationResponse[model.Department], error) {
			return &api.MutationResponse[model.Department]{Message: "Department renamed"}, nil
		},
		remove: func(int64) (*api.MutationResponse[model.Department], error) {
			return &api.MutationResponse[model.Department]{}, nil
		},
	}
	s, _ := newTestSlice(t, remote)

	s.Apply(run(t, s.Create(map[string]string{"name": "Legal"})))
	st := s.State(model.OpCreate)
	assert.Equal(t, "Created successfully", st.SuccessMessage)
	require.NotNil(t, st.Item)
	assert.Equal(t, int64(9), st.Item.ID)

	s.Apply(run(t, s.Update(9, map[string]string{"name": "Legal & Co"})))
	assert.Equal(t, "Department renamed", s.State(model.OpUpdate).SuccessMessage)

	s.Apply(run(t, s.Remove(9)))
	assert.Equal(t, "Deleted successfully", s.State(model.OpRemove).SuccessMessage)

	s.ClearSuccess()
	for _, op := range []model.Operation{model.OpCreate, model.OpUpdate, model.OpRemove} {
		assert.Equal(t, model.StatusIdle, s.State(op).Status, op)
		assert.Empty(t, s.State(op).SuccessMessage, op)
	}
}

func TestMutation_DoesNotRefreshList(t *testing.T) {
	remote := &fakeRemote{
		list: pageOf("Ops"),
		create: func(interface{}) (*api.MutationResponse[model.Department], error) {
			return &api.MutationResponse[model.Department]{Data: &model.Department{ID: 2, Name: "HR"}}, nil
		},
	}
	s, _ := newTestSlice(t, remote)
	s.Apply(run(t, s.List(api.ListParams{Page: 1})))
	listBefore := s.State(model.OpList)

	s.Apply(run(t, s.Create(map[string]string{"name": "HR"})))

	assert.Equal(t, 1, remote.listCalls)
	assert.Equal(t, listBefore, s.State(model.OpList))
}

func TestDispatchFromTerminalSlotStartsNewRequest(t *testing.T) {
	calls := 0
	remote := &fakeRemote{
		get: func(id int64) (*model.Department, error) {
			calls++
			if calls == 1 {
				return nil, &api.Error{Kind: api.KindServer, Message: api.MsgServer}
			}
			return &model.Department{ID: id, Name: "Ops"}, nil
		},
	}
	s, _ := newTestSlice(t, remote)
	s.Apply(run(t, s.Get(1)))
	require.Equal(t, model.StatusFailed, s.State(model.OpGet).Status)

	cmd := s.Get(1)
	st := s.State(model.OpGet)
	assert.True(t, st.Loading())
	assert.Empty(t, st.Error)

	s.Apply(run(t, cmd))
	st = s.State(model.OpGet)
	assert.Equal(t, model.StatusSucceeded, st.Status)
	assert.Equal(t, "Ops", st.Item.Name)
}

func TestSlots_AreIndependent(t *testing.T) {
	remote := &fakeRemote{
		list: pageOf("Ops"),
		get:  func(id int64) (*model.Department, error) { return &model.Department{ID: id}, nil },
	}
	s, _ := newTestSlice(t, remote)

	listCmd := s.List(api.ListParams{Page: 1})
	getCmd := s.Get(1)
	assert.True(t, s.State(model.OpList).Loading())
	assert.True(t, s.State(model.OpGet).Loading())

	s.Apply(run(t, getCmd))
	assert.True(t, s.State(model.OpList).Loading())
	assert.Equal(t, model.StatusSucceeded, s.State(model.OpGet).Status)

	s.Apply(run(t, listCmd))
	assert.Equal(t, model.StatusSucceeded, s.State(model.OpList).Status)
}

func TestRun_CarriesTokenCapturedAtDispatch(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[],"current_page":1,"last_page":1,"per_page":15,"total":0}`))
	}))
	t.Cleanup(srv.Close)

	client := api.NewClient(srv.URL, time.Second, nil)
	remote := api.NewResource[model.Department](client, api.EntityPath(model.EntityDepartments))

	token := "first"
	s := New[model.Department](model.EntityDepartments, remote, Options{Token: func() string { return token }})
	cmd := s.List(api.ListParams{Page: 1})
	token = "second"

	s.Apply(run(t, cmd))
	assert.Equal(t, "Bearer first", gotAuth)
	assert.Equal(t, model.StatusSucceeded, s.State(model.OpList).Status)
}

func TestUpdate_LatestPayloadWins(t *testing.T) {
	remote := &fakeRemote{
		update: func(id int64, payload interface{}) (*api.MutationResponse[model.Department], error) {
			name := payload.(map[string]string)["name"]
			return &api.MutationResponse[model.Department]{Data: &model.Department{ID: id, Name: name}}, nil
		},
	}
	s, _ := newTestSlice(t, remote)

	a := s.Update(7, map[string]string{"name": "A"})
	b := s.Update(7, map[string]string{"name": "B"})

	s.Apply(run(t, b))
	s.Apply(run(t, a))

	st := s.State(model.OpUpdate)
	assert.Equal(t, model.StatusSucceeded, st.Status)
	assert.Equal(t, "B", st.Item.Name)
}

// An acknowledged failure followed by unrelated activity produces exactly
// one notification.
func TestClearError_NoSecondNotification(t *testing.T) {
	remote := &fakeRemote{
		list: pageOf("Ops"),
		create: func(interface{}) (*api.MutationResponse[model.Department], error) {
			return nil, &api.Error{Kind: api.KindValidation, Status: 422, Message: "All fields are required"}
		},
	}
	bus := eventbus.New()
	bridge := notify.New(time.Millisecond)
	require.NoError(t, bridge.Watch(bus))
	s := New[model.Department](model.EntityDepartments, remote, Options{Bus: bus})

	s.Apply(run(t, s.Create(map[string]interface{}{})))
	s.ClearError(model.OpCreate)
	assert.Empty(t, s.State(model.OpCreate).Error)

	time.Sleep(5 * time.Millisecond)
	s.Apply(run(t, s.List(api.ListParams{Page: 1})))
	s.ClearError()

	var got []model.NotificationEvent
	for {
		select {
		case ev := <-bridge.Events():
			got = append(got, ev)
			continue
		default:
		}
		break
	}
	require.Len(t, got, 1)
	assert.Equal(t, "All fields are required", got[0].Message)
	assert.Equal(t, model.NotificationError, got[0].Kind)
}
