package app

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/hr-console/internal/api"
	"github.com/nhle/hr-console/internal/credential"
	"github.com/nhle/hr-console/internal/eventbus"
	"github.com/nhle/hr-console/internal/guard"
	"github.com/nhle/hr-console/internal/model"
	"github.com/nhle/hr-console/internal/notify"
	"github.com/nhle/hr-console/internal/pagination"
	"github.com/nhle/hr-console/internal/session"
	"github.com/nhle/hr-console/internal/slice"
	"github.com/nhle/hr-console/internal/ui/entityform"
	"github.com/nhle/hr-console/internal/ui/entitylist"
	"github.com/nhle/hr-console/internal/ui/menu"
	"github.com/nhle/hr-console/tests/testutil"
)

// fakeHR serves /departments. When rejecting is set every call answers 401.
type fakeHR struct {
	listCalls atomic.Int32
	rejecting atomic.Bool
}

func (f *fakeHR) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if f.rejecting.Load() {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Unauthenticated."}`))
		return
	}
	switch r.Method {
	case http.MethodGet:
		f.listCalls.Add(1)
		_, _ = w.Write([]byte(`{"data":[{"id":1,"name":"Ops"}],"current_page":1,"last_page":1,"per_page":15,"total":1}`))
	case http.MethodPost:
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"id":2,"name":"Legal"},"message":"Department created"}`))
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

type harness struct {
	model   Model
	server  *fakeHR
	session *session.Store
	bridge  *notify.Bridge
}

func newHarness(t *testing.T, envelope string) *harness {
	t.Helper()

	hr := &fakeHR{}
	srv := httptest.NewServer(hr)
	t.Cleanup(srv.Close)

	cfg := &model.AppConfig{
		API:     model.APIConfig{BaseURL: srv.URL, TimeoutSec: 5},
		Display: model.DisplayConfig{PerPage: 15},
	}

	bus := eventbus.New()
	client := api.NewClient(srv.URL, 5*time.Second, nil)
	sess := session.New(credential.NewMemoryStorage(), client, bus, nil)
	sess.Bootstrap()
	if envelope != "" {
		_, err := sess.ApplyLogin(session.LoginResultMsg{Envelope: []byte(envelope)})
		require.NoError(t, err)
	}

	pages := pagination.New()
	bridge := notify.New(time.Minute)
	for _, watch := range []func(*eventbus.Bus) error{sess.Watch, pages.Watch, bridge.Watch} {
		require.NoError(t, watch(bus))
	}

	registry := slice.NewHRRegistry(client, slice.Options{
		Timeout: 5 * time.Second,
		Token:   sess.Token,
		Bus:     bus,
	})

	m := New(Deps{
		Config:   cfg,
		Session:  sess,
		Guard:    guard.New(sess),
		Registry: registry,
		Pages:    pages,
		Bridge:   bridge,
		Store:    testutil.NewTestStore(t),
	})
	h := &harness{model: m, server: hr, session: sess, bridge: bridge}
	h.send(t, tea.WindowSizeMsg{Width: 120, Height: 40})
	return h
}

// send runs msg through Update and returns the command it produced.
func (h *harness) send(t *testing.T, msg tea.Msg) tea.Cmd {
	t.Helper()
	next, cmd := h.model.Update(msg)
	m, ok := next.(Model)
	require.True(t, ok)
	h.model = m
	return cmd
}

// results executes cmd and collects the request outcomes it yields. Only
// call it on commands known to carry slice requests.
func results(t *testing.T, cmd tea.Cmd) []slice.ResultMsg {
	t.Helper()
	if cmd == nil {
		return nil
	}
	switch msg := cmd().(type) {
	case slice.ResultMsg:
		return []slice.ResultMsg{msg}
	case tea.BatchMsg:
		var out []slice.ResultMsg
		for _, c := range msg {
			out = append(out, results(t, c)...)
		}
		return out
	}
	return nil
}

func (h *harness) openDepartments(t *testing.T) {
	t.Helper()
	res := results(t, h.send(t, menu.SelectEntityMsg{Entity: model.EntityDepartments}))
	require.Len(t, res, 1)
	require.Equal(t, guard.RouteList, h.model.route)
	h.send(t, res[0])
}

func nextEvent(t *testing.T, b *notify.Bridge) model.NotificationEvent {
	t.Helper()
	select {
	case ev := <-b.Events():
		return ev
	default:
		t.Fatal("no notification emitted")
		return model.NotificationEvent{}
	}
}

func TestAuthFailure_RedirectsToLoginAndClearsSlot(t *testing.T) {
	h := newHarness(t, `{"token":"t","user":{"name":"Ann"}}`)
	h.server.rejecting.Store(true)

	res := results(t, h.send(t, menu.SelectEntityMsg{Entity: model.EntityDepartments}))
	require.Len(t, res, 1)
	h.send(t, res[0])

	assert.Equal(t, guard.RouteLogin, h.model.route)
	assert.False(t, h.session.IsAuthenticated())

	c, ok := h.model.registry.Get(model.EntityDepartments)
	require.True(t, ok)
	snap := c.Snapshot(model.OpList)
	assert.Equal(t, model.StatusIdle, snap.Status)
	assert.Empty(t, snap.Error)

	ev := nextEvent(t, h.bridge)
	assert.Equal(t, model.EntitySession, ev.Entity)
	assert.Equal(t, model.NotificationError, ev.Kind)
	select {
	case extra := <-h.bridge.Events():
		t.Fatalf("unexpected second notification: %+v", extra)
	default:
	}
}

func TestCreate_FromFormRefetchesList(t *testing.T) {
	h := newHarness(t, `{"token":"t","user":{"name":"Ann"}}`)
	h.openDepartments(t)
	require.EqualValues(t, 1, h.server.listCalls.Load())

	h.send(t, entitylist.NewMsg{})
	require.Equal(t, guard.RouteForm, h.model.route)

	res := results(t, h.send(t, entityform.SubmitMsg{
		Entity:  model.EntityDepartments,
		Payload: map[string]interface{}{"name": "Legal"},
	}))
	require.Len(t, res, 1)
	assert.Equal(t, model.OpCreate, res[0].Operation)

	refetch := results(t, h.send(t, res[0]))
	require.Len(t, refetch, 1)
	assert.Equal(t, model.OpList, refetch[0].Operation)
	assert.EqualValues(t, 2, h.server.listCalls.Load())
	assert.Equal(t, guard.RouteList, h.model.route)

	c, _ := h.model.registry.Get(model.EntityDepartments)
	assert.Equal(t, model.StatusIdle, c.Snapshot(model.OpCreate).Status)

	ev := nextEvent(t, h.bridge)
	assert.Equal(t, "Department created", ev.Message)
}

func TestSessionInfo_ShowsTokenExpiry(t *testing.T) {
	exp := time.Now().Add(2 * time.Hour).Truncate(time.Minute)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "ann@example.com",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	h := newHarness(t, `{"token":"`+token+`"}`)
	info := h.model.sessionInfo()
	assert.Contains(t, info, "ann@example.com")
	assert.Contains(t, info, "exp "+exp.Local().Format("15:04"))

	opaque := newHarness(t, `{"token":"opaque","user":{"name":"Ann"}}`)
	assert.Equal(t, "Ann", opaque.model.sessionInfo())

	signedOut := newHarness(t, "")
	assert.Equal(t, "signed out", signedOut.model.sessionInfo())
}
