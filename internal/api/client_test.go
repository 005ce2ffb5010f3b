package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nhle/hr-console/internal/model"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", 5*time.Second, zap.NewNop())
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestClient_SendsBearerTokenFromContext(t *testing.T) {
	var gotAuth, gotRequestID string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		writeJSON(w, http.StatusOK, map[string]string{"ok": "yes"})
	})

	var out map[string]string
	err := c.Get(WithToken(context.Background(), "abc"), "/ping", &out)
	require.NoError(t, err)
	assert.Equal(t, "Bearer abc", gotAuth)
	assert.NotEmpty(t, gotRequestID)
	assert.Equal(t, "yes", out["ok"])
}

func TestClient_OmitsAuthorizationWithoutToken(t *testing.T) {
	var hadAuth bool
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, hadAuth = r.Header["Authorization"]
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, c.Delete(context.Background(), "/x", nil))
	assert.False(t, hadAuth)
}

func TestClient_ClassifiesFailures(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        interface{}
		wantKind    ErrorKind
		wantMessage string
		wantFields  map[string][]string
	}{
		{
			name:        "unauthorized uses fallback",
			status:      http.StatusUnauthorized,
			body:        map[string]string{},
			wantKind:    KindAuth,
			wantMessage: MsgAuth,
		},
		{
			name:        "forbidden keeps server message",
			status:      http.StatusForbidden,
			body:        map[string]string{"message": "Token revoked"},
			wantKind:    KindAuth,
			wantMessage: "Token revoked",
		},
		{
			name:        "server error",
			status:      http.StatusInternalServerError,
			body:        map[string]string{},
			wantKind:    KindServer,
			wantMessage: MsgServer,
		},
		{
			name:   "validation with fields",
			status: http.StatusUnprocessableEntity,
			body: map[string]interface{}{
				"message": "The name field is required.",
				"errors":  map[string][]string{"name": {"The name field is required."}},
			},
			wantKind:    KindValidation,
			wantMessage: "The name field is required.",
			wantFields:  map[string][]string{"name": {"The name field is required."}},
		},
		{
			name:   "validation falls back to field summary",
			status: http.StatusUnprocessableEntity,
			body: map[string]interface{}{
				"errors": map[string][]string{
					"email": {"Email taken."},
					"name":  {"Name missing."},
				},
			},
			wantKind:    KindValidation,
			wantMessage: "Email taken.; Name missing.",
			wantFields: map[string][]string{
				"email": {"Email taken."},
				"name":  {"Name missing."},
			},
		},
		{
			name:        "bad request without body",
			status:      http.StatusBadRequest,
			body:        nil,
			wantKind:    KindValidation,
			wantMessage: MsgValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			})

			err := c.Get(context.Background(), "/employees", nil)
			require.Error(t, err)

			var apiErr *Error
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.wantKind, apiErr.Kind)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.wantMessage, apiErr.Message)
			assert.Equal(t, tt.wantFields, apiErr.Fields)
		})
	}
}

func TestClient_TransportFailureIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClient(url, time.Second, nil)
	err := c.Get(context.Background(), "/employees", nil)
	require.Error(t, err)
	assert.Equal(t, KindNetwork, KindOf(err))
	assert.Equal(t, MsgNetwork, Message(err))
}

func TestClient_TimeoutIsNetworkError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := c.Get(ctx, "/slow", nil)
	assert.Equal(t, KindNetwork, KindOf(err))
}

func TestClient_MalformedSuccessBodyIsServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("<html>"))
	})

	var out map[string]interface{}
	err := c.Get(context.Background(), "/employees", &out)
	assert.Equal(t, KindServer, KindOf(err))
}

func TestClient_PostRawReturnsBodyVerbatim(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_, _ = w.Write([]byte(`{"data":{"token":"t1"}}`))
	})

	raw, err := c.PostRaw(context.Background(), "/login", map[string]string{"email": "a@b.c"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":{"token":"t1"}}`, string(raw))
}

func TestResource_ListEncodesParamsAndDecodesPage(t *testing.T) {
	var gotPath, gotQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"data":         []map[string]interface{}{{"id": 1, "name": "Ops"}, {"id": 2, "name": "HR"}},
			"current_page": 2,
			"last_page":    5,
			"per_page":     2,
			"total":        10,
		})
	})

	res := NewResource[model.Department](c, EntityPath(model.EntityDepartments))
	resp, err := res.List(context.Background(), ListParams{Page: 2, PerPage: 2, Search: "o"})
	require.NoError(t, err)

	assert.Equal(t, "/departments", gotPath)
	assert.Equal(t, "page=2&per_page=2&search=o", gotQuery)
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "HR", resp.Data[1].Name)
	assert.Equal(t, model.Pagination{CurrentPage: 2, LastPage: 5, PerPage: 2, Total: 10}, resp.Pagination())
}

func TestResource_GetUnwrapsData(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/job-titles/7", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]interface{}{"data": map[string]interface{}{"id": 7, "name": "Engineer"}})
	})

	res := NewResource[model.JobTitle](c, EntityPath(model.EntityJobTitles))
	jt, err := res.Get(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), jt.ID)
	assert.Equal(t, "Engineer", jt.Name)
}

func TestResource_UpdateUsesPut(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/shifts/3", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"data":    map[string]interface{}{"id": 3, "name": "Night"},
			"message": "Shift updated",
		})
	})

	res := NewResource[model.Shift](c, EntityPath(model.EntityShifts))
	resp, err := res.Update(context.Background(), 3, map[string]string{"name": "Night"})
	require.NoError(t, err)
	assert.Equal(t, "Shift updated", resp.Message)
	require.NotNil(t, resp.Data)
	assert.Equal(t, "Night", resp.Data.Name)
}

func TestListParams_SignatureIgnoresPage(t *testing.T) {
	a := ListParams{Page: 1, PerPage: 15, Search: "ann"}
	b := a.WithPage(4)

	assert.Equal(t, a.Signature(), b.Signature())
	assert.NotEqual(t, a.Values().Encode(), b.Values().Encode())
	assert.NotEqual(t, a.Signature(), ListParams{PerPage: 15}.Signature())
}
