package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/genq/internal/logging"
	"github.com/roach88/genq/internal/schema"
	"github.com/roach88/genq/internal/search"
	"github.com/roach88/genq/internal/store"
)

const peopleCUE = `
types: {
	Person: {
		fields: [
			{name: "id", type: "int64", primaryKey: true},
			{name: "name", type: "string"},
			{name: "email", type: "string"},
		]
		records: [
			{id: 1, name: "Ann", email: "a@x.com"},
			{id: 2, name: "Bo", email: "b@x.com"},
		]
	}
	tbl_user: {
		fields: [
			{name: "id", type: "int64", primaryKey: true},
			{name: "login", type: "string"},
		]
		records: [{id: 7, login: "root"}]
	}
}
`

func newTestRouter(t *testing.T, prefix string) (*gin.Engine, *store.MemoryEngine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cat, err := schema.ParseCUE([]byte(peopleCUE))
	require.NoError(t, err)
	mem := store.NewMemory(cat, nil)
	reg, err := schema.Load(context.Background(), mem)
	require.NoError(t, err)

	svc := search.New(mem, reg, search.Options{FallbackPrefix: "tbl_", Logger: logging.Discard()})
	r, err := NewRouter(svc, Options{PathPrefix: prefix, Logger: logging.Discard()})
	require.NoError(t, err)
	return r, mem
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSearchHandler(t *testing.T) {
	r, _ := newTestRouter(t, "/")

	testCases := []struct {
		name       string
		path       string
		body       string
		wantStatus int
		wantBody   string
		wantType   string
	}{
		{
			name:       "like",
			path:       "/search/person",
			body:       `{"where":{"like":{"name":"an"}},"projection":[]}`,
			wantStatus: http.StatusOK,
			wantBody:   `[{"id":1,"name":"Ann","email":"a@x.com"}]`,
		},
		{
			name:       "projection order",
			path:       "/search/Person",
			body:       `{"projection":["email","id"]}`,
			wantStatus: http.StatusOK,
			wantBody:   `[{"email":"a@x.com","id":1},{"email":"b@x.com","id":2}]`,
		},
		{
			name:       "no match is an empty array",
			path:       "/search/Person",
			body:       `{"where":{"equalsLong":{"id":99}}}`,
			wantStatus: http.StatusOK,
			wantBody:   `[]`,
		},
		{
			name:       "fallback prefix",
			path:       "/search/user",
			body:       `{"where":{"isNotNull":["login"]}}`,
			wantStatus: http.StatusOK,
			wantBody:   `[{"id":7,"login":"root"}]`,
		},
		{
			name:       "unknown entity",
			path:       "/search/nobody",
			body:       `{"projection":["id"]}`,
			wantStatus: http.StatusBadRequest,
			wantType:   "not_found",
		},
		{
			name:       "empty request",
			path:       "/search/Person",
			body:       `{"where":{},"projection":[]}`,
			wantStatus: http.StatusBadRequest,
			wantType:   "validation",
		},
		{
			name:       "missing body",
			path:       "/search/Person",
			wantStatus: http.StatusBadRequest,
			wantType:   "validation",
		},
		{
			name:       "wrong bucket value type",
			path:       "/search/Person",
			body:       `{"where":{"equalsLong":{"id":"one"}}}`,
			wantStatus: http.StatusBadRequest,
			wantType:   "validation",
		},
		{
			name:       "unknown bucket",
			path:       "/search/Person",
			body:       `{"where":{"greaterThan":{"id":1}}}`,
			wantStatus: http.StatusBadRequest,
			wantType:   "validation",
		},
		{
			name:       "malformed json",
			path:       "/search/Person",
			body:       `{"where":`,
			wantStatus: http.StatusBadRequest,
			wantType:   "validation",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(r, http.MethodPost, tc.path, tc.body)
			assert.Equal(t, tc.wantStatus, w.Code, w.Body.String())
			if tc.wantBody != "" {
				assert.Equal(t, tc.wantBody, w.Body.String())
				assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
			}
			if tc.wantType != "" {
				var resp errorResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Equal(t, tc.wantType, resp.Type)
				assert.NotEmpty(t, resp.Error)
			}
		})
	}
}

func TestSearchHandler_EmptyFieldsNamed(t *testing.T) {
	r, _ := newTestRouter(t, "/")
	w := do(r, http.MethodPost, "/search/Person", `{}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Fields, "where.like")
	assert.Contains(t, resp.Fields, "projection")
}

func TestPatchHandler(t *testing.T) {
	r, mem := newTestRouter(t, "/api")

	w := do(r, http.MethodPatch, "/api/patch/person/ID/2", `{"email":"bo@x.com","NAME":"Bob"}`)
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())
	assert.Empty(t, w.Body.String())

	stmts := mem.Statements()
	require.Len(t, stmts, 1)
	assert.Equal(t, `UPDATE "Person" SET "email" = :email, "name" = :name WHERE "id" = :id`, stmts[0].Text)

	w = do(r, http.MethodPost, "/api/search/person", `{"where":{"equalsLong":{"id":2}}}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `[{"id":2,"name":"Bob","email":"bo@x.com"}]`, w.Body.String())
}

func TestBindValue(t *testing.T) {
	testCases := []struct {
		name string
		in   any
		want any
	}{
		{name: "integer", in: json.Number("3"), want: int64(3)},
		{name: "fraction", in: json.Number("1.5"), want: 1.5},
		{name: "huge integer", in: json.Number("1e30"), want: 1e30},
		{name: "object as json text", in: map[string]any{"a": json.Number("1")}, want: `{"a":1}`},
		{name: "array as json text", in: []any{"x", true}, want: `["x",true]`},
		{name: "string", in: "s", want: "s"},
		{name: "null", in: nil, want: nil},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := bindValue(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestPathValue(t *testing.T) {
	assert.Equal(t, int64(42), KeyValue("42"))
	assert.Equal(t, "a-42", KeyValue("a-42"))
}

func TestPatchHandler_Errors(t *testing.T) {
	testCases := []struct {
		name       string
		path       string
		body       string
		wantStatus int
		wantType   string
	}{
		{name: "empty body", path: "/patch/Person/id/1", wantStatus: http.StatusBadRequest, wantType: "validation"},
		{name: "empty object", path: "/patch/Person/id/1", body: `{}`, wantStatus: http.StatusBadRequest, wantType: "validation"},
		{name: "not an object", path: "/patch/Person/id/1", body: `[1,2]`, wantStatus: http.StatusBadRequest, wantType: "validation"},
		{name: "unknown table", path: "/patch/ghost/id/1", body: `{"a":"b"}`, wantStatus: http.StatusBadRequest, wantType: "execution"},
		{name: "bad column name", path: "/patch/Person/id/1", body: `{"na me":"b"}`, wantStatus: http.StatusBadRequest, wantType: "invalid_argument"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r, _ := newTestRouter(t, "/")
			w := do(r, http.MethodPatch, tc.path, tc.body)
			assert.Equal(t, tc.wantStatus, w.Code, w.Body.String())

			var resp errorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tc.wantType, resp.Type)
		})
	}
}

func TestMetaHandler(t *testing.T) {
	r, _ := newTestRouter(t, "/")
	w := do(r, http.MethodGet, "/meta", "")
	require.Equal(t, http.StatusOK, w.Code)

	var types []metaType
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &types))
	require.Len(t, types, 2)
	assert.Equal(t, "Person", types[0].Name)
	assert.Equal(t, []metaField{
		{Name: "id", Type: "int64", PrimaryKey: true},
		{Name: "name", Type: "string"},
		{Name: "email", Type: "string"},
	}, types[0].Fields)
}

func TestRequestIDAndHealth(t *testing.T) {
	r, _ := newTestRouter(t, "/")

	w := do(r, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "abc")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, "abc", rec.Header().Get(RequestIDHeader))
}

func TestMetricsEndpoint(t *testing.T) {
	r, _ := newTestRouter(t, "/")
	do(r, http.MethodPost, "/search/Person", `{"projection":["id"]}`)

	w := do(r, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `genq_http_requests_total{method="POST",route="/search/:entity",status="200"} 1`)
	assert.Contains(t, body, `genq_search_records_total{type="Person"} 2`)
}

func TestPathPrefix(t *testing.T) {
	r, _ := newTestRouter(t, "/genq")
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/genq/healthz", "").Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/healthz", "").Code)
}
