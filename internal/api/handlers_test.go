package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"vdiff/internal/diff"
	apierrors "vdiff/internal/errors"
	"vdiff/internal/session"
	"vdiff/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupServer(t *testing.T) *httptest.Server {
	db, err := storage.Open("", nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store, err := session.NewStore(db, 1024)
	require.NoError(t, err)
	svc, err := session.NewService(store, diff.NewEngine(3, diff.WithExpandStep(10)), session.ServiceOptions{})
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", Health)
	NewDiffHandler(svc).Register(mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func numberedDoc(n int, changed ...int) string {
	var b strings.Builder
	for i := 1; i <= n; i++ {
		line := fmt.Sprintf("line %d", i)
		for _, c := range changed {
			if c == i {
				line = "changed"
			}
		}
		fmt.Fprintln(&b, line)
	}
	return b.String()
}

func ptr[T any](v T) *T { return &v }

func TestDiffHandler_Create(t *testing.T) {
	srv := setupServer(t)

	tests := []struct {
		name       string
		input      map[string]any
		wantStatus int
		wantType   apierrors.ErrorType
	}{
		{
			name: "valid diff",
			input: map[string]any{
				"name": "cm.yaml",
				"old":  "a\nb\nc\n",
				"new":  "a\nx\nc\n",
			},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "missing name",
			input:      map[string]any{"old": "a", "new": "b"},
			wantStatus: http.StatusBadRequest,
			wantType:   apierrors.ErrorTypeValidation,
		},
		{
			name:       "no documents",
			input:      map[string]any{"name": "x"},
			wantStatus: http.StatusBadRequest,
			wantType:   apierrors.ErrorTypeValidation,
		},
		{
			name:       "negative context",
			input:      map[string]any{"name": "x", "old": "a", "context": -1},
			wantStatus: http.StatusBadRequest,
			wantType:   apierrors.ErrorTypeValidation,
		},
		{
			name: "document over the line limit",
			input: map[string]any{
				"name": "big.yaml",
				"old":  numberedDoc(diff.DefaultMaxLines + 1),
				"new":  numberedDoc(diff.DefaultMaxLines+1, 7),
			},
			wantStatus: http.StatusBadRequest,
			wantType:   apierrors.ErrorTypeValidation,
		},
		{
			name:       "unparseable yaml with normalize",
			input:      map[string]any{"name": "x", "old": "a: [1", "normalize": true},
			wantStatus: http.StatusBadRequest,
			wantType:   apierrors.ErrorTypeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(t, http.MethodPost, srv.URL+"/api/diffs", tt.input)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			if tt.wantType != "" {
				apiErr := decode[apierrors.Error](t, resp)
				assert.Equal(t, tt.wantType, apiErr.Type)
				return
			}

			sess := decode[session.Session](t, resp)
			assert.NotEmpty(t, sess.ID)
			assert.Equal(t, diff.StatusModified, sess.Status)
			require.Len(t, sess.Hunks, 1)
			assert.Equal(t, diff.Stats{Added: 1, Removed: 1}, sess.Stats)
			assert.Equal(t, diff.Remove, sess.Hunks[0].Changes[1].Kind)
			assert.Equal(t, diff.Add, sess.Hunks[0].Changes[2].Kind)
		})
	}
}

func TestDiffHandler_ExpandFlow(t *testing.T) {
	srv := setupServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/diffs", CreateRequest{
		Name: "deploy.yaml",
		Old:  ptr(numberedDoc(100)),
		New:  ptr(numberedDoc(100, 20, 80)),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	sess := decode[session.Session](t, resp)
	require.Len(t, sess.Hunks, 2)

	expandURL := srv.URL + "/api/diffs/" + sess.ID + "/expand"
	resp = doJSON(t, http.MethodPost, expandURL, map[string]any{"index": 0, "direction": "after", "step": 60})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sess = decode[session.Session](t, resp)
	require.Len(t, sess.Hunks, 1)

	// The old index no longer exists after the merge.
	resp = doJSON(t, http.MethodPost, expandURL, map[string]any{"index": 1, "direction": "before"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, expandURL, map[string]any{"index": 0, "direction": "sideways"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, expandURL, map[string]any{"direction": "before"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/diffs/"+sess.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[session.Session](t, resp)
	assert.Equal(t, sess.Hunks, got.Hunks)
}

func TestDiffHandler_TextListDelete(t *testing.T) {
	srv := setupServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/diffs", CreateRequest{
		Name: "cm.yaml",
		Old:  ptr("a\nb\nc\n"),
		New:  ptr("a\nx\nc\n"),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	sess := decode[session.Session](t, resp)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/diffs/"+sess.ID+"/text", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body bytes.Buffer
	_, err := body.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "--- a/cm.yaml\n+++ b/cm.yaml\n@@ -1,3 +1,3 @@\n a\n-b\n+x\n c\n", body.String())

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/diffs", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[[]session.Summary](t, resp)
	require.Len(t, list, 1)
	assert.Equal(t, sess.ID, list[0].ID)

	resp = doJSON(t, http.MethodDelete, srv.URL+"/api/diffs/"+sess.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/diffs/"+sess.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, apierrors.ErrorTypeNotFound, decode[apierrors.Error](t, resp).Type)
}

func TestHealth(t *testing.T) {
	srv := setupServer(t)
	resp := doJSON(t, http.MethodGet, srv.URL+"/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]string{"status": "healthy"}, decode[map[string]string](t, resp))
}
