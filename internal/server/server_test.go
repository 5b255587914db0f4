package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"vdiff/internal/client"
	"vdiff/internal/config"
	"vdiff/internal/diff"
	"vdiff/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestServer_EndToEnd(t *testing.T) {
	cfg := config.Default()
	cfg.Diff.ContextLines = 1

	srv, err := New(cfg, logging.Wrap(zap.NewNop()))
	require.NoError(t, err)
	defer srv.Close()
	assert.Equal(t, "127.0.0.1:8080", srv.Addr)

	ts := httptest.NewServer(srv.Handler)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	c := client.New(ts.URL)
	sess, err := c.CreateDiff("cm.yaml", []byte("a\nb\nc\nd\ne\n"), []byte("a\nb\nX\nd\ne\n"), nil, false)
	require.NoError(t, err)
	assert.Equal(t, diff.StatusModified, sess.Status)
	require.Len(t, sess.Hunks, 1)
	assert.Equal(t, 1, sess.ContextLines)

	sess, err = c.ExpandDiff(sess.ID, 0, diff.Before, 0)
	require.NoError(t, err)
	assert.False(t, sess.Hunks[0].CanExpandBefore)
}
