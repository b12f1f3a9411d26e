package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/datumcontrole/category-store/app/config"
	"github.com/datumcontrole/category-store/app/database"
	"github.com/datumcontrole/category-store/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, logger zerolog.Logger) *Server {
	t.Helper()

	cfg := config.Default()
	cfg.DatabaseURL = "sqlite::memory:"
	cfg.HTTPAddr = "127.0.0.1:0"
	cfg.ShutdownTimeout = 2 * time.Second

	db, err := database.Open(context.Background(), &cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	require.NoError(t, database.Migrate(db))

	return New(&cfg, logger, models.NewCategoriesRepository(db))
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCategoryLifecycle(t *testing.T) {
	h := newTestServer(t, zerolog.Nop()).Handler()

	rec := do(t, h, http.MethodGet, "/categories/count", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"count":0}`, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/categories", `{"name":"A","sublocations":5,"color":"red"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	rec = do(t, h, http.MethodPost, "/categories", `{"name":"B","sublocations":2,"color":"blue"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, h, http.MethodPost, "/categories", `{"name":"A","sublocations":1,"color":"green"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, http.MethodPost, "/categories", `{"name":"C","sublocations":-1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/categories", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"total":2,"categories":[
		{"name":"A","sublocations":5,"color":"red"},
		{"name":"B","sublocations":2,"color":"blue"}
	]}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/categories/A", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"name":"A","sublocations":5,"color":"red"}`, rec.Body.String())

	rec = do(t, h, http.MethodPut, "/categories/A", `{"sublocations":9}`)
	assert.Equal(t, http.StatusNotImplemented, rec.Code)

	rec = do(t, h, http.MethodDelete, "/categories/A", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, h, http.MethodDelete, "/categories/A", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodGet, "/categories/A", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/categories/count", "")
	assert.JSONEq(t, `{"count":1}`, rec.Body.String())
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	h := newTestServer(t, zerolog.New(&buf)).Handler()

	do(t, h, http.MethodGet, "/categories/missing", "")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "GET", entry["method"])
	assert.Equal(t, "/categories/missing", entry["path"])
	assert.Equal(t, float64(http.StatusNotFound), entry["status"])
	assert.Equal(t, "info", entry["level"])
}

func TestServeShutsDownOnCancel(t *testing.T) {
	srv := newTestServer(t, zerolog.Nop())

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, listener) }()

	url := fmt.Sprintf("http://%s/healthz", listener.Addr())
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
}
