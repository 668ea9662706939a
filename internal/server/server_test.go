package server_test

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ogulcanaydogan/balchk/internal/server"
	"github.com/ogulcanaydogan/balchk/pkg/checker"
	"github.com/ogulcanaydogan/balchk/pkg/model"
	"github.com/ogulcanaydogan/balchk/pkg/portal"
	"github.com/ogulcanaydogan/balchk/pkg/storage"
)

const accountPage = `<table class="tab"><tr><td><span>42.00 руб</span></td></tr></table>`

func setupServer(t *testing.T, page string) *server.Server {
	t.Helper()
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(page))
	}))
	t.Cleanup(upstream.Close)

	p := portal.DefaultProfile()
	p.URL = upstream.URL
	client := portal.NewClient(p, 5*time.Second)

	store, err := storage.NewSQLite(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	c := checker.New(client, store, nil, model.DefaultThresholds(), "", logger)
	return server.NewServer(c, model.Credentials{Login: "alice", Password: "secret"}, logger)
}

func TestServer_Health(t *testing.T) {
	srv := setupServer(t, accountPage)

	req := httptest.NewRequest("GET", "/healthz", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	err := json.NewDecoder(w.Body).Decode(&resp)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp["status"])
}

func TestServer_State_Empty(t *testing.T) {
	srv := setupServer(t, accountPage)

	req := httptest.NewRequest("GET", "/api/v1/state", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_CheckThenState(t *testing.T) {
	srv := setupServer(t, accountPage)

	req := httptest.NewRequest("POST", "/api/v1/check", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var result checker.Result
	require.NoError(t, json.NewDecoder(w.Body).Decode(&result))
	assert.True(t, result.Decision.ShouldNotify)
	assert.Equal(t, model.ReasonNoPriorState, result.Decision.Reason)
	assert.Equal(t, "Current balance is 42", result.Message)

	req = httptest.NewRequest("GET", "/api/v1/state", nil)
	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var state model.CheckState
	require.NoError(t, json.NewDecoder(w.Body).Decode(&state))
	assert.Equal(t, "42", state.LastValue.String())
}

func TestServer_Check_AuthenticationError(t *testing.T) {
	srv := setupServer(t, `<div id="error">denied</div>`)

	req := httptest.NewRequest("POST", "/api/v1/check", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestServer_Check_ParseError(t *testing.T) {
	srv := setupServer(t, `<p>maintenance</p>`)

	req := httptest.NewRequest("POST", "/api/v1/check", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestServer_Check_WrongMethod(t *testing.T) {
	srv := setupServer(t, accountPage)

	req := httptest.NewRequest("GET", "/api/v1/check", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
