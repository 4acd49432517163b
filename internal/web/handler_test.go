package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maneralab/parsbot/internal/flow"
)

func TestHandler_Health(t *testing.T) {
	h := NewHandler(flow.NewManager())

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, body["time"])
}

func TestHandler_CurrentFlow_Idle(t *testing.T) {
	h := NewHandler(flow.NewManager())

	rec := httptest.NewRecorder()
	h.CurrentFlow(rec, httptest.NewRequest(http.MethodGet, "/api/v1/flows/current", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "idle", body["status"])
}

func TestHandler_CurrentFlow_Running(t *testing.T) {
	manager := flow.NewManager()
	job, err := manager.Begin(42, "https://t.me/somechan")
	require.NoError(t, err)

	h := NewHandler(manager)

	rec := httptest.NewRecorder()
	h.CurrentFlow(rec, httptest.NewRequest(http.MethodGet, "/api/v1/flows/current", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "running", body["status"])
	assert.Equal(t, job.ID.String(), body["flow_id"])
	assert.Equal(t, float64(42), body["user_id"])
	assert.Equal(t, "https://t.me/somechan", body["channel"])
}

func TestServer_Routes(t *testing.T) {
	// the router wires both endpoints
	srv := NewServer(0, NewHandler(flow.NewManager()))

	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/flows/current", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
