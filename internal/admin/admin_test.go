// Package admin_test provides behavior tests for the admin package.
package admin_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arenshaw/reactorlb/internal/admin"
	"github.com/arenshaw/reactorlb/internal/admin/models"
	"github.com/arenshaw/reactorlb/internal/config"
	"github.com/arenshaw/reactorlb/internal/registry"
)

func testConfig() *config.Config {
	return &config.Config{
		API: config.APIConfig{
			Enabled: true,
			Host:    "127.0.0.1",
			Port:    8080,
		},
	}
}

func performRequest(r http.Handler, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestNew_PanicsOnNilConfig(t *testing.T) {
	assert.Panics(t, func() {
		admin.New(nil, nil, nil, 0)
	})
}

func TestServer_Addr(t *testing.T) {
	cfg := testConfig()
	cfg.API.Host = "0.0.0.0"
	cfg.API.Port = 9090

	server := admin.New(cfg, nil, nil, 4)

	assert.Equal(t, "0.0.0.0:9090", server.Addr())
}

func TestRoutes_HealthEndpoint(t *testing.T) {
	cfg := testConfig()
	server := admin.New(cfg, nil, nil, 4)

	w := performRequest(server.Engine(), http.MethodGet, "/api/v1/health")

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.StatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestRoutes_StatsEndpoint(t *testing.T) {
	cfg := testConfig()
	server := admin.New(cfg, nil, nil, 4)

	w := performRequest(server.Engine(), http.MethodGet, "/api/v1/stats")

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.ServerStatsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 4, resp.Workers)
}

func TestRoutes_PoolEndpoint_Empty(t *testing.T) {
	cfg := testConfig()
	dir := registry.NewDirectory(2)
	server := admin.New(cfg, nil, dir, 2)

	w := performRequest(server.Engine(), http.MethodGet, "/api/v1/pool")

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.PoolResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Summary.TotalBackends)
	assert.Empty(t, resp.Backends)
}

func TestRoutes_PoolEndpoint_ReportsRegisteredBackend(t *testing.T) {
	cfg := testConfig()
	dir := registry.NewDirectory(1)
	reg := registry.New(0, dir)
	b := reg.NewBackend(7, [4]byte{10, 0, 0, 1}, "conn-1")
	reg.RegisterPort(b, 9000)
	reg.UpdateStatus(b, 3)

	server := admin.New(cfg, nil, dir, 1)
	w := performRequest(server.Engine(), http.MethodGet, "/api/v1/pool")

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.PoolResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Backends, 1)
	assert.Equal(t, "10.0.0.1", resp.Backends[0].IP)
	assert.Equal(t, uint16(9000), resp.Backends[0].Port)
	assert.Equal(t, int64(3), resp.Backends[0].ClientCount)
	assert.Equal(t, "ready", resp.Backends[0].State)
	assert.Equal(t, 1, resp.Summary.Ready)
}

func TestRoutes_WithAPIKey_InvalidKey(t *testing.T) {
	cfg := testConfig()
	cfg.API.APIKey = "secret-key"
	server := admin.New(cfg, nil, nil, 1)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("X-API-Key", "wrong-key")
	w := httptest.NewRecorder()
	server.Engine().ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRoutes_WithAPIKey_ValidKey(t *testing.T) {
	cfg := testConfig()
	cfg.API.APIKey = "secret-key"
	server := admin.New(cfg, nil, nil, 1)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("X-API-Key", "secret-key")
	w := httptest.NewRecorder()
	server.Engine().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
