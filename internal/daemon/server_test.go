package daemon

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ThinkArcHQ/profilebase/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Providers: map[string]config.ProviderConfig{
			"local": {Type: "ollama", BaseURL: "http://127.0.0.1:1", Timeout: time.Second},
		},
		Models: map[string]config.ModelConfig{
			"default": {Provider: "local", Model: "llama3", Default: true},
		},
		Agent:  config.AgentConfig{MaxSteps: 2},
		Tools:  config.ToolsConfig{AllowFileWrite: true, AllowProfiles: true},
		Auth:   config.AuthConfig{Required: true, Tokens: map[string]string{"tok": "u1"}},
		Server: config.ServerConfig{Addr: ":0", MetricsEnabled: true, Transport: "connect"},
	}
}

func TestServerRoutes(t *testing.T) {
	srv, err := NewServer(context.Background(), testConfig(), zap.NewNop())
	require.NoError(t, err)
	h := srv.Handler()

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"status":"ok"}`, rr.Body.String())

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/generate", bytes.NewBufferString(`{"prompt":"x"}`)))
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/tools", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "search_profiles")
}

func TestServerMetricsDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Server.MetricsEnabled = false
	cfg.Server.Transport = "ndjson"
	srv, err := NewServer(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestServerRejectsMissingSeedFile(t *testing.T) {
	cfg := testConfig()
	cfg.Profiles.SeedFile = "does-not-exist.yaml"
	_, err := NewServer(context.Background(), cfg, zap.NewNop())
	require.ErrorContains(t, err, "open profiles")
}
