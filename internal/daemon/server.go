package daemon

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"go.uber.org/zap"

	"github.com/ThinkArcHQ/profilebase/internal/agent"
	"github.com/ThinkArcHQ/profilebase/internal/auth"
	"github.com/ThinkArcHQ/profilebase/internal/config"
	"github.com/ThinkArcHQ/profilebase/internal/llm/configbuilder"
	"github.com/ThinkArcHQ/profilebase/internal/observability"
	"github.com/ThinkArcHQ/profilebase/internal/profiles"
	agentrpc "github.com/ThinkArcHQ/profilebase/internal/rpc/agent"
	toolrpc "github.com/ThinkArcHQ/profilebase/internal/rpc/tools"
	"github.com/ThinkArcHQ/profilebase/internal/semantic"
	"github.com/ThinkArcHQ/profilebase/internal/tools"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server hosts the generation endpoints plus health and metrics.
type Server struct {
	cfg     *config.Config
	logger  *zap.Logger
	runner  agentrpc.Runner
	metrics *observability.Metrics
	tools   *tools.Registry
}

// NewServer constructs a daemon instance.
func NewServer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Server, error) {
	registry, err := configbuilder.BuildRegistryFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("build registry: %w", err)
	}

	store, seeded, err := profiles.OpenStore(ctx, cfg.Profiles.SeedFile)
	if err != nil {
		return nil, fmt.Errorf("open profiles: %w", err)
	}
	if seeded > 0 {
		logger.Info("seeded profiles", zap.Int("count", seeded), zap.String("file", cfg.Profiles.SeedFile))
	}

	metrics := observability.NewMetrics()
	toolRegistry := tools.NewRegistry(store, tools.Options{
		AllowFileWrite: cfg.Tools.AllowFileWrite,
		AllowProfiles:  cfg.Tools.AllowProfiles,
		MaxReadBytes:   cfg.Tools.MaxReadBytes,
	})
	agentCore := agent.New(agent.Options{
		Registry: registry,
		Strategy: cfg.Strategy,
		Config:   cfg.Agent,
		Tools:    toolRegistry,
		Ranker:   semantic.NewEngine(0),
		Logger:   logger,
		Metrics:  metrics,
	})
	runner := &agentrpc.AgentRunner{Agent: agentCore, Logger: logger}

	return &Server{cfg: cfg, logger: logger, runner: runner, metrics: metrics, tools: toolRegistry}, nil
}

// Handler builds the HTTP handler tree. Generation routes sit behind the
// bearer-token middleware; health and metrics do not.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	api.Handle("/api/generate", agentrpc.NewHandler(s.runner, agent.KindGenerate, s.metrics, s.logger))
	api.Handle("/api/chat", agentrpc.NewHandler(s.runner, agent.KindChat, s.metrics, s.logger))
	api.Handle("/api/tools", toolrpc.SchemaHandler{Registry: s.tools})
	if s.connectEnabled() {
		path, handler := agentrpc.NewConnectHandler(s.runner, s.metrics)
		api.Handle(path, handler)
	}
	authenticated := auth.Middleware(auth.StaticTokens(s.cfg.Auth.Tokens), s.cfg.Auth.Required, api)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/metrics", s.metricsHandler)
	mux.Handle("/", authenticated)

	if s.connectEnabled() {
		return h2c.NewHandler(mux, &http2.Server{})
	}
	return mux
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting profilebase daemon",
			zap.String("addr", s.cfg.Server.Addr),
			zap.String("transport", s.cfg.Server.Transport),
			zap.Bool("auth_required", s.cfg.Auth.Required))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down profilebase daemon")
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

func (s *Server) connectEnabled() bool {
	return strings.ToLower(strings.TrimSpace(s.cfg.Server.Transport)) != "ndjson"
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) metricsHandler(w http.ResponseWriter, r *http.Request) {
	if !s.cfg.Server.MetricsEnabled {
		http.NotFound(w, r)
		return
	}

	promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{}).ServeHTTP(w, r)
}
