package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the generation daemon.
type Metrics struct {
	registry      *prometheus.Registry
	Turns         *prometheus.CounterVec
	TurnDuration  *prometheus.HistogramVec
	TurnTokens    *prometheus.CounterVec
	PatchBlocks   *prometheus.CounterVec
	ToolCalls     *prometheus.CounterVec
	ModelUsage    *prometheus.CounterVec
	ModelFailures *prometheus.CounterVec
	ActiveSession *prometheus.GaugeVec
	TransportErrs *prometheus.CounterVec
}

// NewMetrics constructs a metrics registry with generation collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	turns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "profilebase_turns_total",
		Help: "Generation turns by kind and finish reason",
	}, []string{"kind", "finish_reason"})

	durs := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "profilebase_turn_duration_seconds",
		Help:    "Generation turn duration in seconds",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
	}, []string{"kind", "finish_reason"})

	tokens := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "profilebase_turn_tokens_total",
		Help: "Prompt and completion tokens consumed by turns",
	}, []string{"kind", "direction"})

	blocks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "profilebase_patch_blocks_total",
		Help: "SEARCH/REPLACE blocks by result (applied, failed)",
	}, []string{"result"})

	toolCalls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "profilebase_tool_calls_total",
		Help: "Model tool calls by tool and status",
	}, []string{"tool", "status"})

	modelUsage := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "profilebase_model_usage_total",
		Help: "Model selections by role",
	}, []string{"role", "model"})

	modelFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "profilebase_model_failures_total",
		Help: "Model failures by role and model",
	}, []string{"role", "model"})

	active := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "profilebase_transport_active_sessions",
		Help: "Active streaming sessions by transport",
	}, []string{"transport"})

	trErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "profilebase_transport_errors_total",
		Help: "Transport-level errors (handler/streaming) by transport and reason",
	}, []string{"transport", "reason"})

	reg.MustRegister(turns, durs, tokens, blocks, toolCalls, modelUsage, modelFailures, active, trErrors)

	return &Metrics{
		registry:      reg,
		Turns:         turns,
		TurnDuration:  durs,
		TurnTokens:    tokens,
		PatchBlocks:   blocks,
		ToolCalls:     toolCalls,
		ModelUsage:    modelUsage,
		ModelFailures: modelFailures,
		ActiveSession: active,
		TransportErrs: trErrors,
	}
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordTurn records a finished turn.
func (m *Metrics) RecordTurn(kind, finishReason string, duration time.Duration, promptTokens, completionTokens int) {
	if m == nil {
		return
	}
	kind = orUnknown(kind)
	finishReason = orUnknown(finishReason)
	m.Turns.WithLabelValues(kind, finishReason).Inc()
	m.TurnDuration.WithLabelValues(kind, finishReason).Observe(duration.Seconds())
	m.TurnTokens.WithLabelValues(kind, "prompt").Add(float64(promptTokens))
	m.TurnTokens.WithLabelValues(kind, "completion").Add(float64(completionTokens))
}

// RecordPatchBlocks counts applied and failed SEARCH/REPLACE blocks.
func (m *Metrics) RecordPatchBlocks(applied, failed int) {
	if m == nil {
		return
	}
	if applied > 0 {
		m.PatchBlocks.WithLabelValues("applied").Add(float64(applied))
	}
	if failed > 0 {
		m.PatchBlocks.WithLabelValues("failed").Add(float64(failed))
	}
}

// RecordToolCall counts one tool invocation.
func (m *Metrics) RecordToolCall(tool string, ok bool) {
	if m == nil {
		return
	}
	status := "ok"
	if !ok {
		status = "error"
	}
	m.ToolCalls.WithLabelValues(orUnknown(tool), status).Inc()
}

// IncActiveSessions increments the active session gauge.
func (m *Metrics) IncActiveSessions(transport string) {
	if m == nil {
		return
	}
	m.ActiveSession.WithLabelValues(transport).Inc()
}

// DecActiveSessions decrements the active session gauge.
func (m *Metrics) DecActiveSessions(transport string) {
	if m == nil {
		return
	}
	m.ActiveSession.WithLabelValues(transport).Dec()
}

// RecordTransportError records a transport-level error.
func (m *Metrics) RecordTransportError(transport, reason string) {
	if m == nil {
		return
	}
	m.TransportErrs.WithLabelValues(orUnknown(transport), orUnknown(reason)).Inc()
}

// RecordModelUsage increments usage counter for a role/model selection.
func (m *Metrics) RecordModelUsage(role, model string) {
	if m == nil {
		return
	}
	m.ModelUsage.WithLabelValues(orUnknown(role), orUnknown(model)).Inc()
}

// RecordModelFailure increments failure counter for a role/model selection.
func (m *Metrics) RecordModelFailure(role, model string) {
	if m == nil {
		return
	}
	m.ModelFailures.WithLabelValues(orUnknown(role), orUnknown(model)).Inc()
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
