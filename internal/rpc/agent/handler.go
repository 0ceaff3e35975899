package agent

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/ThinkArcHQ/profilebase/internal/agent"
	"github.com/ThinkArcHQ/profilebase/internal/observability"
	"github.com/ThinkArcHQ/profilebase/internal/rpc"
)

// Handler processes generate or chat requests and streams NDJSON events.
type Handler struct {
	runner  Runner
	kind    agent.TurnKind
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewHandler constructs a handler for one turn kind.
func NewHandler(runner Runner, kind agent.TurnKind, metrics *observability.Metrics, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{runner: runner, kind: kind, metrics: metrics, logger: logger}
}

// ServeHTTP handles POST with a GenerateRequest body and answers with an
// NDJSON stream of GenerateEvent. A turn rejected up front gets a plain HTTP
// error instead: 409 when the session is busy, 400 for an empty request.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.metrics.RecordTransportError("ndjson", "method_not_allowed")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.metrics.IncActiveSessions("ndjson")
	defer h.metrics.DecActiveSessions("ndjson")

	var req rpc.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.metrics.RecordTransportError("ndjson", "decode")
		http.Error(w, fmt.Sprintf("invalid request: %v", err), http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	events := h.runner.Run(ctx, h.kind, req)

	first, ok := <-events
	if !ok {
		h.metrics.RecordTransportError("ndjson", "empty_stream")
		http.Error(w, "turn produced no events", http.StatusInternalServerError)
		return
	}
	if rejected(first) {
		status := http.StatusBadRequest
		if first.Code == rpc.CodeTurnInFlight {
			status = http.StatusConflict
		}
		h.metrics.RecordTransportError("ndjson", first.Code)
		http.Error(w, first.Error, status)
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)

	writer := bufio.NewWriter(w)
	enc := json.NewEncoder(writer)
	write := func(ev rpc.GenerateEvent) bool {
		if err := enc.Encode(ev); err != nil {
			return false
		}
		if err := writer.Flush(); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	if !write(first) {
		h.metrics.RecordTransportError("ndjson", "write")
		return
	}
	for ev := range events {
		if !write(ev) {
			h.metrics.RecordTransportError("ndjson", "write")
			h.logger.Debug("client went away", zap.String("session", ev.SessionID))
			return
		}
	}
}
