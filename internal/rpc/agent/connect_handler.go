package agent

import (
	"context"
	"errors"
	"net/http"

	"github.com/bufbuild/connect-go"

	"github.com/ThinkArcHQ/profilebase/internal/agent"
	"github.com/ThinkArcHQ/profilebase/internal/observability"
	"github.com/ThinkArcHQ/profilebase/internal/rpc"
	"github.com/ThinkArcHQ/profilebase/internal/rpc/connectjson"
)

const ConnectGenerateProcedure = "/profilebase.agent.v1.GenerateService/Generate"

// NewConnectHandler builds a Connect bidi stream handler for Generate.
func NewConnectHandler(runner Runner, metrics *observability.Metrics) (string, http.Handler) {
	h := &connectGenerateHandler{runner: runner, metrics: metrics}
	return ConnectGenerateProcedure, connect.NewBidiStreamHandler(ConnectGenerateProcedure, h.handle, connect.WithCodec(connectjson.Codec{}))
}

type connectGenerateHandler struct {
	runner  Runner
	metrics *observability.Metrics
}

func (h *connectGenerateHandler) handle(ctx context.Context, stream *connect.BidiStream[rpc.GenerateStreamRequest, rpc.GenerateEvent]) error {
	h.metrics.IncActiveSessions("connect")
	defer h.metrics.DecActiveSessions("connect")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	first, err := stream.Receive()
	if err != nil {
		h.metrics.RecordTransportError("connect", "receive_first")
		return err
	}
	if first == nil || first.Generate == nil {
		h.metrics.RecordTransportError("connect", "missing_generate")
		return connect.NewError(connect.CodeInvalidArgument, errors.New("first message must include generate payload"))
	}
	kind := agent.KindGenerate
	switch first.Kind {
	case "", string(agent.KindGenerate):
	case string(agent.KindChat):
		kind = agent.KindChat
	default:
		return connect.NewError(connect.CodeInvalidArgument, errors.New("kind must be generate or chat"))
	}

	// Listen for cancellation messages from the client.
	go func() {
		for {
			msg, recvErr := stream.Receive()
			if recvErr != nil {
				// A half-closed request side is normal; the turn keeps running.
				return
			}
			if msg != nil && msg.Cancel {
				cancel()
				return
			}
		}
	}()

	events := h.runner.Run(ctx, kind, *first.Generate)
	for ev := range events {
		if rejected(ev) {
			h.metrics.RecordTransportError("connect", ev.Code)
			code := connect.CodeInvalidArgument
			if ev.Code == rpc.CodeTurnInFlight {
				code = connect.CodeAborted
			}
			return connect.NewError(code, errors.New(ev.Error))
		}
		if err := stream.Send(&ev); err != nil {
			h.metrics.RecordTransportError("connect", "send")
			return err
		}
	}
	return nil
}
