package cli

import (
	"bufio"
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"

	"github.com/bufbuild/connect-go"
	"github.com/spf13/cobra"
	"golang.org/x/net/http2"

	"github.com/ThinkArcHQ/profilebase/internal/agent"
	"github.com/ThinkArcHQ/profilebase/internal/codeblock"
	"github.com/ThinkArcHQ/profilebase/internal/rpc"
	agentrpc "github.com/ThinkArcHQ/profilebase/internal/rpc/agent"
	"github.com/ThinkArcHQ/profilebase/internal/rpc/connectjson"
	"github.com/ThinkArcHQ/profilebase/internal/tools"
)

const (
	maxLocalFiles = 200
	maxLocalBytes = 256 * 1024
)

type turnFlags struct {
	outDir    string
	sessionID string
	model     string
	addr      string
	token     string
	transport string
}

// NewGenerateCmd sends a generation prompt and writes the resulting file set
// to the output directory.
func NewGenerateCmd(opts *Options) *cobra.Command {
	flags := &turnFlags{}
	cmd := &cobra.Command{
		Use:   "generate \"<prompt>\"",
		Short: "Generate or refine code in a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTurn(cmd, opts, flags, agent.KindGenerate, args[0])
		},
	}
	bindTurnFlags(cmd, flags)
	cmd.Flags().StringVar(&flags.outDir, "out", ".", "Directory holding the current code; generated files are written here")
	return cmd
}

// NewChatCmd sends a chat prompt that can search and contact profiles.
func NewChatCmd(opts *Options) *cobra.Command {
	flags := &turnFlags{}
	cmd := &cobra.Command{
		Use:   "chat \"<prompt>\"",
		Short: "Ask the assistant about profiles",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTurn(cmd, opts, flags, agent.KindChat, args[0])
		},
	}
	bindTurnFlags(cmd, flags)
	return cmd
}

func bindTurnFlags(cmd *cobra.Command, flags *turnFlags) {
	cmd.Flags().StringVar(&flags.sessionID, "session", "", "Session id to continue (default: new session)")
	cmd.Flags().StringVar(&flags.model, "model", "", "Override the model for this turn")
	cmd.Flags().StringVar(&flags.addr, "addr", "", "Daemon address (default: server.addr from config)")
	cmd.Flags().StringVar(&flags.token, "token", os.Getenv("PROFILEBASE_TOKEN"), "Bearer token for the daemon")
	cmd.Flags().StringVar(&flags.transport, "transport", "", "connect or ndjson (default: server.transport from config)")
}

func runTurn(cmd *cobra.Command, opts *Options, flags *turnFlags, kind agent.TurnKind, prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return fmt.Errorf("prompt cannot be empty")
	}

	addr, transport := flags.addr, flags.transport
	if addr == "" || transport == "" {
		cfg, err := loadConfig(opts)
		if err != nil {
			return err
		}
		if addr == "" {
			addr = cfg.Server.Addr
		}
		if transport == "" {
			transport = cfg.Server.Transport
		}
	}

	req := rpc.GenerateRequest{SessionID: flags.sessionID, Model: flags.model, Prompt: prompt}

	var fsys *tools.Filesystem
	if kind == agent.KindGenerate {
		var err error
		fsys, err = tools.NewFilesystem(flags.outDir, true)
		if err != nil {
			return err
		}
		req.Files, err = fsys.LoadFiles(maxLocalFiles, maxLocalBytes)
		if err != nil {
			return fmt.Errorf("load %s: %w", flags.outDir, err)
		}
	}

	r := &renderer{out: cmd.OutOrStdout()}
	client := &daemonClient{baseURL: daemonURL(addr), token: flags.token}

	var err error
	switch strings.ToLower(strings.TrimSpace(transport)) {
	case "ndjson":
		err = client.streamNDJSON(cmd.Context(), kind, req, r.render)
	default:
		err = client.streamConnect(cmd.Context(), kind, req, r.render)
	}
	if err != nil {
		return err
	}

	if fsys != nil && r.finish != nil {
		if err := fsys.WriteFiles(r.files); err != nil {
			return err
		}
		r.summarize()
	}
	return nil
}

func daemonURL(addr string) string {
	if strings.HasPrefix(addr, "http://") || strings.HasPrefix(addr, "https://") {
		return strings.TrimSuffix(addr, "/")
	}
	if strings.HasPrefix(addr, ":") {
		return "http://localhost" + addr
	}
	return "http://" + addr
}

type daemonClient struct {
	baseURL string
	token   string
	client  *http.Client
}

func (c *daemonClient) streamNDJSON(ctx context.Context, kind agent.TurnKind, body rpc.GenerateRequest, fn func(rpc.GenerateEvent) error) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	path := "/api/generate"
	if kind == agent.KindChat {
		path = "/api/chat"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	client := c.client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("daemon returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		var evt rpc.GenerateEvent
		if err := json.Unmarshal(scanner.Bytes(), &evt); err != nil {
			return fmt.Errorf("decode event: %w", err)
		}
		if err := fn(evt); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func (c *daemonClient) streamConnect(ctx context.Context, kind agent.TurnKind, body rpc.GenerateRequest, fn func(rpc.GenerateEvent) error) error {
	client := connect.NewClient[rpc.GenerateStreamRequest, rpc.GenerateEvent](
		buildH2CClient(), c.baseURL+agentrpc.ConnectGenerateProcedure, connect.WithCodec(connectjson.Codec{}))

	stream := client.CallBidiStream(ctx)
	if c.token != "" {
		stream.RequestHeader().Set("Authorization", "Bearer "+c.token)
	}
	if err := stream.Send(&rpc.GenerateStreamRequest{Generate: &body, Kind: string(kind)}); err != nil {
		return err
	}

	done := make(chan struct{})
	defer close(done)
	// propagate cancellation to the daemon.
	go func() {
		select {
		case <-ctx.Done():
			_ = stream.Send(&rpc.GenerateStreamRequest{Cancel: true})
			_ = stream.CloseRequest()
		case <-done:
		}
	}()

	for {
		evt, err := stream.Receive()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		if err := fn(*evt); err != nil {
			return err
		}
	}
	_ = stream.CloseRequest()
	return stream.CloseResponse()
}

func buildH2CClient() *http.Client {
	return &http.Client{
		Transport: &http2.Transport{
			AllowHTTP: true,
			DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(ctx, network, addr)
			},
		},
	}
}

// renderer prints streamed events and keeps the latest file snapshot.
type renderer struct {
	out    io.Writer
	files  []codeblock.GeneratedFile
	finish *rpc.Finish
}

func (r *renderer) render(evt rpc.GenerateEvent) error {
	switch evt.Type {
	case "session":
		fmt.Fprintf(r.out, "[session %s]\n", evt.SessionID)
	case "token":
		fmt.Fprint(r.out, evt.Token)
	case "tool-call":
		if evt.Tool != nil {
			fmt.Fprintf(r.out, "\n[tool %s] %s\n", evt.Tool.Name, evt.Tool.Args)
		}
	case "tool-result":
		if evt.Tool != nil && evt.Tool.Error != "" {
			fmt.Fprintf(r.out, "[tool %s error] %s\n", evt.Tool.Name, evt.Tool.Error)
		}
	case "files":
		r.files = evt.Files
	case "patch-error":
		if evt.PatchError != nil {
			fmt.Fprintf(r.out, "\n[patch failed] %s\n", evt.PatchError.Error())
		}
	case "finish":
		r.finish = evt.Finish
		if evt.Files != nil {
			r.files = evt.Files
		}
		if evt.Finish != nil {
			fmt.Fprintf(r.out, "\n[done %s, %d steps]\n", evt.Finish.FinishReason, evt.Finish.Steps)
		}
	case "error":
		return fmt.Errorf("daemon error: %s", evt.Error)
	}
	return nil
}

func (r *renderer) summarize() {
	if r.finish == nil {
		return
	}
	for _, c := range r.finish.Changes {
		status := "modified"
		if c.Created {
			status = "created"
		}
		fmt.Fprintf(r.out, "%s %s (+%d -%d)\n", status, c.Path, c.Added, c.Removed)
	}
	if r.finish.Failed > 0 {
		fmt.Fprintf(r.out, "%d edit(s) could not be applied\n", r.finish.Failed)
	}
}
