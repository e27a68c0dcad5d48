// Package mcpserver serves a tool registry over the Model Context Protocol
// on a pair of streams, normally stdin and stdout.
package mcpserver

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tessro/skyplay/internal/tools"
)

const protocolVersion = "2024-11-05"

// Registry is the tool set the server exposes.
type Registry interface {
	List() []tools.Tool
	Call(ctx context.Context, name string, args map[string]any) (tools.Result, error)
}

// Config configures a Server.
type Config struct {
	ServerName    string
	ServerVersion string
	Instructions  string
	Logger        zerolog.Logger
	Registry      Registry
}

// Server reads requests from in and writes responses to out. Tool calls
// run concurrently; everything else is answered inline.
type Server struct {
	in       *bufio.Reader
	out      *bufio.Writer
	cfg      Config
	logger   zerolog.Logger
	registry Registry

	writeMu    sync.Mutex
	mode       framing
	modeLocked bool

	callsMu  sync.Mutex
	inflight map[string]context.CancelFunc
	calls    sync.WaitGroup
}

// New creates a server.
func New(in io.Reader, out io.Writer, cfg Config) *Server {
	if cfg.ServerName == "" {
		cfg.ServerName = "skyplay"
	}
	if cfg.ServerVersion == "" {
		cfg.ServerVersion = "dev"
	}

	return &Server{
		in:       bufio.NewReader(in),
		out:      bufio.NewWriter(out),
		cfg:      cfg,
		logger:   cfg.Logger.With().Str("component", "mcp").Logger(),
		registry: cfg.Registry,
		inflight: make(map[string]context.CancelFunc),
	}
}

// Run serves until the input ends or ctx is cancelled. In-flight tool
// calls are waited for before Run returns.
func (s *Server) Run(ctx context.Context) error {
	defer s.calls.Wait()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Str("reason", ctx.Err().Error()).Msg("mcp_context_done")
			return ctx.Err()
		default:
		}

		payload, mode, err := readMessage(s.in)
		if err != nil {
			if err == io.EOF {
				s.logger.Info().Msg("mcp_stream_eof")
				return nil
			}
			s.logger.Error().Err(err).Msg("mcp_read_error")
			return err
		}

		s.writeMu.Lock()
		if !s.modeLocked {
			s.mode, s.modeLocked = mode, true
			s.logger.Debug().Stringer("mode", mode).Msg("mcp_output_mode")
		}
		s.writeMu.Unlock()

		s.logger.Debug().Int("bytes", len(payload)).Msg("mcp_message_received")
		if err := s.handle(ctx, payload); err != nil {
			s.logger.Error().Err(err).Msg("mcp_handle_error")
			return err
		}
	}
}

func (s *Server) handle(ctx context.Context, payload []byte) error {
	startedAt := time.Now()

	var req request
	if err := json.Unmarshal(payload, &req); err != nil {
		s.logCall("parse", nil, startedAt, codeParseError)
		return s.sendError(nil, codeParseError, "parse error")
	}

	if req.isNotification() {
		s.handleNotification(req)
		return nil
	}

	if req.JSONRPC != "" && req.JSONRPC != "2.0" {
		s.logCall(req.Method, req.ID, startedAt, codeInvalidRequest)
		return s.sendError(req.ID, codeInvalidRequest, "invalid request")
	}

	switch req.Method {
	case "initialize":
		s.logCall(req.Method, req.ID, startedAt, 0)
		return s.send(response{JSONRPC: "2.0", ID: req.ID, Result: initializeResult{
			ProtocolVersion: protocolVersion,
			Capabilities: map[string]any{
				"tools": map[string]any{"listChanged": false},
			},
			ServerInfo: map[string]string{
				"name":    s.cfg.ServerName,
				"version": s.cfg.ServerVersion,
			},
			Instructions: s.cfg.Instructions,
		}})
	case "ping":
		s.logCall(req.Method, req.ID, startedAt, 0)
		return s.send(response{JSONRPC: "2.0", ID: req.ID, Result: map[string]any{}})
	case "tools/list":
		s.logCall(req.Method, req.ID, startedAt, 0)
		return s.send(response{JSONRPC: "2.0", ID: req.ID, Result: toolsListResult{Tools: s.descriptors()}})
	case "tools/call":
		params, err := decodeToolCallParams(req.Params)
		if err != nil {
			s.logCall(req.Method, req.ID, startedAt, codeInvalidParams)
			return s.sendError(req.ID, codeInvalidParams, "invalid params: "+err.Error())
		}
		s.startCall(ctx, req.ID, params)
		return nil
	default:
		s.logCall(req.Method, req.ID, startedAt, codeMethodNotFound)
		return s.sendError(req.ID, codeMethodNotFound, "method not found")
	}
}

func (s *Server) handleNotification(req request) {
	switch req.Method {
	case "notifications/cancelled":
		var params cancelledParams
		if err := json.Unmarshal(req.Params, &params); err != nil || len(params.RequestID) == 0 {
			s.logger.Debug().Msg("mcp_cancel_malformed")
			return
		}
		key := string(params.RequestID)
		s.callsMu.Lock()
		cancel, ok := s.inflight[key]
		s.callsMu.Unlock()
		if ok {
			cancel()
		}
		s.logger.Info().
			Str("request_id", key).
			Str("reason", params.Reason).
			Bool("found", ok).
			Msg("mcp_cancel")
	default:
		s.logger.Debug().Str("method", req.Method).Msg("mcp_notification")
	}
}

// startCall runs a tool call on its own goroutine. A call cancelled by the
// client gets no response.
func (s *Server) startCall(ctx context.Context, id json.RawMessage, params toolsCallParams) {
	callCtx, cancel := context.WithCancel(ctx)
	key := string(id)

	s.callsMu.Lock()
	s.inflight[key] = cancel
	s.callsMu.Unlock()

	s.calls.Add(1)
	go func() {
		defer s.calls.Done()
		defer func() {
			s.callsMu.Lock()
			delete(s.inflight, key)
			s.callsMu.Unlock()
			cancel()
		}()

		startedAt := time.Now()
		result, err := s.registry.Call(callCtx, params.Name, params.Arguments)
		if errors.Is(err, tools.ErrUnknownTool) {
			s.logCall(params.Name, id, startedAt, codeInvalidParams)
			s.sendAsync(response{JSONRPC: "2.0", ID: id, Result: toolCallResult{
				Content: []toolContent{{Type: "text", Text: fmt.Sprintf("unknown tool: %s", params.Name)}},
				IsError: true,
			}})
			return
		}

		if callCtx.Err() != nil && ctx.Err() == nil {
			s.logger.Info().RawJSON("id", id).Str("tool", params.Name).Msg("mcp_call_cancelled")
			return
		}

		s.logCall(params.Name, id, startedAt, 0)
		s.sendAsync(response{JSONRPC: "2.0", ID: id, Result: toolCallResult{
			Content:           []toolContent{{Type: "text", Text: result.Text}},
			StructuredContent: result.Structured,
			IsError:           result.IsError,
		}})
	}()
}

func (s *Server) descriptors() []toolDescriptor {
	list := s.registry.List()
	out := make([]toolDescriptor, len(list))
	for i, t := range list {
		out[i] = toolDescriptor{Name: t.Name, Description: t.Description, InputSchema: t.InputSchema}
	}
	return out
}

// decodeToolCallParams accepts both {"name", "arguments": {...}} and the
// flattened {"name", ...args} shape some clients send.
func decodeToolCallParams(raw json.RawMessage) (toolsCallParams, error) {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(raw, &payload); err != nil {
		return toolsCallParams{}, err
	}

	var name string
	if err := json.Unmarshal(payload["name"], &name); err != nil {
		return toolsCallParams{}, fmt.Errorf("missing tool name")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return toolsCallParams{}, fmt.Errorf("missing tool name")
	}

	args := map[string]any{}
	if rawArgs, ok := payload["arguments"]; ok {
		if trimmed := bytes.TrimSpace(rawArgs); len(trimmed) > 0 && string(trimmed) != "null" {
			if err := json.Unmarshal(trimmed, &args); err != nil {
				return toolsCallParams{}, fmt.Errorf("arguments must be an object")
			}
		}
	} else {
		for key, value := range payload {
			if key == "name" || key == "_meta" {
				continue
			}
			var v any
			if err := json.Unmarshal(value, &v); err != nil {
				return toolsCallParams{}, err
			}
			args[key] = v
		}
	}

	return toolsCallParams{Name: name, Arguments: args}, nil
}

func (s *Server) sendError(id json.RawMessage, code int, message string) error {
	return s.send(response{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &responseError{Code: code, Message: message},
	})
}

func (s *Server) send(resp response) error {
	encoded, err := json.Marshal(resp)
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.logger.Debug().Int("bytes", len(encoded)).Msg("mcp_send")
	return writeMessage(s.out, s.mode, encoded)
}

// sendAsync is send for call goroutines, which have no caller to return to.
func (s *Server) sendAsync(resp response) {
	if err := s.send(resp); err != nil {
		s.logger.Error().Err(err).Msg("mcp_send_error")
	}
}

func (s *Server) logCall(method string, id json.RawMessage, startedAt time.Time, code int) {
	event := s.logger.Info()
	if code != 0 {
		event = s.logger.Error().Int("error_code", code)
	}
	if len(id) > 0 {
		event = event.RawJSON("id", id)
	}
	event.
		Str("method", method).
		Int64("duration_ms", time.Since(startedAt).Milliseconds()).
		Msg("mcp_call")
}
