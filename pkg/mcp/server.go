// Package mcp exposes memogate's request log, cache and limiter state as
// Model Context Protocol tools over stdio (JSON-RPC 2.0, one message per line).
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/pario-ai/memogate/pkg/models"
	"github.com/pario-ai/memogate/pkg/tracker"
)

// StatusSource reports live state from a running memogate server.
type StatusSource interface {
	CacheStats(ctx context.Context) (models.CacheStats, error)
	LimitStatus(ctx context.Context, clientID string) (models.LimitStatus, error)
}

// Server is a minimal MCP server. Either dependency may be nil; the tools
// that need it then report that it is not configured.
type Server struct {
	tracker tracker.Tracker
	status  StatusSource
	version string
	log     zerolog.Logger
}

// New creates an MCP Server.
func New(t tracker.Tracker, status StatusSource, version string, log zerolog.Logger) *Server {
	return &Server{
		tracker: t,
		status:  status,
		version: version,
		log:     log,
	}
}

// Run reads requests from r line by line and writes responses to w until r
// is exhausted or ctx is cancelled.
func (s *Server) Run(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req request
		if err := json.Unmarshal(line, &req); err != nil {
			s.write(w, response{
				JSONRPC: "2.0",
				Error:   &rpcError{Code: codeParseError, Message: "parse error"},
			})
			continue
		}

		resp := s.dispatch(ctx, &req)
		if len(req.ID) == 0 {
			// Notifications are never answered, not even with an error.
			if resp != nil && resp.Error != nil {
				s.log.Debug().Str("method", req.Method).Msg("mcp: dropped notification")
			}
			continue
		}
		if resp != nil {
			s.write(w, *resp)
		}
	}
	return scanner.Err()
}

func (s *Server) dispatch(ctx context.Context, req *request) *response {
	switch req.Method {
	case "initialize":
		return result(req, initializeResult{
			ProtocolVersion: protocolVersion,
			ServerInfo:      serverInfo{Name: "memogate", Version: s.version},
			Capabilities:    map[string]any{"tools": map[string]any{}},
		})
	case "notifications/initialized":
		return nil
	case "ping":
		return result(req, map[string]any{})
	case "tools/list":
		return result(req, toolsListResult{Tools: tools})
	case "tools/call":
		var params toolCallParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return failure(req, codeInvalidParams, "invalid params")
		}
		h, ok := handlers[params.Name]
		if !ok {
			return result(req, errorResult("unknown tool: "+params.Name))
		}
		return result(req, h(ctx, s, params.Arguments))
	default:
		return failure(req, codeMethodNotFound, fmt.Sprintf("unknown method: %s", req.Method))
	}
}

func result(req *request, v any) *response {
	return &response{JSONRPC: "2.0", ID: req.ID, Result: v}
}

func failure(req *request, code int, msg string) *response {
	return &response{JSONRPC: "2.0", ID: req.ID, Error: &rpcError{Code: code, Message: msg}}
}

func (s *Server) write(w io.Writer, resp response) {
	data, err := json.Marshal(resp)
	if err != nil {
		s.log.Error().Err(err).Msg("mcp: marshal response")
		return
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		s.log.Error().Err(err).Msg("mcp: write response")
	}
}
