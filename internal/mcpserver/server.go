// Package mcpserver exposes the tool registry over the Model Context
// Protocol. It is a thin transport: callers are authenticated upstream by
// the orchestrator, which passes the derived identity in tool arguments.
package mcpserver

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/tamshai/hr-gateway/internal/model"
	"github.com/tamshai/hr-gateway/internal/tools"
)

// Server wraps an MCP server bound to a tool registry.
type Server struct {
	mcp      *server.MCPServer
	registry *tools.Registry
	log      zerolog.Logger
}

// New registers every registry tool plus the execute tool.
func New(registry *tools.Registry, log zerolog.Logger) *Server {
	s := &Server{
		mcp:      server.NewMCPServer("hr-gateway", "1.0.0", server.WithToolCapabilities(false)),
		registry: registry,
		log:      log,
	}

	for _, name := range registry.Names() {
		tool := mcp.NewTool(name,
			mcp.WithDescription("Invoke the "+name+" tool. The result is a JSON envelope with status success, error, or pending_confirmation."),
			mcp.WithString("input", mcp.Description("Tool input as a JSON object string, e.g. {\"query\":\"smith\",\"limit\":20}")),
			mcp.WithString("caller_id", mcp.Required(), mcp.Description("Authenticated caller id")),
			mcp.WithString("caller_name", mcp.Description("Caller display name, matched against record owner/assignee fields")),
			mcp.WithString("caller_roles", mcp.Description("Comma-separated roles of the caller")),
		)
		s.mcp.AddTool(tool, s.invoke(name))
	}

	execTool := mcp.NewTool("execute_action",
		mcp.WithDescription("Execute a previously staged write action. Consumes the confirmation exactly once."),
		mcp.WithString("action", mcp.Required(), mcp.Description("Action name returned when the write was staged")),
		mcp.WithString("confirmation_id", mcp.Required(), mcp.Description("Confirmation id returned when the write was staged")),
		mcp.WithString("caller_id", mcp.Required(), mcp.Description("Authenticated caller id")),
		mcp.WithString("caller_name", mcp.Description("Caller display name")),
		mcp.WithString("caller_roles", mcp.Description("Comma-separated roles of the caller")),
	)
	s.mcp.AddTool(execTool, s.execute)

	return s
}

// ServeStdio blocks serving MCP over stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

func callerFromRequest(req mcp.CallToolRequest) model.CallerIdentity {
	id, _ := req.RequireString("caller_id")
	caller := model.CallerIdentity{ID: id}
	if name, ok := req.GetArguments()["caller_name"].(string); ok {
		caller.DisplayName = name
	}
	if roles, ok := req.GetArguments()["caller_roles"].(string); ok && roles != "" {
		for _, r := range strings.Split(roles, ",") {
			if t := strings.TrimSpace(r); t != "" {
				caller.Roles = append(caller.Roles, t)
			}
		}
	}
	return caller
}

func (s *Server) invoke(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		caller := callerFromRequest(req)
		if caller.ID == "" {
			return mcp.NewToolResultError("caller_id is required"), nil
		}

		var input json.RawMessage
		if raw, ok := req.GetArguments()["input"].(string); ok && raw != "" {
			input = json.RawMessage(raw)
		}

		resp := s.registry.Dispatch(ctx, name, input, caller)
		b, err := json.Marshal(resp)
		if err != nil {
			return mcp.NewToolResultError("failed to encode response"), nil
		}
		return mcp.NewToolResultText(string(b)), nil
	}
}

func (s *Server) execute(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	caller := callerFromRequest(req)
	if caller.ID == "" {
		return mcp.NewToolResultError("caller_id is required"), nil
	}
	action, _ := req.RequireString("action")
	confirmationID, _ := req.RequireString("confirmation_id")

	resp := s.registry.Execute(ctx, action, confirmationID, caller)
	b, err := json.Marshal(resp)
	if err != nil {
		return mcp.NewToolResultError("failed to encode response"), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}
