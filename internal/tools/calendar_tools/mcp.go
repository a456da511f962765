package calendar_tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/planner/internal/command"
	"github.com/teemow/planner/internal/session"
	"github.com/teemow/planner/internal/tools"
)

// RegisterMCPTools exposes every calendar tool on s. Calls run through exec
// with the given session, so MCP clients see the same texts as the model.
func RegisterMCPTools(s *mcpserver.MCPServer, exec *tools.Executor, sc *session.Context) {
	for _, def := range definitions {
		s.AddTool(mcpTool(def), mcpHandler(def.Name, exec, sc))
	}
}

func mcpTool(def Definition) mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription(def.Description),
		mcp.WithReadOnlyHintAnnotation(def.Name == command.ListEvents),
		mcp.WithDestructiveHintAnnotation(def.Name != command.ListEvents && def.Name != command.AddEvent),
	}

	for _, arg := range def.Args {
		props := []mcp.PropertyOption{mcp.Description(arg.Description)}
		if arg.Required {
			props = append(props, mcp.Required())
		}
		if arg.Type == "int" {
			props = append(props, mcp.Min(1), mcp.Max(MaxListDays))
			opts = append(opts, mcp.WithNumber(arg.Name, props...))
			continue
		}
		opts = append(opts, mcp.WithString(arg.Name, props...))
	}

	return mcp.NewTool(string(def.Name), opts...)
}

func mcpHandler(name command.Name, exec *tools.Executor, sc *session.Context) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result := exec.Dispatch(ctx, tools.Request{
			Command: command.Command{Name: name, Args: request.GetArguments()},
			Session: sc,
		})
		if result.Failed() {
			return mcp.NewToolResultError(result.Text), nil
		}
		return mcp.NewToolResultText(result.Text), nil
	}
}
