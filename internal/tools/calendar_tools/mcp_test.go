package calendar_tools

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/planner/internal/command"
	"github.com/teemow/planner/internal/session"
)

func callMCPTool(t *testing.T, s *mcpserver.MCPServer, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()

	tool := s.GetTool(name)
	require.NotNil(t, tool, "tool %s not registered", name)

	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	result, err := tool.Handler(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	text, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok)
	return text.Text
}

func TestRegisterMCPTools(t *testing.T) {
	svc := &fakeService{deleteErrs: map[string]error{"missing": providerError("delete", http.StatusNotFound)}}
	exec := newTestExecutor(t, svc, Config{})

	s := mcpserver.NewMCPServer("planner-test", "test", mcpserver.WithToolCapabilities(false))
	RegisterMCPTools(s, exec, session.New(testCredential, testZone))

	assert.Len(t, s.ListTools(), len(command.AllNames()))

	listTool := s.GetTool(string(command.ListEvents))
	require.NotNil(t, listTool)
	require.NotNil(t, listTool.Tool.Annotations.ReadOnlyHint)
	assert.True(t, *listTool.Tool.Annotations.ReadOnlyHint)

	addTool := s.GetTool(string(command.AddEvent))
	require.NotNil(t, addTool)
	assert.ElementsMatch(t, []string{"summary", "start_iso", "end_iso"}, addTool.Tool.InputSchema.Required)

	ok := callMCPTool(t, s, string(command.DeleteEvent), map[string]any{"event_id": "evt1"})
	assert.False(t, ok.IsError)
	assert.Equal(t, "Event deleted successfully.", resultText(t, ok))

	notFound := callMCPTool(t, s, string(command.DeleteEvent), map[string]any{"event_id": "missing"})
	assert.True(t, notFound.IsError)
	assert.True(t, strings.HasPrefix(resultText(t, notFound), "Error: Event not found."))

	list := callMCPTool(t, s, string(command.ListEvents), map[string]any{"days": float64(3)})
	assert.False(t, list.IsError)
	require.Len(t, svc.lists, 1)
	assert.Equal(t, "2026-01-22T10:00:00+05:30", svc.lists[0].timeMax)
}

func TestContract(t *testing.T) {
	contract := Contract()

	lines := strings.Split(contract, "\n")
	assert.Len(t, lines, len(command.AllNames()))
	for _, name := range command.AllNames() {
		assert.Contains(t, contract, `{"tool": "`+string(name)+`"`)
	}
	assert.Contains(t, contract, `{"tool": "delete_event", "args": {"event_id": <string>}}`)
	assert.Contains(t, contract, `"recurrence": <string, optional>`)
}
