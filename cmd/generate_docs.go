package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/planner/internal/session"
	"github.com/teemow/planner/internal/tools"
	"github.com/teemow/planner/internal/tools/calendar_tools"
)

func newGenerateDocsCmd() *cobra.Command {
	var outputFile string

	cmd := &cobra.Command{
		Use:   "generate-docs",
		Short: "Generate calendar tool documentation",
		Long: `Generate markdown documentation for the calendar tools.
The tools are introspected from the same registration the mcp command
uses, so the output always matches what the model and MCP clients see.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerateDocs(cmd, outputFile)
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

func runGenerateDocs(cmd *cobra.Command, outputFile string) error {
	registry, err := calendar_tools.NewRegistry(calendar_tools.Config{})
	if err != nil {
		return err
	}
	// Listing tools never calls the Calendar API.
	exec, err := tools.NewExecutor(tools.ExecutorConfig{
		Registry: registry,
		Services: func(context.Context, string) (tools.Service, error) {
			return nil, errors.New("calendar access is not available while generating docs")
		},
	})
	if err != nil {
		return err
	}

	mcpSrv := mcpserver.NewMCPServer("planner", version, mcpserver.WithToolCapabilities(false))
	calendar_tools.RegisterMCPTools(mcpSrv, exec, session.New("", ""))

	serverTools := mcpSrv.ListTools()
	toolList := make([]mcp.Tool, 0, len(serverTools))
	for _, serverTool := range serverTools {
		toolList = append(toolList, serverTool.Tool)
	}

	markdown := generateToolsMarkdown(toolList)

	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(markdown), 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Documentation written to: %s\n", outputFile)
		return nil
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), markdown)
	return err
}

func generateToolsMarkdown(toolList []mcp.Tool) string {
	var sb strings.Builder

	sb.WriteString("# Calendar Tools Reference\n\n")
	sb.WriteString("These tools are offered to the planning model and, through `planner mcp`, to MCP clients.\n\n")
	sb.WriteString("**Note:** This documentation is automatically generated from the tool definitions.\n\n")

	sorted := slices.Clone(toolList)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})

	sb.WriteString("## Table of Contents\n\n")
	for _, tool := range sorted {
		sb.WriteString(fmt.Sprintf("- [%s](#%s)\n", tool.Name, tool.Name))
	}
	sb.WriteString("\n")

	sb.WriteString("## Time Handling\n\n")
	sb.WriteString("- Times are ISO 8601. A time without an offset is read in the caller's time zone.\n")
	sb.WriteString("- Event ids come only from `list_events` or `add_event` results.\n\n")

	sb.WriteString("## Tools\n\n")
	for _, tool := range sorted {
		sb.WriteString(generateToolMarkdown(tool))
		sb.WriteString("\n")
	}

	return sb.String()
}

func generateToolMarkdown(tool mcp.Tool) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("### %s\n\n", tool.Name))

	if tool.Description != "" {
		sb.WriteString(fmt.Sprintf("%s\n\n", tool.Description))
	}

	if tool.Annotations.DestructiveHint != nil && *tool.Annotations.DestructiveHint {
		sb.WriteString("**Destructive:** changes or removes existing events.\n\n")
	}

	if len(tool.InputSchema.Properties) > 0 {
		sb.WriteString("**Arguments:**\n")

		propNames := make([]string, 0, len(tool.InputSchema.Properties))
		for name := range tool.InputSchema.Properties {
			propNames = append(propNames, name)
		}
		sort.Strings(propNames)

		for _, name := range propNames {
			propMap, ok := tool.InputSchema.Properties[name].(map[string]any)
			if !ok {
				continue
			}

			requiredStr := "optional"
			if slices.Contains(tool.InputSchema.Required, name) {
				requiredStr = "required"
			}

			sb.WriteString(fmt.Sprintf("- `%s` (%s, %s): ", name, getPropertyType(propMap), requiredStr))
			if desc, ok := propMap["description"].(string); ok {
				sb.WriteString(desc)
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func getPropertyType(prop map[string]any) string {
	if t, ok := prop["type"].(string); ok {
		return t
	}
	return "any"
}
