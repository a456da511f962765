package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/planner/internal/agenda"
	"github.com/teemow/planner/internal/logging"
	"github.com/teemow/planner/internal/resources"
	"github.com/teemow/planner/internal/session"
	"github.com/teemow/planner/internal/tools/calendar_tools"
)

func newMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the calendar tools over MCP on stdio",
		Long: `Serve the calendar tools as an MCP (Model Context Protocol) server on
stdin/stdout, so an AI assistant can call them directly without the
planning loop. Every call acts with one credential and time zone fixed
at startup. The next days of events are offered as the
calendar://upcoming resource. Logs go to stderr.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			ctx := cmd.Context()

			credential, err := resolveCredential(ctx, cfg)
			if err != nil {
				return err
			}

			a, err := wireApp(ctx, cfg, os.Stderr)
			if err != nil {
				return err
			}
			defer a.shutdown(context.WithoutCancel(ctx))

			lister, err := calendarListers(a)(ctx, credential)
			if err != nil {
				return err
			}

			s, err := newMCPServer(a, session.New(credential, a.location.String()), lister)
			if err != nil {
				return err
			}
			return mcpserver.ServeStdio(s,
				mcpserver.WithErrorLogger(logging.StdLogger(a.logger, slog.LevelError)),
			)
		},
	}

	cmd.Flags().Int(keyUpcomingDays, agenda.DefaultDays, "Days covered by the calendar://upcoming resource")
	addToolFlags(cmd)
	addCredentialFlags(cmd)

	return cmd
}

func newMCPServer(a *app, sc *session.Context, lister agenda.Lister) (*mcpserver.MCPServer, error) {
	s := mcpserver.NewMCPServer("planner", version,
		mcpserver.WithToolCapabilities(false),
		mcpserver.WithResourceCapabilities(false, false),
		mcpserver.WithRecovery(),
	)
	calendar_tools.RegisterMCPTools(s, a.executor, sc)

	err := resources.RegisterCalendarResources(s, resources.Config{
		Lister:   lister,
		Location: a.location,
		Days:     a.cfg.UpcomingDays,
		Model:    a.model,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register resources: %w", err)
	}
	return s, nil
}
