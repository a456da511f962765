package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/planner/internal/agenda"
)

// Resource URIs.
const (
	UpcomingURI = "calendar://upcoming"
	SettingsURI = "planner://settings"
)

// Config configures the calendar resources.
type Config struct {
	Lister   agenda.Lister
	Location *time.Location

	// Days is the agenda length. Defaults to agenda.DefaultDays.
	Days int

	// Model is reported by the settings resource.
	Model string

	Clock func() time.Time
}

// RegisterCalendarResources adds the agenda and settings resources to s.
func RegisterCalendarResources(s *mcpserver.MCPServer, cfg Config) error {
	if cfg.Lister == nil {
		return fmt.Errorf("calendar lister is required")
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Days <= 0 {
		cfg.Days = agenda.DefaultDays
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	upcoming := mcp.NewResource(
		UpcomingURI,
		"Upcoming Events",
		mcp.WithResourceDescription(fmt.Sprintf("Timed events of the next %d days, starting at local midnight", cfg.Days)),
		mcp.WithMIMEType("application/json"),
	)
	s.AddResource(upcoming, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleUpcoming(ctx, request, cfg)
	})

	settings := mcp.NewResource(
		SettingsURI,
		"Planner Settings",
		mcp.WithResourceDescription("Time zone and current local time used to resolve relative dates"),
		mcp.WithMIMEType("application/json"),
	)
	s.AddResource(settings, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleSettings(request, cfg)
	})

	return nil
}

func handleUpcoming(ctx context.Context, request mcp.ReadResourceRequest, cfg Config) ([]mcp.ResourceContents, error) {
	items, err := agenda.Fetch(ctx, cfg.Lister, cfg.Clock(), cfg.Location, cfg.Days)
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming events: %w", err)
	}
	if items == nil {
		items = []agenda.Item{}
	}
	return jsonContents(request.Params.URI, map[string]any{"upcoming": items})
}

func handleSettings(request mcp.ReadResourceRequest, cfg Config) ([]mcp.ResourceContents, error) {
	now := cfg.Clock().In(cfg.Location)
	return jsonContents(request.Params.URI, map[string]any{
		"timezone":   cfg.Location.String(),
		"utc_offset": now.Format("-07:00"),
		"local_time": now.Format(time.RFC3339),
		"model":      cfg.Model,
		"days":       cfg.Days,
	})
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
