package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/teemow/planner/internal/agenda"
	"github.com/teemow/planner/internal/calendar"
	"github.com/teemow/planner/internal/logging"
	"github.com/teemow/planner/internal/timestamp"
)

func newUpcomingCmd() *cobra.Command {
	var (
		output  string
		noColor bool
	)

	cmd := &cobra.Command{
		Use:   "upcoming",
		Short: "Show the next days of calendar events",
		Long: `Show the timed events of the next days, starting at local midnight.
All-day and cancelled events are left out. Events whose title contains
"deadline" are marked urgent.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			ctx := cmd.Context()

			logger, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
			if err != nil {
				return err
			}

			credential, err := resolveCredential(ctx, cfg)
			if err != nil {
				return err
			}
			client, err := calendar.NewClient(ctx, credential, calendar.Options{
				Timeout: cfg.CalendarTimeout,
				Logger:  logger,
			})
			if err != nil {
				return err
			}

			loc := timestamp.LoadLocation(cfg.Timezone, time.UTC)
			items, err := agenda.Fetch(ctx, client, time.Now(), loc, cfg.UpcomingDays)
			if err != nil {
				return fmt.Errorf("failed to list events: %w", err)
			}

			out := cmd.OutOrStdout()
			return writeAgenda(out, items, output, !noColor && shouldUseColor(out))
		},
	}

	f := cmd.Flags()
	f.StringVarP(&output, "output", "o", "table", "Output format: table or json")
	f.BoolVar(&noColor, "no-color", false, "Disable colored output")
	f.Int(keyUpcomingDays, agenda.DefaultDays, "Number of days to show")
	f.Duration(keyCalendarTimeout, 0, "Timeout of one Calendar API call (default 15s)")
	addCredentialFlags(cmd)

	return cmd
}

// writeAgenda renders items as a table or as JSON.
func writeAgenda(w io.Writer, items []agenda.Item, format string, color bool) error {
	switch strings.ToLower(format) {
	case "", "table":
		writeAgendaTable(w, items, color)
		return nil
	case "json":
		if items == nil {
			items = []agenda.Item{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

func writeAgendaTable(w io.Writer, items []agenda.Item, color bool) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.Style().Options.SeparateHeader = true

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignCenter},
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignCenter},
		{Number: 3, Align: text.AlignRight, AlignHeader: text.AlignCenter},
		{Number: 4, Align: text.AlignLeft, AlignHeader: text.AlignCenter, WidthMax: 60},
	})
	tw.AppendHeader(table.Row{"Day", "Start", "End", "Title"})

	urgent := text.Colors{text.FgHiRed, text.Bold}
	for _, item := range items {
		title := item.Title
		if item.IsUrgent {
			title = "! " + title
			if color {
				title = urgent.Sprint(title)
			}
		}
		tw.AppendRow(table.Row{item.DateLabel, item.StartTime, item.EndTime, title})
	}

	if len(items) == 0 {
		tw.AppendRow(table.Row{"-", "-", "-", "(no upcoming events)"})
	}

	tw.Render()
}

func shouldUseColor(out io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := out.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
