package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/planner/internal/agenda"
	"github.com/teemow/planner/internal/calendar"
	"github.com/teemow/planner/internal/logging"
	"github.com/teemow/planner/internal/server"
	"github.com/teemow/planner/internal/timestamp"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the planner HTTP API",
		Long: `Start the planner HTTP API.

Endpoints:
  POST /chat              run one planning turn for a conversation
  GET  /events/upcoming   list the next days of events for a credential
  GET  /healthz, /readyz  liveness and readiness probes

Each request carries its own Google OAuth access token; the server keeps
no user state between requests. Prometheus metrics are served on a
separate address when --metrics is set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), loadConfig())
		},
	}

	f := cmd.Flags()
	f.String(keyAddr, server.DefaultAddr, "HTTP listen address")
	f.Bool(keyMetricsEnabled, false, "Serve Prometheus metrics")
	f.String(keyMetricsAddr, server.DefaultMetricsAddr, "Metrics listen address")
	f.StringSlice(keyAllowedOrigins, nil, "Comma-separated CORS origins (default localhost:3000)")
	f.Float64(keyChatRate, server.DefaultChatRate, "Sustained /chat requests per second per client IP")
	f.Int(keyChatBurst, server.DefaultChatBurst, "Burst of /chat requests per client IP")
	f.String(keyChatTimezone, "UTC", "Time zone for /chat requests that name none")
	f.String(keyDisplayTimezone, "", "Time zone /events/upcoming labels days in (default --timezone)")
	f.Int(keyUpcomingDays, agenda.DefaultDays, "Days covered by /events/upcoming")
	addModelFlags(cmd)
	addToolFlags(cmd)

	return cmd
}

func runServe(ctx context.Context, cfg config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := wireApp(ctx, cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		a.shutdown(shutdownCtx)
	}()

	metricsServer, err := startMetricsServer(a)
	if err != nil {
		return err
	}
	if metricsServer != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				a.logger.Warn("metrics server shutdown failed", logging.Err(err))
			}
		}()
	}

	displayZone := cfg.DisplayTimezone
	if displayZone == "" {
		displayZone = cfg.Timezone
	}

	srv, err := server.New(server.Config{
		Addr:            cfg.Addr,
		AllowedOrigins:  cfg.AllowedOrigins,
		ChatRate:        cfg.ChatRate,
		ChatBurst:       cfg.ChatBurst,
		DefaultTimezone: cfg.ChatTimezone,
		DisplayLocation: timestamp.LoadLocation(displayZone, a.location),
		UpcomingDays:    cfg.UpcomingDays,
		Runner:          a.orchestrator,
		Listers:         calendarListers(a),
		Health:          server.NewHealthChecker(a.model, cfg.ChatTimezone),
		Metrics:         a.provider.Metrics(),
		Logger:          a.logger,
	})
	if err != nil {
		return err
	}

	return srv.ListenAndServe(ctx)
}

// startMetricsServer starts the Prometheus endpoint when enabled and waits
// until it is bound. It returns nil when metrics are off.
func startMetricsServer(a *app) (*server.MetricsServer, error) {
	if !a.cfg.MetricsEnabled || !a.provider.Enabled() {
		return nil, nil
	}

	metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
		Addr:                    a.cfg.MetricsAddr,
		InstrumentationProvider: a.provider,
		Logger:                  a.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics server: %w", err)
	}

	ready := make(chan struct{})
	failed := make(chan error, 1)
	go func() {
		if err := metricsServer.StartWithReadySignal(ready); err != nil && !errors.Is(err, http.ErrServerClosed) {
			failed <- err
		}
		close(failed)
	}()

	select {
	case <-ready:
		a.logger.Info("metrics server started", slog.String("addr", metricsServer.Addr()))
		return metricsServer, nil
	case err := <-failed:
		return nil, fmt.Errorf("metrics server failed to start: %w", err)
	case <-time.After(5 * time.Second):
		return nil, errors.New("metrics server startup timed out")
	}
}

func calendarListers(a *app) server.ListerFactory {
	return func(ctx context.Context, credential string) (agenda.Lister, error) {
		return calendar.NewClient(ctx, credential, calendar.Options{
			Timeout: a.cfg.CalendarTimeout,
			Metrics: a.provider.Metrics(),
			Logger:  a.logger,
		})
	}
}
