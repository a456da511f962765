package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/teemow/planner/internal/agent"
	"github.com/teemow/planner/internal/calendar"
	"github.com/teemow/planner/internal/google"
	"github.com/teemow/planner/internal/guardrail"
	"github.com/teemow/planner/internal/instrumentation"
	"github.com/teemow/planner/internal/llm"
	"github.com/teemow/planner/internal/logging"
	"github.com/teemow/planner/internal/timestamp"
	"github.com/teemow/planner/internal/tools"
	"github.com/teemow/planner/internal/tools/calendar_tools"
)

// app holds the components shared by the commands. Every field is safe
// for concurrent use.
type app struct {
	cfg      config
	logger   *slog.Logger
	provider *instrumentation.Provider
	location *time.Location
	model    string

	executor     *tools.Executor
	orchestrator *agent.Orchestrator
}

// wireApp builds the component graph from cfg. Logs go to logOut. The
// caller must call shutdown when done.
func wireApp(ctx context.Context, cfg config, logOut io.Writer) (*app, error) {
	logger, err := logging.New(logOut, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version
	provider, err := instrumentation.NewProvider(ctx, instrConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	metrics := provider.Metrics()
	audit := provider.Audit()
	if audit != nil {
		audit = audit.WithLogger(logger)
	}

	location := timestamp.LoadLocation(cfg.Timezone, time.UTC)

	order, err := calendar_tools.ParseRescheduleOrder(cfg.RescheduleOrder)
	if err != nil {
		return nil, err
	}
	registry, err := calendar_tools.NewRegistry(calendar_tools.Config{
		RescheduleOrder:  order,
		RangeConcurrency: cfg.RangeConcurrency,
		RangeRate:        cfg.RangeRate,
		Metrics:          metrics,
		Audit:            audit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build tool registry: %w", err)
	}

	executor, err := tools.NewExecutor(tools.ExecutorConfig{
		Registry:        registry,
		Services:        calendarServices(cfg, metrics, logger),
		DefaultLocation: location,
		Logger:          logger,
	})
	if err != nil {
		return nil, err
	}

	validator, err := calendar.NewValidator(ctx, calendar.ValidatorOptions{
		Timeout: cfg.CalendarTimeout,
		Metrics: metrics,
	})
	if err != nil {
		return nil, err
	}

	model, err := llm.NewChatClient(llm.Options{
		Endpoint:    cfg.ModelEndpoint,
		APIKey:      cfg.ModelAPIKey,
		Model:       cfg.ModelName,
		Temperature: cfg.ModelTemperature,
		MaxTokens:   cfg.ModelMaxTokens,
		Timeout:     cfg.ModelTimeout,
		Metrics:     metrics,
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}

	agentCfg := agent.Config{
		Model:           model,
		Prompt:          llm.Prompt{Contract: calendar_tools.Contract()},
		Tools:           executor,
		Validator:       validator,
		MaxTurns:        cfg.MaxTurns,
		RunTimeout:      cfg.RunTimeout,
		DefaultLocation: location,
		Metrics:         metrics,
		Logger:          logger,
	}
	if cfg.GuardPolicy != "" {
		policy, err := guardrail.ParsePolicy(cfg.GuardPolicy)
		if err != nil {
			return nil, err
		}
		guard, err := guardrail.New(model, policy, logger)
		if err != nil {
			return nil, err
		}
		agentCfg.Guard = guard
	}

	orchestrator, err := agent.New(agentCfg)
	if err != nil {
		return nil, err
	}

	logger.Debug("planner wired",
		slog.String("model", model.Model()),
		logging.Timezone(location.String()),
		slog.Bool("guardrail", agentCfg.Guard != nil),
	)

	return &app{
		cfg:          cfg,
		logger:       logger,
		provider:     provider,
		location:     location,
		model:        model.Model(),
		executor:     executor,
		orchestrator: orchestrator,
	}, nil
}

func (a *app) shutdown(ctx context.Context) {
	if err := a.provider.Shutdown(ctx); err != nil {
		a.logger.Warn("instrumentation shutdown failed", logging.Err(err))
	}
}

// calendarServices returns the factory that binds a Calendar client to
// each request's credential.
func calendarServices(cfg config, metrics *instrumentation.Metrics, logger *slog.Logger) tools.ServiceFactory {
	return func(ctx context.Context, credential string) (tools.Service, error) {
		return calendar.NewClient(ctx, credential, calendar.Options{
			Timeout: cfg.CalendarTimeout,
			Metrics: metrics,
			Logger:  logger,
		})
	}
}

// resolveCredential returns the access token local commands act with.
func resolveCredential(ctx context.Context, cfg config) (string, error) {
	store, err := google.DefaultTokenStore()
	if err != nil {
		return "", err
	}
	provider, err := google.NewTokenProvider(google.ProviderOptions{
		Token:   cfg.Token,
		UseADC:  cfg.UseADC,
		Account: cfg.Account,
		Store:   store,
		Client:  oauthClient(cfg),
	})
	if err != nil {
		return "", err
	}
	return provider.AccessToken(ctx)
}

func oauthClient(cfg config) google.OAuthClient {
	return google.OAuthClient{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
	}
}
