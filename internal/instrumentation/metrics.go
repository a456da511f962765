package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys.
const (
	attrMethod    = "method"
	attrPath      = "path"
	attrStatus    = "status"
	attrOperation = "operation"
	attrService   = "service"
	attrResult    = "result"
	attrTool      = "tool"
	attrRegion    = "region"
)

// Metrics provides methods for recording observability metrics.
// A zero Metrics is a valid no-op recorder.
type Metrics struct {
	// HTTP metrics
	httpRequestsTotal   metric.Int64Counter
	httpRequestDuration metric.Float64Histogram

	// Calendar API metrics
	calendarOperationsTotal   metric.Int64Counter
	calendarOperationDuration metric.Float64Histogram

	// Credential metrics
	credentialValidationsTotal metric.Int64Counter

	// Tool metrics
	toolInvocationsTotal metric.Int64Counter
	toolDuration         metric.Float64Histogram

	// Model metrics
	modelCallsTotal   metric.Int64Counter
	modelCallDuration metric.Float64Histogram

	// Orchestration metrics
	runsTotal  metric.Int64Counter
	runTurns   metric.Int64Histogram
	activeRuns metric.Int64UpDownCounter

	detailedLabels bool
}

var defaultLatencyBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0}

// NewMetrics creates a new Metrics instance with all instruments registered on meter.
// detailedLabels controls whether the time zone region label is attached to tool metrics.
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	m := &Metrics{
		detailedLabels: detailedLabels,
	}

	var err error

	m.httpRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_requests_total counter: %w", err)
	}

	m.httpRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 120.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_request_duration_seconds histogram: %w", err)
	}

	m.calendarOperationsTotal, err = meter.Int64Counter(
		"calendar_api_operations_total",
		metric.WithDescription("Total number of Google Calendar API operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar_api_operations_total counter: %w", err)
	}

	m.calendarOperationDuration, err = meter.Float64Histogram(
		"calendar_api_operation_duration_seconds",
		metric.WithDescription("Google Calendar API operation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(defaultLatencyBuckets...),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar_api_operation_duration_seconds histogram: %w", err)
	}

	m.credentialValidationsTotal, err = meter.Int64Counter(
		"credential_validations_total",
		metric.WithDescription("Total number of caller credential validations"),
		metric.WithUnit("{validation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create credential_validations_total counter: %w", err)
	}

	m.toolInvocationsTotal, err = meter.Int64Counter(
		"tool_invocations_total",
		metric.WithDescription("Total number of calendar tool invocations"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tool_invocations_total counter: %w", err)
	}

	m.toolDuration, err = meter.Float64Histogram(
		"tool_duration_seconds",
		metric.WithDescription("Calendar tool execution duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(defaultLatencyBuckets...),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tool_duration_seconds histogram: %w", err)
	}

	m.modelCallsTotal, err = meter.Int64Counter(
		"model_calls_total",
		metric.WithDescription("Total number of language model calls"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create model_calls_total counter: %w", err)
	}

	m.modelCallDuration, err = meter.Float64Histogram(
		"model_call_duration_seconds",
		metric.WithDescription("Language model call duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 20.0, 30.0, 60.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create model_call_duration_seconds histogram: %w", err)
	}

	m.runsTotal, err = meter.Int64Counter(
		"orchestration_runs_total",
		metric.WithDescription("Total number of orchestration runs by outcome"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create orchestration_runs_total counter: %w", err)
	}

	m.runTurns, err = meter.Int64Histogram(
		"orchestration_run_turns",
		metric.WithDescription("Model to tool round trips per orchestration run"),
		metric.WithUnit("{turn}"),
		metric.WithExplicitBucketBoundaries(0, 1, 2, 3, 4, 6, 8, 12, 16),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create orchestration_run_turns histogram: %w", err)
	}

	m.activeRuns, err = meter.Int64UpDownCounter(
		"orchestration_active_runs",
		metric.WithDescription("Number of orchestration runs in progress"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create orchestration_active_runs gauge: %w", err)
	}

	return m, nil
}

// RecordHTTPRequest records an HTTP request with method, route pattern, status code, and duration.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if m == nil || m.httpRequestsTotal == nil || m.httpRequestDuration == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrMethod, method),
		attribute.String(attrPath, path),
		attribute.String(attrStatus, strconv.Itoa(statusCode)),
	)

	m.httpRequestsTotal.Add(ctx, 1, attrs)
	m.httpRequestDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordCalendarOperation records a Google Calendar API call.
//
// Parameters:
//   - operation: list, create, patch or delete
//   - status: "success" or "error"
//   - duration: time taken including retries
func (m *Metrics) RecordCalendarOperation(ctx context.Context, operation, status string, duration time.Duration) {
	if m == nil || m.calendarOperationsTotal == nil || m.calendarOperationDuration == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrService, ServiceCalendar),
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	)

	m.calendarOperationsTotal.Add(ctx, 1, attrs)
	m.calendarOperationDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordCredentialValidation records the outcome of a credential check.
// Result should be one of the Credential* constants.
func (m *Metrics) RecordCredentialValidation(ctx context.Context, result string) {
	if m == nil || m.credentialValidationsTotal == nil {
		return
	}

	m.credentialValidationsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrResult, result)))
}

// RecordToolInvocation records a calendar tool invocation.
// region is only attached when detailed labels are enabled.
func (m *Metrics) RecordToolInvocation(ctx context.Context, toolName, status, region string, duration time.Duration) {
	if m == nil || m.toolInvocationsTotal == nil || m.toolDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrTool, toolName),
		attribute.String(attrStatus, status),
	}
	if m.detailedLabels && region != "" {
		attrs = append(attrs, attribute.String(attrRegion, region))
	}

	m.toolInvocationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.toolDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordModelCall records a language model completion request.
func (m *Metrics) RecordModelCall(ctx context.Context, status string, duration time.Duration) {
	if m == nil || m.modelCallsTotal == nil || m.modelCallDuration == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String(attrStatus, status))
	m.modelCallsTotal.Add(ctx, 1, attrs)
	m.modelCallDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordRun records a finished orchestration run and the number of turns it used.
func (m *Metrics) RecordRun(ctx context.Context, status string, turns int) {
	if m == nil || m.runsTotal == nil || m.runTurns == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String(attrStatus, status))
	m.runsTotal.Add(ctx, 1, attrs)
	m.runTurns.Record(ctx, int64(turns), attrs)
}

// IncrementActiveRuns increments the in-flight run gauge.
func (m *Metrics) IncrementActiveRuns(ctx context.Context) {
	if m == nil || m.activeRuns == nil {
		return
	}
	m.activeRuns.Add(ctx, 1)
}

// DecrementActiveRuns decrements the in-flight run gauge.
func (m *Metrics) DecrementActiveRuns(ctx context.Context) {
	if m == nil || m.activeRuns == nil {
		return
	}
	m.activeRuns.Add(ctx, -1)
}
