// Package instrumentation provides OpenTelemetry metrics, tracing and audit
// logging for the planner.
//
// # Metrics
//
// HTTP:
//   - http_requests_total, http_request_duration_seconds (method, path, status)
//
// Google Calendar API:
//   - calendar_api_operations_total, calendar_api_operation_duration_seconds
//     (service, operation, status)
//   - credential_validations_total (result)
//
// Tools and orchestration:
//   - tool_invocations_total, tool_duration_seconds (tool, status[, region])
//   - model_calls_total, model_call_duration_seconds (status)
//   - orchestration_runs_total, orchestration_run_turns (status)
//   - orchestration_active_runs
//
// # Tracing
//
// Spans are created for each run (agent.run), each tool invocation
// (tool.<name>), each Google API call (google.<service>.<operation>) and each
// model completion (llm.generate).
//
// # Configuration
//
// Instrumentation is configured via environment variables:
//   - INSTRUMENTATION_ENABLED: enable/disable instrumentation (default: true)
//   - METRICS_EXPORTER: prometheus, otlp or stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout or none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: sampling rate (0.0 to 1.0, default: 0.1)
//   - OTEL_SERVICE_NAME: service name (default: planner)
//   - AUDIT_LOGGING_ENABLED, AUDIT_LOGGING_INCLUDE_RESOURCE_IDS
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	provider.Metrics().RecordCalendarOperation(ctx, instrumentation.OperationList, instrumentation.StatusSuccess, time.Since(start))
package instrumentation
