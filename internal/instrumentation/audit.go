package instrumentation

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// ToolInvocation captures one calendar tool call for the audit trail.
type ToolInvocation struct {
	Tool string

	// Caller identity. Only a fingerprint of the credential is kept.
	CredentialID string
	Timezone     string

	RunID      string
	Turn       int
	ResourceID string

	StartTime time.Time
	Duration  time.Duration
	Success   bool
	Error     string

	TraceID string
	SpanID  string
}

// NewToolInvocation creates a ToolInvocation with timing started.
// Call Complete when the tool finishes.
func NewToolInvocation(tool string) *ToolInvocation {
	return &ToolInvocation{
		Tool:      tool,
		StartTime: time.Now(),
	}
}

// WithCaller records a fingerprint of the credential and the caller's zone.
func (ti *ToolInvocation) WithCaller(credential, timezone string) *ToolInvocation {
	ti.CredentialID = CredentialFingerprint(credential)
	ti.Timezone = timezone
	return ti
}

// WithRun sets the orchestration run the call belongs to.
func (ti *ToolInvocation) WithRun(runID string, turn int) *ToolInvocation {
	ti.RunID = runID
	ti.Turn = turn
	return ti
}

// WithResource sets the event id the call targeted.
func (ti *ToolInvocation) WithResource(id string) *ToolInvocation {
	ti.ResourceID = id
	return ti
}

// WithSpanContext copies trace ids from the span in ctx.
func (ti *ToolInvocation) WithSpanContext(ctx context.Context) *ToolInvocation {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if sc.IsValid() {
		ti.TraceID = sc.TraceID().String()
		ti.SpanID = sc.SpanID().String()
	}
	return ti
}

// Complete marks the invocation finished and computes its duration.
func (ti *ToolInvocation) Complete(success bool, err error) *ToolInvocation {
	ti.Duration = time.Since(ti.StartTime)
	ti.Success = success
	if err != nil {
		ti.Error = err.Error()
	}
	return ti
}

// CompleteWithError marks the invocation as failed.
func (ti *ToolInvocation) CompleteWithError(err error) *ToolInvocation {
	return ti.Complete(false, err)
}

// CompleteSuccess marks the invocation as successful.
func (ti *ToolInvocation) CompleteSuccess() *ToolInvocation {
	return ti.Complete(true, nil)
}

// Status returns "success" or "error".
func (ti *ToolInvocation) Status() string {
	if ti.Success {
		return StatusSuccess
	}
	return StatusError
}

// Region returns the low-cardinality form of the caller's zone.
func (ti *ToolInvocation) Region() string {
	return ZoneRegion(ti.Timezone)
}

// LogAttrs returns the structured fields of the audit line.
func (ti *ToolInvocation) LogAttrs(includeResourceIDs bool) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("tool", ti.Tool),
		slog.Duration("duration", ti.Duration),
		slog.Bool("success", ti.Success),
	}

	if ti.RunID != "" {
		attrs = append(attrs, slog.String("run_id", ti.RunID), slog.Int("turn", ti.Turn))
	}
	if ti.CredentialID != "" {
		attrs = append(attrs, slog.String("credential_id", ti.CredentialID))
	}
	if ti.Timezone != "" {
		attrs = append(attrs, slog.String("region", ti.Region()))
	}
	if includeResourceIDs && ti.ResourceID != "" {
		attrs = append(attrs, slog.String("resource_id", ti.ResourceID))
	}
	if ti.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", ti.TraceID), slog.String("span_id", ti.SpanID))
	}
	if ti.Error != "" {
		attrs = append(attrs, slog.String("error", ti.Error))
	}

	return attrs
}

// AuditLogger writes one structured line per tool invocation.
type AuditLogger struct {
	logger             *slog.Logger
	includeResourceIDs bool
	enabled            bool
}

// NewAuditLogger creates an enabled AuditLogger that omits resource ids.
// A nil logger means slog.Default.
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return NewAuditLoggerWithConfig(logger, AuditLoggingConfig{Enabled: true})
}

// NewAuditLoggerWithConfig creates an AuditLogger with the given configuration.
func NewAuditLoggerWithConfig(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:             logger,
		includeResourceIDs: config.IncludeResourceIDs,
		enabled:            config.Enabled,
	}
}

// WithLogger returns a copy of the audit logger writing to logger.
func (al *AuditLogger) WithLogger(logger *slog.Logger) *AuditLogger {
	cp := *al
	if logger != nil {
		cp.logger = logger
	}
	return &cp
}

// LogToolInvocation emits "tool_executed" at info level or "tool_failed" at warn level.
func (al *AuditLogger) LogToolInvocation(ti *ToolInvocation) {
	if al == nil || !al.enabled {
		return
	}

	attrs := ti.LogAttrs(al.includeResourceIDs)
	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}

	if ti.Success {
		al.logger.Info("tool_executed", args...)
	} else {
		al.logger.Warn("tool_failed", args...)
	}
}
