package common

import (
	"context"

	"github.com/teemow/planner/internal/command"
	"github.com/teemow/planner/internal/instrumentation"
	"github.com/teemow/planner/internal/tools"
)

// Instrumented wraps a tool handler with a span, the tool metrics and an
// audit record. Metrics and audit may be nil.
//
// Usage:
//
//	registry = registry.Wrap(func(name command.Name, h tools.Handler) tools.Handler {
//	    return common.Instrumented(name, metrics, audit, h)
//	})
func Instrumented(
	name command.Name,
	metrics *instrumentation.Metrics,
	audit *instrumentation.AuditLogger,
	handler tools.Handler,
) tools.Handler {
	return func(ctx context.Context, call *tools.Call) (string, error) {
		resourceID := ResourceID(call.Args)

		attrs := instrumentation.NewSpanAttributeBuilder().
			WithRun(call.RunID, call.Turn).
			WithResource("event", resourceID).
			WithReadOnly(name == command.ListEvents).
			Build()
		ctx, span := instrumentation.StartToolSpan(ctx, string(name), attrs...)
		defer span.End()

		invocation := instrumentation.NewToolInvocation(string(name)).
			WithRun(call.RunID, call.Turn).
			WithResource(resourceID).
			WithSpanContext(ctx)
		if call.Session != nil {
			invocation.WithCaller(call.Session.Credential, call.Session.Timezone)
		}

		text, err := handler(ctx, call)

		if err != nil {
			instrumentation.SetSpanError(span, err)
			invocation.CompleteWithError(err)
		} else {
			instrumentation.SetSpanSuccess(span)
			invocation.CompleteSuccess()
		}

		metrics.RecordToolInvocation(ctx, string(name), invocation.Status(), invocation.Region(), invocation.Duration)
		audit.LogToolInvocation(invocation)

		return text, err
	}
}
