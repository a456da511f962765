package calendar_tools

import (
	"fmt"

	"golang.org/x/time/rate"

	"github.com/teemow/planner/internal/command"
	"github.com/teemow/planner/internal/instrumentation"
	"github.com/teemow/planner/internal/tools"
	"github.com/teemow/planner/internal/tools/batch"
	"github.com/teemow/planner/internal/tools/common"
)

// Config tunes the compound tools.
type Config struct {
	// RescheduleOrder defaults to RescheduleCreateFirst.
	RescheduleOrder RescheduleOrder

	// RangeConcurrency bounds parallel deletions in delete_events_in_range.
	// Zero means one at a time.
	RangeConcurrency int

	// RangeRate caps deletions per second. Zero means unlimited.
	RangeRate float64

	// Metrics and Audit instrument every handler. Both may be nil.
	Metrics *instrumentation.Metrics
	Audit   *instrumentation.AuditLogger
}

type handlers struct {
	rescheduleOrder  RescheduleOrder
	rangeConcurrency int
	rangeRate        float64
}

func (h *handlers) rangeOptions() batch.Options {
	opts := batch.Options{Concurrency: h.rangeConcurrency}
	if h.rangeRate > 0 {
		// Per call; concurrent runs do not share a budget.
		opts.Limiter = rate.NewLimiter(rate.Limit(h.rangeRate), 1)
	}
	return opts
}

// NewRegistry returns a registry with every calendar tool registered and
// instrumented.
func NewRegistry(cfg Config) (*tools.Registry, error) {
	if cfg.RescheduleOrder == "" {
		cfg.RescheduleOrder = RescheduleCreateFirst
	}
	if _, err := ParseRescheduleOrder(string(cfg.RescheduleOrder)); err != nil {
		return nil, err
	}
	if cfg.RangeConcurrency < 0 {
		return nil, fmt.Errorf("range concurrency must not be negative, got %d", cfg.RangeConcurrency)
	}
	if cfg.RangeRate < 0 {
		return nil, fmt.Errorf("range rate must not be negative, got %v", cfg.RangeRate)
	}

	h := &handlers{
		rescheduleOrder:  cfg.RescheduleOrder,
		rangeConcurrency: cfg.RangeConcurrency,
		rangeRate:        cfg.RangeRate,
	}

	registry, err := tools.NewRegistry(map[command.Name]tools.Handler{
		command.ListEvents:          handleListEvents,
		command.AddEvent:            handleAddEvent,
		command.UpdateEvent:         handleUpdateEvent,
		command.DeleteEvent:         handleDeleteEvent,
		command.RescheduleEvent:     h.handleRescheduleEvent,
		command.DeleteEventsInRange: h.handleDeleteEventsInRange,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register calendar tools: %w", err)
	}

	return registry.Wrap(func(name command.Name, handler tools.Handler) tools.Handler {
		return common.Instrumented(name, cfg.Metrics, cfg.Audit, handler)
	}), nil
}
