package tools

import (
	"errors"
	"fmt"

	"github.com/teemow/planner/internal/calendar"
	"github.com/teemow/planner/internal/command"
)

// ArgumentError reports a missing or invalid argument for a known tool.
type ArgumentError struct {
	Tool    command.Name
	Arg     string
	Missing bool
	Reason  string
}

func (e *ArgumentError) Error() string {
	target := ""
	if e.Tool != "" {
		target = " for " + string(e.Tool)
	}
	if e.Missing {
		return fmt.Sprintf("missing required argument %q%s", e.Arg, target)
	}
	return fmt.Sprintf("invalid argument %q%s: %s", e.Arg, target, e.Reason)
}

// MissingArgument returns an ArgumentError for an absent argument.
func MissingArgument(arg string) *ArgumentError {
	return &ArgumentError{Arg: arg, Missing: true}
}

// InvalidArgument returns an ArgumentError for an argument with a bad value.
func InvalidArgument(arg, format string, a ...any) *ArgumentError {
	return &ArgumentError{Arg: arg, Reason: fmt.Sprintf(format, a...)}
}

// CompoundState names the inconsistent state a partially applied reschedule
// left behind.
type CompoundState string

const (
	// DeletedNotRecreated: the original event is gone and no replacement exists.
	DeletedNotRecreated CompoundState = "deleted_not_recreated"

	// CreatedNotDeleted: the replacement exists and so does the original.
	CreatedNotDeleted CompoundState = "created_not_deleted"

	// CreatedOriginalMissing: the replacement exists but the original id
	// was unknown to the provider, so it may have pointed at another event.
	CreatedOriginalMissing CompoundState = "created_original_missing"
)

// CompoundOperationError reports a reschedule whose second step failed after
// the first one was applied.
type CompoundOperationError struct {
	State      CompoundState
	OldEventID string
	NewEventID string
	Err        error
}

func (e *CompoundOperationError) Error() string {
	switch e.State {
	case DeletedNotRecreated:
		return fmt.Sprintf("reschedule incomplete: the original event %s was deleted but the new event could not be created (%v). "+
			"The old event is gone and no replacement exists. Create the new event again with add_event; do not retry the deletion.",
			e.OldEventID, e.Err)
	case CreatedNotDeleted:
		return fmt.Sprintf("reschedule incomplete: the new event %s was created but the original event %s could not be deleted (%v). "+
			"Both events exist now. Delete the original with delete_event; do not create the new event again.",
			e.NewEventID, e.OldEventID, e.Err)
	case CreatedOriginalMissing:
		return fmt.Sprintf("reschedule incomplete: the new event %s was created but the original event %s was not found. "+
			"List events to check whether the original still exists under another ID and is now duplicated; do not retry delete_event with %s.",
			e.NewEventID, e.OldEventID, e.OldEventID)
	default:
		return fmt.Sprintf("reschedule incomplete (%s): %v", e.State, e.Err)
	}
}

func (e *CompoundOperationError) Unwrap() error { return e.Err }

// GuidanceError carries a handler-chosen message that is shown to the model
// verbatim instead of the default rendering of Err.
type GuidanceError struct {
	Text string
	Err  error
}

func (e *GuidanceError) Error() string { return e.Text }

func (e *GuidanceError) Unwrap() error { return e.Err }

// Texts shown to the model for common failures.
const (
	NotFoundText     = "Error: Event not found. Please list events to get the correct ID."
	UnknownToolText  = "Unknown tool: %s"
	networkErrorText = "Error: could not reach Google Calendar during %s (%v). The change may or may not have been applied; list events before retrying."
	timeoutErrorText = "Error: Google Calendar did not answer in time during %s. The change may or may not have been applied; list events before retrying."
)

// RenderError converts a handler error into the text the model sees.
func RenderError(err error) string {
	var (
		guidance *GuidanceError
		argErr   *ArgumentError
		compound *CompoundOperationError
		provider *calendar.ProviderError
		network  *calendar.NetworkError
	)

	switch {
	case errors.As(err, &guidance):
		return guidance.Text
	case errors.As(err, &argErr):
		return "Error: " + argErr.Error() + "."
	case errors.As(err, &compound):
		return "Error: " + compound.Error()
	case errors.As(err, &provider) && provider.NotFound():
		return NotFoundText
	case errors.As(err, &provider):
		return "Error: " + provider.Error()
	case errors.As(err, &network) && network.Timeout():
		return fmt.Sprintf(timeoutErrorText, network.Op)
	case errors.As(err, &network):
		return fmt.Sprintf(networkErrorText, network.Op, network.Err)
	default:
		return "Error: " + err.Error()
	}
}
