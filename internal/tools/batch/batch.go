package batch

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Item statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// DefaultConcurrency is used when Options.Concurrency is not positive.
const DefaultConcurrency = 1

// Result represents the result of a single operation in a batch
type Result struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Result string `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`

	Err error `json:"-"`
}

// Succeeded reports whether the item completed.
func (r Result) Succeeded() bool {
	return r.Status == StatusSuccess
}

// Options bounds how a batch is executed.
type Options struct {
	// Concurrency is the number of items in flight at once.
	Concurrency int

	// Limiter, when set, paces item starts.
	Limiter *rate.Limiter
}

// Process runs fn for every id and returns one Result per id, in input
// order. Items that could not start because ctx ended are reported as
// errors.
func Process(ctx context.Context, ids []string, opts Options, fn func(ctx context.Context, id string) (string, error)) []Result {
	results := make([]Result, len(ids))
	if len(ids) == 0 {
		return results
	}

	limit := opts.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	var g errgroup.Group
	g.SetLimit(limit)

	for i, id := range ids {
		g.Go(func() error {
			if opts.Limiter != nil {
				if err := opts.Limiter.Wait(ctx); err != nil {
					results[i] = NewErrorResult(id, fmt.Errorf("not attempted: %w", err))
					return nil
				}
			}
			if err := ctx.Err(); err != nil {
				results[i] = NewErrorResult(id, fmt.Errorf("not attempted: %w", err))
				return nil
			}

			res, err := fn(ctx, id)
			if err != nil {
				results[i] = NewErrorResult(id, err)
				return nil
			}
			results[i] = NewSuccessResult(id, res)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// Counts returns the number of succeeded and failed items.
func Counts(results []Result) (succeeded, failed int) {
	for _, r := range results {
		if r.Succeeded() {
			succeeded++
		} else {
			failed++
		}
	}
	return succeeded, failed
}

// FailedIDs returns the ids of failed items in input order.
func FailedIDs(results []Result) []string {
	var ids []string
	for _, r := range results {
		if !r.Succeeded() {
			ids = append(ids, r.ID)
		}
	}
	return ids
}

// NewSuccessResult creates a success result
func NewSuccessResult(id, message string) Result {
	return Result{
		ID:     id,
		Status: StatusSuccess,
		Result: message,
	}
}

// NewErrorResult creates an error result
func NewErrorResult(id string, err error) Result {
	return Result{
		ID:     id,
		Status: StatusError,
		Error:  err.Error(),
		Err:    err,
	}
}
